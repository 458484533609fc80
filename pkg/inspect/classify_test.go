package inspect

import (
	"testing"

	"github.com/matzehuels/ifcwatch/pkg/payload"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   payload.Input
		want Category
	}{
		{"null", parse(t, `null`), CategoryAbsent},
		{"blank document", parse(t, ``), CategoryAbsent},
		{"empty array", parse(t, `[]`), CategoryAbsent},
		{"records by type", parse(t, `[{"type": "IfcWall"}]`), CategoryDomainRecordArray},
		{"records by expressId", parse(t, `[{"expressId": 5}]`), CategoryDomainRecordArray},
		{"array of numbers", parse(t, `[1, 2, 3]`), CategoryPlainObject},
		{"array of plain objects", parse(t, `[{"a": 1}]`), CategoryPlainObject},
		{"plain object", parse(t, `{"a": 1, "b": "x"}`), CategoryPlainObject},
		{"tagged aggregation", tagged(t, payload.KindPropertyResults, `{"elements": []}`), CategoryPropertyAggregation},
		{"untagged aggregation", tagged(t, payload.KindUnknown, `{"propertyName": "X", "elements": []}`), CategoryPropertyAggregation},
		{"inferred object aggregation", parse(t, aggregationDoc(2)), CategoryPropertyAggregation},
		{"untagged without propertyName", tagged(t, payload.KindUnknown, `{"elements": []}`), CategoryPlainObject},
		{"tagged elements not a list", tagged(t, payload.KindPropertyResults, `{"elements": 3}`), CategoryPlainObject},
		{"primitive tag wins", tagged(t, payload.KindPrimitive, `{"propertyName": "X", "elements": []}`), CategoryPlainObject},
		{"string", parse(t, `"hello"`), CategoryPrimitive},
		{"number", parse(t, `42`), CategoryPrimitive},
		{"bool", parse(t, `false`), CategoryPrimitive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.in).Category(); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyEmptyFlag(t *testing.T) {
	if a, ok := Classify(parse(t, `[]`)).(Absent); !ok || !a.Empty {
		t.Errorf("empty array: got %#v, want Absent{Empty: true}", Classify(parse(t, `[]`)))
	}
	if a, ok := Classify(parse(t, `null`)).(Absent); !ok || a.Empty {
		t.Errorf("null: got %#v, want Absent{Empty: false}", Classify(parse(t, `null`)))
	}
}

func TestClassifyInspectsFirstElementOnly(t *testing.T) {
	if got := Classify(parse(t, `[1, {"type": "IfcWall"}]`)).Category(); got != CategoryPlainObject {
		t.Errorf("record after scalar: got %v, want plainObject", got)
	}
	if got := Classify(parse(t, `[{"type": "IfcWall"}, 1]`)).Category(); got != CategoryDomainRecordArray {
		t.Errorf("scalar after record: got %v, want domainRecordArray", got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	in := parse(t, recordsDoc(4))
	first := Classify(in).Category()
	for i := 0; i < 10; i++ {
		if got := Classify(in).Category(); got != first {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

func TestClassifyNormalizesGoMaps(t *testing.T) {
	in := payload.Input{Kind: payload.KindPropertyResults, Value: map[string]any{
		"propertyName": "FireRating",
		"elements":     []any{},
	}}
	if got := Classify(in).Category(); got != CategoryPropertyAggregation {
		t.Errorf("got %v, want propertyAggregation", got)
	}

	tests := []struct {
		name  string
		value any
		want  Category
	}{
		{"maps in []any", []any{
			map[string]any{"type": "IfcWall"},
			map[string]any{"type": "IfcWall"},
			map[string]any{"type": "IfcDoor"},
		}, CategoryDomainRecordArray},
		{"typed map slice", []map[string]any{{"type": "IfcWall"}}, CategoryDomainRecordArray},
		{"typed map slice without type", []map[string]any{{"a": 1}}, CategoryPlainObject},
		{"string map", map[string]string{"a": "b"}, CategoryPlainObject},
		{"int slice", []int{1, 2}, CategoryPlainObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(payload.Input{Kind: payload.KindArray, Value: tt.value}).Category()
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderSummaryOfGoMaps(t *testing.T) {
	in := payload.Input{Kind: payload.KindArray, Value: []any{
		map[string]any{"type": "IfcWall"},
		map[string]any{"type": "IfcWall"},
		map[string]any{"type": "IfcDoor"},
	}}
	b := Render(in, ModeSummary, Options{})
	if b.Renderer != RendererSummary {
		t.Fatalf("renderer = %v, want summary", b.Renderer)
	}
	if b.Total != 3 {
		t.Errorf("total = %d, want 3", b.Total)
	}
}

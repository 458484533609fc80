package inspect

import (
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// parse decodes a JSON document into an input with an inferred kind.
func parse(t *testing.T, doc string) payload.Input {
	t.Helper()
	in, err := payload.Parse([]byte(doc), payload.FormatJSON)
	if err != nil {
		t.Fatalf("Parse(%q): %v", doc, err)
	}
	return in
}

// tagged is parse with an explicit producer kind.
func tagged(t *testing.T, kind payload.Kind, doc string) payload.Input {
	t.Helper()
	in := parse(t, doc)
	in.Kind = kind
	return in
}

// recordsDoc builds a JSON array of n wall records.
func recordsDoc(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"expressId": %d, "type": "IfcWall", "properties": {"Name": "W%d"}}`, i+1, i+1)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// aggregationDoc builds a property aggregation with n elements.
func aggregationDoc(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"id": %d, "type": "IfcWall", "Name": "W%d", "GlobalId": "g%d", "value": %t}`, i+1, i+1, i+1, i%2 == 0)
	}
	return fmt.Sprintf(`{
		"propertyName": "IsExternal",
		"psetName": "Pset_WallCommon",
		"totalElements": 10,
		"elementsWithProperty": %d,
		"uniqueValues": [true, false],
		"elements": [%s]
	}`, n, strings.Join(parts, ","))
}

package payload

// Aggregation is a property aggregation result: how many elements carry a
// given property, its distinct values and the elements themselves.
type Aggregation struct {
	PropertyName         string
	PsetName             string
	TotalElements        int
	ElementsWithProperty int
	UniqueValues         []any
	Elements             []AggregatedElement
}

// AggregatedElement is one element listed in an aggregation result.
type AggregatedElement struct {
	ID       any
	Type     string
	Name     any
	GlobalID string
	Value    any
}

// HasAggregationShape reports whether v is an object whose "elements" field
// is a sequence.
func HasAggregationShape(v any) bool {
	obj, ok := v.(*Object)
	if !ok {
		return false
	}
	elems, ok := obj.Get("elements")
	if !ok {
		return false
	}
	_, ok = elems.([]any)
	return ok
}

// ParseAggregation reads an aggregation result from an object. Elements
// that are not objects are skipped; missing counters read as zero.
func ParseAggregation(v any) (Aggregation, bool) {
	if !HasAggregationShape(v) {
		return Aggregation{}, false
	}
	obj := v.(*Object)

	agg := Aggregation{
		PropertyName: stringField(obj, "propertyName"),
		PsetName:     stringField(obj, "psetName"),
	}
	if n, ok := obj.Get("totalElements"); ok {
		agg.TotalElements, _ = toInt(n)
	}
	if n, ok := obj.Get("elementsWithProperty"); ok {
		agg.ElementsWithProperty, _ = toInt(n)
	}
	if uv, ok := obj.Get("uniqueValues"); ok {
		if list, ok := uv.([]any); ok {
			agg.UniqueValues = list
		}
	}

	elems, _ := obj.Get("elements")
	for _, e := range elems.([]any) {
		eo, ok := e.(*Object)
		if !ok {
			continue
		}
		el := AggregatedElement{
			Type:     stringField(eo, "type"),
			GlobalID: stringField(eo, "GlobalId"),
		}
		if id, ok := eo.Get("id"); ok && id != nil {
			el.ID = id
		} else if id, ok := eo.Get("expressId"); ok {
			el.ID = id
		}
		if name, ok := eo.Get("Name"); ok && !zeroScalar(name) {
			el.Name = name
		}
		el.Value, _ = eo.Get("value")
		agg.Elements = append(agg.Elements, el)
	}
	return agg, true
}

func stringField(obj *Object, key string) string {
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

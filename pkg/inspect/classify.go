package inspect

import (
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// Category is the coarse shape of a payload.
type Category int

// Payload categories.
const (
	CategoryAbsent Category = iota
	CategoryDomainRecordArray
	CategoryPropertyAggregation
	CategoryPlainObject
	CategoryPrimitive
)

var categoryNames = map[Category]string{
	CategoryAbsent:              "absent",
	CategoryDomainRecordArray:   "domainRecordArray",
	CategoryPropertyAggregation: "propertyAggregation",
	CategoryPlainObject:         "plainObject",
	CategoryPrimitive:           "primitive",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "unknown"
}

// Shape is the closed set of payload variants a renderer can take.
// The concrete types are Absent, Records, Aggregation, Mapping and Scalar.
type Shape interface {
	Category() Category
	isShape()
}

// Absent is a payload without data. Empty is set for a present but empty
// sequence.
type Absent struct {
	Empty bool
}

// Records is a non-empty sequence whose first element is a domain record.
type Records struct {
	Items []any
}

// Aggregation is a property aggregation result.
type Aggregation struct {
	Result payload.Aggregation
	Value  *payload.Object
}

// Mapping is any other object, or a sequence of non-records. Sequences are
// shown with their indices as keys.
type Mapping struct {
	Value any
}

// Scalar is a string, number or boolean.
type Scalar struct {
	Value any
}

func (Absent) Category() Category      { return CategoryAbsent }
func (Records) Category() Category     { return CategoryDomainRecordArray }
func (Aggregation) Category() Category { return CategoryPropertyAggregation }
func (Mapping) Category() Category     { return CategoryPlainObject }
func (Scalar) Category() Category      { return CategoryPrimitive }

func (Absent) isShape()      {}
func (Records) isShape()     {}
func (Aggregation) isShape() {}
func (Mapping) isShape()     {}
func (Scalar) isShape()      {}

// Classify assigns a payload its shape.
//
// The checks run in a fixed order:
//
//  1. nil → Absent; an empty sequence → Absent{Empty: true}
//  2. a sequence whose first element is an object with "type" or
//     "expressId" → Records (only the first element is inspected)
//  3. an object whose "elements" field is a sequence, when the producer
//     tagged the payload as propertyResults → Aggregation; untagged or
//     generic object payloads also need a "propertyName" field
//  4. any other object or sequence → Mapping
//  5. everything else → Scalar
//
// Go maps, typed slices and structs are normalized first, so a payload
// built by hand classifies like its decoded equivalent. The result depends
// only on the value and its tag.
func Classify(in payload.Input) Shape {
	v := payload.Tree(in.Value)

	switch t := v.(type) {
	case nil:
		return Absent{}
	case []any:
		if len(t) == 0 {
			return Absent{Empty: true}
		}
		if _, ok := payload.AsRecord(t[0]); ok {
			return Records{Items: t}
		}
		return Mapping{Value: t}
	case *payload.Object:
		if t == nil {
			return Absent{}
		}
		if isAggregation(in.Kind, t) {
			agg, _ := payload.ParseAggregation(t)
			return Aggregation{Result: agg, Value: t}
		}
		return Mapping{Value: t}
	default:
		return Scalar{Value: t}
	}
}

func isAggregation(kind payload.Kind, obj *payload.Object) bool {
	if !payload.HasAggregationShape(obj) {
		return false
	}
	switch kind {
	case payload.KindPropertyResults:
		return true
	case payload.KindUnknown, payload.KindObject, "":
		return obj.Has("propertyName")
	}
	return false
}

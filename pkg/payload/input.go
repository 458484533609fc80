package payload

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// Kind is the tag a producer attaches to a payload.
type Kind string

// Payload kinds.
const (
	KindUnknown         Kind = "unknown"
	KindArray           Kind = "array"
	KindObject          Kind = "object"
	KindPrimitive       Kind = "primitive"
	KindPropertyResults Kind = "propertyResults"
)

var validKinds = map[Kind]bool{
	KindUnknown:         true,
	KindArray:           true,
	KindObject:          true,
	KindPrimitive:       true,
	KindPropertyResults: true,
}

// ParseKind converts a string into a Kind. The empty string maps to
// KindUnknown.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindUnknown, nil
	}
	k := Kind(s)
	if !validKinds[k] {
		return "", errors.New(errors.ErrCodeInvalidPayload,
			"invalid payload kind: %s (must be 'unknown', 'array', 'object', 'primitive' or 'propertyResults')", s)
	}
	return k, nil
}

// Input is the payload delivered to a node on every render.
// It is read-only for consumers.
type Input struct {
	Kind  Kind
	Value any
	Count *int // element count reported by the producer, if any
}

// NewInput creates an input with a normalized value. An empty kind is
// inferred from the value's structure.
func NewInput(kind Kind, v any) Input {
	v = Normalize(v)
	if kind == "" {
		kind = InferKind(v)
	}
	in := Input{Kind: kind, Value: v}
	if list, ok := v.([]any); ok {
		n := len(list)
		in.Count = &n
	}
	return in
}

// InferKind derives a kind from a normalized value. It never returns
// KindPropertyResults: that tag must come from the producer.
func InferKind(v any) Kind {
	switch v.(type) {
	case nil:
		return KindUnknown
	case []any:
		return KindArray
	case *Object:
		return KindObject
	default:
		return KindPrimitive
	}
}

// Absent reports whether the input carries no value.
func (in Input) Absent() bool {
	return in.Value == nil
}

// Label returns the short description shown next to the display mode:
// "N items" for arrays, the kind name for other tagged payloads and
// "No data" otherwise.
func (in Input) Label() string {
	switch in.Kind {
	case KindArray:
		n := 0
		if in.Count != nil {
			n = *in.Count
		}
		return fmt.Sprintf("%d items", n)
	case KindUnknown, "":
		return "No data"
	default:
		return string(in.Kind)
	}
}

// envelope is the wire shape of an Input.
type envelope struct {
	Type  Kind `json:"type"`
	Value any  `json:"value"`
	Count *int `json:"count,omitempty"`
}

// MarshalJSON encodes the input as {"type", "value", "count"}.
func (in Input) MarshalJSON() ([]byte, error) {
	kind := in.Kind
	if kind == "" {
		kind = KindUnknown
	}
	return json.Marshal(envelope{Type: kind, Value: sanitize(in.Value), Count: in.Count})
}

// UnmarshalJSON decodes an envelope, keeping key order in the value.
func (in *Input) UnmarshalJSON(data []byte) error {
	v, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok || !isEnvelope(obj) {
		return errors.New(errors.ErrCodeInvalidPayload, "payload envelope must be an object with a \"value\" field")
	}
	out, err := fromEnvelope(obj)
	if err != nil {
		return err
	}
	*in = out
	return nil
}

// isEnvelope reports whether obj looks like {"type", "value", "count"}.
// Only those keys may appear and "value" is required, so building-model
// elements (which also carry "type") are not mistaken for envelopes.
func isEnvelope(obj *Object) bool {
	if !obj.Has("value") {
		return false
	}
	for _, k := range obj.Keys() {
		switch k {
		case "type", "value", "count":
		default:
			return false
		}
	}
	if t, ok := obj.Get("type"); ok {
		s, isStr := t.(string)
		if !isStr || !validKinds[Kind(s)] {
			return false
		}
	}
	return true
}

func fromEnvelope(obj *Object) (Input, error) {
	kind := KindUnknown
	if t, ok := obj.Get("type"); ok {
		kind = Kind(t.(string))
	}
	v, _ := obj.Get("value")
	in := Input{Kind: kind, Value: v}
	if c, ok := obj.Get("count"); ok && c != nil {
		n, ok := toInt(c)
		if !ok {
			return Input{}, errors.New(errors.ErrCodeInvalidPayload, "payload count must be an integer, got %v", c)
		}
		in.Count = &n
	} else if list, ok := v.([]any); ok && kind == KindArray {
		n := len(list)
		in.Count = &n
	}
	return in, nil
}

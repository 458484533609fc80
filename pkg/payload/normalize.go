package payload

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
)

// Normalize converts an arbitrary Go value into the payload value tree.
//
// Plain Go maps become objects with sorted keys (Go maps have no natural
// order), slices and arrays become []any, integers become int64 and
// pointers are dereferenced. Structs are converted through their JSON
// encoding so that field tags are honoured. Values already in tree form are
// copied structurally.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint:
		return uintValue(uint64(t))
	case uint64:
		return uintValue(t)
	case float32:
		return float64(t)
	case json.Number:
		return numberValue(t)
	case *Object:
		if t == nil {
			return nil
		}
		out := &Object{}
		t.Each(func(k string, val any) bool {
			out.Set(k, Normalize(val))
			return true
		})
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := &Object{}
		for _, k := range keys {
			out.Set(k, Normalize(t[k]))
		}
		return out
	}
	return normalizeReflect(reflect.ValueOf(v))
}

// Tree returns v in value-tree form. Values that already are a tree are
// returned as they are; anything else goes through Normalize.
func Tree(v any) any {
	if isTree(v) {
		return v
	}
	return Normalize(v)
}

func isTree(v any) bool {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return true
	case *Object:
		if t == nil {
			return false
		}
		ok := true
		t.Each(func(_ string, val any) bool {
			ok = isTree(val)
			return ok
		})
		return ok
	case []any:
		for _, e := range t {
			if !isTree(e) {
				return false
			}
		}
		return true
	}
	return false
}

func uintValue(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return float64(u)
}

func normalizeReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		out := &Object{}
		for _, k := range keys {
			out.Set(k, Normalize(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()))
		}
		return out
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}

	// Structs and anything else go through their JSON encoding.
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return nil
	}
	out, err := DecodeJSON(data)
	if err != nil {
		return nil
	}
	return out
}

// sanitize replaces non-finite floats with nil so that a value can always be
// encoded as JSON. It returns v itself when nothing needs replacing.
func sanitize(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
	case float32:
		if f := float64(t); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case []any:
		var out []any
		for i, e := range t {
			s := sanitize(e)
			if out == nil && !sameValue(s, e) {
				out = make([]any, len(t))
				copy(out, t[:i])
			}
			if out != nil {
				out[i] = s
			}
		}
		if out != nil {
			return out
		}
	case *Object:
		if t == nil {
			return nil
		}
		var out *Object
		for i, k := range t.keys {
			e := t.vals[k]
			s := sanitize(e)
			if out == nil && !sameValue(s, e) {
				out = &Object{}
				for _, pk := range t.keys[:i] {
					out.Set(pk, t.vals[pk])
				}
			}
			if out != nil {
				out.Set(k, s)
			}
		}
		if out != nil {
			return out
		}
	}
	return v
}

// sameValue reports whether sanitize left a value untouched. Only nil
// replacements and fresh containers can differ from the original.
func sameValue(s, orig any) bool {
	if s == nil {
		return orig == nil
	}
	switch s.(type) {
	case []any, *Object:
		return reflect.ValueOf(s).Pointer() == reflect.ValueOf(orig).Pointer()
	}
	return true
}

// toInt converts a numeric tree value into an int.
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int64:
		return int(t), true
	case int:
		return t, true
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return int(t), true
		}
	}
	return 0, false
}

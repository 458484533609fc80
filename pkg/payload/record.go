package payload

// Record is a read-only view over an object that looks like a
// building-model element: {expressId|id, type, properties?, GlobalId?}.
type Record struct {
	obj *Object
}

// AsRecord returns a record view when v is an object carrying a "type" or
// an "expressId" field.
func AsRecord(v any) (Record, bool) {
	obj, ok := v.(*Object)
	if !ok || obj == nil {
		return Record{}, false
	}
	if !obj.Has("type") && !obj.Has("expressId") {
		return Record{}, false
	}
	return Record{obj: obj}, true
}

// Object returns the underlying object.
func (r Record) Object() *Object { return r.obj }

// ID returns expressId when it is set to a non-zero value, else id.
func (r Record) ID() (any, bool) {
	if v, ok := r.obj.Get("expressId"); ok && !zeroScalar(v) {
		return v, true
	}
	if v, ok := r.obj.Get("id"); ok && v != nil {
		return v, true
	}
	return nil, false
}

// Type returns the element type tag, e.g. "IfcWall". Elements with a
// missing or non-string type report false.
func (r Record) Type() (string, bool) {
	v, ok := r.obj.Get("type")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Name returns properties.Name, falling back to a top-level Name field.
func (r Record) Name() (any, bool) {
	if props, ok := r.obj.Get("properties"); ok {
		if p, ok := props.(*Object); ok {
			if v, ok := p.Get("Name"); ok && !zeroScalar(v) {
				return v, true
			}
		}
	}
	if v, ok := r.obj.Get("Name"); ok && !zeroScalar(v) {
		return v, true
	}
	return nil, false
}

// GlobalID returns the GlobalId field when it is a non-empty string.
func (r Record) GlobalID() (string, bool) {
	v, ok := r.obj.Get("GlobalId")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// zeroScalar reports whether v is nil, "" or a numeric zero.
func zeroScalar(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int64:
		return t == 0
	case int:
		return t == 0
	case float64:
		return t == 0
	}
	return false
}

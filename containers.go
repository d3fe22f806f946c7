package objref

// Dict is a Handle known to refer to a foreign dict.
//
// Dict overrides [Handle.SetItem] with the dict-specific primitive, and
// proxies returned by [Dict.Item] write through the override.
type Dict struct {
	*Handle
}

// NewDict creates an empty foreign dict.
func NewDict(rt Runtime) Dict {
	return Dict{Adopt(rt, rt.NewDict())}
}

// AsDict wraps h if it is a dict.
func AsDict(h *Handle) (Dict, bool) {
	if !h.IsDict() {
		return Dict{}, false
	}
	return Dict{h}, true
}

// Item returns a proxy for d[key].
func (d Dict) Item(key any) (*KeyedRef, error) {
	return lookupItem(d.Handle, d, key)
}

// SetItem performs d[key] = value.
func (d Dict) SetItem(key, value any) error {
	k, err := From(d.rt, key)
	if err != nil {
		return err
	}
	defer k.Release()
	v, err := From(d.rt, value)
	if err != nil {
		return err
	}
	defer v.Release()
	if d.rt.DictSetItem(d.obj, k.obj, v.obj) == -1 {
		return fetchError(d.rt, "setitem", KindType)
	}
	return nil
}

// Keys returns a list of the dict's keys in insertion order.
func (d Dict) Keys() (*Handle, error) {
	keys := d.rt.DictKeys(d.obj)
	if keys == Nil {
		return nil, fetchError(d.rt, "keys", KindType)
	}
	return Adopt(d.rt, keys), nil
}

// HasKey reports whether key is present.
func (d Dict) HasKey(key any) (bool, error) {
	ref, err := d.Item(key)
	if err != nil {
		return false, err
	}
	defer ref.Release()
	return ref.Found(), nil
}

// List is a Handle known to refer to a foreign list.
type List struct {
	*Handle
}

// NewList creates a foreign list holding vals.
func NewList(rt Runtime, vals ...any) (List, error) {
	if vals == nil {
		vals = []any{}
	}
	h, err := From(rt, vals)
	if err != nil {
		return List{}, err
	}
	return List{h}, nil
}

// AsList wraps h if it is a list.
func AsList(h *Handle) (List, bool) {
	if !h.IsList() {
		return List{}, false
	}
	return List{h}, true
}

// Append adds v to the end of the list.
func (l List) Append(v any) error {
	val, err := From(l.rt, v)
	if err != nil {
		return err
	}
	defer val.Release()
	if l.rt.ListAppend(l.obj, val.obj) == -1 {
		return fetchError(l.rt, "append", KindType)
	}
	return nil
}

// NewTuple creates a foreign tuple holding vals.
func NewTuple(rt Runtime, vals ...any) (*Handle, error) {
	return Args(rt, vals...)
}

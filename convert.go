package objref

import (
	"fmt"
	"reflect"
	"sort"
)

// From converts a Go value into a new owning Handle.
//
// Supported values:
//   - nil → None
//   - bool, every integer width, float32/float64, complex64/complex128, string
//   - *Handle → a copy (the count is shared, not moved)
//   - *KeyedRef → a copy of the value it currently holds
//   - Dict, List → a copy of the wrapped handle
//
// A null handle, such as the empty proxy left by a missed lookup, is not
// a value and fails with [KindType]; a nil *Handle or *KeyedRef is None.
//   - slices and arrays → list
//   - maps with string keys → dict
//
// Any other value fails with [KindType].
func From(rt Runtime, v any) (*Handle, error) {
	switch val := v.(type) {
	case nil:
		return None(rt), nil
	case *Handle:
		if val == nil {
			return None(rt), nil
		}
		return copyValue(val, "handle")
	case *KeyedRef:
		if val == nil {
			return None(rt), nil
		}
		return copyValue(&val.Handle, "item proxy")
	case Dict:
		return copyValue(val.Handle, "dict")
	case List:
		return copyValue(val.Handle, "list")
	case bool:
		return Bool(rt, val), nil
	case int:
		return Int(rt, int64(val)), nil
	case int8:
		return Int(rt, int64(val)), nil
	case int16:
		return Int(rt, int64(val)), nil
	case int32:
		return Int(rt, int64(val)), nil
	case int64:
		return Int(rt, val), nil
	case uint:
		return Uint(rt, uint64(val)), nil
	case uint8:
		return Uint(rt, uint64(val)), nil
	case uint16:
		return Uint(rt, uint64(val)), nil
	case uint32:
		return Uint(rt, uint64(val)), nil
	case uint64:
		return Uint(rt, val), nil
	case float32:
		return Float(rt, float64(val)), nil
	case float64:
		return Float(rt, val), nil
	case complex64:
		return Complex(rt, complex128(val)), nil
	case complex128:
		return Complex(rt, val), nil
	case string:
		return String(rt, val), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return adoptNew(rt, rt.NewList(nil), "convert")
		}
		return listFrom(rt, rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &Error{Kind: KindType, Op: "convert", Message: fmt.Sprintf("unsupported map key type %s", rv.Type().Key())}
		}
		return dictFrom(rt, rv)
	}
	return nil, &Error{Kind: KindType, Op: "convert", Message: fmt.Sprintf("cannot convert %T to a foreign value", v)}
}

func copyValue(h *Handle, what string) (*Handle, error) {
	if h == nil || h.IsNull() {
		return nil, &Error{Kind: KindType, Op: "convert", Message: "empty " + what + " has no value"}
	}
	return h.Copy(), nil
}

// adoptNew wraps a new reference returned by a constructor primitive,
// turning a Nil result into an *Error.
func adoptNew(rt Runtime, ref Ref, op string) (*Handle, error) {
	if ref == Nil {
		return nil, fetchError(rt, op, KindType)
	}
	return Adopt(rt, ref), nil
}

func listFrom(rt Runtime, rv reflect.Value) (*Handle, error) {
	items := make([]*Handle, rv.Len())
	defer func() {
		for _, it := range items {
			it.Release()
		}
	}()
	refs := make([]Ref, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		it, err := From(rt, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		items[i] = it
		refs[i] = it.obj
	}
	return adoptNew(rt, rt.NewList(refs), "convert")
}

func dictFrom(rt Runtime, rv reflect.Value) (*Handle, error) {
	d, err := adoptNew(rt, rt.NewDict(), "convert")
	if err != nil {
		return nil, err
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		if err := (Dict{d}).SetItem(k.String(), rv.MapIndex(k).Interface()); err != nil {
			d.Release()
			return nil, err
		}
	}
	return d, nil
}

// Args builds a positional-argument tuple for [Handle.CallArgs].
func Args(rt Runtime, vals ...any) (*Handle, error) {
	items := make([]*Handle, 0, len(vals))
	defer func() {
		for _, it := range items {
			it.Release()
		}
	}()
	refs := make([]Ref, len(vals))
	for i, v := range vals {
		it, err := From(rt, v)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		refs[i] = it.obj
	}
	return adoptNew(rt, rt.NewTuple(refs), "args")
}

// Kwargs builds a keyword-argument dict for [Handle.CallKwargs].
func Kwargs(rt Runtime, kw map[string]any) (*Handle, error) {
	return dictFrom(rt, reflect.ValueOf(kw))
}

// Go converts the object back into a Go value.
//
//   - None → nil
//   - bool → bool
//   - int → int64
//   - float → float64
//   - complex → complex128
//   - str → string
//   - list, tuple → []any
//   - dict → map[string]any (keys are converted with str())
//
// Other objects fail with [KindTypeConversion].
func (h *Handle) Go() (any, error) {
	switch {
	case h.IsNull():
		return nil, &Error{Kind: KindTypeConversion, Op: "convert", Message: "null handle"}
	case h.IsNone():
		return nil, nil
	case h.rt.Check(h.obj, TagBool):
		return h.IsTrue()
	case h.IsInt():
		return h.Int()
	case h.IsFloat():
		return h.Double()
	case h.IsComplex():
		return h.Complex()
	case h.IsString():
		return h.AsString()
	case h.IsList(), h.IsTuple():
		return h.goList()
	case h.IsDict():
		return h.goDict()
	}
	return nil, &Error{Kind: KindTypeConversion, Op: "convert", Message: "cannot convert " + h.TypeName() + " to a Go value"}
}

func (h *Handle) goList() (any, error) {
	n, err := h.Size()
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		ref, err := h.Item(i)
		if err != nil {
			return nil, err
		}
		v, err := ref.Go()
		ref.Release()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (h *Handle) goDict() (any, error) {
	d := Dict{h}
	keys, err := d.Keys()
	if err != nil {
		return nil, err
	}
	defer keys.Release()
	n, err := keys.Size()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, n)
	for i := 0; i < n; i++ {
		k, err := keys.Item(i)
		if err != nil {
			return nil, err
		}
		name, err := k.Str()
		if err != nil {
			k.Release()
			return nil, err
		}
		v, err := d.Item(&k.Handle)
		k.Release()
		if err != nil {
			return nil, err
		}
		gv, err := v.Go()
		v.Release()
		if err != nil {
			return nil, err
		}
		out[name] = gv
	}
	return out, nil
}

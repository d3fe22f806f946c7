package dyn

import (
	"slices"

	"github.com/feather-lang/objref"
)

// listType is the internal representation for lists. It owns one reference
// to each item.
type listType struct {
	items []Ref
}

func (*listType) Name() string        { return "list" }
func (*listType) tag() objref.TypeTag { return objref.TagList }
func (t *listType) size() int         { return len(t.items) }
func (t *listType) children() []Ref   { return t.items }
func (t *listType) elements() []Ref   { return t.items }

// tupleType is the internal representation for tuples. It owns one
// reference to each item.
type tupleType []Ref

func (tupleType) Name() string        { return "tuple" }
func (tupleType) tag() objref.TypeTag { return objref.TagTuple }
func (t tupleType) size() int         { return len(t) }
func (t tupleType) children() []Ref   { return t }
func (t tupleType) elements() []Ref   { return t }

// sequence is implemented by list and tuple.
type sequence interface {
	elements() []Ref
}

// seqIndex resolves key against a sequence of length n, raising the
// appropriate exception when it cannot.
func (r *Runtime) seqIndex(typeName string, key Ref, n int, assign bool) (int, bool) {
	idx, ok := r.indexValue(key)
	if !ok {
		r.SetError(objref.ExcTypeError, "%s indices must be integers or slices, not %s", typeName, r.TypeName(key))
		return 0, false
	}
	if idx < 0 {
		idx += int64(n)
	}
	if idx < 0 || idx >= int64(n) {
		if assign {
			r.SetError(objref.ExcIndexError, "%s assignment index out of range", typeName)
		} else {
			r.SetError(objref.ExcIndexError, "%s index out of range", typeName)
		}
		return 0, false
	}
	return int(idx), true
}

// indexValue returns the integer value of an int or bool key.
func (r *Runtime) indexValue(key Ref) (int64, bool) {
	switch v := r.get(key).val.(type) {
	case intType:
		if !v.v.IsInt64() {
			return 0, false
		}
		return v.v.Int64(), true
	case boolType:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (r *Runtime) listAppend(t *listType, v Ref) {
	r.IncRef(v)
	t.items = append(t.items, v)
}

func (r *Runtime) listRemove(t *listType, idx int) Ref {
	v := t.items[idx]
	t.items = slices.Delete(t.items, idx, idx+1)
	return v
}

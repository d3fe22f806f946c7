package dyn

import (
	"math/big"
	"unicode/utf8"

	"github.com/feather-lang/objref"
)

// value is the internal representation of an object.
type value interface {
	// Name returns the type name (e.g., "int", "list").
	Name() string
}

// container is implemented by values holding references to other objects.
// The references are released when the value is freed.
type container interface {
	children() []Ref
}

// sizer is implemented by values with a length.
type sizer interface {
	size() int
}

// tagged is implemented by the built-in types checked by objref.TypeTag.
type tagged interface {
	tag() objref.TypeTag
}

type noneType struct{}

func (noneType) Name() string        { return "NoneType" }
func (noneType) tag() objref.TypeTag { return objref.TagNone }

type boolType bool

func (boolType) Name() string        { return "bool" }
func (boolType) tag() objref.TypeTag { return objref.TagBool }

// intType is an arbitrary precision integer.
type intType struct {
	v *big.Int
}

func (intType) Name() string        { return "int" }
func (intType) tag() objref.TypeTag { return objref.TagInt }

type floatType float64

func (floatType) Name() string        { return "float" }
func (floatType) tag() objref.TypeTag { return objref.TagFloat }

type complexType complex128

func (complexType) Name() string        { return "complex" }
func (complexType) tag() objref.TypeTag { return objref.TagComplex }

type strType string

func (strType) Name() string        { return "str" }
func (strType) tag() objref.TypeTag { return objref.TagString }
func (s strType) size() int         { return utf8.RuneCountInString(string(s)) }

// typeType is a type object. Type objects are immortal and cached by name.
type typeType struct {
	name string
}

func (typeType) Name() string { return "type" }

// excType is a raised exception.
type excType struct {
	kind  objref.Exception
	class string
	msg   string
}

func (e *excType) Name() string { return e.class }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

// NewInt creates an int.
func (r *Runtime) NewInt(v int64) Ref {
	return r.alloc(intType{v: big.NewInt(v)})
}

// NewUint creates an int from an unsigned value.
func (r *Runtime) NewUint(v uint64) Ref {
	return r.alloc(intType{v: new(big.Int).SetUint64(v)})
}

// NewBigInt creates an int of any size.
func (r *Runtime) NewBigInt(v *big.Int) Ref {
	return r.alloc(intType{v: new(big.Int).Set(v)})
}

// NewFloat creates a float.
func (r *Runtime) NewFloat(v float64) Ref {
	return r.alloc(floatType(v))
}

// NewComplex creates a complex number.
func (r *Runtime) NewComplex(v complex128) Ref {
	return r.alloc(complexType(v))
}

// NewString creates a str.
func (r *Runtime) NewString(s string) Ref {
	return r.alloc(strType(s))
}

// NewBool returns a new reference to True or False.
func (r *Runtime) NewBool(v bool) Ref {
	if v {
		return r.newRef(r.yes)
	}
	return r.newRef(r.no)
}

// None returns a borrowed reference to None.
func (r *Runtime) None() Ref {
	return r.none
}

// NewTuple creates a tuple. The items are borrowed. A Nil item raises
// SystemError and returns Nil.
func (r *Runtime) NewTuple(items []Ref) Ref {
	out, ok := r.retainAll(items)
	if !ok {
		return objref.Nil
	}
	return r.alloc(tupleType(out))
}

// NewList creates a list. The items are borrowed. A Nil item raises
// SystemError and returns Nil.
func (r *Runtime) NewList(items []Ref) Ref {
	out, ok := r.retainAll(items)
	if !ok {
		return objref.Nil
	}
	return r.alloc(&listType{items: out})
}

// NewDict creates an empty dict.
func (r *Runtime) NewDict() Ref {
	return r.alloc(newDictType())
}

func (r *Runtime) retainAll(items []Ref) ([]Ref, bool) {
	for _, it := range items {
		if r.get(it) == nil {
			r.badInternalCall()
			return nil, false
		}
	}
	out := make([]Ref, len(items))
	for i, it := range items {
		r.IncRef(it)
		out[i] = it
	}
	return out, true
}

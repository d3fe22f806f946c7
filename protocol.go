package objref

import (
	"fmt"
	"io"
	"math"
)

// -----------------------------------------------------------------------------
// Comparison
// -----------------------------------------------------------------------------

// Cmp compares h with other and returns -1, 0 or 1.
//
// The result is built from two probes, (h > other) - (h < other), so it is
// only meaningful for objects that implement ordering: objects for which
// neither probe holds compare 0, and a runtime that rejects the probes fails
// with [KindType].
func (h *Handle) Cmp(other any) (int, error) {
	o, err := From(h.rt, other)
	if err != nil {
		return 0, err
	}
	defer o.Release()
	gt, err := h.compare(o, OpGT)
	if err != nil {
		return 0, err
	}
	lt, err := h.compare(o, OpLT)
	if err != nil {
		return 0, err
	}
	return b2i(gt) - b2i(lt), nil
}

func (h *Handle) Eq(other any) (bool, error) { return h.compareAny(other, OpEQ) }
func (h *Handle) Ne(other any) (bool, error) { return h.compareAny(other, OpNE) }
func (h *Handle) Lt(other any) (bool, error) { return h.compareAny(other, OpLT) }
func (h *Handle) Gt(other any) (bool, error) { return h.compareAny(other, OpGT) }
func (h *Handle) Le(other any) (bool, error) { return h.compareAny(other, OpLE) }
func (h *Handle) Ge(other any) (bool, error) { return h.compareAny(other, OpGE) }

func (h *Handle) compareAny(other any, op CompareOp) (bool, error) {
	o, err := From(h.rt, other)
	if err != nil {
		return false, err
	}
	defer o.Release()
	return h.compare(o, op)
}

func (h *Handle) compare(o *Handle, op CompareOp) (bool, error) {
	switch h.rt.RichCompareBool(h.obj, o.obj, op) {
	case 1:
		return true, nil
	case 0:
		return false, nil
	}
	return false, fetchError(h.rt, "compare "+op.String(), KindType)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// Truth, hash, size
// -----------------------------------------------------------------------------

// IsTrue applies the foreign truth test.
func (h *Handle) IsTrue() (bool, error) {
	switch h.rt.IsTrue(h.obj) {
	case 1:
		return true, nil
	case 0:
		return false, nil
	}
	return false, fetchError(h.rt, "truth", KindType)
}

// Hash returns the foreign hash of h.
func (h *Handle) Hash() (int64, error) {
	v := h.rt.Hash(h.obj)
	if v == -1 && h.rt.ErrOccurred() {
		return 0, fetchError(h.rt, "hash", KindType)
	}
	return v, nil
}

// Size returns the length of a container.
func (h *Handle) Size() (int, error) {
	n := h.rt.Size(h.obj)
	if n == -1 {
		return 0, fetchError(h.rt, "len", KindType)
	}
	return n, nil
}

// Len is an alias of [Handle.Size].
func (h *Handle) Len() (int, error) { return h.Size() }

// Length is an alias of [Handle.Size], matching string-like APIs.
func (h *Handle) Length() (int, error) { return h.Size() }

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Type returns the object's type.
func (h *Handle) Type() (*Handle, error) {
	t := h.rt.Type(h.obj)
	if t == Nil {
		return nil, fetchError(h.rt, "type", KindType)
	}
	return Adopt(h.rt, t), nil
}

// TypeName returns the name of the object's type, or "" for a null handle.
func (h *Handle) TypeName() string {
	if h.IsNull() {
		return ""
	}
	return h.rt.TypeName(h.obj)
}

// The Is* predicates check the exact built-in type; they do not coerce and
// do not recognize user types that behave like the checked kind.

func (h *Handle) IsInt() bool     { return h.check(TagInt) }
func (h *Handle) IsFloat() bool   { return h.check(TagFloat) }
func (h *Handle) IsComplex() bool { return h.check(TagComplex) }
func (h *Handle) IsList() bool    { return h.check(TagList) }
func (h *Handle) IsTuple() bool   { return h.check(TagTuple) }
func (h *Handle) IsDict() bool    { return h.check(TagDict) }
func (h *Handle) IsString() bool  { return h.check(TagString) }
func (h *Handle) IsNone() bool    { return h.check(TagNone) }

func (h *Handle) check(tag TypeTag) bool {
	return !h.IsNull() && h.rt.Check(h.obj, tag)
}

// -----------------------------------------------------------------------------
// Coercions
// -----------------------------------------------------------------------------
//
// A conversion the foreign runtime rejects fails with KindTypeConversion.
// The foreign error is cleared first, so it never outlives the call.

// Int returns the value as an integer.
func (h *Handle) Int() (int64, error) {
	v := h.rt.AsInt(h.obj)
	if h.rt.ErrOccurred() {
		return 0, conversionError(h.rt, "integer")
	}
	return v, nil
}

// Float returns the value as a float32. Finite values outside the float32
// range fail with [KindTypeConversion]; infinities and NaN pass through.
func (h *Handle) Float() (float32, error) {
	v := h.rt.AsFloat(h.obj)
	if h.rt.ErrOccurred() {
		return 0, conversionError(h.rt, "float")
	}
	if !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
		return 0, conversionError(h.rt, "float32")
	}
	return float32(v), nil
}

// Double returns the value as a float64.
func (h *Handle) Double() (float64, error) {
	v := h.rt.AsFloat(h.obj)
	if h.rt.ErrOccurred() {
		return 0, conversionError(h.rt, "double")
	}
	return v, nil
}

// Complex returns the value as a complex128.
func (h *Handle) Complex() (complex128, error) {
	v := h.rt.AsComplex(h.obj)
	if h.rt.ErrOccurred() {
		return 0, conversionError(h.rt, "complex")
	}
	return v, nil
}

// AsString returns the text of a foreign string. Other objects fail; use
// [Handle.Str] for their text form.
func (h *Handle) AsString() (string, error) {
	if !h.IsString() {
		return "", conversionError(h.rt, "string")
	}
	v := h.rt.AsString(h.obj)
	if h.rt.ErrOccurred() {
		return "", conversionError(h.rt, "string")
	}
	return v, nil
}

// -----------------------------------------------------------------------------
// Representation
// -----------------------------------------------------------------------------

// Repr returns the foreign repr() of h.
func (h *Handle) Repr() (string, error) {
	return h.text(h.rt.Repr(h.obj), "repr")
}

// Str returns the foreign str() of h.
func (h *Handle) Str() (string, error) {
	return h.text(h.rt.Str(h.obj), "str")
}

func (h *Handle) text(ref Ref, op string) (string, error) {
	if ref == Nil {
		return "", fetchError(h.rt, op, KindType)
	}
	s := Adopt(h.rt, ref)
	defer s.Release()
	return s.AsString()
}

// String implements fmt.Stringer with the foreign str().
func (h *Handle) String() string {
	if h.IsNull() {
		return "<null>"
	}
	s, err := h.Str()
	if err != nil {
		return fmt.Sprintf("<%s object: %v>", h.TypeName(), err)
	}
	return s
}

// Print writes repr(h), or str(h) with [PrintRaw], to w.
func (h *Handle) Print(w io.Writer, flags PrintFlags) error {
	var s string
	var err error
	if flags&PrintRaw != 0 {
		s, err = h.Str()
	} else {
		s, err = h.Repr()
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// PrintTo writes h to a foreign file-like object.
func (h *Handle) PrintTo(file *Handle, flags PrintFlags) error {
	if h.rt.WriteObject(h.obj, file.Ref(), flags) == -1 {
		return fetchError(h.rt, "print", KindCall)
	}
	return nil
}

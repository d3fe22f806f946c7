package objref

// Handle is a value-semantics reference to a foreign object.
//
// A Handle either owns one reference count on its object, which it drops in
// [Handle.Release], or borrows it. Handles must not be copied by value;
// use [Handle.Copy], which takes its own count.
//
//	h := objref.Int(rt, 42)
//	defer h.Release()
//	c := h.Copy()   // refcount +1
//	c.Release()     // refcount -1
//
// A Handle is bound to one Runtime and, like it, is not safe for concurrent
// use.
type Handle struct {
	rt  Runtime
	obj Ref
	own bool
}

// Share returns an owning Handle for a reference the caller keeps owning.
// The reference count is incremented.
func Share(rt Runtime, ref Ref) *Handle {
	h := &Handle{rt: rt}
	h.grab(ref)
	return h
}

// Adopt returns a Handle that takes over a reference its producer already
// counted for the caller, such as the result of a foreign call. The
// reference count is not incremented.
//
// Adopting a borrowed reference releases it too early; sharing a new
// reference leaks it.
func Adopt(rt Runtime, ref Ref) *Handle {
	return &Handle{rt: rt, obj: ref, own: ref != Nil}
}

// Null returns an empty Handle.
func Null(rt Runtime) *Handle {
	return &Handle{rt: rt}
}

// None returns a Handle to the None singleton.
func None(rt Runtime) *Handle {
	return Share(rt, rt.None())
}

// Int creates a new foreign integer.
func Int(rt Runtime, v int64) *Handle { return Adopt(rt, rt.NewInt(v)) }

// Uint creates a new foreign integer from an unsigned value.
func Uint(rt Runtime, v uint64) *Handle { return Adopt(rt, rt.NewUint(v)) }

// Float creates a new foreign float.
func Float(rt Runtime, v float64) *Handle { return Adopt(rt, rt.NewFloat(v)) }

// Complex creates a new foreign complex number.
func Complex(rt Runtime, v complex128) *Handle { return Adopt(rt, rt.NewComplex(v)) }

// String creates a new foreign string.
func String(rt Runtime, s string) *Handle { return Adopt(rt, rt.NewString(s)) }

// Bool creates a foreign boolean.
func Bool(rt Runtime, v bool) *Handle { return Adopt(rt, rt.NewBool(v)) }

// grab takes a count on ref before dropping the current one, so that
// assigning a handle to itself or to an alias never frees the target.
func (h *Handle) grab(ref Ref) {
	if ref != Nil {
		h.rt.IncRef(ref)
	}
	if h.own && h.obj != Nil {
		h.rt.DecRef(h.obj)
	}
	h.obj = ref
	h.own = ref != Nil
}

// Copy returns a new owning Handle aliasing the same object.
func (h *Handle) Copy() *Handle {
	return Share(h.rt, h.obj)
}

// Assign makes h an owning alias of src's object.
func (h *Handle) Assign(src *Handle) {
	if src == nil {
		h.grab(Nil)
		return
	}
	h.grab(src.obj)
}

// Release drops the count h owns, if any, and empties h.
// Releasing an empty or already released Handle does nothing.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	if h.own && h.obj != Nil {
		h.rt.DecRef(h.obj)
	}
	h.obj = Nil
	h.own = false
}

// Disown gives up ownership without releasing and returns the raw
// reference. The caller becomes responsible for the count h owned.
func (h *Handle) Disown() Ref {
	h.own = false
	return h.obj
}

// Ref returns the borrowed raw reference.
func (h *Handle) Ref() Ref {
	if h == nil {
		return Nil
	}
	return h.obj
}

// Owned reports whether h holds a count it must release.
func (h *Handle) Owned() bool { return h.own }

// Runtime returns the runtime h is bound to.
func (h *Handle) Runtime() Runtime { return h.rt }

// IsNull reports whether h is empty.
func (h *Handle) IsNull() bool { return h == nil || h.obj == Nil }

// RefCount returns the object's current reference count. Diagnostic only.
func (h *Handle) RefCount() int {
	if h.IsNull() {
		return 0
	}
	return h.rt.RefCount(h.obj)
}

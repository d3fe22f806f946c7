package objref

// -----------------------------------------------------------------------------
// Attributes
// -----------------------------------------------------------------------------

// Attr returns the attribute name of h.
//
// name may be a string or anything else [From] accepts.
// A missing attribute fails with [KindAttribute].
func (h *Handle) Attr(name any) (*Handle, error) {
	n, err := From(h.rt, name)
	if err != nil {
		return nil, err
	}
	defer n.Release()
	val := h.rt.GetAttr(h.obj, n.obj)
	if val == Nil {
		return nil, fetchError(h.rt, "getattr", KindAttribute)
	}
	return Adopt(h.rt, val), nil
}

// SetAttr sets the attribute name of h to v.
func (h *Handle) SetAttr(name, v any) error {
	n, err := From(h.rt, name)
	if err != nil {
		return err
	}
	defer n.Release()
	val, err := From(h.rt, v)
	if err != nil {
		return err
	}
	defer val.Release()
	if h.rt.SetAttr(h.obj, n.obj, val.obj) == -1 {
		return fetchError(h.rt, "setattr", KindAttribute)
	}
	return nil
}

// DelAttr removes the attribute name from h.
func (h *Handle) DelAttr(name any) error {
	n, err := From(h.rt, name)
	if err != nil {
		return err
	}
	defer n.Release()
	if h.rt.DelAttr(h.obj, n.obj) == -1 {
		return fetchError(h.rt, "delattr", KindAttribute)
	}
	return nil
}

// HasAttr reports whether h has the attribute name.
func (h *Handle) HasAttr(name any) bool {
	n, err := From(h.rt, name)
	if err != nil {
		ReleaseError(err)
		return false
	}
	defer n.Release()
	return h.rt.HasAttr(h.obj, n.obj)
}

// -----------------------------------------------------------------------------
// Items
// -----------------------------------------------------------------------------

// ItemSetter is the write primitive behind indexed assignment.
// [Handle] implements it with the generic item protocol; wrappers such as
// [Dict] override it.
type ItemSetter interface {
	SetItem(key, value any) error
}

// Item returns a proxy for h[key]. See [KeyedRef] for the lookup rules.
func (h *Handle) Item(key any) (*KeyedRef, error) {
	return lookupItem(h, h, key)
}

// SetItem performs h[key] = value.
func (h *Handle) SetItem(key, value any) error {
	k, err := From(h.rt, key)
	if err != nil {
		return err
	}
	defer k.Release()
	v, err := From(h.rt, value)
	if err != nil {
		return err
	}
	defer v.Release()
	if h.rt.SetItem(h.obj, k.obj, v.obj) == -1 {
		return fetchError(h.rt, "setitem", KindCall)
	}
	return nil
}

// DelItem performs del h[key].
func (h *Handle) DelItem(key any) error {
	k, err := From(h.rt, key)
	if err != nil {
		return err
	}
	defer k.Release()
	if h.rt.DelItem(h.obj, k.obj) == -1 {
		return fetchError(h.rt, "delitem", KindCall)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Calls
// -----------------------------------------------------------------------------

// Call calls h with no arguments.
func (h *Handle) Call() (*Handle, error) {
	return h.call(nil, nil)
}

// CallArgs calls h with a positional-argument tuple, see [Args].
func (h *Handle) CallArgs(args *Handle) (*Handle, error) {
	return h.call(args, nil)
}

// CallKwargs calls h with a positional tuple and a keyword dict, see [Kwargs].
// args may be nil.
func (h *Handle) CallKwargs(args, kwargs *Handle) (*Handle, error) {
	return h.call(args, kwargs)
}

func (h *Handle) call(args, kwargs *Handle) (*Handle, error) {
	res := h.rt.Call(h.obj, args.Ref(), kwargs.Ref())
	if res == Nil {
		return nil, fetchError(h.rt, "call", KindCall)
	}
	return Adopt(h.rt, res), nil
}

// MethodCall looks up the attribute name and calls it with no arguments.
func (h *Handle) MethodCall(name any) (*Handle, error) {
	return h.methodCall(name, nil, nil)
}

// MethodCallArgs looks up the attribute name and calls it with args.
func (h *Handle) MethodCallArgs(name any, args *Handle) (*Handle, error) {
	return h.methodCall(name, args, nil)
}

// MethodCallKwargs looks up the attribute name and calls it with args and
// kwargs.
func (h *Handle) MethodCallKwargs(name any, args, kwargs *Handle) (*Handle, error) {
	return h.methodCall(name, args, kwargs)
}

func (h *Handle) methodCall(name any, args, kwargs *Handle) (*Handle, error) {
	method, err := h.Attr(name)
	if err != nil {
		return nil, err
	}
	defer method.Release()
	return method.call(args, kwargs)
}

// IsCallable reports whether h can be called.
func (h *Handle) IsCallable() bool {
	return !h.IsNull() && h.rt.Callable(h.obj)
}

package objref

// KeyedRef is the result of indexing a [Handle]: the value currently stored
// under a key, plus enough context to store a new one.
//
//	ref, err := d.Item("name")
//	if err != nil { ... }
//	defer ref.Release()
//	err = ref.Set("Alice") // d["name"] = "Alice"
//
// The embedded Handle holds the fetched value and is empty when a mapping
// had no entry for the key. The parent is borrowed and must outlive the
// proxy; the key is owned and is reused unchanged by [KeyedRef.Set].
type KeyedRef struct {
	Handle
	parent ItemSetter
	key    *Handle
}

// lookupItem fetches src[key] and builds a proxy that writes through
// parent.
//
// A missing key is not an error: the proxy may be the target of an
// assignment that creates it, so the KeyError is cleared and the proxy is
// left empty. An out-of-range index is always returned as an error since a
// sequence cannot grow by assignment.
func lookupItem(src *Handle, parent ItemSetter, key any) (*KeyedRef, error) {
	k, err := From(src.rt, key)
	if err != nil {
		return nil, err
	}
	val := src.rt.GetItem(src.obj, k.obj)
	if val == Nil {
		if !src.rt.ErrMatches(ExcKeyError) {
			k.Release()
			return nil, fetchError(src.rt, "getitem", KindCall)
		}
		src.rt.ErrClear()
	}
	return &KeyedRef{
		Handle: Handle{rt: src.rt, obj: val, own: val != Nil},
		parent: parent,
		key:    k,
	}, nil
}

// Set makes the proxy an owning reference to v, then stores it under the
// proxy's key in the parent. If the store fails the proxy still holds v.
//
// A *KeyedRef argument is materialized to its current value first.
func (r *KeyedRef) Set(v any) error {
	if other, ok := v.(*KeyedRef); ok {
		return r.SetRef(other)
	}
	val, err := From(r.rt, v)
	if err != nil {
		return err
	}
	defer val.Release()
	r.Assign(val)
	return r.parent.SetItem(r.key, &r.Handle)
}

// SetRef stores the value held by other, as in a[i] = b[j]. An empty
// other fails with [KindType] and leaves both sides unchanged.
func (r *KeyedRef) SetRef(other *KeyedRef) error {
	if other == nil {
		return r.Set(nil)
	}
	val := other.Value()
	defer val.Release()
	return r.Set(val)
}

// Key returns the borrowed key handle.
func (r *KeyedRef) Key() *Handle { return r.key }

// Value returns a plain owning Handle for the value the proxy holds.
func (r *KeyedRef) Value() *Handle { return r.Handle.Copy() }

// Found reports whether the lookup produced a value.
func (r *KeyedRef) Found() bool { return !r.IsNull() }

// Release drops the value and the key.
func (r *KeyedRef) Release() {
	if r == nil {
		return
	}
	r.Handle.Release()
	r.key.Release()
	r.key = nil
	r.parent = nil
}

// Package objref provides value-semantics handles for objects owned by a
// dynamically typed, reference-counted foreign runtime.
//
// # Overview
//
// A [Handle] wraps a reference to a foreign object and tracks whether it owns
// a reference count it must give back. On top of that it speaks the foreign
// runtime's generic object protocol:
//
//   - attributes: [Handle.Attr], [Handle.SetAttr], [Handle.DelAttr]
//   - items: [Handle.Item], [Handle.SetItem], [Handle.DelItem]
//   - calls: [Handle.Call], [Handle.CallArgs], [Handle.CallKwargs], [Handle.MethodCall]
//   - comparison: [Handle.Cmp], [Handle.Eq], [Handle.Lt], ...
//   - coercion: [Handle.Int], [Handle.Double], [Handle.Complex], [Handle.AsString]
//
// The runtime itself is reached through the [Runtime] interface. Package
// github.com/feather-lang/objref/dyn provides a pure-Go runtime, and package
// github.com/feather-lang/objref/cpython binds CPython.
//
// # Quick Start
//
//	rt := dyn.New()
//
//	d, _ := objref.From(rt, map[string]any{"name": "Alice"})
//	defer d.Release()
//
//	ref, _ := d.Item("age")   // missing key: empty proxy, no error
//	ref.Set(30)               // d["age"] = 30
//	ref.Release()
//
//	n, _ := d.Len()           // 2
//
// # Ownership
//
// Go has no destructors, so a Handle gives its count back in
// [Handle.Release]. Scope it with defer:
//
//	h, err := obj.Attr("value")
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//
// Raw references enter a Handle in one of two ways:
//
//   - [Share] for a reference the caller keeps owning: the count is
//     incremented and the Handle owns the new count.
//   - [Adopt] for a reference its producer already counted for the caller,
//     such as the result of a call: the Handle takes that count over.
//
// [Handle.Copy] and [Handle.Assign] always share. [Handle.Disown] hands the
// count to someone else without releasing it.
//
// # Indexed Assignment
//
// [Handle.Item] returns a [KeyedRef], which holds the current value and can
// store a new one:
//
//	ref, err := list.Item(5)  // out of range: error
//	ref, err := dict.Item("k") // missing: empty proxy, ready for ref.Set
//
// # Errors
//
// Failed protocol calls return an [*Error]. Its Kind tells attribute, key,
// index, type and conversion failures apart; Class and Message carry the
// foreign exception, which has already been cleared from the runtime:
//
//	if errors.Is(err, objref.ErrIndex) { ... }
package objref

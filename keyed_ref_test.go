package objref_test

import (
	"errors"
	"testing"

	"github.com/feather-lang/objref"
	"github.com/feather-lang/objref/dyn"
)

func mustFrom(t *testing.T, rt objref.Runtime, v any) *objref.Handle {
	t.Helper()
	h, err := objref.From(rt, v)
	if err != nil {
		t.Fatalf("From(%v) failed: %v", v, err)
	}
	return h
}

func mustRepr(t *testing.T, h *objref.Handle) string {
	t.Helper()
	s, err := h.Repr()
	if err != nil {
		t.Fatalf("Repr failed: %v", err)
	}
	return s
}

func TestItemLookup(t *testing.T) {
	rt := dyn.New()

	t.Run("Found", func(t *testing.T) {
		l := mustFrom(t, rt, []any{10, 20, 30})
		defer l.Release()
		ref, err := l.Item(-1)
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer ref.Release()
		if !ref.Found() {
			t.Fatalf("expected a value")
		}
		n, err := ref.Int()
		if err != nil || n != 30 {
			t.Errorf("Int() = %d, %v; want 30, nil", n, err)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		d := mustFrom(t, rt, map[string]any{"a": 1})
		defer d.Release()
		ref, err := d.Item("b")
		if err != nil {
			t.Fatalf("expected no error for a missing key, got %v", err)
		}
		defer ref.Release()
		if ref.Found() {
			t.Errorf("expected empty proxy")
		}
		if rt.ErrOccurred() {
			t.Errorf("expected KeyError to be cleared")
		}
		if k, _ := ref.Key().AsString(); k != "b" {
			t.Errorf("expected key 'b', got %q", k)
		}
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		l := mustFrom(t, rt, []any{1, 2})
		defer l.Release()
		_, err := l.Item(5)
		if !errors.Is(err, objref.ErrIndex) {
			t.Fatalf("expected index error, got %v", err)
		}
		var e *objref.Error
		if !errors.As(err, &e) {
			t.Fatalf("expected *objref.Error, got %T", err)
		}
		if e.Class != "IndexError" || e.Message != "list index out of range" {
			t.Errorf("expected 'IndexError: list index out of range', got %q: %q", e.Class, e.Message)
		}
		if rt.ErrOccurred() {
			t.Errorf("expected error slot to be cleared")
		}
	})

	t.Run("WrongKeyType", func(t *testing.T) {
		l := mustFrom(t, rt, []any{1})
		defer l.Release()
		_, err := l.Item("x")
		if !errors.Is(err, objref.ErrType) {
			t.Errorf("expected type error, got %v", err)
		}
	})

	t.Run("NotSubscriptable", func(t *testing.T) {
		n := objref.Int(rt, 3)
		defer n.Release()
		_, err := n.Item(0)
		if !errors.Is(err, objref.ErrType) {
			t.Errorf("expected type error, got %v", err)
		}
	})

	t.Run("UnsupportedKey", func(t *testing.T) {
		d := objref.NewDict(rt)
		defer d.Release()
		_, err := d.Item(struct{}{})
		if !errors.Is(err, objref.ErrType) {
			t.Errorf("expected type error, got %v", err)
		}
	})
}

func TestKeyedRefSet(t *testing.T) {
	rt := dyn.New()

	t.Run("CreatesMissingKey", func(t *testing.T) {
		d := mustFrom(t, rt, map[string]any{"name": "Alice"})
		defer d.Release()
		ref, err := d.Item("age")
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer ref.Release()
		if err := ref.Set(30); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if !ref.Found() {
			t.Errorf("expected proxy to hold the stored value")
		}
		if got := mustRepr(t, d); got != "{'name': 'Alice', 'age': 30}" {
			t.Errorf("expected {'name': 'Alice', 'age': 30}, got %s", got)
		}
	})

	t.Run("ProxyOwnsStoredValue", func(t *testing.T) {
		l := mustFrom(t, rt, []any{"x"})
		defer l.Release()
		ref, err := l.Item(0)
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer ref.Release()
		v := objref.String(rt, "y")
		defer v.Release()
		if err := ref.Set(v); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if ref.Ref() != v.Ref() {
			t.Errorf("expected proxy to alias the stored object")
		}
		// v, the list slot and the proxy.
		if v.RefCount() != 3 {
			t.Errorf("expected refcount 3, got %d", v.RefCount())
		}
	})

	t.Run("Nested", func(t *testing.T) {
		m := mustFrom(t, rt, []any{[]any{1, 2}, []any{3, 4}})
		defer m.Release()
		row, err := m.Item(1)
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer row.Release()
		cell, err := row.Item(0)
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer cell.Release()
		if err := cell.Set("z"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if got := mustRepr(t, m); got != "[[1, 2], ['z', 4]]" {
			t.Errorf("expected [[1, 2], ['z', 4]], got %s", got)
		}
	})

	t.Run("FromOtherProxy", func(t *testing.T) {
		a := mustFrom(t, rt, []any{1, 2, 3})
		defer a.Release()
		b := mustFrom(t, rt, map[string]any{"k": "v"})
		defer b.Release()

		dst, err := a.Item(0)
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer dst.Release()
		src, err := b.Item("k")
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer src.Release()

		if err := dst.Set(src); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if got := mustRepr(t, a); got != "['v', 2, 3]" {
			t.Errorf("expected ['v', 2, 3], got %s", got)
		}
	})

	t.Run("ImmutableParent", func(t *testing.T) {
		tup, err := objref.NewTuple(rt, 1, 2)
		if err != nil {
			t.Fatalf("NewTuple failed: %v", err)
		}
		defer tup.Release()
		ref, err := tup.Item(0)
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer ref.Release()
		err = ref.Set(5)
		if !errors.Is(err, objref.ErrType) {
			t.Fatalf("expected type error, got %v", err)
		}
		if n, _ := ref.Int(); n != 5 {
			t.Errorf("expected proxy to hold 5, got %d", n)
		}
		if got := mustRepr(t, tup); got != "(1, 2)" {
			t.Errorf("expected tuple to be unchanged, got %s", got)
		}
	})
}

func TestDictItemUsesDictSet(t *testing.T) {
	rt := dyn.New()
	d := objref.NewDict(rt)
	defer d.Release()

	ref, err := d.Item(1)
	if err != nil {
		t.Fatalf("Item failed: %v", err)
	}
	defer ref.Release()
	if err := ref.Set("one"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	ok, err := d.HasKey(1.0)
	if err != nil || !ok {
		t.Errorf("HasKey(1.0) = %v, %v; want true, nil", ok, err)
	}

	unhashable := mustFrom(t, rt, []any{})
	defer unhashable.Release()
	if err := d.SetItem(unhashable, 1); !errors.Is(err, objref.ErrType) {
		t.Errorf("expected type error for an unhashable key, got %v", err)
	}
}

func TestKeyedRefValue(t *testing.T) {
	rt := dyn.New()
	l := mustFrom(t, rt, []any{"keep"})
	defer l.Release()
	ref, err := l.Item(0)
	if err != nil {
		t.Fatalf("Item failed: %v", err)
	}
	v := ref.Value()
	ref.Release()
	l.Release()
	defer v.Release()
	s, err := v.AsString()
	if err != nil || s != "keep" {
		t.Errorf("AsString() = %q, %v; want 'keep', nil", s, err)
	}
	if v.RefCount() != 1 {
		t.Errorf("expected refcount 1, got %d", v.RefCount())
	}
}

// A proxy left by a missed lookup holds no value, so storing it anywhere is
// a type error and must not put an empty slot into the target.
func TestSetFromEmptyProxy(t *testing.T) {
	rt := dyn.New()
	src := objref.NewDict(rt)
	defer src.Release()
	miss, err := src.Item("absent")
	if err != nil {
		t.Fatalf("Item failed: %v", err)
	}
	defer miss.Release()
	if miss.Found() {
		t.Fatalf("expected empty proxy")
	}

	t.Run("DictTarget", func(t *testing.T) {
		d := objref.NewDict(rt)
		defer d.Release()
		ref, err := d.Item("x")
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer ref.Release()
		if err := ref.Set(miss); !errors.Is(err, objref.ErrType) {
			t.Errorf("expected type error, got %v", err)
		}
		if err := d.SetItem("y", miss); !errors.Is(err, objref.ErrType) {
			t.Errorf("expected type error, got %v", err)
		}
		if n, _ := d.Len(); n != 0 {
			t.Errorf("expected empty dict, got %s", mustRepr(t, d.Handle))
		}
	})

	t.Run("HandleTarget", func(t *testing.T) {
		l := mustFrom(t, rt, []any{1, 2})
		defer l.Release()
		ref, err := l.Item(0)
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		defer ref.Release()
		if err := ref.Set(miss); !errors.Is(err, objref.ErrType) {
			t.Errorf("expected type error, got %v", err)
		}
		if err := l.SetItem(1, &objref.Handle{}); !errors.Is(err, objref.ErrType) {
			t.Errorf("expected type error for a null handle, got %v", err)
		}
		if got := mustRepr(t, l); got != "[1, 2]" {
			t.Errorf("expected [1, 2], got %s", got)
		}
		if n, _ := ref.Int(); n != 1 {
			t.Errorf("expected proxy to keep 1, got %d", n)
		}
	})

	t.Run("Containers", func(t *testing.T) {
		if _, err := objref.Args(rt, 1, miss); !errors.Is(err, objref.ErrType) {
			t.Errorf("Args: expected type error, got %v", err)
		}
		if _, err := objref.From(rt, []any{miss}); !errors.Is(err, objref.ErrType) {
			t.Errorf("From(list): expected type error, got %v", err)
		}
		if _, err := objref.From(rt, objref.Dict{}); !errors.Is(err, objref.ErrType) {
			t.Errorf("From(Dict{}): expected type error, got %v", err)
		}
		obj := objref.Adopt(rt, rt.NewObject("Thing"))
		defer obj.Release()
		if err := obj.SetAttr("field", miss); !errors.Is(err, objref.ErrType) {
			t.Errorf("SetAttr: expected type error, got %v", err)
		}
		if obj.HasAttr("field") {
			t.Errorf("expected no attribute to be set")
		}
	})

	if rt.ErrOccurred() {
		t.Errorf("expected error slot to be clear")
	}
}

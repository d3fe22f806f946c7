package objref_test

import (
	"testing"

	"github.com/feather-lang/objref"
	"github.com/feather-lang/objref/dyn"
)

// =============================================================================
// Ownership
// =============================================================================

func TestShareAndAdopt(t *testing.T) {
	rt := dyn.New()

	t.Run("Adopt", func(t *testing.T) {
		ref := rt.NewString("adopted")
		h := objref.Adopt(rt, ref)
		if h.RefCount() != 1 {
			t.Errorf("expected refcount 1, got %d", h.RefCount())
		}
		if !h.Owned() {
			t.Errorf("expected adopted handle to own its reference")
		}
		h.Release()
		if rt.Alive(ref) {
			t.Errorf("expected object to be freed after Release")
		}
	})

	t.Run("Share", func(t *testing.T) {
		ref := rt.NewString("shared")
		h := objref.Share(rt, ref)
		if rt.RefCount(ref) != 2 {
			t.Errorf("expected refcount 2, got %d", rt.RefCount(ref))
		}
		h.Release()
		if rt.RefCount(ref) != 1 {
			t.Errorf("expected refcount 1 after Release, got %d", rt.RefCount(ref))
		}
		rt.DecRef(ref)
		if rt.Alive(ref) {
			t.Errorf("expected object to be freed")
		}
	})

	t.Run("AdoptNil", func(t *testing.T) {
		h := objref.Adopt(rt, objref.Nil)
		if !h.IsNull() || h.Owned() {
			t.Errorf("expected empty non-owning handle")
		}
		h.Release()
	})
}

func TestCopy(t *testing.T) {
	rt := dyn.New()
	h := objref.Int(rt, 7)
	defer h.Release()

	c := h.Copy()
	if c.Ref() != h.Ref() {
		t.Fatalf("expected copy to alias the same object")
	}
	if h.RefCount() != 2 {
		t.Errorf("expected refcount 2, got %d", h.RefCount())
	}
	c.Release()
	if h.RefCount() != 1 {
		t.Errorf("expected refcount 1, got %d", h.RefCount())
	}
}

func TestAssign(t *testing.T) {
	rt := dyn.New()

	t.Run("ReleasesPrevious", func(t *testing.T) {
		a := objref.String(rt, "a")
		b := objref.String(rt, "b")
		defer b.Release()
		old := a.Ref()

		a.Assign(b)
		if rt.Alive(old) {
			t.Errorf("expected previous target to be freed")
		}
		if a.Ref() != b.Ref() {
			t.Errorf("expected a to alias b")
		}
		if b.RefCount() != 2 {
			t.Errorf("expected refcount 2, got %d", b.RefCount())
		}
		a.Release()
	})

	t.Run("Self", func(t *testing.T) {
		a := objref.String(rt, "self")
		a.Assign(a)
		if !rt.Alive(a.Ref()) {
			t.Fatalf("self-assignment freed the object")
		}
		if a.RefCount() != 1 {
			t.Errorf("expected refcount 1, got %d", a.RefCount())
		}
		a.Release()
	})

	t.Run("Alias", func(t *testing.T) {
		a := objref.String(rt, "alias")
		b := a.Copy()
		a.Release()
		// b now holds the only count.
		c := b.Copy()
		b.Assign(c)
		c.Release()
		if !rt.Alive(b.Ref()) {
			t.Fatalf("assigning an alias freed the object")
		}
		b.Release()
	})

	t.Run("Nil", func(t *testing.T) {
		a := objref.String(rt, "gone")
		ref := a.Ref()
		a.Assign(nil)
		if !a.IsNull() {
			t.Errorf("expected empty handle after assigning nil")
		}
		if rt.Alive(ref) {
			t.Errorf("expected object to be freed")
		}
	})
}

func TestRelease(t *testing.T) {
	rt := dyn.New()
	h := objref.Float(rt, 1.5)
	ref := h.Ref()
	h.Release()
	h.Release()
	if rt.Alive(ref) {
		t.Errorf("expected object to be freed")
	}
	if !h.IsNull() {
		t.Errorf("expected released handle to be empty")
	}

	var nilHandle *objref.Handle
	nilHandle.Release()
	if !nilHandle.IsNull() {
		t.Errorf("expected nil handle to be null")
	}
}

func TestDisown(t *testing.T) {
	rt := dyn.New()
	h := objref.String(rt, "moved")
	ref := h.Disown()
	h.Release()
	if !rt.Alive(ref) {
		t.Fatalf("Release after Disown freed the object")
	}
	if rt.RefCount(ref) != 1 {
		t.Errorf("expected refcount 1, got %d", rt.RefCount(ref))
	}
	rt.DecRef(ref)
}

func TestNone(t *testing.T) {
	rt := dyn.New()
	before := rt.RefCount(rt.None())
	h := objref.None(rt)
	if !h.IsNone() {
		t.Errorf("expected None")
	}
	if rt.RefCount(rt.None()) != before+1 {
		t.Errorf("expected None refcount %d, got %d", before+1, rt.RefCount(rt.None()))
	}
	h.Release()
	if rt.RefCount(rt.None()) != before {
		t.Errorf("expected None refcount %d, got %d", before, rt.RefCount(rt.None()))
	}
}

func TestNull(t *testing.T) {
	rt := dyn.New()
	h := objref.Null(rt)
	if !h.IsNull() {
		t.Errorf("expected null handle")
	}
	if h.TypeName() != "" {
		t.Errorf("expected empty type name, got %q", h.TypeName())
	}
	if h.String() != "<null>" {
		t.Errorf("expected '<null>', got %q", h.String())
	}
	if h.RefCount() != 0 {
		t.Errorf("expected refcount 0, got %d", h.RefCount())
	}
	if h.IsInt() || h.IsNone() || h.IsCallable() {
		t.Errorf("expected predicates to be false on a null handle")
	}
}

// =============================================================================
// Leaks
// =============================================================================

func TestNoLeaks(t *testing.T) {
	rt := dyn.New()
	warm := func() {
		d, err := objref.From(rt, map[string]any{
			"name":  "Alice",
			"tags":  []any{"a", "b", 3},
			"inner": map[string]any{"x": 1.5},
		})
		if err != nil {
			t.Fatalf("From failed: %v", err)
		}
		defer d.Release()

		ref, err := d.Item("missing")
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		if err := ref.Set(42); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		ref.Release()

		tags, err := d.Item("tags")
		if err != nil {
			t.Fatalf("Item failed: %v", err)
		}
		if _, err := tags.Item(10); err == nil {
			t.Errorf("expected index error")
		} else {
			objref.ReleaseError(err)
		}
		args, err := objref.Args(rt, "b")
		if err != nil {
			t.Fatalf("Args failed: %v", err)
		}
		n, err := tags.MethodCallArgs("index", args)
		args.Release()
		if err != nil {
			t.Fatalf("MethodCall failed: %v", err)
		}
		n.Release()
		tags.Release()

		if _, err := d.Attr("nope"); err == nil {
			t.Errorf("expected attribute error")
		} else {
			objref.ReleaseError(err)
		}
		if _, err := d.Repr(); err != nil {
			t.Fatalf("Repr failed: %v", err)
		}
		if _, err := d.Go(); err != nil {
			t.Fatalf("Go failed: %v", err)
		}
	}

	// The first round creates type objects, which are immortal.
	warm()
	before := rt.Live()
	warm()
	if after := rt.Live(); after != before {
		t.Errorf("expected %d live objects, got %d", before, after)
	}
}

// mustArgs builds an argument tuple and releases it when the test ends.
func mustArgs(t *testing.T, rt objref.Runtime, vals ...any) *objref.Handle {
	t.Helper()
	args, err := objref.Args(rt, vals...)
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	t.Cleanup(args.Release)
	return args
}

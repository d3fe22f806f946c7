//go:build cpython

package cpython

import (
	"errors"
	"os"
	"testing"

	"github.com/feather-lang/objref"
)

var rt *Runtime

func TestMain(m *testing.M) {
	rt = New()
	os.Exit(m.Run())
}

func eval(t *testing.T, expr string) *objref.Handle {
	t.Helper()
	ref := rt.Eval(expr)
	if ref == objref.Nil {
		rt.ErrClear()
		t.Fatalf("eval %q failed", expr)
	}
	return objref.Adopt(rt, ref)
}

func TestKeyedAccess(t *testing.T) {
	defer rt.Enter()()

	d := eval(t, "{'name': 'Alice'}")
	defer d.Release()

	ref, err := d.Item("age")
	if err != nil {
		t.Fatalf("Item failed: %v", err)
	}
	defer ref.Release()
	if ref.Found() {
		t.Errorf("expected empty proxy for a missing key")
	}
	if err := ref.Set(30); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if s, _ := d.Repr(); s != "{'name': 'Alice', 'age': 30}" {
		t.Errorf("expected {'name': 'Alice', 'age': 30}, got %s", s)
	}

	l := eval(t, "[1, 2, 3]")
	defer l.Release()
	if _, err := l.Item(3); !errors.Is(err, objref.ErrIndex) {
		t.Errorf("expected index error, got %v", err)
	}
}

func TestRefCounts(t *testing.T) {
	defer rt.Enter()()

	// A fresh list; constants may be immortal on newer interpreters.
	s := eval(t, "[1, 2]")
	defer s.Release()
	before := s.RefCount()
	c := s.Copy()
	if s.RefCount() != before+1 {
		t.Errorf("expected refcount %d, got %d", before+1, s.RefCount())
	}
	c.Release()
	if s.RefCount() != before {
		t.Errorf("expected refcount %d, got %d", before, s.RefCount())
	}
}

func TestMethodCall(t *testing.T) {
	defer rt.Enter()()

	sep := objref.String(rt, "-")
	defer sep.Release()
	args, err := objref.Args(rt, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	defer args.Release()
	res, err := sep.MethodCallArgs("join", args)
	if err != nil {
		t.Fatalf("MethodCall failed: %v", err)
	}
	defer res.Release()
	if s, _ := res.AsString(); s != "a-b" {
		t.Errorf("expected 'a-b', got %q", s)
	}
}

func TestErrors(t *testing.T) {
	defer rt.Enter()()

	n := objref.Int(rt, 1)
	defer n.Release()
	if _, err := n.Attr("missing"); !errors.Is(err, objref.ErrAttribute) {
		t.Errorf("expected attribute error, got %v", err)
	}
	if _, err := n.Lt("a"); !errors.Is(err, objref.ErrType) {
		t.Errorf("expected type error, got %v", err)
	}
	f := objref.Float(rt, 1.5)
	defer f.Release()
	if _, err := f.Int(); !errors.Is(err, objref.ErrTypeConversion) {
		t.Errorf("expected conversion error, got %v", err)
	}
	if rt.ErrOccurred() {
		t.Errorf("expected error indicator to be clear")
	}
}

func TestRestoreKeepsClass(t *testing.T) {
	defer rt.Enter()()

	conv := eval(t, "int")
	defer conv.Release()
	args, err := objref.Args(rt, "x")
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	defer args.Release()

	_, err = conv.CallArgs(args)
	var e *objref.Error
	if !errors.As(err, &e) || e.Class != "ValueError" {
		t.Fatalf("expected ValueError, got %v", err)
	}
	e.Restore(rt)
	class, value := rt.ErrFetch()
	c, v := objref.Adopt(rt, class), objref.Adopt(rt, value)
	defer c.Release()
	defer v.Release()
	if got := v.TypeName(); got != "ValueError" {
		t.Errorf("expected ValueError, got %s", got)
	}
	if got, _ := c.Repr(); got != "<class 'ValueError'>" {
		t.Errorf("expected <class 'ValueError'>, got %s", got)
	}
}

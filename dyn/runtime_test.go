package dyn

import (
	"bytes"
	"log/slog"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/feather-lang/objref"
)

func TestFreeReleasesChildren(t *testing.T) {
	r := New()
	s := r.NewString("child")
	l := r.NewList([]Ref{s})
	if r.RefCount(s) != 2 {
		t.Fatalf("expected refcount 2, got %d", r.RefCount(s))
	}
	r.DecRef(s)
	r.DecRef(l)
	if r.Alive(l) || r.Alive(s) {
		t.Errorf("expected list and child to be freed")
	}
}

func TestImmortals(t *testing.T) {
	r := New()
	none := r.None()
	r.DecRef(none)
	if !r.Alive(none) {
		t.Errorf("expected None to survive a zero refcount")
	}
	r.IncRef(none)

	yes := r.NewBool(true)
	if yes != r.NewBool(true) {
		t.Errorf("expected True to be a singleton")
	}
	r.DecRef(yes)
	r.DecRef(yes)
}

func TestUseAfterFreePanics(t *testing.T) {
	r := New()
	s := r.NewString("x")
	r.DecRef(s)
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	r.IncRef(s)
}

func TestUnderflowPanics(t *testing.T) {
	var logs bytes.Buffer
	r := New(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	none := r.None()
	r.DecRef(none) // 0, immortal
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
		if !strings.Contains(logs.String(), "reference count underflow") {
			t.Errorf("expected underflow to be logged, got %q", logs.String())
		}
	}()
	r.DecRef(none)
}

func TestFreeTracing(t *testing.T) {
	var logs bytes.Buffer
	r := New(WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	r.DecRef(r.NewString("x"))
	if !strings.Contains(logs.String(), "type=str") {
		t.Errorf("expected free to be traced, got %q", logs.String())
	}
}

func TestErrorSlot(t *testing.T) {
	r := New()
	if r.ErrOccurred() {
		t.Fatalf("expected empty error slot")
	}
	r.SetError(objref.ExcKeyError, "%q", "k")
	if !r.ErrMatches(objref.ExcKeyError) || r.ErrMatches(objref.ExcIndexError) {
		t.Errorf("expected pending KeyError")
	}

	class, value := r.ErrFetch()
	if r.ErrOccurred() {
		t.Errorf("expected ErrFetch to clear the slot")
	}
	if r.TypeName(value) != "KeyError" || r.strString(value) != `"k"` {
		t.Errorf("unexpected exception %s", r.reprString(value))
	}
	if r.reprString(class) != "<class 'KeyError'>" {
		t.Errorf("unexpected class %s", r.reprString(class))
	}
	r.DecRef(class)
	r.DecRef(value)
	if r.Alive(value) {
		t.Errorf("expected exception to be freed")
	}

	before := r.Live()
	r.Raise("ValueError", "one")
	r.Raise("ValueError", "two")
	r.ErrClear()
	if r.Live() != before {
		t.Errorf("expected replaced exceptions to be freed")
	}
}

func TestErrRestore(t *testing.T) {
	r := New()
	r.Raise("ValueError", "bad value")
	class, value := r.ErrFetch()
	r.SetError(objref.ExcKeyError, "other")

	r.ErrRestore(class, value)
	if !r.ErrOccurred() || r.exc != value {
		t.Fatalf("expected the fetched exception to be pending again")
	}
	if r.RefCount(value) != 1 {
		t.Errorf("expected the slot to own the only reference, got %d", r.RefCount(value))
	}
	if r.ErrMatches(objref.ExcKeyError) {
		t.Errorf("expected the replaced KeyError to be gone")
	}
	r.ErrClear()
	if r.Alive(value) {
		t.Errorf("expected exception to be freed")
	}

	// A class without a value raises a bare instance of it.
	r.ErrRestore(r.newRef(r.typeObject("IndexError")), objref.Nil)
	if !r.ErrMatches(objref.ExcIndexError) {
		t.Errorf("expected pending IndexError")
	}
	r.ErrClear()

	s := r.NewString("not an exception")
	r.ErrRestore(objref.Nil, s)
	if !r.ErrMatches(objref.ExcTypeError) || r.Alive(s) {
		t.Errorf("expected TypeError and the value to be released")
	}
	r.ErrClear()
}

func TestNilValuesRejected(t *testing.T) {
	r := New()
	one := r.NewInt(1)
	defer r.DecRef(one)
	d := r.NewDict()
	defer r.DecRef(d)
	obj := r.NewObject("Thing")
	defer r.DecRef(obj)
	name := r.NewString("field")
	defer r.DecRef(name)
	r.typeObject("SystemError")
	before := r.Live()

	expectSystemError := func(what string) {
		t.Helper()
		if !r.ErrOccurred() {
			t.Errorf("%s: expected an error", what)
			return
		}
		class, value := r.ErrFetch()
		if r.TypeName(value) != "SystemError" {
			t.Errorf("%s: expected SystemError, got %s", what, r.TypeName(value))
		}
		r.DecRef(class)
		r.DecRef(value)
	}

	if r.NewTuple([]Ref{one, objref.Nil}) != objref.Nil {
		t.Errorf("NewTuple: expected Nil")
	}
	expectSystemError("NewTuple")
	if r.NewList([]Ref{objref.Nil}) != objref.Nil {
		t.Errorf("NewList: expected Nil")
	}
	expectSystemError("NewList")
	if r.DictSetItem(d, one, objref.Nil) != -1 {
		t.Errorf("DictSetItem: expected -1")
	}
	expectSystemError("DictSetItem value")
	if r.DictSetItem(d, objref.Nil, one) != -1 {
		t.Errorf("DictSetItem: expected -1")
	}
	expectSystemError("DictSetItem key")
	if r.SetAttr(obj, name, objref.Nil) != -1 {
		t.Errorf("SetAttr: expected -1")
	}
	expectSystemError("SetAttr")

	if n := r.Size(d); n != 0 {
		t.Errorf("expected empty dict, got %d items", n)
	}
	if r.RefCount(one) != 1 {
		t.Errorf("expected failed constructors to leave counts alone, got %d", r.RefCount(one))
	}
	if r.Live() != before {
		t.Errorf("expected %d live objects, got %d", before, r.Live())
	}
}

func TestDictKeys(t *testing.T) {
	r := New()
	d := r.NewDict()
	defer r.DecRef(d)

	set := func(k, v Ref) {
		t.Helper()
		if r.DictSetItem(d, k, v) != 0 {
			t.Fatalf("DictSetItem failed: %s", r.strString(r.exc))
		}
		r.DecRef(k)
		r.DecRef(v)
	}
	set(r.NewInt(1), r.NewString("int"))
	set(r.NewFloat(1.0), r.NewString("float"))
	set(r.NewBool(true), r.NewString("bool"))
	set(r.NewString("1"), r.NewString("str"))
	tup := r.NewTuple([]Ref{r.none, r.yes})
	set(tup, r.NewString("tuple"))

	if got := r.reprString(d); got != "{1: 'bool', '1': 'str', (None, True): 'tuple'}" {
		t.Errorf("unexpected dict %s", got)
	}

	one := r.NewInt(1)
	key := r.NewTuple([]Ref{r.none, one})
	r.DecRef(one)
	v := r.GetItem(d, key)
	if v == objref.Nil {
		t.Fatalf("expected (None, 1) to find (None, True)")
	}
	r.DecRef(v)
	r.DecRef(key)

	l := r.NewList(nil)
	if r.DictSetItem(d, l, r.none) != -1 || !r.ErrMatches(objref.ExcTypeError) {
		t.Errorf("expected TypeError for a list key")
	}
	r.ErrClear()
	r.DecRef(l)

	if s := r.DictGetString(d, "1"); r.strString(s) != "str" {
		t.Errorf("expected 'str', got %s", r.reprString(s))
	}
	if s := r.DictGetString(d, "missing"); s != objref.Nil || r.ErrOccurred() {
		t.Errorf("expected Nil without an error")
	}
}

func TestBigIntKeys(t *testing.T) {
	r := New()
	f := r.NewFloat(1e20)
	defer r.DecRef(f)
	n, _ := new(big.Int).SetString("100000000000000000000", 10)
	i := r.NewBigInt(n)
	defer r.DecRef(i)
	k1, _ := r.hashKey(f)
	k2, _ := r.hashKey(i)
	if k1 != k2 {
		t.Errorf("expected 1e20 and 10**20 to share a key, got %v and %v", k1, k2)
	}
	if floatKey(1e20) != "int:100000000000000000000" {
		t.Errorf("unexpected key %v", floatKey(1e20))
	}
	if floatKey(0.5) != 0.5 {
		t.Errorf("unexpected key %v", floatKey(0.5))
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{0, "0.0"},
		{-2.5, "-2.5"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.f); got != tt.want {
			t.Errorf("formatFloat(%v): expected %s, got %s", tt.f, tt.want, got)
		}
	}

	complexes := []struct {
		c    complex128
		want string
	}{
		{2i, "2j"},
		{1 + 2i, "(1+2j)"},
		{1.5 - 0.5i, "(1.5-0.5j)"},
		{complex(1, 0), "(1+0j)"},
	}
	for _, tt := range complexes {
		if got := formatComplex(tt.c); got != tt.want {
			t.Errorf("formatComplex(%v): expected %s, got %s", tt.c, tt.want, got)
		}
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		s, want string
	}{
		{"plain", "'plain'"},
		{`both ' and "`, `'both \' and "'`},
		{"tab\there", `'tab\there'`},
		{"\x01", `'\x01'`},
		{`back\slash`, `'back\\slash'`},
	}
	for _, tt := range tests {
		if got := quoteString(tt.s); got != tt.want {
			t.Errorf("quoteString(%q): expected %s, got %s", tt.s, tt.want, got)
		}
	}
}

func TestRichCompare(t *testing.T) {
	r := New()
	u := r.NewUint(math.MaxUint64)
	defer r.DecRef(u)
	f := r.NewFloat(math.MaxUint64)
	defer r.DecRef(f)
	if r.RichCompareBool(u, f, objref.OpLT) != 1 {
		t.Errorf("expected 2**64-1 < float(2**64)")
	}

	c := r.NewComplex(1i)
	defer r.DecRef(c)
	if r.RichCompareBool(c, c, objref.OpEQ) != 1 {
		t.Errorf("expected complex equality")
	}
	if r.RichCompareBool(c, c, objref.OpLT) != -1 || !r.ErrMatches(objref.ExcTypeError) {
		t.Errorf("expected TypeError ordering complex numbers")
	}
	r.ErrClear()

	d1, d2 := r.NewDict(), r.NewDict()
	defer r.DecRef(d1)
	defer r.DecRef(d2)
	if r.RichCompareBool(d1, d2, objref.OpEQ) != 1 {
		t.Errorf("expected empty dicts to be equal")
	}
}

func TestCallWithoutException(t *testing.T) {
	r := New()
	bad := r.NewFunc("bad", func(r *Runtime, args []Ref, kwargs map[string]Ref) Ref {
		return objref.Nil
	})
	defer r.DecRef(bad)
	if r.Call(bad, objref.Nil, objref.Nil) != objref.Nil {
		t.Fatalf("expected failure")
	}
	class, value := r.ErrFetch()
	defer r.DecRef(class)
	defer r.DecRef(value)
	if r.TypeName(value) != "SystemError" {
		t.Errorf("expected SystemError, got %s", r.TypeName(value))
	}
}

func TestBuiltinMethods(t *testing.T) {
	r := New()
	d := r.NewDict()
	defer r.DecRef(d)
	k, v := r.NewString("a"), r.NewInt(1)
	r.DictSetItem(d, k, v)
	r.DecRef(k)
	r.DecRef(v)

	call := func(self Ref, name string, args ...Ref) Ref {
		t.Helper()
		n := r.NewString(name)
		m := r.GetAttr(self, n)
		r.DecRef(n)
		if m == objref.Nil {
			t.Fatalf("GetAttr(%s) failed", name)
		}
		tup := r.NewTuple(args)
		res := r.Call(m, tup, objref.Nil)
		r.DecRef(tup)
		r.DecRef(m)
		return res
	}

	items := call(d, "items")
	if got := r.reprString(items); got != "[('a', 1)]" {
		t.Errorf("expected [('a', 1)], got %s", got)
	}
	r.DecRef(items)

	missing := r.NewString("zz")
	def := call(d, "get", missing, r.none)
	r.DecRef(missing)
	if def != r.none {
		t.Errorf("expected None default")
	}
	r.DecRef(def)

	s := r.NewString("MiXed")
	defer r.DecRef(s)
	up := call(s, "upper")
	if r.strString(up) != "MIXED" {
		t.Errorf("expected MIXED, got %s", r.strString(up))
	}
	r.DecRef(up)

	l := r.NewList(nil)
	defer r.DecRef(l)
	if res := call(l, "pop"); res != objref.Nil || !r.ErrMatches(objref.ExcIndexError) {
		t.Errorf("expected IndexError popping an empty list")
	}
	r.ErrClear()
}

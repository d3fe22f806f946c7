package objref

// Ref is an opaque reference to an object owned by a foreign runtime.
// A Ref carries no ownership by itself; see [Handle].
type Ref uintptr

// Nil is the null reference.
const Nil Ref = 0

// CompareOp selects a rich comparison.
// The values match the foreign C API (Py_LT .. Py_GE).
type CompareOp int

const (
	OpLT CompareOp = iota
	OpLE
	OpEQ
	OpNE
	OpGT
	OpGE
)

func (op CompareOp) String() string {
	switch op {
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	}
	return "?"
}

// TypeTag names a built-in foreign type for exact type checks.
type TypeTag int

const (
	TagInt TypeTag = iota + 1
	TagFloat
	TagComplex
	TagList
	TagTuple
	TagDict
	TagString
	TagBool
	TagNone
)

// Exception names the foreign exception classes this package tells apart.
type Exception int

const (
	ExcOther Exception = iota
	ExcAttributeError
	ExcKeyError
	ExcIndexError
	ExcTypeError
)

// PrintFlags control [Handle.Print] and [Handle.PrintTo].
type PrintFlags int

// PrintRaw writes str() instead of repr().
const PrintRaw PrintFlags = 1

// Runtime is the generic object protocol of a reference-counted foreign
// runtime.
//
// Primitives follow the conventions of a C object API: a primitive
// returning a Ref returns a new reference, or Nil with an error pending in
// the runtime's error slot; a primitive returning int returns -1 on failure.
// Arguments are always borrowed.
//
// Low-level API. Most code should use [Handle].
type Runtime interface {
	IncRef(o Ref)
	DecRef(o Ref)
	RefCount(o Ref) int

	NewInt(v int64) Ref
	NewUint(v uint64) Ref
	NewFloat(v float64) Ref
	NewComplex(v complex128) Ref
	NewString(s string) Ref
	NewBool(v bool) Ref
	NewTuple(items []Ref) Ref
	NewList(items []Ref) Ref
	NewDict() Ref
	// None returns a borrowed reference to the None singleton.
	None() Ref

	GetAttr(o, name Ref) Ref
	SetAttr(o, name, v Ref) int
	DelAttr(o, name Ref) int
	HasAttr(o, name Ref) bool

	GetItem(o, key Ref) Ref
	SetItem(o, key, v Ref) int
	DelItem(o, key Ref) int
	DictSetItem(d, key, v Ref) int
	DictKeys(d Ref) Ref
	ListAppend(l, v Ref) int

	// Call invokes o. args is a tuple or Nil, kwargs a dict or Nil.
	Call(o, args, kwargs Ref) Ref
	Callable(o Ref) bool

	// RichCompareBool returns 1, 0, or -1 on error.
	RichCompareBool(a, b Ref, op CompareOp) int
	IsTrue(o Ref) int
	Hash(o Ref) int64
	Size(o Ref) int

	Repr(o Ref) Ref
	Str(o Ref) Ref
	Type(o Ref) Ref
	TypeName(o Ref) string
	Check(o Ref, tag TypeTag) bool

	// The conversion primitives may leave an error pending; callers check
	// ErrOccurred afterwards.
	AsInt(o Ref) int64
	AsFloat(o Ref) float64
	AsComplex(o Ref) complex128
	AsString(o Ref) string

	// WriteObject writes o to the file-like object f.
	WriteObject(o, f Ref, flags PrintFlags) int

	ErrOccurred() bool
	ErrMatches(exc Exception) bool
	ErrClear()
	// ErrFetch returns new references to the pending exception's class and
	// value, and clears the slot.
	ErrFetch() (class, value Ref)
	// ErrRestore sets the pending exception from a class and value pair
	// returned by ErrFetch. It takes over both references.
	ErrRestore(class, value Ref)
	ErrSetString(exc Exception, msg string)
}

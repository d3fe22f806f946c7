// Package dyn is a pure-Go, reference-counted, dynamically typed object
// runtime that implements [objref.Runtime].
//
// Objects live in a handle table keyed by [objref.Ref]. Every object carries
// an explicit reference count and is freed, together with the references it
// holds, when the count drops to zero. The built-in types follow Python:
// None, bool, int, float, complex, str, list, tuple, dict, plus functions,
// bound methods, plain objects with attributes, file-like writers, type
// objects and exceptions.
//
//	rt := dyn.New()
//	h := objref.Int(rt, 42)
//	defer h.Release()
//
// A Runtime is not safe for concurrent use from multiple goroutines.
package dyn

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/feather-lang/objref"
)

// Ref is the handle type used throughout the runtime.
type Ref = objref.Ref

// Runtime is a dynamic object runtime instance.
type Runtime struct {
	objects map[Ref]*object
	nextID  Ref

	none, yes, no Ref
	types         map[string]Ref

	// error slot
	exc Ref

	// objects whose repr is being built, for cyclic containers
	reprActive map[Ref]bool

	logger *slog.Logger
	stdout io.Writer
}

// object is one table entry.
type object struct {
	refcnt   int
	val      value
	immortal bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for object lifecycle tracing.
// Tracing is emitted at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithStdout sets the writer behind [Runtime.Stdout]. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(r *Runtime) { r.stdout = w }
}

// New creates a runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		objects:    make(map[Ref]*object),
		nextID:     1,
		types:      make(map[string]Ref),
		reprActive: make(map[Ref]bool),
		logger:     slog.Default(),
		stdout:     os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.none = r.allocImmortal(noneType{})
	r.yes = r.allocImmortal(boolType(true))
	r.no = r.allocImmortal(boolType(false))
	return r
}

var _ objref.Runtime = (*Runtime)(nil)

// -----------------------------------------------------------------------------
// Handle table
// -----------------------------------------------------------------------------

func (r *Runtime) alloc(v value) Ref {
	id := r.nextID
	r.nextID++
	r.objects[id] = &object{refcnt: 1, val: v}
	return id
}

func (r *Runtime) allocImmortal(v value) Ref {
	id := r.alloc(v)
	r.objects[id].immortal = true
	return id
}

// get returns the live object for ref. Using a freed reference is a
// reference counting bug in the caller and panics.
func (r *Runtime) get(ref Ref) *object {
	if ref == objref.Nil {
		return nil
	}
	o, ok := r.objects[ref]
	if !ok {
		panic(fmt.Sprintf("dyn: use of freed object %#x", uintptr(ref)))
	}
	return o
}

// IncRef adds a reference to o.
func (r *Runtime) IncRef(o Ref) {
	if obj := r.get(o); obj != nil {
		obj.refcnt++
	}
}

// DecRef drops a reference to o and frees it when none are left.
func (r *Runtime) DecRef(o Ref) {
	obj := r.get(o)
	if obj == nil {
		return
	}
	if obj.refcnt <= 0 {
		r.logger.Error("dyn: reference count underflow", "ref", uintptr(o), "type", obj.val.Name())
		panic(fmt.Sprintf("dyn: reference count underflow on %s object %#x", obj.val.Name(), uintptr(o)))
	}
	obj.refcnt--
	if obj.refcnt == 0 && !obj.immortal {
		r.free(o, obj)
	}
}

func (r *Runtime) free(ref Ref, obj *object) {
	r.logger.Debug("dyn: free", "ref", uintptr(ref), "type", obj.val.Name())
	delete(r.objects, ref)
	if c, ok := obj.val.(container); ok {
		for _, child := range c.children() {
			if child != objref.Nil {
				r.DecRef(child)
			}
		}
	}
}

// RefCount returns the reference count of o, or 0 for a freed object.
func (r *Runtime) RefCount(o Ref) int {
	obj, ok := r.objects[o]
	if !ok {
		return 0
	}
	return obj.refcnt
}

// Alive reports whether o has not been freed.
func (r *Runtime) Alive(o Ref) bool {
	_, ok := r.objects[o]
	return ok
}

// Live returns the number of objects currently allocated, the immortal
// singletons and type objects included. Tests compare it before and after
// an operation to detect leaks.
func (r *Runtime) Live() int {
	return len(r.objects)
}

// Stdout returns the writer configured with [WithStdout].
func (r *Runtime) Stdout() io.Writer {
	return r.stdout
}

func (r *Runtime) newRef(ref Ref) Ref {
	r.IncRef(ref)
	return ref
}

// typeObject returns a borrowed reference to the type object called name.
func (r *Runtime) typeObject(name string) Ref {
	if t, ok := r.types[name]; ok {
		return t
	}
	t := r.allocImmortal(typeType{name: name})
	r.types[name] = t
	return t
}

// -----------------------------------------------------------------------------
// Error slot
// -----------------------------------------------------------------------------

// ErrOccurred reports whether an exception is pending.
func (r *Runtime) ErrOccurred() bool {
	return r.exc != objref.Nil
}

// ErrMatches reports whether the pending exception is of class exc.
func (r *Runtime) ErrMatches(exc objref.Exception) bool {
	if r.exc == objref.Nil {
		return false
	}
	e := r.get(r.exc).val.(*excType)
	return e.kind == exc
}

// ErrClear drops the pending exception.
func (r *Runtime) ErrClear() {
	if r.exc != objref.Nil {
		exc := r.exc
		r.exc = objref.Nil
		r.DecRef(exc)
	}
}

// ErrFetch hands the pending exception to the caller and clears the slot.
func (r *Runtime) ErrFetch() (class, value Ref) {
	if r.exc == objref.Nil {
		return objref.Nil, objref.Nil
	}
	value = r.exc
	r.exc = objref.Nil
	e := r.get(value).val.(*excType)
	return r.newRef(r.typeObject(e.class)), value
}

// ErrRestore makes value the pending exception, replacing any pending one.
// Both references are taken over. A Nil value raises a bare instance of
// class.
func (r *Runtime) ErrRestore(class, value Ref) {
	if value == objref.Nil {
		if class == objref.Nil {
			r.ErrClear()
			return
		}
		name := "Exception"
		if t, ok := r.get(class).val.(typeType); ok {
			name = t.name
		}
		r.DecRef(class)
		r.raise(exceptionKind(name), name, "")
		return
	}
	if _, ok := r.get(value).val.(*excType); !ok {
		r.DecRef(value)
		if class != objref.Nil {
			r.DecRef(class)
		}
		r.SetError(objref.ExcTypeError, "exceptions must derive from BaseException")
		return
	}
	r.ErrClear()
	r.exc = value
	if class != objref.Nil {
		r.DecRef(class)
	}
}

// ErrSetString raises exc with message msg, replacing any pending exception.
func (r *Runtime) ErrSetString(exc objref.Exception, msg string) {
	r.raise(exc, exceptionClass(exc), msg)
}

// SetError raises exc with a formatted message.
func (r *Runtime) SetError(exc objref.Exception, format string, args ...any) {
	r.raise(exc, exceptionClass(exc), fmt.Sprintf(format, args...))
}

// Raise raises an exception of a named class that has no [objref.Exception]
// code, such as "ValueError".
func (r *Runtime) Raise(class, msg string) {
	r.raise(objref.ExcOther, class, msg)
}

func (r *Runtime) raise(kind objref.Exception, class, msg string) {
	r.ErrClear()
	r.exc = r.alloc(&excType{kind: kind, class: class, msg: msg})
}

func exceptionClass(exc objref.Exception) string {
	switch exc {
	case objref.ExcAttributeError:
		return "AttributeError"
	case objref.ExcKeyError:
		return "KeyError"
	case objref.ExcIndexError:
		return "IndexError"
	case objref.ExcTypeError:
		return "TypeError"
	}
	return "RuntimeError"
}

func exceptionKind(class string) objref.Exception {
	for _, exc := range []objref.Exception{objref.ExcAttributeError, objref.ExcKeyError, objref.ExcIndexError, objref.ExcTypeError} {
		if exceptionClass(exc) == class {
			return exc
		}
	}
	return objref.ExcOther
}

// badInternalCall reports a primitive used on the wrong kind of object, or
// on Nil.
func (r *Runtime) badInternalCall() {
	r.Raise("SystemError", "bad argument to internal function")
}

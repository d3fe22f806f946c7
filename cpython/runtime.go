//go:build cpython

package cpython

/*
#cgo pkg-config: python3-embed
#define PY_SSIZE_T_CLEAN
#include <Python.h>
#include <stdlib.h>

static Py_ssize_t objref_refcnt(PyObject *o) { return Py_REFCNT(o); }
static const char *objref_type_name(PyObject *o) { return Py_TYPE(o)->tp_name; }
static PyObject *objref_none(void) { return Py_None; }

static int objref_check(PyObject *o, int tag) {
	switch (tag) {
	case 1: return PyLong_CheckExact(o);
	case 2: return PyFloat_CheckExact(o);
	case 3: return PyComplex_CheckExact(o);
	case 4: return PyList_CheckExact(o);
	case 5: return PyTuple_CheckExact(o);
	case 6: return PyDict_CheckExact(o);
	case 7: return PyUnicode_CheckExact(o);
	case 8: return PyBool_Check(o);
	case 9: return o == Py_None;
	}
	return 0;
}

static PyObject *objref_exception(int exc) {
	switch (exc) {
	case 1: return PyExc_AttributeError;
	case 2: return PyExc_KeyError;
	case 3: return PyExc_IndexError;
	case 4: return PyExc_TypeError;
	}
	return PyExc_RuntimeError;
}

static void objref_fetch(PyObject **type, PyObject **value) {
	PyObject *tb = NULL;
	PyErr_Fetch(type, value, &tb);
	PyErr_NormalizeException(type, value, &tb);
	Py_XDECREF(tb);
}
*/
import "C"

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/feather-lang/objref"
)

type Ref = objref.Ref

var initOnce sync.Once

// Runtime is the embedded interpreter.
type Runtime struct{}

var _ objref.Runtime = (*Runtime)(nil)

// New starts the interpreter on first use. The interpreter lock is released
// on return; call [Runtime.Enter] before using the Runtime.
func New() *Runtime {
	initOnce.Do(func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		C.Py_InitializeEx(0)
		C.PyEval_SaveThread()
	})
	return &Runtime{}
}

// Enter locks the calling goroutine to its OS thread and takes the
// interpreter lock. The returned function gives both back:
//
//	defer rt.Enter()()
//
// The error indicator is kept per thread, so every primitive between Enter
// and its release must run on the same goroutine.
func (r *Runtime) Enter() (exit func()) {
	runtime.LockOSThread()
	g := C.PyGILState_Ensure()
	return func() {
		C.PyGILState_Release(g)
		runtime.UnlockOSThread()
	}
}

func ptr(o Ref) *C.PyObject { return (*C.PyObject)(unsafe.Pointer(uintptr(o))) }
func ref(p *C.PyObject) Ref { return Ref(uintptr(unsafe.Pointer(p))) }

func status(rc C.int) int {
	if rc < 0 {
		return -1
	}
	return 0
}

// Eval evaluates a Python expression in a fresh namespace holding the
// builtins and returns a new reference to the result.
func (r *Runtime) Eval(expr string) Ref {
	cs := C.CString(expr)
	defer C.free(unsafe.Pointer(cs))
	globals := C.PyDict_New()
	defer C.Py_DecRef(globals)
	builtins := C.PyEval_GetBuiltins()
	key := C.CString("__builtins__")
	defer C.free(unsafe.Pointer(key))
	C.PyDict_SetItemString(globals, key, builtins)
	return ref(C.PyRun_StringFlags(cs, C.Py_eval_input, globals, globals, nil))
}

func (r *Runtime) IncRef(o Ref) { C.Py_IncRef(ptr(o)) }
func (r *Runtime) DecRef(o Ref) { C.Py_DecRef(ptr(o)) }

func (r *Runtime) RefCount(o Ref) int {
	if o == objref.Nil {
		return 0
	}
	return int(C.objref_refcnt(ptr(o)))
}

func (r *Runtime) NewInt(v int64) Ref     { return ref(C.PyLong_FromLongLong(C.longlong(v))) }
func (r *Runtime) NewUint(v uint64) Ref   { return ref(C.PyLong_FromUnsignedLongLong(C.ulonglong(v))) }
func (r *Runtime) NewFloat(v float64) Ref { return ref(C.PyFloat_FromDouble(C.double(v))) }
func (r *Runtime) NewComplex(v complex128) Ref {
	return ref(C.PyComplex_FromDoubles(C.double(real(v)), C.double(imag(v))))
}

func (r *Runtime) NewString(s string) Ref {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return ref(C.PyUnicode_FromStringAndSize(cs, C.Py_ssize_t(len(s))))
}

func (r *Runtime) NewBool(v bool) Ref {
	if v {
		return ref(C.PyBool_FromLong(1))
	}
	return ref(C.PyBool_FromLong(0))
}

// NewTuple and NewList borrow items; the C setters steal, so each item is
// counted first.
func (r *Runtime) NewTuple(items []Ref) Ref {
	t := C.PyTuple_New(C.Py_ssize_t(len(items)))
	if t == nil {
		return objref.Nil
	}
	for i, it := range items {
		C.Py_IncRef(ptr(it))
		C.PyTuple_SetItem(t, C.Py_ssize_t(i), ptr(it))
	}
	return ref(t)
}

func (r *Runtime) NewList(items []Ref) Ref {
	l := C.PyList_New(C.Py_ssize_t(len(items)))
	if l == nil {
		return objref.Nil
	}
	for i, it := range items {
		C.Py_IncRef(ptr(it))
		C.PyList_SetItem(l, C.Py_ssize_t(i), ptr(it))
	}
	return ref(l)
}

func (r *Runtime) NewDict() Ref { return ref(C.PyDict_New()) }
func (r *Runtime) None() Ref    { return ref(C.objref_none()) }

func (r *Runtime) GetAttr(o, name Ref) Ref { return ref(C.PyObject_GetAttr(ptr(o), ptr(name))) }
func (r *Runtime) SetAttr(o, name, v Ref) int {
	return status(C.PyObject_SetAttr(ptr(o), ptr(name), ptr(v)))
}
func (r *Runtime) DelAttr(o, name Ref) int {
	return status(C.PyObject_SetAttr(ptr(o), ptr(name), nil))
}
func (r *Runtime) HasAttr(o, name Ref) bool { return C.PyObject_HasAttr(ptr(o), ptr(name)) == 1 }

func (r *Runtime) GetItem(o, key Ref) Ref { return ref(C.PyObject_GetItem(ptr(o), ptr(key))) }
func (r *Runtime) SetItem(o, key, v Ref) int {
	return status(C.PyObject_SetItem(ptr(o), ptr(key), ptr(v)))
}
func (r *Runtime) DelItem(o, key Ref) int { return status(C.PyObject_DelItem(ptr(o), ptr(key))) }
func (r *Runtime) DictSetItem(d, key, v Ref) int {
	return status(C.PyDict_SetItem(ptr(d), ptr(key), ptr(v)))
}
func (r *Runtime) DictKeys(d Ref) Ref      { return ref(C.PyDict_Keys(ptr(d))) }
func (r *Runtime) ListAppend(l, v Ref) int { return status(C.PyList_Append(ptr(l), ptr(v))) }

// Call invokes o. PyObject_Call needs a tuple, so a Nil args becomes an
// empty one.
func (r *Runtime) Call(o, args, kwargs Ref) Ref {
	if args == objref.Nil {
		empty := C.PyTuple_New(0)
		defer C.Py_DecRef(empty)
		return ref(C.PyObject_Call(ptr(o), empty, ptr(kwargs)))
	}
	return ref(C.PyObject_Call(ptr(o), ptr(args), ptr(kwargs)))
}

func (r *Runtime) Callable(o Ref) bool { return C.PyCallable_Check(ptr(o)) == 1 }

func (r *Runtime) RichCompareBool(a, b Ref, op objref.CompareOp) int {
	return int(C.PyObject_RichCompareBool(ptr(a), ptr(b), C.int(op)))
}

func (r *Runtime) IsTrue(o Ref) int { return int(C.PyObject_IsTrue(ptr(o))) }
func (r *Runtime) Hash(o Ref) int64 { return int64(C.PyObject_Hash(ptr(o))) }
func (r *Runtime) Size(o Ref) int   { return int(C.PyObject_Size(ptr(o))) }

func (r *Runtime) Repr(o Ref) Ref { return ref(C.PyObject_Repr(ptr(o))) }
func (r *Runtime) Str(o Ref) Ref  { return ref(C.PyObject_Str(ptr(o))) }
func (r *Runtime) Type(o Ref) Ref { return ref(C.PyObject_Type(ptr(o))) }

func (r *Runtime) TypeName(o Ref) string {
	if o == objref.Nil {
		return "NULL"
	}
	return C.GoString(C.objref_type_name(ptr(o)))
}

func (r *Runtime) Check(o Ref, tag objref.TypeTag) bool {
	return o != objref.Nil && C.objref_check(ptr(o), C.int(tag)) != 0
}

func (r *Runtime) AsInt(o Ref) int64     { return int64(C.PyLong_AsLongLong(ptr(o))) }
func (r *Runtime) AsFloat(o Ref) float64 { return float64(C.PyFloat_AsDouble(ptr(o))) }

func (r *Runtime) AsComplex(o Ref) complex128 {
	c := C.PyComplex_AsCComplex(ptr(o))
	return complex(float64(c.real), float64(c.imag))
}

func (r *Runtime) AsString(o Ref) string {
	var n C.Py_ssize_t
	s := C.PyUnicode_AsUTF8AndSize(ptr(o), &n)
	if s == nil {
		return ""
	}
	return C.GoStringN(s, C.int(n))
}

func (r *Runtime) WriteObject(o, f Ref, flags objref.PrintFlags) int {
	var pf C.int
	if flags&objref.PrintRaw != 0 {
		pf = C.Py_PRINT_RAW
	}
	return status(C.PyFile_WriteObject(ptr(o), ptr(f), pf))
}

func (r *Runtime) ErrOccurred() bool { return C.PyErr_Occurred() != nil }

func (r *Runtime) ErrMatches(exc objref.Exception) bool {
	if exc == objref.ExcOther || C.PyErr_Occurred() == nil {
		return false
	}
	return C.PyErr_ExceptionMatches(C.objref_exception(C.int(exc))) == 1
}

func (r *Runtime) ErrClear() { C.PyErr_Clear() }

func (r *Runtime) ErrFetch() (class, value Ref) {
	var t, v *C.PyObject
	C.objref_fetch(&t, &v)
	return ref(t), ref(v)
}

// ErrRestore steals class and value, as PyErr_Restore does.
func (r *Runtime) ErrRestore(class, value Ref) { C.PyErr_Restore(ptr(class), ptr(value), nil) }

func (r *Runtime) ErrSetString(exc objref.Exception, msg string) {
	cs := C.CString(msg)
	defer C.free(unsafe.Pointer(cs))
	C.PyErr_SetString(C.objref_exception(C.int(exc)), cs)
}

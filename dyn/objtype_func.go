package dyn

import (
	"io"

	"github.com/feather-lang/objref"
)

// Func is the signature of a Go function exposed as a callable object.
//
// args and the values of kwargs are borrowed. A Func returns a new
// reference, or Nil after raising an exception with [Runtime.SetError] or
// [Runtime.Raise].
type Func func(r *Runtime, args []Ref, kwargs map[string]Ref) Ref

// funcType is a callable wrapping a Go function.
type funcType struct {
	name string
	fn   Func
}

func (*funcType) Name() string { return "builtin_function_or_method" }

// methodType is a built-in method bound to its receiver. It owns a
// reference to the receiver.
type methodType struct {
	self Ref
	name string
	fn   method
}

func (*methodType) Name() string      { return "builtin_function_or_method" }
func (m *methodType) children() []Ref { return []Ref{m.self} }

// method implements a built-in method. self is borrowed.
type method func(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref

// instanceType is a plain object with a type name and attributes. It owns
// one reference to each attribute value.
type instanceType struct {
	class string
	attrs map[string]Ref
	order []string
}

func (t *instanceType) Name() string { return t.class }

func (t *instanceType) children() []Ref {
	refs := make([]Ref, 0, len(t.order))
	for _, name := range t.order {
		refs = append(refs, t.attrs[name])
	}
	return refs
}

// NewFunc creates a callable object backed by fn.
func (r *Runtime) NewFunc(name string, fn Func) Ref {
	return r.alloc(&funcType{name: name, fn: fn})
}

// NewObject creates an object of the named class with no attributes.
// Attributes are added with the attribute protocol.
func (r *Runtime) NewObject(class string) Ref {
	return r.alloc(&instanceType{class: class, attrs: make(map[string]Ref)})
}

// NewFile creates a file-like object whose write method writes str
// arguments to w.
func (r *Runtime) NewFile(w io.Writer) Ref {
	f := r.NewObject("file")
	write := r.NewFunc("write", func(r *Runtime, args []Ref, kwargs map[string]Ref) Ref {
		if len(args) != 1 || len(kwargs) != 0 {
			r.SetError(objref.ExcTypeError, "write() takes exactly one argument (%d given)", len(args))
			return objref.Nil
		}
		s, ok := r.get(args[0]).val.(strType)
		if !ok {
			r.SetError(objref.ExcTypeError, "write() argument must be str, not %s", r.TypeName(args[0]))
			return objref.Nil
		}
		n, err := io.WriteString(w, string(s))
		if err != nil {
			r.Raise("OSError", err.Error())
			return objref.Nil
		}
		return r.NewInt(int64(n))
	})
	r.setInstanceAttr(r.get(f).val.(*instanceType), "write", write)
	r.DecRef(write)
	return f
}

func (r *Runtime) setInstanceAttr(t *instanceType, name string, v Ref) {
	r.IncRef(v)
	if old, ok := t.attrs[name]; ok {
		t.attrs[name] = v
		r.DecRef(old)
		return
	}
	t.attrs[name] = v
	t.order = append(t.order, name)
}

func (r *Runtime) delInstanceAttr(t *instanceType, name string) bool {
	old, ok := t.attrs[name]
	if !ok {
		return false
	}
	delete(t.attrs, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	r.DecRef(old)
	return true
}

// -----------------------------------------------------------------------------
// Built-in methods
// -----------------------------------------------------------------------------

// builtinMethods is filled in init since the methods reach back into the
// attribute protocol that reads it.
var builtinMethods map[string]map[string]method

func init() {
	builtinMethods = map[string]map[string]method{
		"list": {
			"append": listAppendMethod,
			"pop":    listPopMethod,
			"index":  listIndexMethod,
		},
		"dict": {
			"keys":   dictKeysMethod,
			"values": dictValuesMethod,
			"items":  dictItemsMethod,
			"get":    dictGetMethod,
		},
		"str": {
			"upper": strUpperMethod,
			"lower": strLowerMethod,
			"join":  strJoinMethod,
		},
	}
}

func (r *Runtime) lookupMethod(self Ref, name string) Ref {
	typeName := r.get(self).val.Name()
	m, ok := builtinMethods[typeName][name]
	if !ok {
		return objref.Nil
	}
	r.IncRef(self)
	return r.alloc(&methodType{self: self, name: name, fn: m})
}

func (r *Runtime) checkArgs(name string, args []Ref, kwargs map[string]Ref, min, max int) bool {
	if len(kwargs) != 0 {
		r.SetError(objref.ExcTypeError, "%s() takes no keyword arguments", name)
		return false
	}
	if len(args) < min || len(args) > max {
		if min == max {
			r.SetError(objref.ExcTypeError, "%s() takes exactly %d argument(s) (%d given)", name, min, len(args))
		} else {
			r.SetError(objref.ExcTypeError, "%s() takes from %d to %d arguments (%d given)", name, min, max, len(args))
		}
		return false
	}
	return true
}

func listAppendMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("append", args, kwargs, 1, 1) {
		return objref.Nil
	}
	r.listAppend(r.get(self).val.(*listType), args[0])
	return r.newRef(r.none)
}

func listPopMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("pop", args, kwargs, 0, 1) {
		return objref.Nil
	}
	t := r.get(self).val.(*listType)
	if len(t.items) == 0 {
		r.SetError(objref.ExcIndexError, "pop from empty list")
		return objref.Nil
	}
	idx := len(t.items) - 1
	if len(args) == 1 {
		i, ok := r.seqIndex("pop", args[0], len(t.items), false)
		if !ok {
			return objref.Nil
		}
		idx = i
	}
	// The list's reference moves to the caller.
	return r.listRemove(t, idx)
}

func listIndexMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("index", args, kwargs, 1, 1) {
		return objref.Nil
	}
	for i, it := range r.get(self).val.(*listType).items {
		eq := r.RichCompareBool(it, args[0], objref.OpEQ)
		if eq == -1 {
			return objref.Nil
		}
		if eq == 1 {
			return r.NewInt(int64(i))
		}
	}
	r.Raise("ValueError", r.reprString(args[0])+" is not in list")
	return objref.Nil
}

func dictKeysMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("keys", args, kwargs, 0, 0) {
		return objref.Nil
	}
	return r.DictKeys(self)
}

func dictValuesMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("values", args, kwargs, 0, 0) {
		return objref.Nil
	}
	t := r.get(self).val.(*dictType)
	vals := make([]Ref, len(t.entries))
	for i, e := range t.entries {
		vals[i] = e.val
	}
	return r.NewList(vals)
}

func dictItemsMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("items", args, kwargs, 0, 0) {
		return objref.Nil
	}
	t := r.get(self).val.(*dictType)
	items := make([]Ref, len(t.entries))
	for i, e := range t.entries {
		items[i] = r.NewTuple([]Ref{e.key, e.val})
	}
	l := r.NewList(items)
	for _, it := range items {
		r.DecRef(it)
	}
	return l
}

func dictGetMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("get", args, kwargs, 1, 2) {
		return objref.Nil
	}
	t := r.get(self).val.(*dictType)
	i, found, ok := r.dictLookup(t, args[0])
	if !ok {
		return objref.Nil
	}
	if found {
		return r.newRef(t.entries[i].val)
	}
	if len(args) == 2 {
		return r.newRef(args[1])
	}
	return r.newRef(r.none)
}

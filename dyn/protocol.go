package dyn

import (
	"math"
	"math/big"
	"strings"

	"github.com/feather-lang/objref"
)

// -----------------------------------------------------------------------------
// Attributes
// -----------------------------------------------------------------------------

// attrName returns the text of an attribute name, raising TypeError for
// non-strings.
func (r *Runtime) attrName(name Ref) (string, bool) {
	obj := r.get(name)
	if obj != nil {
		if s, ok := obj.val.(strType); ok {
			return string(s), true
		}
	}
	r.SetError(objref.ExcTypeError, "attribute name must be string, not '%s'", r.TypeName(name))
	return "", false
}

func (r *Runtime) noAttribute(o Ref, name string) {
	r.SetError(objref.ExcAttributeError, "'%s' object has no attribute '%s'", r.TypeName(o), name)
}

// GetAttr returns a new reference to o.name.
func (r *Runtime) GetAttr(o, name Ref) Ref {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return objref.Nil
	}
	n, ok := r.attrName(name)
	if !ok {
		return objref.Nil
	}
	if n == "__class__" {
		return r.Type(o)
	}
	if t, ok := obj.val.(*instanceType); ok {
		if v, ok := t.attrs[n]; ok {
			return r.newRef(v)
		}
		r.noAttribute(o, n)
		return objref.Nil
	}
	if m := r.lookupMethod(o, n); m != objref.Nil {
		return m
	}
	r.noAttribute(o, n)
	return objref.Nil
}

// SetAttr sets o.name = v. Only plain objects accept new attributes.
func (r *Runtime) SetAttr(o, name, v Ref) int {
	obj := r.get(o)
	if obj == nil || r.get(v) == nil {
		r.badInternalCall()
		return -1
	}
	n, ok := r.attrName(name)
	if !ok {
		return -1
	}
	t, ok := obj.val.(*instanceType)
	if !ok {
		if _, isMethod := builtinMethods[obj.val.Name()][n]; isMethod {
			r.SetError(objref.ExcAttributeError, "'%s' object attribute '%s' is read-only", obj.val.Name(), n)
		} else {
			r.noAttribute(o, n)
		}
		return -1
	}
	r.setInstanceAttr(t, n, v)
	return 0
}

// DelAttr deletes o.name.
func (r *Runtime) DelAttr(o, name Ref) int {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return -1
	}
	n, ok := r.attrName(name)
	if !ok {
		return -1
	}
	t, ok := obj.val.(*instanceType)
	if !ok || !r.delInstanceAttr(t, n) {
		r.noAttribute(o, n)
		return -1
	}
	return 0
}

// HasAttr reports whether o.name exists. It never leaves an error pending.
func (r *Runtime) HasAttr(o, name Ref) bool {
	v := r.GetAttr(o, name)
	if v == objref.Nil {
		r.ErrClear()
		return false
	}
	r.DecRef(v)
	return true
}

// -----------------------------------------------------------------------------
// Items
// -----------------------------------------------------------------------------

// GetItem returns a new reference to o[key].
func (r *Runtime) GetItem(o, key Ref) Ref {
	obj := r.get(o)
	if obj == nil || key == objref.Nil {
		r.badInternalCall()
		return objref.Nil
	}
	switch t := obj.val.(type) {
	case *listType:
		i, ok := r.seqIndex("list", key, len(t.items), false)
		if !ok {
			return objref.Nil
		}
		return r.newRef(t.items[i])
	case tupleType:
		i, ok := r.seqIndex("tuple", key, len(t), false)
		if !ok {
			return objref.Nil
		}
		return r.newRef(t[i])
	case strType:
		runes := []rune(string(t))
		i, ok := r.seqIndex("string", key, len(runes), false)
		if !ok {
			return objref.Nil
		}
		return r.NewString(string(runes[i]))
	case *dictType:
		i, found, ok := r.dictLookup(t, key)
		if !ok {
			return objref.Nil
		}
		if !found {
			r.SetError(objref.ExcKeyError, "%s", r.reprString(key))
			return objref.Nil
		}
		return r.newRef(t.entries[i].val)
	}
	r.SetError(objref.ExcTypeError, "'%s' object is not subscriptable", obj.val.Name())
	return objref.Nil
}

// SetItem performs o[key] = v.
func (r *Runtime) SetItem(o, key, v Ref) int {
	obj := r.get(o)
	if obj == nil || key == objref.Nil || v == objref.Nil {
		r.badInternalCall()
		return -1
	}
	switch t := obj.val.(type) {
	case *listType:
		i, ok := r.seqIndex("list", key, len(t.items), true)
		if !ok {
			return -1
		}
		r.IncRef(v)
		old := t.items[i]
		t.items[i] = v
		r.DecRef(old)
		return 0
	case *dictType:
		if !r.dictSet(t, key, v) {
			return -1
		}
		return 0
	}
	r.SetError(objref.ExcTypeError, "'%s' object does not support item assignment", obj.val.Name())
	return -1
}

// DelItem performs del o[key].
func (r *Runtime) DelItem(o, key Ref) int {
	obj := r.get(o)
	if obj == nil || key == objref.Nil {
		r.badInternalCall()
		return -1
	}
	switch t := obj.val.(type) {
	case *listType:
		i, ok := r.seqIndex("list", key, len(t.items), true)
		if !ok {
			return -1
		}
		r.DecRef(r.listRemove(t, i))
		return 0
	case *dictType:
		i, found, ok := r.dictLookup(t, key)
		if !ok {
			return -1
		}
		if !found {
			r.SetError(objref.ExcKeyError, "%s", r.reprString(key))
			return -1
		}
		r.dictDelete(t, i)
		return 0
	}
	r.SetError(objref.ExcTypeError, "'%s' object does not support item deletion", obj.val.Name())
	return -1
}

// ListAppend appends v to the list l.
func (r *Runtime) ListAppend(l, v Ref) int {
	obj := r.get(l)
	if obj == nil || v == objref.Nil {
		r.badInternalCall()
		return -1
	}
	t, ok := obj.val.(*listType)
	if !ok {
		r.badInternalCall()
		return -1
	}
	r.listAppend(t, v)
	return 0
}

// -----------------------------------------------------------------------------
// Calls
// -----------------------------------------------------------------------------

// Call invokes o with a positional tuple and a keyword dict, either of
// which may be Nil.
func (r *Runtime) Call(o, args, kwargs Ref) Ref {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return objref.Nil
	}
	var positional []Ref
	if args != objref.Nil {
		t, ok := r.get(args).val.(tupleType)
		if !ok {
			r.SetError(objref.ExcTypeError, "argument list must be a tuple")
			return objref.Nil
		}
		positional = t
	}
	var named map[string]Ref
	if kwargs != objref.Nil {
		d, ok := r.get(kwargs).val.(*dictType)
		if !ok {
			r.SetError(objref.ExcTypeError, "keyword list must be a dictionary")
			return objref.Nil
		}
		named = make(map[string]Ref, len(d.entries))
		for _, e := range d.entries {
			k, ok := r.get(e.key).val.(strType)
			if !ok {
				r.SetError(objref.ExcTypeError, "keywords must be strings")
				return objref.Nil
			}
			named[string(k)] = e.val
		}
	}

	// Keep the callable alive for the duration of the call.
	r.IncRef(o)
	defer r.DecRef(o)

	var res Ref
	switch f := obj.val.(type) {
	case *funcType:
		res = f.fn(r, positional, named)
	case *methodType:
		res = f.fn(r, f.self, positional, named)
	default:
		r.SetError(objref.ExcTypeError, "'%s' object is not callable", obj.val.Name())
		return objref.Nil
	}
	if res == objref.Nil && !r.ErrOccurred() {
		r.Raise("SystemError", "error return without exception set")
	}
	return res
}

// Callable reports whether o can be called.
func (r *Runtime) Callable(o Ref) bool {
	switch r.get(o).val.(type) {
	case *funcType, *methodType:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// Comparison
// -----------------------------------------------------------------------------

// RichCompareBool evaluates a op b.
func (r *Runtime) RichCompareBool(a, b Ref, op objref.CompareOp) int {
	if a == objref.Nil || b == objref.Nil {
		r.badInternalCall()
		return -1
	}
	res, ok := r.compare(a, b, op)
	if !ok {
		return -1
	}
	if res {
		return 1
	}
	return 0
}

// compare returns the result of a op b, or false with an exception raised
// when the types cannot be ordered.
func (r *Runtime) compare(a, b Ref, op objref.CompareOp) (bool, bool) {
	av, bv := r.get(a).val, r.get(b).val

	if x, ok := realOf(av); ok {
		if y, ok := realOf(bv); ok {
			return compareReal(x, y, op), true
		}
	}
	if x, ok := complexOf(av); ok {
		if y, ok := complexOf(bv); ok {
			switch op {
			case objref.OpEQ:
				return x == y, true
			case objref.OpNE:
				return x != y, true
			}
			return r.unorderable(av, bv, op)
		}
	}

	switch x := av.(type) {
	case strType:
		if y, ok := bv.(strType); ok {
			return cmpResult(strings.Compare(string(x), string(y)), op), true
		}
	case *listType:
		if y, ok := bv.(*listType); ok {
			return r.compareSeq(x.items, y.items, op)
		}
	case tupleType:
		if y, ok := bv.(tupleType); ok {
			return r.compareSeq(x, y, op)
		}
	case *dictType:
		if y, ok := bv.(*dictType); ok && (op == objref.OpEQ || op == objref.OpNE) {
			eq, ok := r.dictEqual(x, y)
			if !ok {
				return false, false
			}
			return eq == (op == objref.OpEQ), true
		}
	}

	switch op {
	case objref.OpEQ:
		return a == b, true
	case objref.OpNE:
		return a != b, true
	}
	return r.unorderable(av, bv, op)
}

func (r *Runtime) unorderable(a, b value, op objref.CompareOp) (bool, bool) {
	r.SetError(objref.ExcTypeError, "'%s' not supported between instances of '%s' and '%s'", op, a.Name(), b.Name())
	return false, false
}

// compareSeq compares two sequences lexicographically.
func (r *Runtime) compareSeq(x, y []Ref, op objref.CompareOp) (bool, bool) {
	n := min(len(x), len(y))
	for i := 0; i < n; i++ {
		eq, ok := r.compare(x[i], y[i], objref.OpEQ)
		if !ok {
			return false, false
		}
		if eq {
			continue
		}
		switch op {
		case objref.OpEQ:
			return false, true
		case objref.OpNE:
			return true, true
		}
		return r.compare(x[i], y[i], op)
	}
	return cmpResult(len(x)-len(y), op), true
}

func (r *Runtime) dictEqual(x, y *dictType) (bool, bool) {
	if len(x.entries) != len(y.entries) {
		return false, true
	}
	for _, e := range x.entries {
		i, found, ok := r.dictLookup(y, e.key)
		if !ok {
			return false, false
		}
		if !found {
			return false, true
		}
		eq, ok := r.compare(e.val, y.entries[i].val, objref.OpEQ)
		if !ok || !eq {
			return false, ok
		}
	}
	return true, true
}

func cmpResult(c int, op objref.CompareOp) bool {
	switch op {
	case objref.OpLT:
		return c < 0
	case objref.OpLE:
		return c <= 0
	case objref.OpEQ:
		return c == 0
	case objref.OpNE:
		return c != 0
	case objref.OpGT:
		return c > 0
	case objref.OpGE:
		return c >= 0
	}
	return false
}

// realNum is a bool, int or float operand.
type realNum struct {
	i     *big.Int
	f     float64
	isInt bool
}

func realOf(v value) (realNum, bool) {
	switch x := v.(type) {
	case boolType:
		if x {
			return realNum{i: big.NewInt(1), isInt: true}, true
		}
		return realNum{i: big.NewInt(0), isInt: true}, true
	case intType:
		return realNum{i: x.v, isInt: true}, true
	case floatType:
		return realNum{f: float64(x)}, true
	}
	return realNum{}, false
}

func complexOf(v value) (complex128, bool) {
	if c, ok := v.(complexType); ok {
		return complex128(c), true
	}
	if n, ok := realOf(v); ok {
		return complex(n.float(), 0), true
	}
	return 0, false
}

func (n realNum) float() float64 {
	if n.isInt {
		f, _ := new(big.Float).SetInt(n.i).Float64()
		return f
	}
	return n.f
}

// compareReal compares exactly, without rounding large ints to float.
func compareReal(x, y realNum, op objref.CompareOp) bool {
	if x.isInt && y.isInt {
		return cmpResult(x.i.Cmp(y.i), op)
	}
	if (!x.isInt && math.IsNaN(x.f)) || (!y.isInt && math.IsNaN(y.f)) {
		return op == objref.OpNE
	}
	return cmpResult(x.bigFloat().Cmp(y.bigFloat()), op)
}

func (n realNum) bigFloat() *big.Float {
	if n.isInt {
		return new(big.Float).SetInt(n.i)
	}
	return big.NewFloat(n.f)
}

// -----------------------------------------------------------------------------
// Truth, hash, size
// -----------------------------------------------------------------------------

// IsTrue applies the truth test. It cannot fail.
func (r *Runtime) IsTrue(o Ref) int {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return -1
	}
	var t bool
	switch v := obj.val.(type) {
	case noneType:
		t = false
	case boolType:
		t = bool(v)
	case intType:
		t = v.v.Sign() != 0
	case floatType:
		t = v != 0
	case complexType:
		t = v != 0
	case sizer:
		t = v.size() != 0
	default:
		t = true
	}
	if t {
		return 1
	}
	return 0
}

// Hash returns the hash of o, or -1 with TypeError for unhashable objects.
func (r *Runtime) Hash(o Ref) int64 {
	if o == objref.Nil {
		r.badInternalCall()
		return -1
	}
	k, ok := r.hashKey(o)
	if !ok {
		return -1
	}
	return hashOf(k)
}

// Size returns the length of o, or -1 with TypeError.
func (r *Runtime) Size(o Ref) int {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return -1
	}
	if s, ok := obj.val.(sizer); ok {
		return s.size()
	}
	r.SetError(objref.ExcTypeError, "object of type '%s' has no len()", obj.val.Name())
	return -1
}

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Type returns a new reference to the type object of o.
func (r *Runtime) Type(o Ref) Ref {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return objref.Nil
	}
	return r.newRef(r.typeObject(obj.val.Name()))
}

// TypeName returns the name of o's type.
func (r *Runtime) TypeName(o Ref) string {
	obj := r.get(o)
	if obj == nil {
		return "NULL"
	}
	return obj.val.Name()
}

// Check reports whether o is exactly of the built-in type tag.
func (r *Runtime) Check(o Ref, tag objref.TypeTag) bool {
	obj := r.get(o)
	if obj == nil {
		return false
	}
	t, ok := obj.val.(tagged)
	return ok && t.tag() == tag
}

// -----------------------------------------------------------------------------
// Conversions
// -----------------------------------------------------------------------------

// AsInt returns the value of an int or bool. Other objects raise TypeError
// and return -1.
func (r *Runtime) AsInt(o Ref) int64 {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return -1
	}
	switch v := obj.val.(type) {
	case intType:
		if !v.v.IsInt64() {
			r.Raise("OverflowError", "int too large to convert to C long")
			return -1
		}
		return v.v.Int64()
	case boolType:
		if v {
			return 1
		}
		return 0
	}
	r.SetError(objref.ExcTypeError, "'%s' object cannot be interpreted as an integer", obj.val.Name())
	return -1
}

// AsFloat returns the value of a float, int or bool. Other objects raise
// TypeError and return -1.
func (r *Runtime) AsFloat(o Ref) float64 {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return -1
	}
	if n, ok := realOf(obj.val); ok {
		f := n.float()
		if math.IsInf(f, 0) && n.isInt {
			r.Raise("OverflowError", "int too large to convert to float")
			return -1
		}
		return f
	}
	r.SetError(objref.ExcTypeError, "must be real number, not %s", obj.val.Name())
	return -1
}

// AsComplex returns the value of any number. Other objects raise TypeError.
func (r *Runtime) AsComplex(o Ref) complex128 {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return -1
	}
	if c, ok := complexOf(obj.val); ok {
		return c
	}
	r.SetError(objref.ExcTypeError, "must be real number, not %s", obj.val.Name())
	return -1
}

// AsString returns the text of a str. Other objects raise TypeError.
func (r *Runtime) AsString(o Ref) string {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return ""
	}
	if s, ok := obj.val.(strType); ok {
		return string(s)
	}
	r.SetError(objref.ExcTypeError, "bad argument type for built-in operation")
	return ""
}

// -----------------------------------------------------------------------------
// Representation
// -----------------------------------------------------------------------------

// Repr returns a new str holding repr(o).
func (r *Runtime) Repr(o Ref) Ref {
	if o == objref.Nil {
		r.badInternalCall()
		return objref.Nil
	}
	return r.NewString(r.reprString(o))
}

// Str returns a new str holding str(o).
func (r *Runtime) Str(o Ref) Ref {
	obj := r.get(o)
	if obj == nil {
		r.badInternalCall()
		return objref.Nil
	}
	if _, ok := obj.val.(strType); ok {
		return r.newRef(o)
	}
	return r.NewString(r.strString(o))
}

// WriteObject writes repr(o), or str(o) with objref.PrintRaw, through the
// write method of f.
func (r *Runtime) WriteObject(o, f Ref, flags objref.PrintFlags) int {
	if f == objref.Nil {
		r.SetError(objref.ExcTypeError, "writeobject with NULL file")
		return -1
	}
	var text Ref
	if flags&objref.PrintRaw != 0 {
		text = r.Str(o)
	} else {
		text = r.Repr(o)
	}
	if text == objref.Nil {
		return -1
	}
	defer r.DecRef(text)

	name := r.NewString("write")
	write := r.GetAttr(f, name)
	r.DecRef(name)
	if write == objref.Nil {
		return -1
	}
	defer r.DecRef(write)

	args := r.NewTuple([]Ref{text})
	defer r.DecRef(args)
	res := r.Call(write, args, objref.Nil)
	if res == objref.Nil {
		return -1
	}
	r.DecRef(res)
	return 0
}

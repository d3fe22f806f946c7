package dyn

import (
	"hash/fnv"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/feather-lang/objref"
)

// dictType is the internal representation for dicts: entries in insertion
// order plus an index by hash key. It owns one reference to each key and
// value.
type dictType struct {
	index   map[any]int
	entries []dictEntry
}

type dictEntry struct {
	key, val Ref
}

func newDictType() *dictType {
	return &dictType{index: make(map[any]int)}
}

func (*dictType) Name() string        { return "dict" }
func (*dictType) tag() objref.TypeTag { return objref.TagDict }
func (t *dictType) size() int         { return len(t.entries) }

func (t *dictType) children() []Ref {
	refs := make([]Ref, 0, 2*len(t.entries))
	for _, e := range t.entries {
		refs = append(refs, e.key, e.val)
	}
	return refs
}

// tupleKey and refKey keep hash keys of different kinds apart.
type (
	strKey   string
	tupleKey string
	refKey   Ref
	noneKey  struct{}
)

// hashKey returns a comparable Go value that is equal for keys that compare
// equal, so that 1, 1.0 and True name the same entry. Unhashable objects
// raise TypeError.
func (r *Runtime) hashKey(ref Ref) (any, bool) {
	switch v := r.get(ref).val.(type) {
	case noneType:
		return noneKey{}, true
	case boolType:
		if v {
			return int64(1), true
		}
		return int64(0), true
	case intType:
		if v.v.IsInt64() {
			return v.v.Int64(), true
		}
		return "int:" + v.v.String(), true
	case floatType:
		return floatKey(float64(v)), true
	case complexType:
		if imag(v) == 0 {
			return floatKey(real(v)), true
		}
		return complex128(v), true
	case strType:
		return strKey(v), true
	case tupleType:
		var b strings.Builder
		b.WriteByte('(')
		for _, it := range v {
			k, ok := r.hashKey(it)
			if !ok {
				return nil, false
			}
			b.WriteString(keyString(k))
			b.WriteByte(',')
		}
		b.WriteByte(')')
		return tupleKey(b.String()), true
	case *listType, *dictType:
		r.SetError(objref.ExcTypeError, "unhashable type: '%s'", v.Name())
		return nil, false
	}
	return refKey(ref), true
}

func floatKey(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		if f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f)
		}
		i, _ := big.NewFloat(f).Int(nil)
		return "int:" + i.String()
	}
	return f
}

// keyString encodes a hash key unambiguously for use inside a tuple key.
func keyString(k any) string {
	switch v := k.(type) {
	case int64:
		return "i" + strconv.FormatInt(v, 10)
	case float64:
		return "f" + strconv.FormatFloat(v, 'g', -1, 64)
	case complex128:
		return "c" + strconv.FormatComplex(v, 'g', -1, 128)
	case string:
		return "b" + v
	case strKey:
		return "s" + strconv.Quote(string(v))
	case tupleKey:
		return "t" + string(v)
	case refKey:
		return "r" + strconv.FormatUint(uint64(v), 16)
	case noneKey:
		return "n"
	}
	return "?"
}

// hashOf derives the int64 hash reported by Hash from a hash key.
func hashOf(k any) int64 {
	switch v := k.(type) {
	case int64:
		if v == -1 {
			return -2
		}
		return v
	case refKey:
		return int64(v)
	case noneKey:
		return 0x5f3759df
	}
	h := fnv.New64a()
	h.Write([]byte(keyString(k)))
	s := int64(h.Sum64())
	if s == -1 {
		return -2
	}
	return s
}

func (r *Runtime) dictLookup(t *dictType, key Ref) (int, bool, bool) {
	k, ok := r.hashKey(key)
	if !ok {
		return 0, false, false
	}
	i, found := t.index[k]
	return i, found, true
}

func (r *Runtime) dictSet(t *dictType, key, val Ref) bool {
	k, ok := r.hashKey(key)
	if !ok {
		return false
	}
	r.IncRef(val)
	if i, found := t.index[k]; found {
		old := t.entries[i].val
		t.entries[i].val = val
		r.DecRef(old)
		return true
	}
	r.IncRef(key)
	t.index[k] = len(t.entries)
	t.entries = append(t.entries, dictEntry{key: key, val: val})
	return true
}

func (r *Runtime) dictDelete(t *dictType, i int) {
	e := t.entries[i]
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	t.index = make(map[any]int, len(t.entries))
	for j, en := range t.entries {
		k, _ := r.hashKey(en.key)
		t.index[k] = j
	}
	r.DecRef(e.key)
	r.DecRef(e.val)
}

// DictSetItem stores val under key in the dict d.
func (r *Runtime) DictSetItem(d, key, val Ref) int {
	t, ok := r.dictOf(d)
	if !ok {
		return -1
	}
	if r.get(key) == nil || r.get(val) == nil {
		r.badInternalCall()
		return -1
	}
	if !r.dictSet(t, key, val) {
		return -1
	}
	return 0
}

// DictKeys returns a new list of the dict's keys.
func (r *Runtime) DictKeys(d Ref) Ref {
	t, ok := r.dictOf(d)
	if !ok {
		return objref.Nil
	}
	keys := make([]Ref, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.key
	}
	return r.NewList(keys)
}

// DictGetString returns a borrowed reference to d[key], or Nil.
// No exception is raised for a missing key.
func (r *Runtime) DictGetString(d Ref, key string) Ref {
	t, ok := r.dictOf(d)
	if !ok {
		r.ErrClear()
		return objref.Nil
	}
	if i, found := t.index[strKey(key)]; found {
		return t.entries[i].val
	}
	return objref.Nil
}

func (r *Runtime) dictOf(d Ref) (*dictType, bool) {
	if obj := r.get(d); obj != nil {
		if t, ok := obj.val.(*dictType); ok {
			return t, true
		}
	}
	r.badInternalCall()
	return nil, false
}

package dyn

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/feather-lang/objref"
)

// reprString returns repr(o). Containers that contain themselves print as
// [...] or {...} at the point of recursion.
func (r *Runtime) reprString(o Ref) string {
	obj := r.get(o)
	if obj == nil {
		return "<NULL>"
	}
	switch v := obj.val.(type) {
	case noneType:
		return "None"
	case boolType:
		if v {
			return "True"
		}
		return "False"
	case intType:
		return v.v.String()
	case floatType:
		return formatFloat(float64(v))
	case complexType:
		return formatComplex(complex128(v))
	case strType:
		return quoteString(string(v))
	case *listType:
		return r.reprSeq(o, "[", "]", v.items, "[...]")
	case tupleType:
		if len(v) == 1 {
			return r.reprSeq(o, "(", ",)", v, "(...)")
		}
		return r.reprSeq(o, "(", ")", v, "(...)")
	case *dictType:
		return r.reprDict(o, v)
	case typeType:
		return fmt.Sprintf("<class '%s'>", v.name)
	case *excType:
		return fmt.Sprintf("%s(%s)", v.class, quoteString(v.msg))
	case *funcType:
		return fmt.Sprintf("<built-in function %s>", v.name)
	case *methodType:
		return fmt.Sprintf("<built-in method %s of %s object at %#x>", v.name, r.TypeName(v.self), uintptr(v.self))
	case *instanceType:
		return fmt.Sprintf("<%s object at %#x>", v.class, uintptr(o))
	}
	return fmt.Sprintf("<%s object at %#x>", obj.val.Name(), uintptr(o))
}

// strString returns str(o). It differs from repr only for str and
// exception objects.
func (r *Runtime) strString(o Ref) string {
	switch v := r.get(o).val.(type) {
	case strType:
		return string(v)
	case *excType:
		return v.msg
	}
	return r.reprString(o)
}

func (r *Runtime) reprSeq(o Ref, open, close string, items []Ref, cycle string) string {
	if r.reprActive[o] {
		return cycle
	}
	r.reprActive[o] = true
	defer delete(r.reprActive, o)

	var b strings.Builder
	b.WriteString(open)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.reprString(it))
	}
	b.WriteString(close)
	return b.String()
}

func (r *Runtime) reprDict(o Ref, t *dictType) string {
	if r.reprActive[o] {
		return "{...}"
	}
	r.reprActive[o] = true
	defer delete(r.reprActive, o)

	var b strings.Builder
	b.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.reprString(e.key))
		b.WriteString(": ")
		b.WriteString(r.reprString(e.val))
	}
	b.WriteByte('}')
	return b.String()
}

// formatFloat prints the shortest text that reads back as f, always with a
// decimal point or exponent.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	if abs := math.Abs(f); abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatComplex(c complex128) string {
	re, im := real(c), imag(c)
	ims := formatImag(im)
	if re == 0 && !math.Signbit(re) {
		return ims + "j"
	}
	sign := "+"
	if strings.HasPrefix(ims, "-") {
		sign = ""
	}
	return "(" + formatImag(re) + sign + ims + "j)"
}

// formatImag prints a component of a complex number, which drops the
// trailing .0 of integral values.
func formatImag(f float64) string {
	return strings.TrimSuffix(formatFloat(f), ".0")
}

// quoteString quotes s with single quotes unless it contains a single
// quote and no double quote.
func quoteString(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, c := range s {
		switch {
		case c == rune(q) || c == '\\':
			b.WriteByte('\\')
			b.WriteRune(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// -----------------------------------------------------------------------------
// str methods
// -----------------------------------------------------------------------------

func strUpperMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("upper", args, kwargs, 0, 0) {
		return objref.Nil
	}
	return r.NewString(strings.ToUpper(string(r.get(self).val.(strType))))
}

func strLowerMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("lower", args, kwargs, 0, 0) {
		return objref.Nil
	}
	return r.NewString(strings.ToLower(string(r.get(self).val.(strType))))
}

func strJoinMethod(r *Runtime, self Ref, args []Ref, kwargs map[string]Ref) Ref {
	if !r.checkArgs("join", args, kwargs, 1, 1) {
		return objref.Nil
	}
	var items []Ref
	switch v := r.get(args[0]).val.(type) {
	case sequence:
		items = v.elements()
	case strType:
		return r.NewString(strings.Join(strings.Split(string(v), ""), string(r.get(self).val.(strType))))
	default:
		r.SetError(objref.ExcTypeError, "can only join an iterable")
		return objref.Nil
	}
	parts := make([]string, len(items))
	for i, it := range items {
		s, ok := r.get(it).val.(strType)
		if !ok {
			r.SetError(objref.ExcTypeError, "sequence item %d: expected str instance, %s found", i, r.TypeName(it))
			return objref.Nil
		}
		parts[i] = string(s)
	}
	return r.NewString(strings.Join(parts, string(r.get(self).val.(strType))))
}

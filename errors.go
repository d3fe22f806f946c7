package objref

import (
	"errors"
	"fmt"
)

// Kind classifies a failure reported by the foreign runtime.
type Kind int

const (
	// KindCall is any exception raised by the foreign runtime that is not
	// one of the classes below, typically from a called object.
	KindCall Kind = iota
	KindAttribute
	KindKey
	KindIndex
	KindType
	// KindTypeConversion is synthesized by the coercion methods after the
	// foreign error has been cleared.
	KindTypeConversion
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call failure"
	case KindAttribute:
		return "attribute error"
	case KindKey:
		return "key error"
	case KindIndex:
		return "index error"
	case KindType:
		return "type error"
	case KindTypeConversion:
		return "type conversion error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is.
var (
	ErrCall           = &Error{Kind: KindCall}
	ErrAttribute      = &Error{Kind: KindAttribute}
	ErrKey            = &Error{Kind: KindKey}
	ErrIndex          = &Error{Kind: KindIndex}
	ErrType           = &Error{Kind: KindType}
	ErrTypeConversion = &Error{Kind: KindTypeConversion}
)

// Error is a failure reported through the foreign runtime's error slot.
//
// By the time an Error is returned the slot has been fetched and cleared;
// Class and Message hold its content and the Error owns the fetched
// exception. Use [Error.Restore] to hand the exception back to the foreign
// runtime, or [Error.Release] to drop it.
type Error struct {
	Kind    Kind
	Op      string // protocol operation, e.g. "getattr"
	Class   string // foreign exception class name, e.g. "KeyError"
	Message string

	rt           Runtime
	class, value Ref
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Class != "" {
		if msg == "" {
			msg = e.Class
		} else {
			msg = e.Class + ": " + msg
		}
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Is matches the package sentinels by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" || t.Class != "" || t.Message != "" {
		return t == e
	}
	return t.Kind == e.Kind
}

// Restore raises the error again in rt's error slot, for returning control
// to foreign code. A fetched exception is restored unchanged and ownership
// passes back to the runtime; errors synthesized on the host side are
// raised as the exception class matching their Kind.
func (e *Error) Restore(rt Runtime) {
	if e.class != Nil || e.value != Nil {
		rt.ErrRestore(e.class, e.value)
		e.class, e.value = Nil, Nil
		return
	}
	msg := e.Message
	if msg == "" {
		msg = e.Error()
	}
	rt.ErrSetString(e.Kind.exception(), msg)
}

// Release drops the foreign exception held by e. An Error that is neither
// restored nor released keeps its exception alive in the runtime.
// Releasing twice does nothing.
func (e *Error) Release() {
	if e == nil || e.rt == nil {
		return
	}
	if e.value != Nil {
		e.rt.DecRef(e.value)
	}
	if e.class != Nil {
		e.rt.DecRef(e.class)
	}
	e.class, e.value = Nil, Nil
}

// ReleaseError releases the *Error in err's chain, if any.
func ReleaseError(err error) {
	var e *Error
	if errors.As(err, &e) {
		e.Release()
	}
}

func (k Kind) exception() Exception {
	switch k {
	case KindAttribute:
		return ExcAttributeError
	case KindKey:
		return ExcKeyError
	case KindIndex:
		return ExcIndexError
	case KindType, KindTypeConversion:
		return ExcTypeError
	}
	return ExcOther
}

// fetchError turns the pending foreign error into an *Error, clearing the
// slot. fallback is used when the pending class is not one of the named
// kinds.
func fetchError(rt Runtime, op string, fallback Kind) *Error {
	if !rt.ErrOccurred() {
		return &Error{Kind: fallback, Op: op, Message: "operation failed without setting an error"}
	}
	kind := fallback
	switch {
	case rt.ErrMatches(ExcAttributeError):
		kind = KindAttribute
	case rt.ErrMatches(ExcKeyError):
		kind = KindKey
	case rt.ErrMatches(ExcIndexError):
		kind = KindIndex
	case rt.ErrMatches(ExcTypeError):
		kind = KindType
	}

	class, value := rt.ErrFetch()
	e := &Error{Kind: kind, Op: op, rt: rt, class: class, value: value}
	if value != Nil {
		e.Class = rt.TypeName(value)
		if s := rt.Str(value); s != Nil {
			e.Message = rt.AsString(s)
			rt.DecRef(s)
		}
	}
	// Formatting the exception must not leave a second error behind.
	if rt.ErrOccurred() {
		rt.ErrClear()
	}
	return e
}

// conversionError clears any pending foreign error and reports a failed
// coercion.
func conversionError(rt Runtime, target string) *Error {
	e := &Error{Kind: KindTypeConversion, Op: "convert", Message: "cannot convert value to " + target}
	if rt.ErrOccurred() {
		rt.ErrClear()
	}
	return e
}

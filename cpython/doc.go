// Package cpython binds [objref.Runtime] to an embedded CPython interpreter.
//
// The binding uses cgo and the python3-embed pkg-config module, so it is
// only built with the cpython build tag:
//
//	go test -tags cpython ./cpython
//
// The interpreter has a global lock and a per-thread error indicator, so
// code using a Runtime brackets its calls with [Runtime.Enter]:
//
//	rt := cpython.New()
//	defer rt.Enter()()
package cpython

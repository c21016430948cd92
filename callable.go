package memhook

import (
	"reflect"
	"unsafe"
)

// funcval is the runtime representation a Go func value points at:
// a code pointer optionally followed by captured variables.
type funcval struct {
	fn uintptr
}

// checkFunc verifies once that F is a function type.
func checkFunc[F any]() error {
	if reflect.TypeOf((*F)(nil)).Elem().Kind() != reflect.Func {
		return ErrInputType
	}
	return nil
}

// MakeFunc returns a value of func type F that calls the code at addr.
// F must describe the Go ABI of that code exactly; that is the caller's
// contract and cannot be checked here.
func MakeFunc[F any](addr uintptr) (F, error) {
	var fn F
	if err := checkFunc[F](); err != nil {
		return fn, err
	}
	if addr == 0 {
		return fn, ErrNilAddress
	}
	f := &funcval{fn: addr}
	*(*unsafe.Pointer)(unsafe.Pointer(&fn)) = unsafe.Pointer(f)
	return fn, nil
}

// FuncPC returns the entry address of the code behind func value f.
// Captured variables of a closure are not part of the address.
func FuncPC(f interface{}) (uintptr, error) {
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Func {
		return 0, ErrInputType
	}
	if v.IsNil() {
		return 0, ErrNilAddress
	}
	return v.Pointer(), nil
}

// funcCell returns the address of the funcval behind fn, which is where
// an indirect jump through the closure register finds the code pointer.
func funcCell[F any](fn F) uintptr {
	return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(&fn)))
}

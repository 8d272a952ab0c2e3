package cuckoo

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unsafe"
)

// Addr is a virtual address in the running process: a function entry point,
// a symbol value or a mapping base. Go does not convert freely between func
// values and integers, so every crossing goes through FuncAddr.
type Addr uintptr

// FuncAddr returns the entry point of the function fn.
//
// For a closure this is the code shared by every instance; the captured
// variables are not part of the address.
func FuncAddr(fn any) (Addr, error) {
	fnv := reflect.ValueOf(fn)
	if fnv.Kind() != reflect.Func {
		return 0, fmt.Errorf("not a function, kind: %v", fnv.Kind())
	}
	if fnv.IsNil() {
		return 0, fmt.Errorf("nil function")
	}
	return Addr(fnv.Pointer()), nil
}

// ParseAddr parses a hex address with or without a 0x prefix.
func ParseAddr(s string) (Addr, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return Addr(v), nil
}

func (a Addr) String() string {
	return fmt.Sprintf("%#x", uintptr(a))
}

// Add returns a offset by delta bytes.
func (a Addr) Add(delta int64) Addr {
	return Addr(int64(a) + delta)
}

// bytes returns n bytes of process memory starting at a. Addresses here
// point at code or mappings the garbage collector does not move, so the
// uintptr to pointer conversion is intended.
func (a Addr) bytes(n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(a)), n)
}

package cuckoo

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
)

// Redirect patches fn so that calls to it run newFn instead. An error is
// returned if fn or newFn are not functions or if their signatures do not
// match.
//
// The size of fn is taken from the executable's symbol table. When the
// executable has no usable symbol table, for instance because it was linked
// with -s, the size comes from the runtime's function table instead. The
// executable is read once and its symbols are kept for later calls.
//
// Note that if fn has been inlined this will silently fail. If possible, add a
// noinline directive to work-around this problem:
//
//	//go:noinline
//	func myfunc() {
//		...
//	}
func Redirect(fn, newFn any) error {
	fnv := reflect.ValueOf(fn)
	if fnv.Kind() != reflect.Func {
		return fmt.Errorf("not a function, kind: %v", fnv.Kind())
	}
	newFnv := reflect.ValueOf(newFn)
	if newFnv.Kind() != reflect.Func {
		return fmt.Errorf("not a function, kind: %v", newFnv.Kind())
	}
	if fnv.IsNil() || newFnv.IsNil() {
		return fmt.Errorf("nil function")
	}
	if err := diffFuncs(fnv, newFnv).Error(); err != nil {
		return fmt.Errorf("function signatures do not match: %w", err)
	}

	from := Addr(fnv.Pointer())
	to := Addr(newFnv.Pointer())

	sym, err := selfSymbolAt(from)
	if err != nil {
		logger.Debug().
			Err(err).
			Stringer("original", from).
			Msg("no symbol in image, sizing from the runtime function table")

		sym, err = runtimeSymbolAt(from)
		if err != nil {
			return err
		}
	}

	return PatchBySymbol(sym, to)
}

// Install patches the function called name in the running executable so that
// calls to it run replacement. It is meant to be called once during startup,
// before the target can be reached by other goroutines. Only function
// symbols are accepted. If it fails the process is unchanged.
func Install(name string, replacement any) error {
	to, err := FuncAddr(replacement)
	if err != nil {
		return err
	}

	dir, err := selfDirectory()
	if err != nil {
		return err
	}

	sym, err := dir.Lookup(name)
	if err != nil {
		return err
	}

	// Symbol values are link-time addresses. Shift them to where the image
	// was actually loaded.
	sym.Addr = sym.Addr.Add(loadBias(dir))

	return PatchBySymbol(sym, to)
}

// selfDirectory returns the symbols of the running executable. The image is
// parsed on first use only.
var selfDirectory = sync.OnceValues(func() (*Directory, error) {
	img, err := OpenSelf()
	if err != nil {
		return nil, err
	}
	defer img.Close()

	return ParseSymbols(img)
})

// selfSymbolAt returns the symbol of the function that starts at entry,
// with its address set to entry.
func selfSymbolAt(entry Addr) (Symbol, error) {
	fn := runtime.FuncForPC(uintptr(entry))
	if fn == nil || fn.Entry() != uintptr(entry) {
		return Symbol{}, &Error{Kind: KindNotFound, Op: "lookup", Err: fmt.Errorf("no function starts at %v", entry)}
	}

	dir, err := selfDirectory()
	if err != nil {
		return Symbol{}, err
	}

	sym, err := dir.Lookup(fn.Name())
	if err != nil {
		return Symbol{}, err
	}
	sym.Addr = entry
	return sym, nil
}

// loadBias returns how far the running image is from its link-time
// addresses, measured on loadBias itself. It is zero for ordinary
// executables and non-zero for position-independent ones.
func loadBias(dir *Directory) int64 {
	pc := reflect.ValueOf(loadBias).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return 0
	}
	sym, err := dir.Lookup(fn.Name())
	if err != nil {
		return 0
	}
	return int64(pc) - int64(sym.Addr)
}

package cuckoo

import (
	"debug/elf"
	"fmt"
)

// Patch overwrites the entry of the code at original with a jump to
// replacement. Exactly StubLen() bytes are written; whatever they cut
// through is lost.
//
// The pages covering the stub are made writable for the write and set back
// to read+execute afterwards.
//
// Patch does not stop other goroutines. If one of them is executing the
// bytes being replaced it may see a partial instruction, so patch before the
// target becomes reachable.
func Patch(original, replacement Addr) error {
	return patch(hostEncoder, original, replacement)
}

// PatchBySymbol patches sym after checking that it is a function long enough
// to hold the stub. Data symbols and functions that are too short are left
// untouched.
func PatchBySymbol(sym Symbol, replacement Addr) error {
	if sym.Type != elf.STT_FUNC {
		return &Error{
			Kind: KindNotFunc,
			Op:   "patch",
			Name: sym.Name,
			Err:  fmt.Errorf("symbol type is %v", sym.Type),
		}
	}
	if need := hostEncoder.Len(); sym.Size < uint64(need) {
		return &Error{
			Kind: KindSize,
			Op:   "patch",
			Name: sym.Name,
			Err:  fmt.Errorf("function has %d bytes, jump needs %d", sym.Size, need),
		}
	}

	err := Patch(sym.Addr, replacement)
	if e, ok := err.(*Error); ok {
		e.Name = sym.Name
	}
	return err
}

func patch(enc Encoder, original, replacement Addr) error {
	stub := enc.Encode(original, replacement)

	start, length := pageRange(original, len(stub), pageSize())

	err := mprotect(start, length, mprotectRWX)
	if err != nil {
		return &Error{
			Kind: KindProtection,
			Op:   "mprotect",
			Err:  fmt.Errorf("%v+%#x: %w", start, length, err),
		}
	}

	code := original.bytes(len(stub))
	copy(code, stub)
	cacheflush(code)

	err = mprotect(start, length, mprotectRX)
	if err != nil {
		return &Error{
			Kind: KindProtection,
			Op:   "mprotect",
			Err:  fmt.Errorf("restoring %v+%#x: %w", start, length, err),
		}
	}

	logger.Debug().
		Stringer("original", original).
		Stringer("replacement", replacement).
		Int("length", len(stub)).
		Msg("patched")

	return nil
}

// pageRange returns the start and length of the smallest run of whole pages
// covering n bytes at addr.
func pageRange(addr Addr, n, pageSize int) (Addr, int) {
	ps := Addr(pageSize)

	// Round address down to page boundary.
	// Example: addr=4196 with pageSize=4096 becomes 4096.
	start := addr &^ (ps - 1)

	// Round the end up so a stub crossing a page edge is fully covered.
	end := (addr + Addr(n) + ps - 1) &^ (ps - 1)

	return start, int(end - start)
}

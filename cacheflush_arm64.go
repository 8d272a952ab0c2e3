//go:build arm64 && cgo

package cuckoo

import "unsafe"

/*
static void cacheflush(char *start, char *end) {
	__builtin___clear_cache(start, end);
}
*/
import "C"

// cacheflush makes freshly written instructions visible to instruction
// fetch. arm64 does not keep the instruction cache coherent with stores.
func cacheflush(code []byte) {
	start := unsafe.Pointer(unsafe.SliceData(code))
	end := unsafe.Add(start, len(code))
	C.cacheflush((*C.char)(start), (*C.char)(end))
}

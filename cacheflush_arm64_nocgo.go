//go:build arm64 && !cgo

package cuckoo

// arm64 needs the C compiler builtin to flush the instruction cache after a
// patch. Install a C compiler and build with CGO_ENABLED=1.
func cacheflush(code []byte) {
	arm64_requires_cgo_for_instruction_cache_flushing()
}

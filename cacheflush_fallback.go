//go:build !arm64

package cuckoo

// x86 keeps the instruction cache coherent with stores to code.
func cacheflush(code []byte) {}

// Package cuckoo redirects functions in the running process by patching their
// entry points.
//
// cuckoo reads the process's own ELF image, builds a directory of symbol
// names, addresses and sizes, and overwrites the first bytes of a target
// function with an unconditional jump to a replacement. Every call that
// reaches the target afterwards lands in the replacement instead.
//
// Typical use is an explicit call during startup, before the target can be
// reached by other goroutines:
//
//	func init() {
//		if err := cuckoo.Install("main.add", addHook); err != nil {
//			log.Printf("hook not installed: %v", err)
//		}
//	}
//
// Limitations:
//   - Supports amd64, 386 and arm64 (arm64 needs cgo to flush the
//     instruction cache). Other architectures do not build.
//   - The overwritten instructions are not kept. There is no way back.
//   - Functions shorter than the jump stub cannot be patched by symbol.
//   - Inlined call sites are not affected. Mark targets //go:noinline.
//   - Replacements must not capture variables; the closure context is
//     not carried across the jump.
//   - Patching while another goroutine executes the target is a data race
//     at the instruction level.
package cuckoo

//go:build unix

package cuckoo

import "golang.org/x/sys/unix"

const (
	mprotectRX  = unix.PROT_READ | unix.PROT_EXEC
	mprotectRWX = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
)

func pageSize() int {
	return unix.Getpagesize()
}

// mprotect sets the protection of length bytes at start, which must be page
// aligned.
func mprotect(start Addr, length int, flags int) error {
	return unix.Mprotect(start.bytes(length), flags)
}

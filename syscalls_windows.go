//go:build windows

package cuckoo

import "golang.org/x/sys/windows"

const (
	mprotectRX  = windows.PAGE_EXECUTE_READ
	mprotectRWX = windows.PAGE_EXECUTE_READWRITE
)

func pageSize() int {
	return windows.Getpagesize()
}

func mprotect(start Addr, length int, flags int) error {
	var oldFlags uint32
	return windows.VirtualProtect(uintptr(start), uintptr(length), uint32(flags), &oldFlags)
}

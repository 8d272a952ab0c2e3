//go:build !linux

package cuckoo

import "os"

func selfPath() (string, error) {
	return os.Executable()
}

package cuckoo

import (
	"os"
	"strconv"
)

// selfPath returns /proc/<pid>/exe. Opening the link directly still works
// when the executable was replaced or deleted after the process started.
func selfPath() (string, error) {
	path := "/proc/" + strconv.Itoa(os.Getpid()) + "/exe"
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

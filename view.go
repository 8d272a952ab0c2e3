package cuckoo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// view is a bounds-checked window over mapped bytes. Every offset read from
// the image is untrusted, so nothing is dereferenced without a check.
type view []byte

// slice returns n bytes at off.
func (v view) slice(off, n uint64) ([]byte, error) {
	end := off + n
	if end < off || end > uint64(len(v)) {
		return nil, fmt.Errorf("range [%#x, %#x+%#x) outside image of %#x bytes", off, off, n, len(v))
	}
	return v[off:end:end], nil
}

// read decodes the fixed-size value data from off.
func (v view) read(off uint64, order binary.ByteOrder, data any) error {
	n := binary.Size(data)
	if n < 0 {
		return fmt.Errorf("%T has no fixed size", data)
	}
	b, err := v.slice(off, uint64(n))
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), order, data)
}

// cstring returns a copy of the NUL-terminated string starting at off.
// Reads never go past limit, which is the end of the enclosing string table.
func (v view) cstring(off, limit uint64) (string, error) {
	if limit > uint64(len(v)) {
		limit = uint64(len(v))
	}
	if off >= limit {
		return "", fmt.Errorf("string at %#x outside table ending at %#x", off, limit)
	}
	b := v[off:limit]
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", fmt.Errorf("string at %#x: %w", off, io.ErrUnexpectedEOF)
	}
	return string(b[:i]), nil
}

package cuckoo

import (
	"errors"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

var errEmptyFile = errors.New("file is empty")

// Image is a read-only mapping of an executable file. The zero value is an
// unopened image.
type Image struct {
	path string
	data mmap.MMap
}

// Open maps the file at path.
func Open(path string) (*Image, error) {
	img := &Image{}
	if err := img.Open(path); err != nil {
		return nil, err
	}
	return img, nil
}

// OpenSelf maps the executable of the running process.
func OpenSelf() (*Image, error) {
	img := &Image{}
	if err := img.OpenSelf(); err != nil {
		return nil, err
	}
	return img, nil
}

// Open maps the file at path read-only. An image that is already open is
// closed first. On failure the image is left unopened.
func (img *Image) Open(path string) error {
	if err := img.Close(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return &Error{Kind: KindIO, Op: "open", Path: path, Err: err}
	}
	// The mapping stays valid after the descriptor is closed.
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return &Error{Kind: KindIO, Op: "stat", Path: path, Err: err}
	}
	if fi.Size() <= 0 {
		return &Error{Kind: KindIO, Op: "mmap", Path: path, Err: errEmptyFile}
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return &Error{Kind: KindIO, Op: "mmap", Path: path, Err: err}
	}

	img.path = path
	img.data = data

	logger.Debug().
		Str("path", path).
		Int("length", len(data)).
		Msg("image mapped")

	return nil
}

// OpenSelf resolves the running executable and opens it.
func (img *Image) OpenSelf() error {
	path, err := selfPath()
	if err != nil {
		return &Error{Kind: KindIO, Op: "open", Err: err}
	}
	return img.Open(path)
}

// Close unmaps the image. Closing an image that is not open does nothing.
func (img *Image) Close() error {
	if img.data == nil {
		return nil
	}

	if err := img.data.Unmap(); err != nil {
		return &Error{Kind: KindIO, Op: "munmap", Path: img.path, Err: err}
	}

	logger.Debug().Str("path", img.path).Msg("image unmapped")

	img.data = nil
	img.path = ""
	return nil
}

// StartAddress returns the base of the mapping, or 0 if the image is not open.
func (img *Image) StartAddress() Addr {
	if len(img.data) == 0 {
		return 0
	}
	return Addr(unsafe.Pointer(unsafe.SliceData(img.data)))
}

// Len returns the length of the mapping.
func (img *Image) Len() int {
	return len(img.data)
}

// Path returns the path the image was opened from.
func (img *Image) Path() string {
	return img.path
}

// IsOpen reports whether the image is mapped.
func (img *Image) IsOpen() bool {
	return img.data != nil
}

func (img *Image) view() view {
	return view(img.data)
}

package firmware

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Image is a random-access firmware source. Offsets are relative to the
// first byte of the image; every read names its offset explicitly, so no
// read position is carried between requests.
type Image interface {
	io.ReaderAt
	io.Closer
	// Size returns the image length in bytes.
	Size() int64
}

// ErrEmptyImage is returned when an image contains no data.
var ErrEmptyImage = errors.New("firmware image is empty")

// ImageError describes a failure to open or read a firmware image.
type ImageError struct {
	// Path is the image location, if the image came from a file
	Path string
	// Op is the failed operation ("open", "stat", "parse", "read")
	Op string
	// Offset is the read offset for Op == "read"
	Offset int64
	// Underlying error
	Err error
}

func (e *ImageError) Error() string {
	if e.Op == "read" {
		return fmt.Sprintf("firmware image %s: read at offset %d: %v", e.Path, e.Offset, e.Err)
	}
	return fmt.Sprintf("firmware image %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// Open opens the firmware image at path. Files ending in .hex or .ihex are
// parsed as Intel HEX; anything else is read as a raw binary.
func Open(path string) (Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		return OpenHex(path)
	default:
		return OpenFile(path)
	}
}

// FileImage is a raw binary image read directly from disk.
type FileImage struct {
	path string
	file *os.File
	size int64
}

// OpenFile opens a raw binary image.
func OpenFile(path string) (*FileImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ImageError{Path: path, Op: "open", Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &ImageError{Path: path, Op: "stat", Err: err}
	}
	if info.Size() == 0 {
		_ = f.Close()
		return nil, &ImageError{Path: path, Op: "open", Err: ErrEmptyImage}
	}
	return &FileImage{path: path, file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt using positioned reads on the file.
func (img *FileImage) ReadAt(p []byte, off int64) (int, error) {
	n, err := img.file.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &ImageError{Path: img.path, Op: "read", Offset: off, Err: err}
	}
	return n, err
}

// Size returns the file length.
func (img *FileImage) Size() int64 { return img.size }

// Close closes the underlying file.
func (img *FileImage) Close() error {
	return img.file.Close()
}

// MemoryImage is an image held in memory.
type MemoryImage struct {
	*bytes.Reader
}

// NewMemoryImage returns an image over data. The slice is not copied.
func NewMemoryImage(data []byte) *MemoryImage {
	return &MemoryImage{Reader: bytes.NewReader(data)}
}

// Close is a no-op.
func (img *MemoryImage) Close() error { return nil }

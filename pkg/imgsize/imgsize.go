// Package imgsize reads pixel dimensions from JPEG, PNG and WebP containers
// without decoding any image data.
package imgsize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	// ErrUnsupportedFormat means the extension or magic bytes are not one of the known formats.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrTruncatedFile means a fixed header region was cut short.
	ErrTruncatedFile = errors.New("truncated file")
	// ErrMalformedSegment means a length or size field inside the container is invalid.
	ErrMalformedSegment = errors.New("malformed segment")
	// ErrDimensionsNotFound means the container was scanned without finding a dimension record.
	ErrDimensionsNotFound = errors.New("dimensions not found")
)

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// valid rejects zero sized results so that callers never see a defaulted dimension.
func valid(s Size) (Size, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return Size{}, fmt.Errorf("%w: zero dimension %s", ErrMalformedSegment, s)
	}
	return s, nil
}

// sniffLen is the number of leading bytes Sniff needs to classify every format.
const sniffLen = 12

// Decode classifies r by ext and magic bytes, then runs the matching parser.
func Decode(ext string, r io.ReaderAt, size int64) (Format, Size, error) {
	head := make([]byte, sniffLen)
	n, err := r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Unknown, Size{}, fmt.Errorf("read header: %w", err)
	}

	f, err := Sniff(ext, head[:n])
	if err != nil {
		return Unknown, Size{}, err
	}

	s, err := decoders[f](r, size)
	if err != nil {
		return f, Size{}, fmt.Errorf("%s: %w", f, err)
	}
	return f, s, nil
}

// DecodeFile returns the dimensions of the image at path.
func DecodeFile(path string) (Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return Size{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Size{}, fmt.Errorf("stat: %w", err)
	}

	_, s, err := Decode(filepath.Ext(path), f, st.Size())
	return s, err
}

var decoders = map[Format]func(io.ReaderAt, int64) (Size, error){
	JPEG: DecodeJPEG,
	PNG:  DecodePNG,
	WebP: DecodeWebP,
}

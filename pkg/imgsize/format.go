package imgsize

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is one of the supported container formats.
type Format int

const (
	// Unknown is never returned with a nil error.
	Unknown Format = iota
	JPEG
	PNG
	WebP
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case WebP:
		return "webp"
	}
	return "unknown"
}

var extFormats = map[string]Format{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".webp": WebP,
}

var (
	jpegSOI      = []byte{0xFF, 0xD8}
	pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	riffTag      = []byte("RIFF")
	webpTag      = []byte("WEBP")
)

// FormatForExt maps a file extension (with dot, any case) to a format.
func FormatForExt(ext string) (Format, bool) {
	f, ok := extFormats[strings.ToLower(ext)]
	return f, ok
}

// Supported reports whether path has one of the supported extensions.
func Supported(path string) bool {
	_, ok := FormatForExt(filepath.Ext(path))
	return ok
}

// Sniff checks that the leading bytes of a file agree with its extension.
func Sniff(ext string, head []byte) (Format, error) {
	f, ok := FormatForExt(ext)
	if !ok {
		return Unknown, fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}

	if !hasMagic(f, head) {
		return Unknown, fmt.Errorf("%w: %s extension %q without %s signature", ErrUnsupportedFormat, f, ext, f)
	}
	return f, nil
}

func hasMagic(f Format, head []byte) bool {
	switch f {
	case JPEG:
		return bytes.HasPrefix(head, jpegSOI)
	case PNG:
		return bytes.HasPrefix(head, pngSignature)
	case WebP:
		return len(head) >= 12 && bytes.Equal(head[0:4], riffTag) && bytes.Equal(head[8:12], webpTag)
	}
	return false
}

package imgsize

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// pngHeaderLen covers the signature plus the IHDR length, type, width and height.
const pngHeaderLen = 24

// DecodePNG reads the IHDR width and height from the fixed PNG header.
func DecodePNG(r io.ReaderAt, size int64) (Size, error) {
	if size < pngHeaderLen {
		return Size{}, fmt.Errorf("%w: %d of %d header bytes", ErrTruncatedFile, size, pngHeaderLen)
	}

	var hdr [pngHeaderLen]byte
	if n, err := r.ReadAt(hdr[:], 0); n < pngHeaderLen {
		return Size{}, fmt.Errorf("%w: %d of %d header bytes: %v", ErrTruncatedFile, n, pngHeaderLen, err)
	}

	if !bytes.Equal(hdr[:8], pngSignature) {
		return Size{}, fmt.Errorf("%w: not a PNG file", ErrUnsupportedFormat)
	}
	if string(hdr[12:16]) != "IHDR" {
		return Size{}, fmt.Errorf("%w: first chunk is %q, not IHDR", ErrMalformedSegment, hdr[12:16])
	}

	return valid(Size{
		Width:  int(binary.BigEndian.Uint32(hdr[16:20])),
		Height: int(binary.BigEndian.Uint32(hdr[20:24])),
	})
}

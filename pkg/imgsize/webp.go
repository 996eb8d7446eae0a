package imgsize

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	riffHeaderLen  = 12
	chunkHeaderLen = 8

	// vp8lSignature is the first payload byte written by lossless encoders.
	vp8lSignature = 0x2F
)

// DecodeWebP walks the RIFF chunk table and returns the dimensions recorded
// by the first VP8X, VP8 or VP8L chunk.
func DecodeWebP(r io.ReaderAt, size int64) (Size, error) {
	if size < riffHeaderLen {
		return Size{}, fmt.Errorf("%w: %d of %d RIFF header bytes", ErrTruncatedFile, size, riffHeaderLen)
	}

	var hdr [riffHeaderLen]byte
	if n, err := r.ReadAt(hdr[:], 0); n < riffHeaderLen {
		return Size{}, fmt.Errorf("%w: RIFF header: %v", ErrTruncatedFile, err)
	}
	if !hasMagic(WebP, hdr[:]) {
		return Size{}, fmt.Errorf("%w: not a WebP file", ErrUnsupportedFormat)
	}

	off := int64(riffHeaderLen)
	for {
		if size-off < chunkHeaderLen {
			return Size{}, ErrDimensionsNotFound
		}

		var ch [chunkHeaderLen]byte
		if n, _ := r.ReadAt(ch[:], off); n < chunkHeaderLen {
			return Size{}, ErrDimensionsNotFound
		}
		tag := string(ch[:4])
		n := int64(binary.LittleEndian.Uint32(ch[4:]))
		padded := n + n%2
		off += chunkHeaderLen

		if padded > size-off {
			return Size{}, fmt.Errorf("%w: chunk %q of %d bytes overruns stream (%d left)", ErrMalformedSegment, tag, n, size-off)
		}

		switch tag {
		case "VP8X":
			p, err := payload(r, off, n, 10, tag)
			if err != nil {
				return Size{}, err
			}
			return valid(Size{
				Width:  1 + int(u24(p[4:7])),
				Height: 1 + int(u24(p[7:10])),
			})
		case "VP8 ":
			p, err := payload(r, off, n, 10, tag)
			if err != nil {
				return Size{}, err
			}
			// the top two bits of each half are the upscaling factor
			return valid(Size{
				Width:  int(binary.LittleEndian.Uint16(p[6:8]) & 0x3FFF),
				Height: int(binary.LittleEndian.Uint16(p[8:10]) & 0x3FFF),
			})
		case "VP8L":
			p, err := payload(r, off, n, 4, tag)
			if err != nil {
				return Size{}, err
			}
			field := binary.LittleEndian.Uint32(p[0:4])
			if p[0] == vp8lSignature && n >= 5 {
				q, err := payload(r, off, n, 5, tag)
				if err != nil {
					return Size{}, err
				}
				field = binary.LittleEndian.Uint32(q[1:5])
			}
			return valid(Size{
				Width:  int(field&0x3FFF) + 1,
				Height: int((field>>14)&0x3FFF) + 1,
			})
		}

		off += padded
	}
}

// payload reads the first need bytes of a chunk payload of length n at off.
func payload(r io.ReaderAt, off, n int64, need int, tag string) ([]byte, error) {
	if n < int64(need) {
		return nil, fmt.Errorf("%w: %q chunk has %d bytes, need %d", ErrMalformedSegment, tag, n, need)
	}
	p := make([]byte, need)
	if got, err := r.ReadAt(p, off); got < need {
		return nil, fmt.Errorf("%w: %q chunk: %v", ErrTruncatedFile, tag, err)
	}
	return p, nil
}

func u24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// Package imgsizetest builds minimal image containers for tests. The results
// carry valid headers but no decodable pixel data.
package imgsizetest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// JPEG returns SOI, a JFIF APP0 segment, a baseline SOF0 frame header and EOI.
func JPEG(w, h int) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	b.Write(Segment(0xE0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")))
	b.Write(SOF(0xC0, w, h))
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

// Segment returns a length-prefixed marker segment.
func Segment(marker byte, body []byte) []byte {
	b := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(b[2:], uint16(len(body)+2))
	return append(b, body...)
}

// SOF returns a three component start-of-frame segment with the given marker.
func SOF(marker byte, w, h int) []byte {
	body := []byte{8, 0, 0, 0, 0, 3, 1, 0x22, 0, 2, 0x11, 1, 3, 0x11, 1}
	binary.BigEndian.PutUint16(body[1:3], uint16(h))
	binary.BigEndian.PutUint16(body[3:5], uint16(w))
	return Segment(marker, body)
}

// PNG returns the signature followed by a complete IHDR chunk.
func PNG(w, h int) []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], uint32(w))
	binary.BigEndian.PutUint32(data[4:8], uint32(h))
	data[8] = 8 // bit depth
	data[9] = 2 // truecolour

	var b bytes.Buffer
	b.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	b.Write(n[:])
	typed := append([]byte("IHDR"), data...)
	b.Write(typed)
	binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(typed))
	b.Write(n[:])
	return b.Bytes()
}

// Chunk returns a RIFF chunk, padded to an even length.
func Chunk(tag string, payload []byte) []byte {
	b := make([]byte, 8, 8+len(payload)+1)
	copy(b, tag)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(payload)))
	b = append(b, payload...)
	if len(payload)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

// RIFF wraps chunks in a RIFF/WEBP container.
func RIFF(chunks ...[]byte) []byte {
	body := []byte("WEBP")
	for _, c := range chunks {
		body = append(body, c...)
	}
	b := make([]byte, 8, 8+len(body))
	copy(b, "RIFF")
	binary.LittleEndian.PutUint32(b[4:], uint32(len(body)))
	return append(b, body...)
}

// VP8X returns an extended WebP whose canvas is w by h, followed by a VP8L chunk
// for a 1x1 image so that only the VP8X record gives the right answer.
func VP8X(w, h int) []byte {
	p := make([]byte, 10)
	putU24(p[4:7], uint32(w-1))
	putU24(p[7:10], uint32(h-1))
	return RIFF(Chunk("VP8X", p), vp8lChunk(1, 1))
}

// VP8 returns a lossy WebP with a key frame header of w by h.
func VP8(w, h int) []byte {
	p := []byte{0x50, 0x02, 0x00, 0x9D, 0x01, 0x2A, 0, 0, 0, 0, 0x00, 0x00}
	binary.LittleEndian.PutUint16(p[6:8], uint16(w))
	binary.LittleEndian.PutUint16(p[8:10], uint16(h))
	return RIFF(Chunk("VP8 ", p))
}

// VP8L returns a lossless WebP laid out the way encoders write it: the 0x2F
// signature byte followed by the packed dimension field.
func VP8L(w, h int) []byte {
	return RIFF(vp8lChunk(w, h))
}

func vp8lChunk(w, h int) []byte {
	p := make([]byte, 6)
	p[0] = 0x2F
	binary.LittleEndian.PutUint32(p[1:5], uint32(w-1)|uint32(h-1)<<14)
	return Chunk("VP8L", p)
}

func putU24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// LosslessJPEG returns a JPEG whose only frame is SOF3 (lossless), which the
// standard library decoder refuses.
func LosslessJPEG(w, h int) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	b.Write(SOF(0xC3, w, h))
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

// RawVP8L returns a lossless WebP whose packed dimension field starts at
// payload offset 0, without the 0x2F signature byte decoders require.
func RawVP8L(w, h int) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, uint32(w-1)|uint32(h-1)<<14)
	return RIFF(Chunk("VP8L", p))
}

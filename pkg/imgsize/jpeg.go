package imgsize

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	temMarker  = 0x01
	rst0Marker = 0xD0
	rst7Marker = 0xD7
	soiMarker  = 0xD8
	eoiMarker  = 0xD9
)

// sofMarkers are the start-of-frame codes: baseline through differential
// lossless, without DHT (C4), JPG (C8) and DAC (CC).
var sofMarkers = map[byte]bool{
	0xC0: true, 0xC1: true, 0xC2: true, 0xC3: true,
	0xC5: true, 0xC6: true, 0xC7: true,
	0xC9: true, 0xCA: true, 0xCB: true,
	0xCD: true, 0xCE: true, 0xCF: true,
}

// standalone markers carry no length field.
func standalone(m byte) bool {
	return m == temMarker || m == soiMarker || (m >= rst0Marker && m <= rst7Marker)
}

// DecodeJPEG scans marker segments up to the first start-of-frame and
// returns the frame's width and height.
func DecodeJPEG(r io.ReaderAt, size int64) (Size, error) {
	br := bufio.NewReader(io.NewSectionReader(r, 0, size))

	var soi [2]byte
	if _, err := io.ReadFull(br, soi[:]); err != nil {
		return Size{}, fmt.Errorf("%w: missing start of image", ErrTruncatedFile)
	}
	if !bytes.Equal(soi[:], jpegSOI) {
		return Size{}, fmt.Errorf("%w: not a JPEG file", ErrUnsupportedFormat)
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			return Size{}, ErrDimensionsNotFound
		}
		if b != 0xFF {
			continue
		}

		m, err := br.ReadByte()
		for err == nil && m == 0xFF {
			m, err = br.ReadByte()
		}
		if err != nil {
			return Size{}, ErrDimensionsNotFound
		}

		switch {
		case m == 0x00:
			// stuffed 0xFF inside entropy coded data
			continue
		case m == eoiMarker:
			return Size{}, fmt.Errorf("%w: end of image before start of frame", ErrDimensionsNotFound)
		case standalone(m):
			continue
		}

		var lb [2]byte
		if _, err := io.ReadFull(br, lb[:]); err != nil {
			return Size{}, ErrDimensionsNotFound
		}
		length := int(binary.BigEndian.Uint16(lb[:]))
		if length < 2 {
			return Size{}, fmt.Errorf("%w: marker %#x length %d", ErrMalformedSegment, m, length)
		}

		if sofMarkers[m] {
			// precision(1) height(2) width(2)
			if length < 7 {
				return Size{}, fmt.Errorf("%w: start of frame length %d", ErrMalformedSegment, length)
			}
			var body [5]byte
			if _, err := io.ReadFull(br, body[:]); err != nil {
				return Size{}, fmt.Errorf("%w: start of frame cut short", ErrTruncatedFile)
			}
			return valid(Size{
				Width:  int(binary.BigEndian.Uint16(body[3:5])),
				Height: int(binary.BigEndian.Uint16(body[1:3])),
			})
		}

		if _, err := br.Discard(length - 2); err != nil {
			return Size{}, ErrDimensionsNotFound
		}
	}
}

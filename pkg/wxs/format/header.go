package format

import (
	"encoding/binary"
	"fmt"

	wxserr "github.com/wz2b/wxdial/pkg/wxs/errors"
)

// Header holds the fixed WXS2 header fields. Immutable once parsed.
type Header struct {
	TileW          uint16
	TileH          uint16
	FrameCount     uint16
	PaletteSize    uint16
	AlphaThreshold uint8
	Codec          Codec
}

// FrameSize returns the decompressed size of every frame in bytes.
func (h *Header) FrameSize() int {
	return int(h.TileW) * int(h.TileH)
}

// Pack serializes the header to exactly HeaderSize bytes.
func (h *Header) Pack() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.TileW)
	binary.LittleEndian.PutUint16(buf[6:8], h.TileH)
	binary.LittleEndian.PutUint16(buf[8:10], h.FrameCount)
	binary.LittleEndian.PutUint16(buf[10:12], h.PaletteSize)
	buf[12] = h.AlphaThreshold
	buf[13] = uint8(h.Codec)
	return buf
}

// UnpackHeader deserializes and validates a header from HeaderSize bytes.
func UnpackHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", wxserr.ErrTruncated, len(data))
	}
	if string(data[0:4]) != Magic {
		return nil, fmt.Errorf("%w: magic %q", wxserr.ErrBadMagic, data[0:4])
	}

	h := &Header{
		TileW:          binary.LittleEndian.Uint16(data[4:6]),
		TileH:          binary.LittleEndian.Uint16(data[6:8]),
		FrameCount:     binary.LittleEndian.Uint16(data[8:10]),
		PaletteSize:    binary.LittleEndian.Uint16(data[10:12]),
		AlphaThreshold: data[12],
		Codec:          Codec(data[13]),
	}

	if h.TileW == 0 || h.TileH == 0 {
		return nil, fmt.Errorf("%w: tile %dx%d", wxserr.ErrBadHeader, h.TileW, h.TileH)
	}
	if h.FrameSize() > MaxFramePixels {
		return nil, fmt.Errorf("%w: tile %dx%d exceeds %d pixels",
			wxserr.ErrBadHeader, h.TileW, h.TileH, MaxFramePixels)
	}
	if h.FrameCount == 0 || h.FrameCount > MaxFrameCount {
		return nil, fmt.Errorf("%w: frame count %d", wxserr.ErrBadHeader, h.FrameCount)
	}
	if h.PaletteSize == 0 || h.PaletteSize > MaxPaletteSize {
		return nil, fmt.Errorf("%w: palette size %d", wxserr.ErrBadHeader, h.PaletteSize)
	}
	if !h.Codec.valid() {
		return nil, fmt.Errorf("%w: codec 0x%02x", wxserr.ErrBadHeader, uint8(h.Codec))
	}

	return h, nil
}

package format

import (
	"bytes"
	"fmt"
	"io"

	xxhash "github.com/cespare/xxhash/v2"

	wxserr "github.com/wz2b/wxdial/pkg/wxs/errors"
)

// Encoder emits a WXS2 stream from a sequence of indexed-pixel frames
// sharing one palette. Each frame is compressed independently so the
// decoder can seek to any frame without touching its predecessors; frames
// with identical pixels share a single stored payload.
type Encoder struct {
	TileW          int
	TileH          int
	Palette        Palette
	AlphaThreshold uint8
	Codec          Codec
	// Level is the zlib compression level; zero means best compression.
	Level int
}

// EncodeStats summarizes one encode for tooling output.
type EncodeStats struct {
	Frames       int
	UniqueFrames int
	RawBytes     int
	StoredBytes  int
	FileBytes    int
}

// Encode writes the animation to w. Every frame must be exactly
// TileW*TileH bytes of palette indices.
func (e *Encoder) Encode(w io.Writer, frames [][]byte) (*EncodeStats, error) {
	if len(frames) == 0 {
		return nil, wxserr.ErrEmptyAnimation
	}
	if len(frames) > MaxFrameCount {
		return nil, fmt.Errorf("%w: %d frames", wxserr.ErrAnimationTooLarge, len(frames))
	}
	if e.TileW <= 0 || e.TileH <= 0 || e.TileW > 0xFFFF || e.TileH > 0xFFFF {
		return nil, fmt.Errorf("%w: tile %dx%d", wxserr.ErrAnimationTooLarge, e.TileW, e.TileH)
	}
	if len(e.Palette) == 0 || len(e.Palette) > MaxPaletteSize {
		return nil, fmt.Errorf("%w: %d palette entries", wxserr.ErrPaletteOverflow, len(e.Palette))
	}
	if !e.Codec.valid() {
		return nil, fmt.Errorf("unknown codec 0x%02x", uint8(e.Codec))
	}

	frameSize := e.TileW * e.TileH
	for i, f := range frames {
		if len(f) != frameSize {
			return nil, fmt.Errorf("%w: frame %d is %d bytes, tile %dx%d needs %d",
				wxserr.ErrFrameSizeMismatch, i, len(f), e.TileW, e.TileH, frameSize)
		}
		for pos, b := range f {
			if int(b) >= len(e.Palette) {
				return nil, fmt.Errorf("%w: frame %d pixel %d uses index %d of %d",
					wxserr.ErrPaletteOverflow, i, pos, b, len(e.Palette))
			}
		}
	}

	// Compress unique frames only; identical frames alias one payload.
	var (
		blobs   bytes.Buffer
		table   = make(FrameTable, len(frames))
		seen    = map[uint64]int{} // raw-pixel hash -> frame index of first occurrence
		unique  = 0
		rawSum  = 0
		blobSum = 0
	)
	for i, f := range frames {
		rawSum += len(f)
		key := xxhash.Sum64(f)
		if j, ok := seen[key]; ok && bytes.Equal(frames[j], f) {
			table[i] = table[j]
			continue
		}
		seen[key] = i

		comp, err := compress(e.Codec, f, e.Level)
		if err != nil {
			return nil, fmt.Errorf("compressing frame %d: %w", i, err)
		}
		table[i] = FrameEntry{Offset: uint32(blobs.Len()), Length: uint32(len(comp))}
		blobs.Write(comp)
		unique++
		blobSum += len(comp)
	}

	hdr := Header{
		TileW:          uint16(e.TileW),
		TileH:          uint16(e.TileH),
		FrameCount:     uint16(len(frames)),
		PaletteSize:    uint16(len(e.Palette)),
		AlphaThreshold: e.AlphaThreshold,
		Codec:          e.Codec,
	}

	// Offsets in the table are relative to the frame-data region.
	written := 0
	for _, part := range [][]byte{hdr.Pack(), e.Palette.Pack(), table.Pack(), blobs.Bytes()} {
		if _, err := w.Write(part); err != nil {
			return nil, err
		}
		written += len(part)
	}

	return &EncodeStats{
		Frames:       len(frames),
		UniqueFrames: unique,
		RawBytes:     rawSum,
		StoredBytes:  blobSum,
		FileBytes:    written,
	}, nil
}

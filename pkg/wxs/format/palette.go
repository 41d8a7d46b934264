package format

import (
	"fmt"
	"image/color"

	wxserr "github.com/wz2b/wxdial/pkg/wxs/errors"
)

// Palette is the color table shared by every frame of an animation,
// stored on disk as RGB888 triplets. Index 0 is reserved transparent.
type Palette []color.RGBA

// UnpackPalette parses size RGB888 entries from data.
func UnpackPalette(data []byte, size int) (Palette, error) {
	if len(data) < size*PaletteEntrySize {
		return nil, fmt.Errorf("%w: %d byte palette, need %d",
			wxserr.ErrTruncated, len(data), size*PaletteEntrySize)
	}
	pal := make(Palette, size)
	for i := 0; i < size; i++ {
		pal[i] = color.RGBA{
			R: data[i*3+0],
			G: data[i*3+1],
			B: data[i*3+2],
			A: 0xFF,
		}
	}
	// Entry 0 denotes transparency regardless of its stored color.
	if size > 0 {
		pal[TransparentIndex].A = 0
	}
	return pal, nil
}

// Pack serializes the palette to len(p)*3 bytes of RGB888 triplets.
func (p Palette) Pack() []byte {
	buf := make([]byte, 0, len(p)*PaletteEntrySize)
	for _, c := range p {
		buf = append(buf, c.R, c.G, c.B)
	}
	return buf
}

// IsTransparent reports whether idx is the reserved transparent index.
func (p Palette) IsTransparent(idx int) bool {
	return idx == TransparentIndex
}

// RGB565 converts the palette for 16-bit little-endian display pipelines.
// Entry 0 is included but must still be keyed out by the compositor.
func (p Palette) RGB565() []uint16 {
	out := make([]uint16, len(p))
	for i, c := range p {
		out[i] = rgb565From888(c.R, c.G, c.B)
	}
	return out
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

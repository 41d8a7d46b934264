package imgprep

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/wz2b/wxdial/pkg/wxs/format"
)

// maxQuantizeSamples bounds the pixel set fed to median cut; beyond this
// the opaque pixels are sampled evenly.
const maxQuantizeSamples = 1 << 16

type rgb struct{ r, g, b uint8 }

// BuildPalette derives a shared palette from every frame at once, the way
// the original tool quantizes the whole sprite sheet: index 0 is reserved
// transparent, indices 1..colors-1 hold the visible colors (median cut).
// Pixels with alpha <= alphaThreshold do not contribute.
func BuildPalette(frames []*image.RGBA, colors int, alphaThreshold uint8) (format.Palette, error) {
	if colors < 2 || colors > format.MaxPaletteSize {
		return nil, fmt.Errorf("colors must be 2..%d, got %d", format.MaxPaletteSize, colors)
	}

	var samples []rgb
	total := 0
	for _, fr := range frames {
		total += len(fr.Pix) / 4
	}
	stride := total/maxQuantizeSamples + 1

	n := 0
	for _, fr := range frames {
		for i := 0; i+3 < len(fr.Pix); i += 4 {
			if fr.Pix[i+3] <= alphaThreshold {
				continue
			}
			if n%stride == 0 {
				samples = append(samples, rgb{fr.Pix[i], fr.Pix[i+1], fr.Pix[i+2]})
			}
			n++
		}
	}

	pal := make(format.Palette, 1, colors)
	pal[0] = color.RGBA{} // transparent placeholder
	for _, c := range medianCut(samples, colors-1) {
		pal = append(pal, color.RGBA{R: c.r, G: c.g, B: c.b, A: 0xFF})
	}
	// Pad so the file's palette size matches the requested color count.
	for len(pal) < colors {
		pal = append(pal, color.RGBA{A: 0xFF})
	}
	return pal, nil
}

// IndexFrames maps RGBA frames onto the palette: transparent pixels to
// index 0, the rest to the nearest visible entry.
func IndexFrames(frames []*image.RGBA, pal format.Palette, alphaThreshold uint8) [][]byte {
	out := make([][]byte, len(frames))
	for fi, fr := range frames {
		b := fr.Bounds()
		indexed := make([]byte, b.Dx()*b.Dy())
		pos := 0
		for i := 0; i+3 < len(fr.Pix); i += 4 {
			if fr.Pix[i+3] <= alphaThreshold {
				indexed[pos] = format.TransparentIndex
			} else {
				indexed[pos] = nearest(pal, fr.Pix[i], fr.Pix[i+1], fr.Pix[i+2])
			}
			pos++
		}
		out[fi] = indexed
	}
	return out
}

// nearest returns the visible palette index closest to (r,g,b). Index 0 is
// never returned; it only ever means transparent.
func nearest(pal format.Palette, r, g, b uint8) byte {
	best := 1
	bestDist := 1 << 30
	for i := 1; i < len(pal); i++ {
		c := pal[i]
		d := sq(int(c.R)-int(r)) + sq(int(c.G)-int(g)) + sq(int(c.B)-int(b))
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return byte(best)
}

func sq(v int) int { return v * v }

// medianCut reduces samples to at most n representative colors.
func medianCut(samples []rgb, n int) []rgb {
	if len(samples) == 0 {
		return nil
	}

	boxes := [][]rgb{samples}
	for len(boxes) < n {
		// Split the box with the widest channel range.
		bi, ch := -1, 0
		widest := 0
		for i, box := range boxes {
			if len(box) < 2 {
				continue
			}
			c, span := boxSpan(box)
			if span > widest {
				widest = span
				bi = i
				ch = c
			}
		}
		if bi < 0 {
			break
		}

		box := boxes[bi]
		sort.Slice(box, func(a, b int) bool {
			return channel(box[a], ch) < channel(box[b], ch)
		})
		mid := len(box) / 2
		boxes[bi] = box[:mid]
		boxes = append(boxes, box[mid:])
	}

	out := make([]rgb, len(boxes))
	for i, box := range boxes {
		out[i] = boxMean(box)
	}
	return out
}

// boxSpan returns the channel with the largest value range and that range.
func boxSpan(box []rgb) (int, int) {
	var lo, hi [3]int
	for c := 0; c < 3; c++ {
		lo[c], hi[c] = 255, 0
	}
	for _, p := range box {
		for c := 0; c < 3; c++ {
			v := channel(p, c)
			if v < lo[c] {
				lo[c] = v
			}
			if v > hi[c] {
				hi[c] = v
			}
		}
	}
	ch, span := 0, 0
	for c := 0; c < 3; c++ {
		if hi[c]-lo[c] > span {
			span = hi[c] - lo[c]
			ch = c
		}
	}
	return ch, span
}

func boxMean(box []rgb) rgb {
	var r, g, b int
	for _, p := range box {
		r += int(p.r)
		g += int(p.g)
		b += int(p.b)
	}
	n := len(box)
	return rgb{uint8(r / n), uint8(g / n), uint8(b / n)}
}

func channel(p rgb, c int) int {
	switch c {
	case 0:
		return int(p.r)
	case 1:
		return int(p.g)
	default:
		return int(p.b)
	}
}

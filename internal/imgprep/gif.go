// Package imgprep turns source images (animated GIFs, BMP sprite sheets)
// into the fixed-size, palette-indexed frames the WXS2 encoder consumes.
// It is tooling-side only; nothing here runs on the device path.
package imgprep

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"

	"github.com/nfnt/resize"
)

// LoadGIF decodes an animated GIF and returns fully composited RGBA frames
// at the target size. everyN keeps one frame in every n (n <= 1 keeps all);
// maxFrames caps the result (0 means no cap).
func LoadGIF(path string, width, height, everyN, maxFrames int) ([]*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("no frames in %s", path)
	}

	if everyN < 1 {
		everyN = 1
	}

	var out []*image.RGBA
	for i, fr := range coalesce(g) {
		if i%everyN != 0 {
			continue
		}
		out = append(out, resizeRGBA(fr, width, height))
		if maxFrames > 0 && len(out) >= maxFrames {
			break
		}
	}
	return out, nil
}

// coalesce replays GIF frame rectangles and disposal onto a full-size
// canvas so every returned frame is a complete image.
func coalesce(g *gif.GIF) []*image.RGBA {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	canvas := image.NewRGBA(bounds)
	frames := make([]*image.RGBA, 0, len(g.Image))
	for i, fr := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var saved *image.RGBA
		if disposal == gif.DisposalPrevious {
			saved = cloneRGBA(canvas)
		}

		draw.Draw(canvas, fr.Bounds(), fr, fr.Bounds().Min, draw.Over)
		frames = append(frames, cloneRGBA(canvas))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, fr.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return frames
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// resizeRGBA resamples img to width x height with Lanczos3.
func resizeRGBA(img image.Image, width, height int) *image.RGBA {
	scaled := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	if rgba, ok := scaled.(*image.RGBA); ok {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	return dst
}

package imgprep

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/bmp"
)

// LoadBMPSheet slices a BMP sprite sheet (frames laid out across X) into
// tile-sized RGBA frames, matching the device widget's BMP mode. BMP
// carries no alpha, so every pixel is opaque.
func LoadBMPSheet(path string, tileW, tileH int) ([]*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, err := bmp.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	b := sheet.Bounds()
	if tileW <= 0 || tileH <= 0 || b.Dy() < tileH || b.Dx() < tileW {
		return nil, fmt.Errorf("%s: %dx%d sheet cannot hold %dx%d tiles",
			path, b.Dx(), b.Dy(), tileW, tileH)
	}

	count := b.Dx() / tileW
	frames := make([]*image.RGBA, count)
	for i := 0; i < count; i++ {
		dst := image.NewRGBA(image.Rect(0, 0, tileW, tileH))
		src := image.Pt(b.Min.X+i*tileW, b.Min.Y)
		draw.Draw(dst, dst.Bounds(), sheet, src, draw.Src)
		frames[i] = dst
	}
	return frames, nil
}

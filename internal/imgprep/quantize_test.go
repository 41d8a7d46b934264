package imgprep

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wz2b/wxdial/pkg/wxs/format"
)

// testFrame paints the left half red, the right half blue, and makes the
// top row fully transparent.
func testFrame() *image.RGBA {
	fr := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := color.RGBA{R: 0xE0, A: 0xFF}
			if x >= 4 {
				c = color.RGBA{B: 0xE0, A: 0xFF}
			}
			if y == 0 {
				c = color.RGBA{}
			}
			fr.SetRGBA(x, y, c)
		}
	}
	return fr
}

func TestBuildPaletteReservesTransparentIndex(t *testing.T) {
	pal, err := BuildPalette([]*image.RGBA{testFrame()}, 4, 10)
	require.NoError(t, err)

	require.Len(t, pal, 4)
	assert.True(t, pal.IsTransparent(0))
	for i := 1; i < len(pal); i++ {
		assert.Equal(t, uint8(0xFF), pal[i].A, "entry %d", i)
	}
}

func TestBuildPaletteRejectsBadColorCount(t *testing.T) {
	_, err := BuildPalette([]*image.RGBA{testFrame()}, 1, 10)
	assert.Error(t, err)
	_, err = BuildPalette([]*image.RGBA{testFrame()}, 300, 10)
	assert.Error(t, err)
}

func TestIndexFramesMapsTransparencyAndColors(t *testing.T) {
	fr := testFrame()
	pal, err := BuildPalette([]*image.RGBA{fr}, 4, 10)
	require.NoError(t, err)

	indexed := IndexFrames([]*image.RGBA{fr}, pal, 10)
	require.Len(t, indexed, 1)
	px := indexed[0]
	require.Len(t, px, 64)

	// Top row transparent, everything else a visible index.
	for x := 0; x < 8; x++ {
		assert.Equal(t, byte(format.TransparentIndex), px[x], "pixel %d", x)
	}
	for i := 8; i < 64; i++ {
		assert.NotEqual(t, byte(format.TransparentIndex), px[i], "pixel %d", i)
		assert.Less(t, int(px[i]), len(pal), "pixel %d", i)
	}

	// Red half and blue half land on different palette entries.
	assert.NotEqual(t, px[8], px[15])
}

func TestIndexedFramesSurviveEncodeRoundTrip(t *testing.T) {
	fr := testFrame()
	pal, err := BuildPalette([]*image.RGBA{fr}, 4, 10)
	require.NoError(t, err)
	indexed := IndexFrames([]*image.RGBA{fr}, pal, 10)

	enc := format.Encoder{TileW: 8, TileH: 8, Palette: pal, AlphaThreshold: 10, Codec: format.CodecZlib}
	var buf bytes.Buffer
	_, err = enc.Encode(&buf, indexed)
	require.NoError(t, err)

	r, err := format.Open(format.NewBytesSource(buf.Bytes()), nil)
	require.NoError(t, err)
	scratch := make([]byte, r.FrameSize())
	require.NoError(t, r.DecodeFrame(0, scratch))
	assert.Equal(t, indexed[0], scratch)
}

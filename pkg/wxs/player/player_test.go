package player

import (
	"bytes"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wxserr "github.com/wz2b/wxdial/pkg/wxs/errors"
	"github.com/wz2b/wxdial/pkg/wxs/format"
)

const testDuration = 10 * time.Millisecond

// recordingSink captures every FrameReady notification.
type recordingSink struct {
	frames []int
	last   []byte
}

func (s *recordingSink) FrameReady(pixels []byte, frame int) {
	s.frames = append(s.frames, frame)
	s.last = append(s.last[:0], pixels...)
}

// buildAnimation encodes count distinct 4x4 frames and returns the file
// bytes alongside the raw frames.
func buildAnimation(t *testing.T, count int) ([]byte, [][]byte) {
	t.Helper()

	pal := make(format.Palette, 4)
	for i := 1; i < 4; i++ {
		pal[i] = color.RGBA{R: uint8(i * 40), A: 0xFF}
	}
	frames := make([][]byte, count)
	for f := range frames {
		px := make([]byte, 16)
		for i := range px {
			px[i] = byte((i + f) % 4)
		}
		frames[f] = px
	}

	enc := format.Encoder{TileW: 4, TileH: 4, Palette: pal, Codec: format.CodecZlib}
	var buf bytes.Buffer
	_, err := enc.Encode(&buf, frames)
	require.NoError(t, err)
	return buf.Bytes(), frames
}

func openAnimation(t *testing.T, data []byte) *format.Reader {
	t.Helper()
	r, err := format.Open(format.NewBytesSource(data), nil)
	require.NoError(t, err)
	return r
}

// startPlayer attaches, starts, and establishes the time base at t0.
func startPlayer(t *testing.T, p *Player, r *format.Reader, opts Options, t0 time.Time) {
	t.Helper()
	require.NoError(t, p.Attach(r, opts))
	require.NoError(t, p.Start())
	dirty, err := p.Advance(t0)
	require.NoError(t, err)
	require.False(t, dirty)
}

func TestAttachDecodesFrameZero(t *testing.T) {
	data, frames := buildAnimation(t, 4)
	sink := &recordingSink{}

	p := New()
	require.NoError(t, p.Attach(openAnimation(t, data), Options{Sink: sink}))

	assert.Equal(t, Ready, p.State())
	assert.Equal(t, 0, p.Frame())
	assert.Equal(t, frames[0], p.Pixels())
	assert.Equal(t, []int{0}, sink.frames)
}

func TestAdvanceStepsThroughFrames(t *testing.T) {
	data, frames := buildAnimation(t, 4)
	sink := &recordingSink{}
	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, data), Options{
		FrameDuration: testDuration,
		Loop:          true,
		Sink:          sink,
	}, t0)

	for i := 1; i <= 3; i++ {
		dirty, err := p.Advance(t0.Add(time.Duration(i) * testDuration))
		require.NoError(t, err)
		assert.True(t, dirty)
		assert.Equal(t, i, p.Frame())
		assert.Equal(t, frames[i], p.Pixels())
	}
	assert.Equal(t, []int{0, 1, 2, 3}, sink.frames)
}

func TestLoopReturnsToStartAfterFullCycle(t *testing.T) {
	data, frames := buildAnimation(t, 4)
	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, data), Options{
		FrameDuration: testDuration,
		Loop:          true,
	}, t0)

	// Advancing by exactly k*F*D lands back on frame 0 with the buffer
	// byte-identical to the post-attach state.
	for k := 1; k <= 3; k++ {
		dirty, err := p.Advance(t0.Add(time.Duration(k*4) * testDuration))
		require.NoError(t, err)
		assert.False(t, dirty, "cycle %d", k)
		assert.Equal(t, 0, p.Frame())
		assert.Equal(t, frames[0], p.Pixels())
	}
	assert.Equal(t, Playing, p.State())
}

func TestLoopCatchUpSkipsIntermediateFrames(t *testing.T) {
	data, frames := buildAnimation(t, 4)
	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, data), Options{
		FrameDuration: testDuration,
		Loop:          true,
	}, t0)

	// 6 periods in one tick: (0+6) mod 4 = 2, decoded in a single step.
	dirty, err := p.Advance(t0.Add(6 * testDuration))
	require.NoError(t, err)
	assert.True(t, dirty)
	assert.Equal(t, 2, p.Frame())
	assert.Equal(t, frames[2], p.Pixels())
}

func TestNonLoopFinishes(t *testing.T) {
	data, frames := buildAnimation(t, 4)
	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, data), Options{
		FrameDuration: testDuration,
	}, t0)

	// Far past the end: clamps to the last frame, leftover time discarded.
	dirty, err := p.Advance(t0.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, dirty)
	assert.Equal(t, Finished, p.State())
	assert.Equal(t, 3, p.Frame())
	assert.Equal(t, frames[3], p.Pixels())

	// Further advances are no-ops.
	dirty, err = p.Advance(t0.Add(2 * time.Second))
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, 3, p.Frame())
	assert.Equal(t, frames[3], p.Pixels())
}

func TestNonLoopRestart(t *testing.T) {
	data, _ := buildAnimation(t, 2)
	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, data), Options{
		FrameDuration: testDuration,
	}, t0)

	_, err := p.Advance(t0.Add(5 * testDuration))
	require.NoError(t, err)
	require.Equal(t, Finished, p.State())

	// Start from Finished resumes advancing with a fresh time base.
	require.NoError(t, p.Start())
	assert.Equal(t, Playing, p.State())
}

func TestCorruptFrameKeepsLastGoodBuffer(t *testing.T) {
	data, frames := buildAnimation(t, 3)

	// Locate and clobber frame 1's payload.
	probe := openAnimation(t, data)
	off, length, err := probe.FrameRange(1)
	require.NoError(t, err)
	corrupt := append([]byte(nil), data...)
	for i := int64(0); i < int64(length); i++ {
		corrupt[off+i] ^= 0xA5
	}

	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, corrupt), Options{
		FrameDuration: testDuration,
		Loop:          true,
	}, t0)

	// Frame 1 fails to decode: index stays, pixels stay frame 0 complete.
	dirty, err := p.Advance(t0.Add(testDuration))
	assert.ErrorIs(t, err, wxserr.ErrCorruptFrame)
	assert.False(t, dirty)
	assert.Equal(t, 0, p.Frame())
	assert.Equal(t, frames[0], p.Pixels())
	assert.Equal(t, Playing, p.State())

	// Enough elapsed time to step over the bad frame recovers playback.
	dirty, err = p.Advance(t0.Add(3*testDuration + time.Millisecond))
	require.NoError(t, err)
	assert.True(t, dirty)
	assert.Equal(t, 2, p.Frame())
	assert.Equal(t, frames[2], p.Pixels())
}

func TestAttachFailsOnBadFirstFrame(t *testing.T) {
	data, _ := buildAnimation(t, 2)
	probe := openAnimation(t, data)
	off, length, err := probe.FrameRange(0)
	require.NoError(t, err)
	corrupt := append([]byte(nil), data...)
	for i := int64(0); i < int64(length); i++ {
		corrupt[off+i] ^= 0xA5
	}

	p := New()
	err = p.Attach(openAnimation(t, corrupt), Options{})
	assert.ErrorIs(t, err, wxserr.ErrCorruptFrame)
	assert.Equal(t, Stopped, p.State())
	assert.Nil(t, p.Pixels())
}

func TestBuffersAreReusedAcrossAdvances(t *testing.T) {
	data, _ := buildAnimation(t, 4)
	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, data), Options{
		FrameDuration: testDuration,
		Loop:          true,
	}, t0)

	buf := p.Pixels()
	for i := 1; i <= 8; i++ {
		_, err := p.Advance(t0.Add(time.Duration(i) * testDuration))
		require.NoError(t, err)
		// Same backing array every tick: the buffer is updated in place.
		assert.Same(t, &buf[0], &p.Pixels()[0], "tick %d", i)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	data, _ := buildAnimation(t, 4)
	p := New()

	// Detached: everything but Attach refuses.
	assert.ErrorIs(t, p.Start(), wxserr.ErrNotAttached)
	assert.ErrorIs(t, p.Stop(), wxserr.ErrNotAttached)
	_, err := p.Advance(time.Now())
	assert.ErrorIs(t, err, wxserr.ErrNotAttached)

	require.NoError(t, p.Attach(openAnimation(t, data), Options{FrameDuration: testDuration}))
	assert.Equal(t, Ready, p.State())

	// Ready: Advance is a no-op, not an error.
	dirty, err := p.Advance(time.Now())
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, p.Start())
	assert.Equal(t, Playing, p.State())

	require.NoError(t, p.Stop())
	assert.Equal(t, Ready, p.State())

	p.Detach()
	assert.Equal(t, Stopped, p.State())
	assert.Nil(t, p.Pixels())
}

func TestStopPreservesCurrentFrame(t *testing.T) {
	data, frames := buildAnimation(t, 4)
	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, data), Options{
		FrameDuration: testDuration,
		Loop:          true,
	}, t0)

	_, err := p.Advance(t0.Add(2 * testDuration))
	require.NoError(t, err)
	require.Equal(t, 2, p.Frame())

	require.NoError(t, p.Stop())
	assert.Equal(t, 2, p.Frame())
	assert.Equal(t, frames[2], p.Pixels())
}

func TestSingleFrameAnimationNeverDirties(t *testing.T) {
	data, frames := buildAnimation(t, 1)
	p := New()
	t0 := time.Unix(100, 0)
	startPlayer(t, p, openAnimation(t, data), Options{
		FrameDuration: testDuration,
		Loop:          true,
	}, t0)

	for i := 1; i <= 5; i++ {
		dirty, err := p.Advance(t0.Add(time.Duration(i) * testDuration))
		require.NoError(t, err)
		assert.False(t, dirty)
	}
	assert.Equal(t, frames[0], p.Pixels())
}

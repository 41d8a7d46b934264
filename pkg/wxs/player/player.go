// Package player advances WXS2 animations on a tick-driven cadence while
// reusing a fixed pair of frame buffers. It is the Go counterpart of the
// device-side icon animation widget: one persistent buffer holds the last
// complete frame, one scratch buffer absorbs decodes, and nothing pixel-
// sized is allocated after Attach.
package player

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	wxserr "github.com/wz2b/wxdial/pkg/wxs/errors"
	"github.com/wz2b/wxdial/pkg/wxs/format"
)

// DefaultFrameDuration is used when Options.FrameDuration is zero.
const DefaultFrameDuration = 100 * time.Millisecond

// State is the playback lifecycle state.
type State int

const (
	// Stopped: no animation attached, no buffers allocated.
	Stopped State = iota
	// Ready: buffers allocated, frame 0 decoded, not advancing.
	Ready
	// Playing: advancing on time.
	Playing
	// Finished: a non-looping animation reached its last frame.
	Finished
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FrameSink receives the persistent buffer after every advance that changed
// it. The slice is a read-only view that is overwritten in place on the
// next frame change; implementations must not retain it across calls.
type FrameSink interface {
	FrameReady(pixels []byte, frame int)
}

// Options configures an attached animation.
type Options struct {
	FrameDuration time.Duration
	Loop          bool
	Sink          FrameSink
	Logger        hclog.Logger
}

// Player owns the playback state for one animation: the current frame
// index, accumulated time, and exactly two frame-sized buffers allocated at
// Attach and reused until Detach. Not safe for concurrent use; Advance is
// meant to be driven by a single tick loop.
type Player struct {
	reader *format.Reader
	opts   Options
	logger hclog.Logger

	state      State
	frame      int
	elapsed    time.Duration
	lastTick   time.Time
	ticked     bool
	persistent []byte
	scratch    []byte
}

// New returns a detached Player.
func New() *Player {
	return &Player{state: Stopped, logger: hclog.NewNullLogger()}
}

// Attach binds an animation, allocates both frame buffers, and decodes
// frame 0 into the persistent buffer. A decode failure here is a load
// failure: the player stays Stopped and holds nothing.
func (p *Player) Attach(r *format.Reader, opts Options) error {
	if p.state != Stopped {
		p.Detach()
	}
	if opts.FrameDuration <= 0 {
		opts.FrameDuration = DefaultFrameDuration
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	size := r.FrameSize()
	persistent := make([]byte, size)
	scratch := make([]byte, size)

	if err := r.DecodeFrame(0, scratch); err != nil {
		return fmt.Errorf("decoding first frame: %w", err)
	}
	copy(persistent, scratch)

	p.reader = r
	p.opts = opts
	p.logger = logger
	p.state = Ready
	p.frame = 0
	p.elapsed = 0
	p.ticked = false
	p.persistent = persistent
	p.scratch = scratch

	logger.Debug("animation attached",
		"frames", r.FrameCount(),
		"frame_bytes", size,
		"duration", opts.FrameDuration,
		"loop", opts.Loop,
	)

	if opts.Sink != nil {
		opts.Sink.FrameReady(p.persistent, 0)
	}
	return nil
}

// Detach releases both buffers and returns to Stopped. The Reader is not
// closed; its source may be shared by other players.
func (p *Player) Detach() {
	p.reader = nil
	p.persistent = nil
	p.scratch = nil
	p.state = Stopped
	p.frame = 0
	p.elapsed = 0
	p.ticked = false
	p.logger = hclog.NewNullLogger()
	p.opts = Options{}
}

// Start begins advancing from the current frame with a fresh time base.
func (p *Player) Start() error {
	switch p.state {
	case Stopped:
		return wxserr.ErrNotAttached
	case Ready, Finished:
		p.state = Playing
		p.elapsed = 0
		p.ticked = false
	case Playing:
	}
	return nil
}

// Stop halts advancement without releasing buffers.
func (p *Player) Stop() error {
	if p.state == Stopped {
		return wxserr.ErrNotAttached
	}
	p.state = Ready
	p.elapsed = 0
	p.ticked = false
	return nil
}

// Advance moves playback to now. It reports whether the persistent buffer
// changed. A frame decode failure is non-fatal: the persistent buffer
// keeps its previous complete frame, the frame index stays put, and the
// next Advance will try that frame again.
func (p *Player) Advance(now time.Time) (bool, error) {
	switch p.state {
	case Stopped:
		return false, wxserr.ErrNotAttached
	case Ready, Finished:
		return false, nil
	}

	if !p.ticked {
		p.lastTick = now
		p.ticked = true
		return false, nil
	}
	delta := now.Sub(p.lastTick)
	p.lastTick = now
	if delta > 0 {
		p.elapsed += delta
	}

	steps := 0
	for p.elapsed >= p.opts.FrameDuration {
		p.elapsed -= p.opts.FrameDuration
		steps++
	}
	if steps == 0 {
		return false, nil
	}

	count := p.reader.FrameCount()
	target := p.frame
	finished := false
	if p.opts.Loop {
		target = (p.frame + steps) % count
	} else {
		target = p.frame + steps
		if target >= count-1 {
			target = count - 1
			finished = true
			// Terminal frame: leftover time is discarded, no catch-up.
			p.elapsed = 0
		}
	}

	if target == p.frame {
		if finished {
			p.state = Finished
		}
		return false, nil
	}

	// Decode into scratch first so the persistent buffer is always a
	// complete frame, even when the decode fails partway.
	if err := p.reader.DecodeFrame(target, p.scratch); err != nil {
		p.logger.Warn("frame decode failed, keeping last frame",
			"frame", target, "error", err)
		return false, err
	}
	copy(p.persistent, p.scratch)
	p.frame = target
	if finished {
		p.state = Finished
	}
	if p.opts.Sink != nil {
		p.opts.Sink.FrameReady(p.persistent, p.frame)
	}
	return true, nil
}

// State returns the current lifecycle state.
func (p *Player) State() State { return p.state }

// Frame returns the index of the frame in the persistent buffer.
func (p *Player) Frame() int { return p.frame }

// Pixels returns the persistent buffer: one byte of palette index per
// pixel, row-major. Read-only, overwritten in place by Advance.
func (p *Player) Pixels() []byte { return p.persistent }

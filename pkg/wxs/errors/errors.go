// Package errors defines the shared error values for the WXS2 codec.
package errors

import "errors"

var (
	// Format errors — fatal at load time, the animation cannot be attached.
	ErrBadMagic         = errors.New("not a WXS2 file")
	ErrBadHeader        = errors.New("invalid WXS2 header field")
	ErrTruncated        = errors.New("source shorter than declared structure")
	ErrEntryOutOfBounds = errors.New("frame table entry outside source bounds")

	// Frame errors — recoverable, the persistent buffer keeps its last
	// good contents and the caller may retry on the next tick.
	ErrFrameOutOfRange        = errors.New("frame index out of range")
	ErrCorruptFrame           = errors.New("corrupt frame payload")
	ErrPaletteIndexOutOfRange = errors.New("decoded palette index out of range")
	ErrScratchSize            = errors.New("scratch buffer size mismatch")

	// Encoder errors
	ErrEmptyAnimation    = errors.New("no frames to encode")
	ErrFrameSizeMismatch = errors.New("frame dimensions inconsistent")
	ErrPaletteOverflow   = errors.New("palette overflow")
	ErrAnimationTooLarge = errors.New("animation exceeds format limits")

	// Player errors
	ErrNotAttached = errors.New("no animation attached")
)

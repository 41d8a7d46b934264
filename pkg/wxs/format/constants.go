// Package format implements the WXS2 animated sprite file format: a small
// header, one shared palette, a random-access frame table, and per-frame
// independently compressed payloads. Frames decode one at a time into a
// caller-supplied buffer so playback never materializes a whole animation.
package format

// Core format constants. The on-disk layout is fixed by the deployed
// CircuitPython decoder; changing any of these breaks compatibility.
const (
	// Magic identifies a WXS2 stream.
	Magic = "WXS2"

	// HeaderSize is the fixed header length in bytes:
	// magic(4) + tile_w(2) + tile_h(2) + frames(2) + colors(2) +
	// alpha_threshold(1) + codec(1).
	HeaderSize = 14

	// PaletteEntrySize is bytes per palette entry (RGB888).
	PaletteEntrySize = 3

	// TableEntrySize is bytes per frame table entry (offset u32, length u32).
	TableEntrySize = 8

	// TransparentIndex is the reserved palette index. Consumers must never
	// treat it as an opaque color.
	TransparentIndex = 0
)

// Validation limits. These are sanity bounds for a device with tens of KB
// of heap, not part of the wire format.
const (
	MaxPaletteSize = 256
	MaxFrameCount  = 4096
	MaxFramePixels = 1 << 20
)

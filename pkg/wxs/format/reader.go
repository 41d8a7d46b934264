package format

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"

	wxserr "github.com/wz2b/wxdial/pkg/wxs/errors"
)

// Reader decodes WXS2 animations from a Source. Open parses and validates
// the header, palette, and frame table eagerly; frame payloads are only
// read by DecodeFrame, one frame at a time, into a caller-owned buffer.
//
// A Reader reuses one internal buffer for compressed payload bytes, so
// DecodeFrame is not reentrant. The playback model is a single-threaded
// tick loop; give each concurrent consumer its own Reader over the same
// Source if that ever changes.
type Reader struct {
	src       Source
	header    Header
	palette   Palette
	table     FrameTable
	dataStart int64
	relative  bool
	comp      []byte
	logger    hclog.Logger
}

// Open parses the structure of a WXS2 animation from src. A nil logger is
// replaced with the null logger.
func Open(src Source, logger hclog.Logger) (*Reader, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	size := src.Size()
	if size < HeaderSize {
		return nil, fmt.Errorf("%w: %d byte source", wxserr.ErrTruncated, size)
	}

	hdrBytes := make([]byte, HeaderSize)
	if _, err := src.ReadAt(hdrBytes, 0); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	hdr, err := UnpackHeader(hdrBytes)
	if err != nil {
		return nil, err
	}

	palLen := int64(hdr.PaletteSize) * PaletteEntrySize
	tableLen := int64(hdr.FrameCount) * TableEntrySize
	dataStart := HeaderSize + palLen + tableLen
	if size < dataStart {
		return nil, fmt.Errorf("%w: source %d bytes, structure needs %d",
			wxserr.ErrTruncated, size, dataStart)
	}

	meta := make([]byte, palLen+tableLen)
	if _, err := src.ReadAt(meta, HeaderSize); err != nil {
		return nil, fmt.Errorf("reading palette and frame table: %w", err)
	}
	palette, err := UnpackPalette(meta[:palLen], int(hdr.PaletteSize))
	if err != nil {
		return nil, err
	}
	table, err := UnpackFrameTable(meta[palLen:], int(hdr.FrameCount))
	if err != nil {
		return nil, err
	}

	relative := table.relative(dataStart)
	maxLen := 0
	for i, e := range table {
		abs := int64(e.Offset)
		if relative {
			abs += dataStart
		}
		if abs+int64(e.Length) > size {
			return nil, fmt.Errorf("%w: frame %d at %d+%d, source %d bytes",
				wxserr.ErrEntryOutOfBounds, i, abs, e.Length, size)
		}
		if int(e.Length) > maxLen {
			maxLen = int(e.Length)
		}
	}

	logger.Debug("opened WXS2 animation",
		"tile", fmt.Sprintf("%dx%d", hdr.TileW, hdr.TileH),
		"frames", hdr.FrameCount,
		"colors", hdr.PaletteSize,
		"codec", hdr.Codec.String(),
		"relative_offsets", relative,
	)

	return &Reader{
		src:       src,
		header:    *hdr,
		palette:   palette,
		table:     table,
		dataStart: dataStart,
		relative:  relative,
		comp:      make([]byte, maxLen),
		logger:    logger,
	}, nil
}

// OpenFile opens a .wxs file. The returned Reader owns the file handle;
// Close releases it.
func OpenFile(path string, logger hclog.Logger) (*Reader, error) {
	src, err := OpenFileSource(path)
	if err != nil {
		return nil, err
	}
	r, err := Open(src, logger)
	if err != nil {
		src.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying source if it is closable.
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Header returns the parsed header.
func (r *Reader) Header() Header { return r.header }

// Palette returns the shared palette. Callers must treat it as read-only.
func (r *Reader) Palette() Palette { return r.palette }

// FrameCount returns the number of frames.
func (r *Reader) FrameCount() int { return int(r.header.FrameCount) }

// FrameSize returns the decompressed byte size of every frame.
func (r *Reader) FrameSize() int { return r.header.FrameSize() }

// Table returns the frame table as stored, without offset translation.
func (r *Reader) Table() FrameTable { return r.table }

// RelativeOffsets reports whether the stored table offsets are relative to
// the frame-data region.
func (r *Reader) RelativeOffsets() bool { return r.relative }

// FrameRange returns the absolute byte range of frame i's compressed
// payload without reading it.
func (r *Reader) FrameRange(i int) (offset int64, length int, err error) {
	if i < 0 || i >= int(r.header.FrameCount) {
		return 0, 0, fmt.Errorf("%w: frame %d of %d",
			wxserr.ErrFrameOutOfRange, i, r.header.FrameCount)
	}
	e := r.table[i]
	offset = int64(e.Offset)
	if r.relative {
		offset += r.dataStart
	}
	return offset, int(e.Length), nil
}

// DecodeFrame decompresses frame i into scratch, which the caller owns and
// must size to exactly FrameSize. On error scratch may hold partial data;
// callers keeping a last-good frame must decode into a separate scratch
// buffer and copy only on success.
func (r *Reader) DecodeFrame(i int, scratch []byte) error {
	off, length, err := r.FrameRange(i)
	if err != nil {
		return err
	}
	if len(scratch) != r.header.FrameSize() {
		return fmt.Errorf("%w: got %d, frame is %d bytes",
			wxserr.ErrScratchSize, len(scratch), r.header.FrameSize())
	}

	comp := r.comp[:length]
	if _, err := r.src.ReadAt(comp, off); err != nil {
		return fmt.Errorf("%w: frame %d: reading payload: %v",
			wxserr.ErrCorruptFrame, i, err)
	}

	if err := decompressInto(r.header.Codec, scratch, comp); err != nil {
		return fmt.Errorf("%w: frame %d: %v", wxserr.ErrCorruptFrame, i, err)
	}

	// Decompression cannot catch indices past the palette; check explicitly.
	limit := uint8(r.header.PaletteSize - 1)
	for pos, b := range scratch {
		if b > limit {
			return fmt.Errorf("%w: frame %d pixel %d: index %d, palette size %d",
				wxserr.ErrPaletteIndexOutOfRange, i, pos, b, r.header.PaletteSize)
		}
	}

	return nil
}

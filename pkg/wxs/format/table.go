package format

import (
	"encoding/binary"
	"fmt"

	wxserr "github.com/wz2b/wxdial/pkg/wxs/errors"
)

// FrameEntry locates one frame's compressed payload. Offsets written by
// the encoder are relative to the start of the frame-data region; the
// legacy tooling wrote absolute file offsets, which Open detects and
// accepts. Entries may alias the same payload (identical frames).
type FrameEntry struct {
	Offset uint32
	Length uint32
}

// FrameTable is the per-frame payload index, in frame order.
type FrameTable []FrameEntry

// UnpackFrameTable parses count entries from data.
func UnpackFrameTable(data []byte, count int) (FrameTable, error) {
	if len(data) < count*TableEntrySize {
		return nil, fmt.Errorf("%w: %d byte frame table, need %d",
			wxserr.ErrTruncated, len(data), count*TableEntrySize)
	}
	table := make(FrameTable, count)
	for i := 0; i < count; i++ {
		table[i] = FrameEntry{
			Offset: binary.LittleEndian.Uint32(data[i*8 : i*8+4]),
			Length: binary.LittleEndian.Uint32(data[i*8+4 : i*8+8]),
		}
	}
	return table, nil
}

// Pack serializes the table to len(t)*TableEntrySize bytes.
func (t FrameTable) Pack() []byte {
	buf := make([]byte, len(t)*TableEntrySize)
	for i, e := range t {
		binary.LittleEndian.PutUint32(buf[i*8:i*8+4], e.Offset)
		binary.LittleEndian.PutUint32(buf[i*8+4:i*8+8], e.Length)
	}
	return buf
}

// relative reports whether the table's offsets are relative to the
// frame-data region rather than the file start. Any offset below the
// region start cannot be absolute, so the table must be relative.
// This is the same heuristic the device-side decoder uses.
func (t FrameTable) relative(dataStart int64) bool {
	for _, e := range t {
		if int64(e.Offset) < dataStart {
			return true
		}
	}
	return false
}

package logging

import (
	"bytes"
	"io"
)

// PrefixWriter tags every line written through it with a fixed prefix.
// Partial lines are buffered until their newline arrives.
type PrefixWriter struct {
	prefix []byte
	out    io.Writer
	buf    bytes.Buffer
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{prefix: []byte(prefix), out: w}
}

// Write implements io.Writer.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.buf.Write(p)

	for {
		line, err := pw.buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line; keep it buffered for the next Write.
			pw.buf.Write(line)
			break
		}
		if _, err := pw.out.Write(pw.prefix); err != nil {
			return 0, err
		}
		if _, err := pw.out.Write(line); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}

package format

import (
	"bytes"
	"io"
	"os"
)

// Source is a seekable, readable byte store: a file, a flash region, or an
// in-memory blob. Reads must be safe to interleave from independent
// readers (ReadAt carries its own position).
type Source interface {
	io.ReaderAt
	Size() int64
}

// NewBytesSource wraps an in-memory blob as a Source.
func NewBytesSource(data []byte) Source {
	return bytes.NewReader(data)
}

// FileSource is an os.File-backed Source.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFileSource opens path for random-access reads.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSource{f: f, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *FileSource) Size() int64 {
	return s.size
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

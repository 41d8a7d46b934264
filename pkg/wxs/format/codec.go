package format

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sync"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
)

// Codec selects the per-frame compression algorithm. The set is closed and
// carried in the header byte the original tooling left as "reserved" and
// always wrote as zero, so legacy files decode as zlib.
type Codec uint8

const (
	CodecZlib  Codec = 0
	CodecZstd  Codec = 1
	CodecBzip2 Codec = 2
)

func (c Codec) valid() bool {
	return c == CodecZlib || c == CodecZstd || c == CodecBzip2
}

func (c Codec) String() string {
	switch c {
	case CodecZlib:
		return "zlib"
	case CodecZstd:
		return "zstd"
	case CodecBzip2:
		return "bzip2"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(c))
	}
}

// ParseCodec parses a codec name as used by the builder CLI.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "zlib", "":
		return CodecZlib, nil
	case "zstd":
		return CodecZstd, nil
	case "bzip2":
		return CodecBzip2, nil
	default:
		return 0, fmt.Errorf("unknown codec: %s", name)
	}
}

// zstd's stateless DecodeAll/EncodeAll paths share one instance each.
var (
	zstdDecOnce sync.Once
	zstdDec     *zstd.Decoder
	zstdEncOnce sync.Once
	zstdEnc     *zstd.Encoder
)

func zstdDecoder() *zstd.Decoder {
	zstdDecOnce.Do(func() {
		zstdDec, _ = zstd.NewReader(nil)
	})
	return zstdDec
}

func zstdEncoder() *zstd.Encoder {
	zstdEncOnce.Do(func() {
		zstdEnc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	})
	return zstdEnc
}

// decompressInto decompresses src into dst, which must be sized to exactly
// the expected output. It never allocates an output buffer of its own; a
// payload that is short, invalid, or larger than dst is an error.
func decompressInto(c Codec, dst, src []byte) error {
	switch c {
	case CodecZlib:
		zr, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return err
		}
		defer zr.Close()
		return readExactly(zr, dst)
	case CodecZstd:
		out, err := zstdDecoder().DecodeAll(src, dst[:0])
		if err != nil {
			return err
		}
		if len(out) != len(dst) {
			return fmt.Errorf("decompressed %d bytes, expected %d", len(out), len(dst))
		}
		return nil
	case CodecBzip2:
		br, err := bzip2.NewReader(bytes.NewReader(src), &bzip2.ReaderConfig{})
		if err != nil {
			return err
		}
		defer br.Close()
		return readExactly(br, dst)
	default:
		return fmt.Errorf("codec %s not decodable", c)
	}
}

// readExactly fills dst from r and verifies the stream ends there.
func readExactly(r io.Reader, dst []byte) error {
	if _, err := io.ReadFull(r, dst); err != nil {
		return err
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return fmt.Errorf("decompressed stream exceeds %d bytes", len(dst))
	}
	return nil
}

// compress compresses raw with the given codec. level applies to zlib only
// (zstd and bzip2 always use their best-compression settings).
func compress(c Codec, raw []byte, level int) ([]byte, error) {
	switch c {
	case CodecZlib:
		if level == 0 {
			level = zlib.BestCompression
		}
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(raw); err != nil {
			zw.Close()
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecZstd:
		return zstdEncoder().EncodeAll(raw, nil), nil
	case CodecBzip2:
		var buf bytes.Buffer
		bw, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 9})
		if err != nil {
			return nil, err
		}
		if _, err := bw.Write(raw); err != nil {
			bw.Close()
			return nil, err
		}
		if err := bw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("codec %s not encodable", c)
	}
}

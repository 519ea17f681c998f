package base

import (
	"io"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionFormat selects the codec used to store an output-cache
// entry on disk. Entries compress well (object files and compiler
// diagnostics are both highly redundant), so the cache never stores
// raw bytes.
type CompressionFormat int32

const (
	COMPRESSION_LZ4 CompressionFormat = iota
	COMPRESSION_ZSTD
)

func (f CompressionFormat) String() string {
	switch f {
	case COMPRESSION_LZ4:
		return "LZ4"
	case COMPRESSION_ZSTD:
		return "ZSTD"
	default:
		return "UNKNOWN"
	}
}

// NewCompressedWriter wraps w with the chosen codec. The returned
// writer must be closed to flush trailing frames.
func NewCompressedWriter(w io.Writer, format CompressionFormat) io.WriteCloser {
	switch format {
	case COMPRESSION_ZSTD:
		return zstd.NewWriter(w)
	default:
		return lz4.NewWriter(w)
	}
}

// NewCompressedReader wraps r with the chosen codec's decompressor.
func NewCompressedReader(r io.Reader, format CompressionFormat) io.ReadCloser {
	switch format {
	case COMPRESSION_ZSTD:
		return zstd.NewReader(r)
	default:
		return io.NopCloser(lz4.NewReader(r))
	}
}

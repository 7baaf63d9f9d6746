package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// XZCompressor implements the XZ outer codec (format.OuterXZ). It trades
// compression speed for a higher ratio than Zstd on streams with large
// repeated runs, at the cost of being considerably slower to encode.
type XZCompressor struct{}

var _ Codec = (*XZCompressor)(nil)

// NewXZCompressor creates a new XZ compressor.
func NewXZCompressor() XZCompressor {
	return XZCompressor{}
}

// Compress compresses the input data using XZ (LZMA2) compression.
func (c XZCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz: new writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz: close: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses the input data using XZ decompression.
func (c XZCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz: new reader: %w", err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xz: read: %w", err)
	}

	return out, nil
}

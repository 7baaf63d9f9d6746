//go:build nobuild

package compress

import (
	"github.com/valyala/gozstd"
)

// Compress compresses a section's payload via cgo zstd. Disabled by the
// nobuild tag above: gics defaults to the pure-Go klauspost implementation
// in zstd_pure.go so the module stays cgo-free.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress restores a section's payload via cgo zstd. See Compress for
// why this build is disabled by default.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}

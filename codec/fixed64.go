package codec

import (
	"math"

	"github.com/Shiloren/gics/endian"
	"github.com/Shiloren/gics/internal/pool"
)

var le = endian.GetLittleEndianEngine()

// EncodeFixed64 emits each value as an 8-byte IEEE-754 binary64 little-endian
// word, bit-exact (NaN payload, signed zero, and infinities all preserved).
func EncodeFixed64(values []float64) []byte {
	buf := newBuffer()
	defer pool.PutBlobBuffer(buf)

	buf.Grow(8 * len(values))

	var tmp [8]byte
	for _, v := range values {
		le.PutUint64(tmp[:], math.Float64bits(v))
		buf.B = append(buf.B, tmp[:]...)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out
}

// DecodeFixed64 inverts EncodeFixed64 for exactly n items.
func DecodeFixed64(data []byte, n int) ([]float64, error) {
	if len(data) != n*8 {
		return nil, ErrTruncatedPayload
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := le.Uint64(data[i*8 : i*8+8])
		out[i] = math.Float64frombits(bits)
	}

	return out, nil
}

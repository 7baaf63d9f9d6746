package codec

import (
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/internal/pool"
)

// EncodeRLE run-length encodes the zigzag of values, emitting pairs
// (run in [1,255], value) then varint-encoding the flat pair stream.
// Used directly for RLE-ZigZag (over raw values) and, by the caller passing
// DeltaOfDelta(values) instead, for RLE-DoD.
func EncodeRLE(values []int64) []byte {
	buf := newBuffer()
	defer pool.PutBlobBuffer(buf)

	i := 0
	for i < len(values) {
		v := values[i]
		run := 1
		for i+run < len(values) && values[i+run] == v && run < format.MaxRunLength {
			run++
		}

		buf.B = AppendVarint(buf.B, uint64(run))
		buf.B = AppendZigZagVarint(buf.B, v)
		i += run
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out
}

// DecodeRLE inverts EncodeRLE, expanding back to exactly n values.
func DecodeRLE(data []byte, n int) ([]int64, error) {
	out := make([]int64, 0, n)
	r := &varintReader{data: data}

	for len(out) < n {
		if r.done() {
			return nil, ErrTruncatedPayload
		}

		run, err := r.uvarint()
		if err != nil {
			return nil, err
		}

		v, err := r.zigzagVarint()
		if err != nil {
			return nil, err
		}

		for k := uint64(0); k < run; k++ {
			out = append(out, v)
		}
	}

	if len(out) != n {
		return nil, ErrItemCountMismatch
	}

	return out, nil
}

// EncodeRLEZigZag run-length encodes the raw values (no delta transform).
func EncodeRLEZigZag(values []int64) []byte {
	return EncodeRLE(values)
}

// DecodeRLEZigZag inverts EncodeRLEZigZag.
func DecodeRLEZigZag(data []byte, n int) ([]int64, error) {
	return DecodeRLE(data, n)
}

// EncodeRLEDoD run-length encodes DeltaOfDelta(values), exploiting runs of
// identical second differences (e.g. perfectly regular intervals).
func EncodeRLEDoD(values []int64) []byte {
	return EncodeRLE(DeltaOfDelta(values))
}

// DecodeRLEDoD inverts EncodeRLEDoD.
func DecodeRLEDoD(data []byte, n int) ([]int64, error) {
	dods, err := DecodeRLE(data, n)
	if err != nil {
		return nil, err
	}

	return UndoDeltaOfDelta(dods), nil
}

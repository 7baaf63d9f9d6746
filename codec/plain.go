package codec

import "github.com/Shiloren/gics/internal/pool"

// EncodeVarintDelta encodes Delta(values) as a zigzag-varint stream.
func EncodeVarintDelta(values []int64) []byte {
	return encodeZigZagVarintStream(Delta(values))
}

// DecodeVarintDelta inverts EncodeVarintDelta for exactly n items.
func DecodeVarintDelta(data []byte, n int) ([]int64, error) {
	deltas, err := decodeZigZagVarintStream(data, n)
	if err != nil {
		return nil, err
	}

	return UndoDelta(deltas), nil
}

// EncodeDoDVarint encodes DeltaOfDelta(values) as a zigzag-varint stream.
func EncodeDoDVarint(values []int64) []byte {
	return encodeZigZagVarintStream(DeltaOfDelta(values))
}

// DecodeDoDVarint inverts EncodeDoDVarint for exactly n items.
func DecodeDoDVarint(data []byte, n int) ([]int64, error) {
	dods, err := decodeZigZagVarintStream(data, n)
	if err != nil {
		return nil, err
	}

	return UndoDeltaOfDelta(dods), nil
}

func encodeZigZagVarintStream(values []int64) []byte {
	buf := newBuffer()
	defer pool.PutBlobBuffer(buf)

	for _, v := range values {
		buf.B = AppendZigZagVarint(buf.B, v)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out
}

func decodeZigZagVarintStream(data []byte, n int) ([]int64, error) {
	out := make([]int64, 0, n)
	r := &varintReader{data: data}

	for i := 0; i < n; i++ {
		if r.done() {
			return nil, ErrTruncatedPayload
		}

		v, err := r.zigzagVarint()
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

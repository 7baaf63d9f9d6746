package codec

import (
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/internal/pool"
)

// EncodeDictVarint maintains an ordered dictionary (bounded at capacity,
// default format.DefaultDictionaryCapacity) of previously seen raw values.
// For each value, if present at index i it emits (i*2)+1; otherwise it
// emits zigzag(v)*2 and appends v to the dictionary. The flat stream is
// varint-encoded. Returns (nil, false) if the dictionary would overflow
// its capacity, signalling the trial to skip this candidate.
func EncodeDictVarint(values []int64, capacity int) ([]byte, bool) {
	if capacity <= 0 {
		capacity = format.DefaultDictionaryCapacity
	}

	dict := make(map[int64]int, capacity)
	order := make([]int64, 0, capacity)

	buf := newBuffer()
	defer pool.PutBlobBuffer(buf)

	for _, v := range values {
		if idx, ok := dict[v]; ok {
			buf.B = AppendVarint(buf.B, uint64(idx)*2+1)

			continue
		}

		if len(order) >= capacity {
			return nil, false
		}

		buf.B = AppendVarint(buf.B, ZigZagEncode(v)*2)
		dict[v] = len(order)
		order = append(order, v)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, true
}

// DecodeDictVarint inverts EncodeDictVarint for exactly n items.
func DecodeDictVarint(data []byte, n int) ([]int64, error) {
	out := make([]int64, 0, n)
	order := make([]int64, 0, n)
	r := &varintReader{data: data}

	for i := 0; i < n; i++ {
		if r.done() {
			return nil, ErrTruncatedPayload
		}

		code, err := r.uvarint()
		if err != nil {
			return nil, err
		}

		if code&1 == 1 {
			idx := int(code >> 1)
			if idx < 0 || idx >= len(order) {
				return nil, ErrTruncatedPayload
			}
			out = append(out, order[idx])

			continue
		}

		v := ZigZagDecode(code >> 1)
		out = append(out, v)
		order = append(order, v)
	}

	return out, nil
}

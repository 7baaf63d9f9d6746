package codec

import "github.com/Shiloren/gics/internal/pool"

// EncodeBitPackDelta zigzags Delta(values), computes the minimum bit width
// that fits the largest magnitude, writes that width as a single leading
// byte, then packs every value into w-bit little-endian-within-byte fields.
func EncodeBitPackDelta(values []int64) []byte {
	deltas := Delta(values)

	zz := make([]uint64, len(deltas))
	var maxV uint64
	for i, d := range deltas {
		zz[i] = ZigZagEncode(d)
		if zz[i] > maxV {
			maxV = zz[i]
		}
	}

	width := bitWidth(maxV)

	buf := newBuffer()
	defer pool.PutBlobBuffer(buf)

	buf.B = append(buf.B, byte(width))

	var acc uint64
	var accBits uint
	for _, v := range zz {
		acc |= (v & mask(width)) << accBits
		accBits += uint(width)
		for accBits >= 8 {
			buf.B = append(buf.B, byte(acc))
			acc >>= 8
			accBits -= 8
		}
	}
	if accBits > 0 {
		buf.B = append(buf.B, byte(acc))
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out
}

// DecodeBitPackDelta inverts EncodeBitPackDelta for exactly n items.
func DecodeBitPackDelta(data []byte, n int) ([]int64, error) {
	if len(data) < 1 {
		return nil, ErrTruncatedPayload
	}

	width := int(data[0])
	if width < 1 || width > 64 {
		return nil, ErrBitWidthOutOfRange
	}

	payload := data[1:]
	deltas := make([]int64, 0, n)

	var acc uint64
	var accBits uint
	pos := 0

	for i := 0; i < n; i++ {
		for accBits < uint(width) {
			if pos >= len(payload) {
				return nil, ErrTruncatedPayload
			}
			acc |= uint64(payload[pos]) << accBits
			accBits += 8
			pos++
		}

		zz := acc & mask(width)
		acc >>= uint(width)
		accBits -= uint(width)

		deltas = append(deltas, ZigZagDecode(zz))
	}

	return UndoDelta(deltas), nil
}

func bitWidth(maxUnsigned uint64) int {
	w := 1
	for (uint64(1) << uint(w)) <= maxUnsigned {
		w++
	}
	if w > 64 {
		w = 64
	}

	return w
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << uint(width)) - 1
}

// Package codec implements the seven inner numeric codecs gics trials per
// block (SPEC_FULL.md §4.1) and the trial-and-measure dispatcher that picks
// the smallest encoding for each block (§4.2).
//
// Every codec in this package operates on a flat []int64 (the "normalized"
// per-block sequence a caller has already produced — see Trial for the
// float64 entry point that performs that normalization) and returns the
// exact byte encoding defined by SPEC_FULL.md. Decoding is the exact
// inverse and requires the original item count.
package codec

import (
	"encoding/binary"

	"github.com/Shiloren/gics/internal/pool"
)

// ZigZagEncode maps a signed integer to an unsigned one so small-magnitude
// negative numbers stay small after varint encoding.
func ZigZagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// ZigZagDecode inverts ZigZagEncode.
func ZigZagDecode(zz uint64) int64 {
	return int64(zz>>1) ^ -int64(zz&1)
}

// AppendVarint appends the unsigned LEB128 varint encoding of v to buf.
func AppendVarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)

	return append(buf, tmp[:n]...)
}

// AppendZigZagVarint zigzag-encodes v then appends its varint form.
func AppendZigZagVarint(buf []byte, v int64) []byte {
	return AppendVarint(buf, ZigZagEncode(v))
}

// varintReader walks a varint-encoded byte stream.
type varintReader struct {
	data []byte
	pos  int
}

func (r *varintReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, ErrMalformedVarint
	}
	r.pos += n

	return v, nil
}

func (r *varintReader) zigzagVarint() (int64, error) {
	v, err := r.uvarint()
	if err != nil {
		return 0, err
	}

	return ZigZagDecode(v), nil
}

func (r *varintReader) done() bool { return r.pos >= len(r.data) }

// newBuffer returns a pooled byte buffer suitable for building an encoded
// block payload; callers take ownership of the returned []byte via Bytes()
// and must not call Put after that point without Resetting first.
func newBuffer() *pool.ByteBuffer {
	return pool.GetBlobBuffer()
}

// Package bloomfilter implements the exact 256-byte, 3-hash bloom filter
// SPEC_FULL.md §4.5/§9 mandates for segment-level skip-scan queries.
package bloomfilter

import "github.com/Shiloren/gics/format"

// Filter is a fixed-size bloom filter over uint64 keys.
type Filter struct {
	bits []byte
}

// New returns a Filter with the given serialized size in bytes (must be a
// positive multiple of nothing in particular; callers pass
// format.DefaultBloomSize unless scaling up per §9).
func New(sizeBytes int) *Filter {
	if sizeBytes <= 0 {
		sizeBytes = format.DefaultBloomSize
	}

	return &Filter{bits: make([]byte, sizeBytes)}
}

// FromBytes wraps an already-serialized bloom filter (no copy).
func FromBytes(data []byte) *Filter {
	return &Filter{bits: data}
}

// Bytes returns the serialized filter.
func (f *Filter) Bytes() []byte {
	return f.bits
}

// Size returns the filter's size in bytes.
func (f *Filter) Size() int {
	return len(f.bits)
}

// mix is the 32-bit multiply-xor-shift hash mix parametrized by seed.
func mix(key uint64, seed uint32) uint32 {
	h := uint32(key) ^ uint32(key>>32)
	h ^= seed
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h
}

func (f *Filter) bitIndex(key uint64, seed uint32) (byteIdx int, bitMask byte) {
	nbits := uint32(len(f.bits)) * 8
	if nbits == 0 {
		return 0, 0
	}

	bit := mix(key, seed) % nbits

	return int(bit / 8), 1 << (bit % 8)
}

// Add marks key as present.
func (f *Filter) Add(key uint64) {
	for _, seed := range [...]uint32{format.BloomSeed1, format.BloomSeed2, format.BloomSeed3} {
		idx, mask := f.bitIndex(key, seed)
		f.bits[idx] |= mask
	}
}

// MaybeContains reports whether key might be present (false positives
// possible, false negatives impossible). All three seeded bits must be set.
func (f *Filter) MaybeContains(key uint64) bool {
	for _, seed := range [...]uint32{format.BloomSeed1, format.BloomSeed2, format.BloomSeed3} {
		idx, mask := f.bitIndex(key, seed)
		if f.bits[idx]&mask == 0 {
			return false
		}
	}

	return true
}

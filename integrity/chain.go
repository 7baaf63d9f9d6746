// Package integrity implements the gics hash-chain and CRC32 primitives
// described in SPEC_FULL.md §4.7: a running SHA-256 reduction absorbing
// every stream section in file order, and a per-segment CRC32 (IEEE) fatal
// check.
package integrity

import (
	"crypto/sha256"
	"hash/crc32"

	"github.com/Shiloren/gics/endian"
	"github.com/Shiloren/gics/format"
)

var le = endian.GetLittleEndianEngine()

// ChainSize is the size in bytes of a hash-chain state/root value.
const ChainSize = format.SectionHashSize

// Chain is the running SHA-256 reduction tying a file together. The zero
// value is a chain initialized to all zeros, as required at the start of
// a file.
type Chain struct {
	state [ChainSize]byte
}

// NewChain returns a Chain initialized to all zeros.
func NewChain() *Chain {
	return &Chain{}
}

// Root returns the current chain state (the root hash after everything
// absorbed so far).
func (c *Chain) Root() [ChainSize]byte {
	return c.state
}

// RootBytes returns the current chain state as a freshly allocated slice.
func (c *Chain) RootBytes() []byte {
	out := make([]byte, ChainSize)
	copy(out, c.state[:])

	return out
}

// Absorb folds a section's contribution buffer into the chain, updating
// state to SHA256(state || buffer), and returns the new state (the
// section's recorded sectionHash / this segment's rootHash if it was the
// last section).
func (c *Chain) Absorb(buffer []byte) [ChainSize]byte {
	h := sha256.New()
	h.Write(c.state[:])
	h.Write(buffer)
	sum := h.Sum(nil)
	copy(c.state[:], sum)

	return c.state
}

// SectionContribution builds the exact buffer absorbed into the chain for
// one stream section: streamId_u8 || blockCount_u16_LE || manifestBytes ||
// compressedPayload.
func SectionContribution(streamID format.StreamID, blockCount uint16, manifestBytes, compressedPayload []byte) []byte {
	buf := make([]byte, 0, 1+2+len(manifestBytes)+len(compressedPayload))
	buf = append(buf, byte(streamID))

	var bc [2]byte
	le.PutUint16(bc[:], blockCount)
	buf = append(buf, bc[:]...)

	buf = append(buf, manifestBytes...)
	buf = append(buf, compressedPayload...)

	return buf
}

// CRC32 computes the IEEE CRC32 checksum required by segment footers:
// covering all bytes from the segment start up to (but not including) the
// footer.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

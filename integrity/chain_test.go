package integrity

import (
	"testing"

	"github.com/Shiloren/gics/format"
	"github.com/stretchr/testify/require"
)

func TestChainDeterministic(t *testing.T) {
	c1 := NewChain()
	c2 := NewChain()

	buf := SectionContribution(format.StreamTime, 3, []byte("manifest"), []byte("payload"))

	r1 := c1.Absorb(buf)
	r2 := c2.Absorb(buf)
	require.Equal(t, r1, r2)
}

func TestChainDiffersOnTamper(t *testing.T) {
	c1 := NewChain()
	c2 := NewChain()

	buf1 := SectionContribution(format.StreamTime, 3, []byte("manifest"), []byte("payload"))
	buf2 := SectionContribution(format.StreamTime, 3, []byte("manifest"), []byte("payloae"))

	r1 := c1.Absorb(buf1)
	r2 := c2.Absorb(buf2)
	require.NotEqual(t, r1, r2)
}

func TestCRC32Mismatch(t *testing.T) {
	a := []byte("segment bytes")
	b := []byte("segment Bytes")
	require.NotEqual(t, CRC32(a), CRC32(b))
}

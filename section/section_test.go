package section

import (
	"testing"

	"github.com/Shiloren/gics/format"
	"github.com/stretchr/testify/require"
)

func TestSectionRoundTrip(t *testing.T) {
	s := &Section{
		Header: Header{
			StreamID:        format.StreamTime,
			OuterCodecID:    format.OuterZstd,
			BlockCount:      1,
			UncompressedLen: 4,
			CompressedLen:   4,
		},
		Manifest: []ManifestEntry{{InnerCodecID: format.InnerFixed64, NItems: 1, PayloadLen: 4}},
		Payload:  []byte{1, 2, 3, 4},
	}

	raw := s.Bytes()
	parsed, n, err := Parse(raw, false)
	require.NoError(t, err)
	require.Equal(t, len(raw), n)
	require.Equal(t, s.Header, parsed.Header)
	require.Equal(t, s.Manifest, parsed.Manifest)
	require.Equal(t, s.Payload, parsed.Payload)
}

func TestSectionParseRejectsTruncation(t *testing.T) {
	s := &Section{
		Header: Header{StreamID: format.StreamTime, OuterCodecID: format.OuterNone, BlockCount: 1, UncompressedLen: 4, CompressedLen: 4},
		Manifest: []ManifestEntry{{InnerCodecID: format.InnerFixed64, NItems: 1, PayloadLen: 4}},
		Payload:  []byte{9, 9, 9, 9},
	}
	raw := s.Bytes()

	for k := 0; k < len(raw); k++ {
		_, _, err := Parse(raw[:k], false)
		require.Error(t, err)
	}
}

func TestSectionRejectsOversizedUncompressedLen(t *testing.T) {
	s := &Section{
		Header: Header{StreamID: format.StreamTime, OuterCodecID: format.OuterNone, UncompressedLen: format.MaxSectionUncompressedSize + 1},
	}
	raw := s.Bytes()
	_, _, err := Parse(raw, false)
	require.Error(t, err)
}

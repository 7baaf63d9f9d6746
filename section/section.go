// Package section implements the gics Stream Section wire format
// (SPEC_FULL.md §4.4): one stream's contribution to one segment — a fixed
// header, the running hash-chain value, an optional authentication tag,
// the block manifest, and the compressed payload.
package section

import (
	"fmt"

	"github.com/Shiloren/gics/endian"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
)

var le = endian.GetLittleEndianEngine()

// ManifestEntrySize is the fixed size of one Block Manifest Entry.
const ManifestEntrySize = 1 + 4 + 4 + 1 // innerCodecId, nItems, payloadLen, flags

// ManifestEntry describes one block within a stream section.
type ManifestEntry struct {
	InnerCodecID format.InnerCodecID
	NItems       uint32
	PayloadLen   uint32
	Flags        uint8
}

// Header is the fixed-layout part of a Stream Section preceding its
// variable-length manifest and payload.
type Header struct {
	StreamID        format.StreamID
	OuterCodecID    format.OuterCodecID
	BlockCount      uint16
	UncompressedLen uint32
	CompressedLen   uint32
}

// Section is one fully-assembled stream section, ready to be concatenated
// into a segment or just parsed from one.
type Section struct {
	Header   Header
	Hash     [format.SectionHashSize]byte
	AuthTag  [format.AuthTagSize]byte // meaningful only when Encrypted
	Manifest []ManifestEntry
	Payload  []byte

	Encrypted bool
}

// fixedHeaderSize is streamId(1) + outerCodecId(1) + blockCount(2) +
// uncompressedLen(4) + compressedLen(4) + sectionHash(32).
const fixedHeaderSize = 1 + 1 + 2 + 4 + 4 + format.SectionHashSize

// Bytes serializes the section in exact wire order.
func (s *Section) Bytes() []byte {
	size := fixedHeaderSize
	if s.Encrypted {
		size += format.AuthTagSize
	}
	size += len(s.Manifest)*ManifestEntrySize + len(s.Payload)

	buf := make([]byte, 0, size)
	buf = append(buf, byte(s.Header.StreamID), byte(s.Header.OuterCodecID))

	var tmp2 [2]byte
	le.PutUint16(tmp2[:], s.Header.BlockCount)
	buf = append(buf, tmp2[:]...)

	var tmp4 [4]byte
	le.PutUint32(tmp4[:], s.Header.UncompressedLen)
	buf = append(buf, tmp4[:]...)
	le.PutUint32(tmp4[:], s.Header.CompressedLen)
	buf = append(buf, tmp4[:]...)

	buf = append(buf, s.Hash[:]...)

	if s.Encrypted {
		buf = append(buf, s.AuthTag[:]...)
	}

	for _, m := range s.Manifest {
		buf = append(buf, byte(m.InnerCodecID))
		le.PutUint32(tmp4[:], m.NItems)
		buf = append(buf, tmp4[:]...)
		le.PutUint32(tmp4[:], m.PayloadLen)
		buf = append(buf, tmp4[:]...)
		buf = append(buf, m.Flags)
	}

	buf = append(buf, s.Payload...)

	return buf
}

// ContributionBytes returns the exact buffer absorbed into the integrity
// chain for this section: streamId || blockCount_u16_LE || manifestBytes ||
// compressedPayload. Must be called after Manifest and Payload are final
// and before Hash is computed.
func (s *Section) ContributionBytes() []byte {
	var tmp2 [2]byte
	le.PutUint16(tmp2[:], s.Header.BlockCount)

	buf := make([]byte, 0, 3+len(s.Manifest)*ManifestEntrySize+len(s.Payload))
	buf = append(buf, byte(s.Header.StreamID))
	buf = append(buf, tmp2[:]...)

	var tmp4 [4]byte
	for _, m := range s.Manifest {
		buf = append(buf, byte(m.InnerCodecID))
		le.PutUint32(tmp4[:], m.NItems)
		buf = append(buf, tmp4[:]...)
		le.PutUint32(tmp4[:], m.PayloadLen)
		buf = append(buf, tmp4[:]...)
		buf = append(buf, m.Flags)
	}
	buf = append(buf, s.Payload...)

	return buf
}

// Parse parses one Section from data, which must begin exactly at the
// section's first byte. It bounds-checks every offset/length against the
// buffer before subarraying and rejects declared uncompressed sizes above
// format.MaxSectionUncompressedSize before any allocation of that size.
// Returns the section and the number of bytes consumed.
func Parse(data []byte, encrypted bool) (*Section, int, error) {
	if len(data) < fixedHeaderSize {
		return nil, 0, fmt.Errorf("%w: section header", errs.ErrUnexpectedEOF)
	}

	s := &Section{Encrypted: encrypted}
	s.Header.StreamID = format.StreamID(data[0])
	s.Header.OuterCodecID = format.OuterCodecID(data[1])
	s.Header.BlockCount = le.Uint16(data[2:4])
	s.Header.UncompressedLen = le.Uint32(data[4:8])
	s.Header.CompressedLen = le.Uint32(data[8:12])

	if s.Header.UncompressedLen > format.MaxSectionUncompressedSize {
		return nil, 0, fmt.Errorf("%w: section uncompressedLen %d exceeds cap", errs.ErrSectionTooLarge, s.Header.UncompressedLen)
	}

	copy(s.Hash[:], data[12:12+format.SectionHashSize])

	pos := fixedHeaderSize
	if encrypted {
		if len(data) < pos+format.AuthTagSize {
			return nil, 0, fmt.Errorf("%w: auth tag", errs.ErrUnexpectedEOF)
		}
		copy(s.AuthTag[:], data[pos:pos+format.AuthTagSize])
		pos += format.AuthTagSize
	}

	manifestBytes := int(s.Header.BlockCount) * ManifestEntrySize
	if manifestBytes < 0 || len(data) < pos+manifestBytes {
		return nil, 0, fmt.Errorf("%w: manifest", errs.ErrOutOfBounds)
	}

	s.Manifest = make([]ManifestEntry, s.Header.BlockCount)
	for i := 0; i < int(s.Header.BlockCount); i++ {
		off := pos + i*ManifestEntrySize
		s.Manifest[i] = ManifestEntry{
			InnerCodecID: format.InnerCodecID(data[off]),
			NItems:       le.Uint32(data[off+1 : off+5]),
			PayloadLen:   le.Uint32(data[off+5 : off+9]),
			Flags:        data[off+9],
		}
	}
	pos += manifestBytes

	payloadLen := int(s.Header.CompressedLen)
	if payloadLen < 0 || len(data) < pos+payloadLen {
		return nil, 0, fmt.Errorf("%w: section payload", errs.ErrOutOfBounds)
	}
	s.Payload = data[pos : pos+payloadLen]
	pos += payloadLen

	return s, pos, nil
}

// Package segment implements the gics Segment container (SPEC_FULL.md
// §4.5/§4.6): the 14-byte header, the bloom+sorted-id+string-dict index,
// and the 36-byte footer that closes a self-contained bundle of stream
// sections.
package segment

import (
	"fmt"

	"github.com/Shiloren/gics/endian"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
)

var le = endian.GetLittleEndianEngine()

// Magic is the 2-byte segment signature, "SG".
var Magic = [2]byte{'S', 'G'}

// Header is the fixed 14-byte Segment Header.
type Header struct {
	IndexOffset      uint32 // relative to segment start
	TotalLength      uint32 // relative to segment start
	Flags            uint8
	ItemsPerSnapshot uint16
}

// ItemMajorLayout reports whether the ITEM_MAJOR_LAYOUT flag is set.
func (h Header) ItemMajorLayout() bool {
	return h.Flags&format.SegmentFlagItemMajorLayout != 0
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	buf := make([]byte, format.SegmentHeaderSize)
	copy(buf[0:2], Magic[:])
	le.PutUint32(buf[2:6], h.IndexOffset)
	le.PutUint32(buf[6:10], h.TotalLength)
	buf[10] = h.Flags
	buf[11] = 0 // reserved
	le.PutUint16(buf[12:14], h.ItemsPerSnapshot)

	return buf
}

// ParseHeader parses a Segment Header from the first format.SegmentHeaderSize
// bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < format.SegmentHeaderSize {
		return Header{}, fmt.Errorf("%w: segment header", errs.ErrUnexpectedEOF)
	}

	if data[0] != Magic[0] || data[1] != Magic[1] {
		return Header{}, fmt.Errorf("%w: segment magic", errs.ErrInvalidMagic)
	}

	h := Header{
		IndexOffset:      le.Uint32(data[2:6]),
		TotalLength:      le.Uint32(data[6:10]),
		Flags:            data[10],
		ItemsPerSnapshot: le.Uint16(data[12:14]),
	}

	return h, nil
}

// Footer is the fixed 36-byte Segment Footer.
type Footer struct {
	RootHash [32]byte
	CRC32    uint32
}

// Bytes serializes the footer.
func (f Footer) Bytes() []byte {
	buf := make([]byte, format.SegmentFooterSize)
	copy(buf[0:32], f.RootHash[:])
	le.PutUint32(buf[32:36], f.CRC32)

	return buf
}

// ParseFooter parses a Segment Footer from exactly format.SegmentFooterSize
// bytes.
func ParseFooter(data []byte) (Footer, error) {
	if len(data) < format.SegmentFooterSize {
		return Footer{}, fmt.Errorf("%w: segment footer", errs.ErrUnexpectedEOF)
	}

	var f Footer
	copy(f.RootHash[:], data[0:32])
	f.CRC32 = le.Uint32(data[32:36])

	return f, nil
}

package segment

import (
	"fmt"

	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/integrity"
	"github.com/Shiloren/gics/section"
)

// Segment is a self-contained bundle: header + sections + index + footer.
type Segment struct {
	Header   Header
	Sections []*section.Section
	Index    *Index
	Footer   Footer
}

// Bytes serializes the full segment and computes its footer's CRC32 (the
// rootHash must already be set by the caller from the running integrity
// chain after absorbing every section).
func (s *Segment) Bytes() []byte {
	var body []byte
	body = append(body, s.Header.Bytes()...)
	for _, sec := range s.Sections {
		body = append(body, sec.Bytes()...)
	}
	body = append(body, s.Index.Bytes()...)

	s.Footer.CRC32 = integrity.CRC32(body)

	return append(body, s.Footer.Bytes()...)
}

// Parse parses one Segment starting at data[0], bounds-checking every
// offset before subarraying, verifying the segment CRC (always fatal), and
// returning the segment plus the number of bytes consumed.
func Parse(data []byte, encrypted bool) (*Segment, int, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, 0, err
	}

	if int(hdr.TotalLength) < format.SegmentHeaderSize+format.SegmentFooterSize {
		return nil, 0, fmt.Errorf("%w: segment totalLength too small", errs.ErrOutOfBounds)
	}
	if len(data) < int(hdr.TotalLength) {
		return nil, 0, fmt.Errorf("%w: segment body", errs.ErrUnexpectedEOF)
	}

	footerOff := int(hdr.TotalLength) - format.SegmentFooterSize
	footer, err := ParseFooter(data[footerOff:int(hdr.TotalLength)])
	if err != nil {
		return nil, 0, err
	}

	body := data[:footerOff]
	if integrity.CRC32(body) != footer.CRC32 {
		return nil, 0, fmt.Errorf("%w: segment CRC32", errs.ErrCRCMismatch)
	}

	if int(hdr.IndexOffset) < format.SegmentHeaderSize || int(hdr.IndexOffset) > footerOff {
		return nil, 0, fmt.Errorf("%w: segment indexOffset", errs.ErrOutOfBounds)
	}

	pos := format.SegmentHeaderSize
	var sections []*section.Section
	for pos < int(hdr.IndexOffset) {
		sec, n, err := section.Parse(data[pos:int(hdr.IndexOffset)], encrypted)
		if err != nil {
			return nil, 0, err
		}
		sections = append(sections, sec)
		pos += n
	}

	idx, n, err := ParseIndex(data[int(hdr.IndexOffset):footerOff])
	if err != nil {
		return nil, 0, err
	}
	if int(hdr.IndexOffset)+n != footerOff {
		return nil, 0, fmt.Errorf("%w: segment index length mismatch", errs.ErrOutOfBounds)
	}

	seg := &Segment{Header: hdr, Sections: sections, Index: idx, Footer: footer}

	return seg, int(hdr.TotalLength), nil
}

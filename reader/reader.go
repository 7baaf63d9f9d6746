// Package reader implements the gics Reader (SPEC_FULL.md §4.10): it
// parses the file header and optional encryption/schema sections, frames
// every segment while verifying CRC32 (always fatal) and the hash chain
// (fatal in strict mode, logged in warn mode), and exposes snapshot
// reconstruction and skip-scan query on top of the framed segments.
package reader

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Shiloren/gics/compress"
	"github.com/Shiloren/gics/crypt"
	"github.com/Shiloren/gics/endian"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/integrity"
	"github.com/Shiloren/gics/internal/options"
	"github.com/Shiloren/gics/schema"
	"github.com/Shiloren/gics/segment"
)

var le = endian.GetLittleEndianEngine()

// segmentEntry is one framed segment plus enough bookkeeping to decrypt
// and re-verify it without re-scanning the whole file.
type segmentEntry struct {
	seg         *segment.Segment
	start       int // absolute byte offset of the segment's first byte in data
	length      int // hdr.TotalLength
	ordinalBase uint32
}

// Reader parses a gics file and reconstructs snapshots from it.
type Reader struct {
	data []byte
	cfg  Config

	header       format.FileHeader
	fileHdrBytes []byte
	profile      schema.Profile

	encHeader crypt.Header
	encKey    []byte

	segments []segmentEntry
}

// New parses data as a complete gics file: the file header, the optional
// encryption and schema sections, and every segment's framing (CRC and
// hash-chain verified per cfg's integrity mode). It does not decompress
// or decode any stream payload; that happens lazily in GetAllSnapshots,
// GetAllGenericSnapshots, and Query.
func New(data []byte, opts ...Option) (*Reader, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, errs.Wrap(errs.KindSchemaViolation, "reader.New", err)
	}

	r := &Reader{data: data, cfg: cfg}

	bodyOffset, err := r.parseHeader()
	if err != nil {
		return nil, err
	}

	if err := r.indexSegments(bodyOffset); err != nil {
		return nil, err
	}

	return r, nil
}

// Header returns the parsed file header.
func (r *Reader) Header() format.FileHeader { return r.header }

// GetSchema returns the file's schema profile: the embedded one if
// FileFlagHasSchema was set, otherwise the implicit legacy schema.
func (r *Reader) GetSchema() schema.Profile { return r.profile }

func (r *Reader) parseHeader() (int, error) {
	hdr, err := format.ParseFileHeader(r.data)
	if err != nil {
		return 0, errs.Wrap(errs.KindIncompleteData, "reader.New", err)
	}

	if hdr.Version == format.VersionLegacy {
		return 0, errs.Wrap(errs.KindVersionMismatch, "reader.New", errs.ErrUnsupportedVersion)
	}
	if hdr.Version != format.VersionCore {
		return 0, errs.Wrap(errs.KindVersionMismatch, "reader.New",
			fmt.Errorf("%w: version 0x%02x", errs.ErrUnsupportedVersion, uint8(hdr.Version)))
	}

	r.header = hdr
	r.fileHdrBytes = append([]byte(nil), r.data[:format.FileHeaderSize]...)

	pos := format.FileHeaderSize

	if hdr.Encrypted() {
		if len(r.data) < pos+crypt.Size {
			return 0, errs.Wrap(errs.KindIncompleteData, "reader.New", errs.ErrUnexpectedEOF)
		}

		eh, err := crypt.ParseHeader(r.data[pos:])
		if err != nil {
			return 0, errs.Wrap(errs.KindIncompleteData, "reader.New", err)
		}

		key, err := crypt.VerifyPassword(eh, r.cfg.password)
		if err != nil {
			return 0, errs.Wrap(errs.KindIntegrity, "reader.New", err)
		}

		r.encHeader = eh
		r.encKey = key
		pos += crypt.Size
	}

	if hdr.HasSchema() {
		if len(r.data) < pos+4 {
			return 0, errs.Wrap(errs.KindIncompleteData, "reader.New", errs.ErrUnexpectedEOF)
		}

		length := int(le.Uint32(r.data[pos : pos+4]))
		pos += 4

		if length < 0 || len(r.data) < pos+length {
			return 0, errs.Wrap(errs.KindIncompleteData, "reader.New", errs.ErrUnexpectedEOF)
		}

		zc, err := compress.GetCodec(format.OuterZstd)
		if err != nil {
			return 0, errs.Wrap(errs.KindIoError, "reader.New", err)
		}

		raw, err := zc.Decompress(r.data[pos : pos+length])
		if err != nil {
			return 0, errs.Wrap(errs.KindIntegrity, "reader.New", err)
		}

		profile, err := schema.Unmarshal(raw)
		if err != nil {
			return 0, errs.Wrap(errs.KindSchemaViolation, "reader.New", err)
		}

		r.profile = profile
		pos += length
	} else {
		r.profile = schema.Legacy()
	}

	return pos, nil
}

func (r *Reader) indexSegments(bodyOffset int) error {
	chain := integrity.NewChain()
	pos := bodyOffset
	var ordinal uint32

	for pos < len(r.data) && r.data[pos] != format.FileEOSMarker {
		seg, n, err := segment.Parse(r.data[pos:], r.header.Encrypted())
		if err != nil {
			kind := errs.KindIncompleteData
			if errors.Is(err, errs.ErrCRCMismatch) {
				kind = errs.KindIntegrity
				if r.cfg.metrics != nil {
					r.cfg.metrics.ObserveIntegrityFailure(errs.KindIntegrity.String())
				}
			}

			return errs.Wrap(kind, "reader.New", err)
		}

		base := ordinal
		for _, sec := range seg.Sections {
			got := chain.Absorb(sec.ContributionBytes())
			if got != sec.Hash {
				if err := r.reportChainMismatch("section hash mismatch", uint8(sec.Header.StreamID)); err != nil {
					return err
				}
			}
			ordinal++
		}

		if chain.Root() != seg.Footer.RootHash {
			if err := r.reportChainMismatch("segment root hash mismatch", 0); err != nil {
				return err
			}
		}

		r.segments = append(r.segments, segmentEntry{seg: seg, start: pos, length: n, ordinalBase: base})
		pos += n
	}

	if pos >= len(r.data) {
		return errs.Wrap(errs.KindIncompleteData, "reader.New", errs.ErrMissingEOS)
	}

	eos, err := format.ParseFileEOS(r.data[pos:])
	if err != nil {
		return errs.Wrap(errs.KindIncompleteData, "reader.New", err)
	}

	if chain.Root() != eos.RootHash {
		return r.reportChainMismatch("file EOS root hash mismatch", 0)
	}

	return nil
}

func (r *Reader) reportChainMismatch(msg string, streamID uint8) error {
	if r.cfg.metrics != nil {
		r.cfg.metrics.ObserveIntegrityFailure(errs.KindIntegrity.String())
	}

	if r.cfg.mode == IntegrityWarn {
		r.cfg.logger.Warn(msg, zap.Uint8("streamId", streamID))

		return nil
	}

	return errs.Wrap(errs.KindIntegrity, "reader.New", errs.ErrChainMismatch)
}

// streamIDForField mirrors writer.streamIDForField: legacy files route
// "price"/"quantity" through the fixed VALUE/QUANTITY stream ids.
func (r *Reader) streamIDForField(fi int, name string) format.StreamID {
	if r.profile.Version == 0 {
		switch name {
		case "price":
			return format.StreamLegacyValue
		case "quantity":
			return format.StreamLegacyQty
		}
	}

	return format.FieldStreamID(fi)
}

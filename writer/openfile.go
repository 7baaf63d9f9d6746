package writer

import (
	"fmt"
	"os"

	"github.com/Shiloren/gics/codec"
	"github.com/Shiloren/gics/compress"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/integrity"
	"github.com/Shiloren/gics/internal/options"
	"github.com/Shiloren/gics/schema"
	"github.com/Shiloren/gics/section"
	"github.com/Shiloren/gics/segment"
)

// OpenFile reopens an existing sealed gics file at path for continued
// appends, adapted from mebo's pattern of continuing an existing blob:
// it replays the file's segment chain to recover the writer's running
// hash-chain state and stream ordinal, strips the trailing EOS marker, and
// returns a Writer whose Push/Flush/Finish calls append new segments after
// the existing body rather than starting a fresh file.
//
// The reopened file's schema and encryption state are carried over as-is;
// WithSchema is ignored if passed since the schema cannot change mid-file.
// Encrypted files cannot be reopened this way (the per-section nonce
// derivation depends on a strictly increasing ordinal the writer cannot
// safely resume without the original key material in hand).
func OpenFile(path string, opts ...Option) (*Writer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "writer.OpenFile", err)
	}

	return openExisting(data, opts...)
}

func openExisting(data []byte, opts ...Option) (*Writer, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, errs.Wrap(errs.KindSchemaViolation, "writer.OpenFile", err)
	}

	hdr, err := format.ParseFileHeader(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindIncompleteData, "writer.OpenFile", err)
	}
	if hdr.Version != format.VersionCore {
		return nil, errs.Wrap(errs.KindVersionMismatch, "writer.OpenFile", errs.ErrUnsupportedVersion)
	}
	if hdr.Encrypted() {
		return nil, errs.Wrap(errs.KindSchemaViolation, "writer.OpenFile", errs.ErrAppendToEncryptedFile)
	}

	pos := format.FileHeaderSize

	profile := schema.Legacy()
	hasSchema := hdr.HasSchema()
	if hasSchema {
		if len(data) < pos+4 {
			return nil, errs.Wrap(errs.KindIncompleteData, "writer.OpenFile", errs.ErrUnexpectedEOF)
		}

		length := int(le.Uint32(data[pos : pos+4]))
		pos += 4
		if length < 0 || len(data) < pos+length {
			return nil, errs.Wrap(errs.KindIncompleteData, "writer.OpenFile", errs.ErrUnexpectedEOF)
		}

		zc, err := compress.GetCodec(format.OuterZstd)
		if err != nil {
			return nil, errs.Wrap(errs.KindIoError, "writer.OpenFile", err)
		}

		raw, err := zc.Decompress(data[pos : pos+length])
		if err != nil {
			return nil, errs.Wrap(errs.KindIntegrity, "writer.OpenFile", err)
		}

		profile, err = schema.Unmarshal(raw)
		if err != nil {
			return nil, errs.Wrap(errs.KindSchemaViolation, "writer.OpenFile", err)
		}
		pos += length
	}

	chain := integrity.NewChain()
	var ordinal uint32
	var lastSeg *segment.Segment

	for pos < len(data) && data[pos] != format.FileEOSMarker {
		seg, n, err := segment.Parse(data[pos:], false)
		if err != nil {
			return nil, errs.Wrap(errs.KindIncompleteData, "writer.OpenFile", err)
		}

		for _, sec := range seg.Sections {
			chain.Absorb(sec.ContributionBytes())
			ordinal++
		}

		lastSeg = seg
		pos += n
	}

	if pos >= len(data) {
		return nil, errs.Wrap(errs.KindIncompleteData, "writer.OpenFile", errs.ErrMissingEOS)
	}

	var lastTS int64
	haveLastTS := false
	if lastSeg != nil {
		ts, err := lastTimestamp(lastSeg)
		if err != nil {
			return nil, err
		}
		lastTS = ts
		haveLastTS = true
	}

	cfg.profile = profile
	cfg.hasSchema = hasSchema

	w := &Writer{
		cfg:          cfg,
		profile:      profile,
		chain:        chain,
		ordinal:      ordinal,
		haveLastTS:   haveLastTS,
		lastTS:       lastTS,
		fileHdrBytes: append([]byte(nil), data[:format.FileHeaderSize]...),
		body:         append([]byte(nil), data[:pos]...),
	}

	return w, nil
}

// lastTimestamp decodes only seg's TIME stream to recover the timestamp of
// its final row, so OpenFile can preserve the non-decreasing-timestamp
// invariant across the reopened Writer's first Push.
func lastTimestamp(seg *segment.Segment) (int64, error) {
	var timeSec *section.Section
	for _, sec := range seg.Sections {
		if sec.Header.StreamID == format.StreamTime {
			timeSec = sec

			break
		}
	}
	if timeSec == nil {
		return 0, errs.Wrap(errs.KindIncompleteData, "writer.OpenFile", fmt.Errorf("%w: missing TIME stream", errs.ErrMissingField))
	}

	outer, err := compress.GetCodec(timeSec.Header.OuterCodecID)
	if err != nil {
		return 0, errs.Wrap(errs.KindIoError, "writer.OpenFile", err)
	}

	raw, err := outer.Decompress(timeSec.Payload)
	if err != nil {
		return 0, errs.Wrap(errs.KindIntegrity, "writer.OpenFile", err)
	}

	effTime := make([]float64, 0, len(raw))
	pos := 0
	for _, m := range timeSec.Manifest {
		block, err := codec.Decode(m.InnerCodecID, raw[pos:pos+int(m.PayloadLen)], int(m.NItems))
		if err != nil {
			return 0, errs.Wrap(errs.KindIntegrity, "writer.OpenFile", err)
		}
		effTime = append(effTime, block...)
		pos += int(m.PayloadLen)
	}

	timestamps := make([]int64, len(effTime))
	codec.NewTimeState().Restore(effTime, timestamps)

	return timestamps[len(timestamps)-1], nil
}

// SealToFile is Finish followed by an atomic-enough overwrite of path with
// the complete file bytes, for the common case of appending to a file
// opened with OpenFile and writing the result back to the same path.
func (w *Writer) SealToFile(path string) error {
	data, err := w.Finish()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindIoError, "writer.SealToFile", err)
	}

	return nil
}

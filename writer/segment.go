package writer

import (
	"github.com/Shiloren/gics/codec"
	"github.com/Shiloren/gics/compress"
	"github.com/Shiloren/gics/crypt"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/section"
	"github.com/Shiloren/gics/segment"
	"github.com/Shiloren/gics/snapshot"
)

// itemMajorEligible reports whether every buffered row shares the exact
// same ordered item-key set, making item-major layout (SPEC_FULL.md §4.1)
// available: grouping each item's values across time lets the per-item
// delta codecs exploit temporal redundancy instead of cross-item noise.
func itemMajorEligible(rows []pendingRow) bool {
	if len(rows) < 2 {
		return false
	}

	first := rows[0].keys
	for _, r := range rows[1:] {
		if len(r.keys) != len(first) {
			return false
		}
		for i := range first {
			if r.keys[i] != first[i] {
				return false
			}
		}
	}

	return true
}

func int64ToFloat64(in []int64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}

	return out
}

// trialFunc selects the inner codec for one block of one stream.
type trialFunc func([]float64) (format.InnerCodecID, []byte, bool, error)

// buildSection chunks values into blocks of blockSize, trials each block
// via trial, and outer-compresses the concatenated winning payloads.
func buildSection(streamID format.StreamID, values []float64, blockSize int, outerCodecID format.OuterCodecID, trial trialFunc) (*section.Section, error) {
	n := len(values)
	manifest := make([]section.ManifestEntry, 0, (n+blockSize-1)/blockSize)

	var rawPayload []byte
	for start := 0; start < n; start += blockSize {
		end := min(start+blockSize, n)
		block := values[start:end]

		id, payload, quarantine, err := trial(block)
		if err != nil {
			return nil, errs.Wrap(errs.KindSchemaViolation, "writer.seal", err)
		}

		flags := uint8(0)
		if quarantine {
			flags |= format.BlockFlagQuarantine
		}

		manifest = append(manifest, section.ManifestEntry{
			InnerCodecID: id,
			NItems:       uint32(len(block)),
			PayloadLen:   uint32(len(payload)),
			Flags:        flags,
		})
		rawPayload = append(rawPayload, payload...)
	}

	outer, err := compress.GetCodec(outerCodecID)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "writer.seal", err)
	}

	compressed, err := outer.Compress(rawPayload)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "writer.seal", err)
	}

	return &section.Section{
		Header: section.Header{
			StreamID:        streamID,
			OuterCodecID:    outerCodecID,
			BlockCount:      uint16(len(manifest)),
			UncompressedLen: uint32(len(rawPayload)),
			CompressedLen:   uint32(len(compressed)),
		},
		Manifest: manifest,
		Payload:  compressed,
	}, nil
}

// streamIDForField resolves the wire stream identifier for the field at
// index fi: legacy files route "price"/"quantity" through the fixed
// VALUE/QUANTITY ids, everything else through FieldStreamID.
func (w *Writer) streamIDForField(fi int, name string) format.StreamID {
	if w.profile.Version == 0 {
		switch name {
		case "price":
			return format.StreamLegacyValue
		case "quantity":
			return format.StreamLegacyQty
		}
	}

	return format.FieldStreamID(fi)
}

// sealSegment runs the block sealing algorithm over the buffered rows
// (SPEC_FULL.md §4.9): choose item-major vs snapshot-major, materialize
// per-stream flat arrays, split into blocks, trial + compress each stream
// section in TIME/SNAPSHOT_LEN/ITEM_ID/fields order, build the segment
// index, fold every section into the running integrity chain, and append
// the sealed segment to the file body.
func (w *Writer) sealSegment() error {
	rows := w.rows
	w.rows = nil

	itemMajor := itemMajorEligible(rows)
	stringKeyed := w.profile.ItemIDType == format.ItemIDString
	tracker := segment.NewDictTracker()

	n := len(rows)
	timestamps := make([]int64, n)
	snapshotLens := make([]int64, n)
	totalItems := 0
	for i, r := range rows {
		timestamps[i] = r.tsUs
		snapshotLens[i] = int64(len(r.keys))
		totalItems += len(r.keys)
	}

	itemIDsFloat := make([]float64, 0, totalItems)
	itemIDsUint := make([]uint64, 0, totalItems)
	fields := make([][]float64, len(w.profile.Fields))
	for fi := range fields {
		fields[fi] = make([]float64, 0, totalItems)
	}

	surrogate := func(k snapshot.ItemKey) (float64, uint64) {
		if stringKeyed {
			id := tracker.Intern(k.String)

			return float64(id), uint64(id)
		}

		return float64(k.Number), uint64(k.Number)
	}

	appendItem := func(r pendingRow, j int) {
		f, u := surrogate(r.keys[j])
		itemIDsFloat = append(itemIDsFloat, f)
		itemIDsUint = append(itemIDsUint, u)
		for fi := range fields {
			fields[fi] = append(fields[fi], r.fields[fi][j])
		}
	}

	if itemMajor {
		k := len(rows[0].keys)
		for j := 0; j < k; j++ {
			for _, r := range rows {
				appendItem(r, j)
			}
		}
	} else {
		for _, r := range rows {
			for j := range r.keys {
				appendItem(r, j)
			}
		}
	}

	effTime := make([]float64, len(timestamps))
	codec.NewTimeState().Absorb(timestamps, effTime)

	sections := make([]*section.Section, 0, 3+len(w.profile.Fields))

	timeSec, err := buildSection(format.StreamTime, effTime, w.cfg.blockSize, w.cfg.outerCodecID, codec.Trial)
	if err != nil {
		return err
	}
	sections = append(sections, timeSec)

	snapLenSec, err := buildSection(format.StreamSnapshotLen, int64ToFloat64(snapshotLens), w.cfg.blockSize, w.cfg.outerCodecID, codec.Trial)
	if err != nil {
		return err
	}
	sections = append(sections, snapLenSec)

	itemIDSec, err := buildSection(format.StreamItemID, itemIDsFloat, w.cfg.blockSize, w.cfg.outerCodecID, codec.Trial)
	if err != nil {
		return err
	}
	sections = append(sections, itemIDSec)

	for fi, f := range w.profile.Fields {
		trial := trialFunc(codec.Trial)
		if f.CodecStrategy == format.CodecStrategyValue {
			preferDoD := codec.PreferDoD(fields[fi])
			trial = func(block []float64) (format.InnerCodecID, []byte, bool, error) {
				return codec.TrialHinted(block, preferDoD)
			}
		}

		sec, err := buildSection(w.streamIDForField(fi, f.Name), fields[fi], w.cfg.blockSize, w.cfg.outerCodecID, trial)
		if err != nil {
			return err
		}
		sections = append(sections, sec)
	}

	for _, sec := range sections {
		if w.encrypted {
			assocData := append(append([]byte(nil), w.fileHdrBytes...), byte(sec.Header.StreamID))
			ciphertext, tag, err := crypt.Seal(w.encKey, w.encHeader.FileNonce, sec.Header.StreamID, w.ordinal, assocData, sec.Payload)
			if err != nil {
				return errs.Wrap(errs.KindIoError, "writer.seal", err)
			}
			sec.Payload = ciphertext
			copy(sec.AuthTag[:], tag)
			sec.Encrypted = true
		}

		sec.Hash = w.chain.Absorb(sec.ContributionBytes())
		w.ordinal++
	}

	var dictionary []string
	if stringKeyed {
		dictionary = tracker.Strings()
	}
	idx := segment.Build(itemIDsUint, dictionary)

	seg := &segment.Segment{Sections: sections, Index: idx}
	if itemMajor {
		seg.Header.Flags |= format.SegmentFlagItemMajorLayout
		seg.Header.ItemsPerSnapshot = uint16(len(rows[0].keys))
	}

	indexOffset := format.SegmentHeaderSize
	for _, sec := range sections {
		indexOffset += len(sec.Bytes())
	}
	seg.Header.IndexOffset = uint32(indexOffset)
	seg.Header.TotalLength = uint32(indexOffset + len(idx.Bytes()) + format.SegmentFooterSize)
	seg.Footer.RootHash = w.chain.Root()

	sealedBytes := seg.Bytes()
	w.body = append(w.body, sealedBytes...)

	if w.cfg.metrics != nil {
		uncompressed := 0
		for _, sec := range sections {
			uncompressed += int(sec.Header.UncompressedLen)
		}
		w.cfg.metrics.ObserveSegmentSealed(uncompressed, len(sealedBytes))
	}

	return nil
}

package reader

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"go.uber.org/multierr"

	"github.com/Shiloren/gics/codec"
	"github.com/Shiloren/gics/compress"
	"github.com/Shiloren/gics/crypt"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/integrity"
	"github.com/Shiloren/gics/schema"
	"github.com/Shiloren/gics/section"
	"github.com/Shiloren/gics/segment"
	"github.com/Shiloren/gics/snapshot"
)

// decodedRow is one reconstructed snapshot row, item keys still as raw
// surrogate values paired with their decoded field columns.
type decodedRow struct {
	tsUs  int64
	keys  []snapshot.ItemKey
	cols  [][]float64 // per schema field, one value per key, same order as keys
}

// decodeSegment decrypts (if needed), decompresses, and decodes every
// stream section of entry, then un-flattens the per-column values back
// into per-snapshot rows following the segment's item-major or
// snapshot-major layout.
func (r *Reader) decodeSegment(entry segmentEntry) ([]decodedRow, error) {
	seg := entry.seg

	columns := make(map[format.StreamID][]float64, len(seg.Sections))
	for j, sec := range seg.Sections {
		values, err := r.decodeSection(sec, entry.ordinalBase+uint32(j))
		if err != nil {
			return nil, err
		}
		columns[sec.Header.StreamID] = values
	}

	rawTime := columns[format.StreamTime]
	timestamps := make([]int64, len(rawTime))
	codec.NewTimeState().Restore(rawTime, timestamps)

	snapshotLensF := columns[format.StreamSnapshotLen]
	numRows := len(snapshotLensF)
	snapshotLens := make([]int, numRows)
	totalItems := 0
	for i, v := range snapshotLensF {
		snapshotLens[i] = int(v)
		totalItems += int(v)
	}

	itemIDs := columns[format.StreamItemID]
	if len(itemIDs) != totalItems {
		return nil, errs.Wrap(errs.KindIntegrity, "reader.decodeSegment",
			fmt.Errorf("%w: item id column length %d, expected %d", errs.ErrCrossStreamLength, len(itemIDs), totalItems))
	}

	fieldCols := make([][]float64, len(r.profile.Fields))
	for fi, f := range r.profile.Fields {
		streamID := r.streamIDForField(fi, f.Name)
		col, ok := columns[streamID]
		if !ok || len(col) != totalItems {
			return nil, errs.Wrap(errs.KindSchemaViolation, "reader.decodeSegment",
				fmt.Errorf("%w: field %q", errs.ErrMissingField, f.Name))
		}
		fieldCols[fi] = col
	}

	rows := make([]decodedRow, numRows)
	itemMajor := seg.Header.ItemMajorLayout()

	if itemMajor {
		itemsPerSnapshot := int(seg.Header.ItemsPerSnapshot)
		for i := 0; i < numRows; i++ {
			rows[i].cols = make([][]float64, len(fieldCols))
			for fi := range fieldCols {
				rows[i].cols[fi] = make([]float64, itemsPerSnapshot)
			}
			rows[i].keys = make([]snapshot.ItemKey, itemsPerSnapshot)
		}

		for j := 0; j < itemsPerSnapshot; j++ {
			for i := 0; i < numRows; i++ {
				idx := j*numRows + i
				rows[i].keys[j] = keyFromSurrogate(r.profile, itemIDs[idx], seg.Index.Dictionary)
				for fi := range fieldCols {
					rows[i].cols[fi][j] = fieldCols[fi][idx]
				}
			}
		}
	} else {
		offset := 0
		for i := 0; i < numRows; i++ {
			n := snapshotLens[i]
			rows[i].keys = make([]snapshot.ItemKey, n)
			rows[i].cols = make([][]float64, len(fieldCols))
			for fi := range fieldCols {
				rows[i].cols[fi] = make([]float64, n)
			}

			for j := 0; j < n; j++ {
				idx := offset + j
				rows[i].keys[j] = keyFromSurrogate(r.profile, itemIDs[idx], seg.Index.Dictionary)
				for fi := range fieldCols {
					rows[i].cols[fi][j] = fieldCols[fi][idx]
				}
			}

			offset += n
		}
	}

	for i := range rows {
		rows[i].tsUs = timestamps[i]
	}

	return rows, nil
}

func (r *Reader) decodeSection(sec *section.Section, ordinal uint32) ([]float64, error) {
	payload := sec.Payload
	if sec.Encrypted {
		assocData := append(append([]byte(nil), r.fileHdrBytes...), byte(sec.Header.StreamID))

		plain, err := crypt.Open(r.encKey, r.encHeader.FileNonce, sec.Header.StreamID, ordinal, assocData, sec.Payload, sec.AuthTag[:])
		if err != nil {
			return nil, errs.Wrap(errs.KindIntegrity, "reader.decodeSegment", err)
		}
		payload = plain
	}

	outer, err := compress.GetCodec(sec.Header.OuterCodecID)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "reader.decodeSegment", err)
	}

	raw, err := outer.Decompress(payload)
	if err != nil {
		return nil, errs.Wrap(errs.KindIntegrity, "reader.decodeSegment", err)
	}
	if uint32(len(raw)) != sec.Header.UncompressedLen {
		return nil, errs.Wrap(errs.KindIntegrity, "reader.decodeSegment",
			fmt.Errorf("%w: got %d want %d", errs.ErrDecompressedLen, len(raw), sec.Header.UncompressedLen))
	}

	values := make([]float64, 0, len(raw))
	pos := 0
	for _, m := range sec.Manifest {
		if pos+int(m.PayloadLen) > len(raw) {
			return nil, errs.Wrap(errs.KindIncompleteData, "reader.decodeSegment", errs.ErrOutOfBounds)
		}

		block, err := codec.Decode(m.InnerCodecID, raw[pos:pos+int(m.PayloadLen)], int(m.NItems))
		if err != nil {
			return nil, errs.Wrap(errs.KindIntegrity, "reader.decodeSegment", err)
		}
		values = append(values, block...)
		pos += int(m.PayloadLen)
	}

	return values, nil
}

// keyFromSurrogate reconstructs an ItemKey from its wire surrogate value:
// numeric schemas cast directly back; string schemas look up the small
// integer id in the segment-local dictionary.
func keyFromSurrogate(p schema.Profile, v float64, dict []string) snapshot.ItemKey {
	if p.ItemIDType == format.ItemIDString {
		id := int(v)
		if id >= 0 && id < len(dict) {
			return snapshot.StringKey(dict[id])
		}

		return snapshot.StringKey("")
	}

	return snapshot.NumberKey(int64(v))
}

// surrogateInSegment computes the surrogate integer for key within one
// segment's index. For numeric schemas the surrogate is globally constant;
// for string schemas it depends on that segment's local dictionary
// assignment, so ok is false when key's string was never interned there.
func surrogateInSegment(p schema.Profile, seg *segment.Segment, key snapshot.ItemKey) (uint64, bool) {
	if p.ItemIDType == format.ItemIDString {
		for id, s := range seg.Index.Dictionary {
			if s == key.String {
				return uint64(id), true
			}
		}

		return 0, false
	}

	return uint64(key.Number), true
}

func keysEqual(a, b snapshot.ItemKey) bool {
	if a.IsStr != b.IsStr {
		return false
	}
	if a.IsStr {
		return a.String == b.String
	}

	return a.Number == b.Number
}

func (r *Reader) fieldValue(f schema.Field, raw float64) any {
	if f.IsCategorical() {
		return f.DecodeCategorical(int(raw))
	}

	return raw
}

// GetAllGenericSnapshots decodes every segment and reconstructs the full
// file as a sequence of GenericSnapshot rows under the active schema.
func (r *Reader) GetAllGenericSnapshots() ([]snapshot.GenericSnapshot, error) {
	var out []snapshot.GenericSnapshot

	for _, entry := range r.segments {
		rows, err := r.decodeSegment(entry)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			items := make(map[snapshot.ItemKey]map[string]any, len(row.keys))
			for i, k := range row.keys {
				rec := make(map[string]any, len(r.profile.Fields))
				for fi, f := range r.profile.Fields {
					rec[f.Name] = r.fieldValue(f, row.cols[fi][i])
				}
				items[k] = rec
			}

			out = append(out, snapshot.GenericSnapshot{TimestampUs: row.tsUs, Items: items})
		}
	}

	return out, nil
}

// GetAllSnapshots is the legacy convenience accessor: it requires the
// schema to carry "price" and "quantity" fields and returns the file as a
// sequence of Snapshot rows.
func (r *Reader) GetAllSnapshots() ([]snapshot.Snapshot, error) {
	priceIdx := r.profile.FieldIndex("price")
	qtyIdx := r.profile.FieldIndex("quantity")
	if priceIdx < 0 || qtyIdx < 0 {
		return nil, errs.Wrap(errs.KindSchemaViolation, "reader.GetAllSnapshots", errs.ErrMissingField)
	}

	var out []snapshot.Snapshot

	for _, entry := range r.segments {
		rows, err := r.decodeSegment(entry)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			items := make(map[snapshot.ItemKey]snapshot.Record, len(row.keys))
			for i, k := range row.keys {
				items[k] = snapshot.Record{
					Price:    row.cols[priceIdx][i],
					Quantity: row.cols[qtyIdx][i],
				}
			}

			out = append(out, snapshot.Snapshot{TimestampUs: row.tsUs, Items: items})
		}
	}

	return out, nil
}

// Query returns every snapshot row containing key, skip-scanning segments
// whose bloom filter or sorted item-id index prove key cannot be present.
func (r *Reader) Query(key snapshot.ItemKey) ([]snapshot.GenericSnapshot, error) {
	var out []snapshot.GenericSnapshot

	for _, entry := range r.segments {
		surrogate, ok := surrogateInSegment(r.profile, entry.seg, key)
		if !ok {
			continue
		}
		if !entry.seg.Index.Bloom.MaybeContains(surrogate) {
			continue
		}

		ids := entry.seg.Index.ItemIDs
		i := sort.Search(len(ids), func(i int) bool { return ids[i] >= surrogate })
		if i >= len(ids) || ids[i] != surrogate {
			continue
		}

		rows, err := r.decodeSegment(entry)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			matched := false
			for _, k := range row.keys {
				if keysEqual(k, key) {
					matched = true

					break
				}
			}
			if !matched {
				continue
			}

			items := make(map[snapshot.ItemKey]map[string]any, len(row.keys))
			for i, k := range row.keys {
				rec := make(map[string]any, len(r.profile.Fields))
				for fi, f := range r.profile.Fields {
					rec[f.Name] = r.fieldValue(f, row.cols[fi][i])
				}
				items[k] = rec
			}

			out = append(out, snapshot.GenericSnapshot{TimestampUs: row.tsUs, Items: items})
		}
	}

	return out, nil
}

// VerifyIntegrityOnly re-checks every segment's CRC32 concurrently without
// decoding any stream payload, for cheap periodic file-health checks.
func (r *Reader) VerifyIntegrityOnly() error {
	g := &errgroup.Group{}
	g.SetLimit(8)

	var mu sync.Mutex
	var combined error

	for _, entry := range r.segments {
		entry := entry
		g.Go(func() error {
			footerOff := entry.length - format.SegmentFooterSize
			body := r.data[entry.start : entry.start+footerOff]

			if integrity.CRC32(body) != entry.seg.Footer.CRC32 {
				mu.Lock()
				combined = multierr.Append(combined, fmt.Errorf("%w: segment at offset %d", errs.ErrCRCMismatch, entry.start))
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	if combined != nil {
		return errs.Wrap(errs.KindIntegrity, "reader.VerifyIntegrityOnly", combined)
	}

	return nil
}

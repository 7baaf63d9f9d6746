// Package writer implements the gics Writer (SPEC_FULL.md §4.9): it buffers
// pushed snapshots into a segment builder and, once the configured byte
// threshold is crossed or Finish is called, seals a Segment through the
// codec pipeline and appends it to the growing file body.
package writer

import (
	"fmt"

	"github.com/Shiloren/gics/compress"
	"github.com/Shiloren/gics/crypt"
	"github.com/Shiloren/gics/endian"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/integrity"
	"github.com/Shiloren/gics/internal/options"
	"github.com/Shiloren/gics/schema"
	"github.com/Shiloren/gics/snapshot"
)

var le = endian.GetLittleEndianEngine()

// pendingRow is one buffered snapshot awaiting segment sealing. keys is
// already sorted ascending; fields holds, per schema field index, one
// value per key in the same order.
type pendingRow struct {
	tsUs   int64
	keys   []snapshot.ItemKey
	fields [][]float64
}

// Writer accepts snapshots and emits a complete gics file.
type Writer struct {
	cfg     Config
	profile schema.Profile

	rows       []pendingRow
	haveLastTS bool
	lastTS     int64

	chain   *integrity.Chain
	ordinal uint32

	fileHdrBytes []byte
	encrypted    bool
	encHeader    crypt.Header
	encKey       []byte

	body []byte
}

// New creates a Writer configured by opts, writing the file header, the
// optional encryption header, and the optional schema section immediately.
func New(opts ...Option) (*Writer, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, errs.Wrap(errs.KindSchemaViolation, "writer.New", err)
	}

	flags := uint32(0)
	if cfg.hasSchema {
		flags |= format.FileFlagHasSchema
	}
	if cfg.encrypted {
		flags |= format.FileFlagEncrypted
	}

	w := &Writer{
		cfg:       cfg,
		profile:   cfg.profile,
		chain:     integrity.NewChain(),
		encrypted: cfg.encrypted,
	}

	hdr := format.FileHeader{Version: format.VersionCore, Flags: flags}
	w.fileHdrBytes = hdr.Bytes()
	w.body = append(w.body, w.fileHdrBytes...)

	if cfg.encrypted {
		h, key, err := crypt.NewHeader(cfg.password, cfg.pbkdf2Iterations)
		if err != nil {
			return nil, errs.Wrap(errs.KindIoError, "writer.New", err)
		}
		w.encHeader = h
		w.encKey = key
		w.body = append(w.body, h.Bytes()...)
	}

	if cfg.hasSchema {
		if err := w.writeSchemaSection(); err != nil {
			return nil, err
		}
	}

	return w, nil
}

func (w *Writer) writeSchemaSection() error {
	raw, err := w.profile.Marshal()
	if err != nil {
		return errs.Wrap(errs.KindSchemaViolation, "writer.New", err)
	}

	zc, err := compress.GetCodec(format.OuterZstd)
	if err != nil {
		return errs.Wrap(errs.KindIoError, "writer.New", err)
	}

	compressed, err := zc.Compress(raw)
	if err != nil {
		return errs.Wrap(errs.KindIoError, "writer.New", err)
	}

	var lenBuf [4]byte
	le.PutUint32(lenBuf[:], uint32(len(compressed)))
	w.body = append(w.body, lenBuf[:]...)
	w.body = append(w.body, compressed...)

	return nil
}

// Push appends one snapshot to the current segment builder. Timestamps must
// be strictly non-decreasing across the whole file; item keys must be
// unique within the snapshot; every record must conform to the active
// schema.
func (w *Writer) Push(tsUs int64, items map[snapshot.ItemKey]map[string]any) error {
	if w.haveLastTS && tsUs < w.lastTS {
		return errs.Wrap(errs.KindIntegrity, "writer.Push", errs.ErrNonMonotonicTime)
	}

	keys := make([]snapshot.ItemKey, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	keys = snapshot.SortedItemKeys(keys)

	for i := 1; i < len(keys); i++ {
		if keys[i] == keys[i-1] {
			return errs.Wrap(errs.KindSchemaViolation, "writer.Push", errs.ErrDuplicateItemKey)
		}
	}

	fields := make([][]float64, len(w.profile.Fields))
	for fi := range w.profile.Fields {
		fields[fi] = make([]float64, len(keys))
	}

	for ki, k := range keys {
		rec := items[k]
		for fi, f := range w.profile.Fields {
			v, ok := rec[f.Name]
			if !ok {
				return errs.Wrap(errs.KindSchemaViolation, "writer.Push",
					fmt.Errorf("%w: %s", errs.ErrMissingField, f.Name))
			}

			val, err := encodeFieldValue(f, v)
			if err != nil {
				return errs.Wrap(errs.KindSchemaViolation, "writer.Push", err)
			}
			fields[fi][ki] = val
		}
	}

	w.rows = append(w.rows, pendingRow{tsUs: tsUs, keys: keys, fields: fields})
	w.lastTS = tsUs
	w.haveLastTS = true

	if w.estimatedSize() >= w.cfg.segmentByteLimit {
		return w.sealSegment()
	}

	return nil
}

// PushLegacy is a convenience wrapper for the implicit legacy schema
// (fields "price" and "quantity").
func (w *Writer) PushLegacy(tsUs int64, items map[snapshot.ItemKey]snapshot.Record) error {
	generic := make(map[snapshot.ItemKey]map[string]any, len(items))
	for k, r := range items {
		generic[k] = map[string]any{"price": r.Price, "quantity": r.Quantity}
	}

	return w.Push(tsUs, generic)
}

func encodeFieldValue(f schema.Field, v any) (float64, error) {
	switch f.Type {
	case format.FieldNumeric:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		default:
			return 0, fmt.Errorf("%w: field %q expects numeric, got %T", errs.ErrWrongFieldType, f.Name, v)
		}
	case format.FieldCategorical:
		switch x := v.(type) {
		case string:
			id, ok := f.EnumMap[x]
			if !ok {
				return 0, fmt.Errorf("%w: field %q value %q", errs.ErrUnknownCategorical, f.Name, x)
			}

			return float64(id), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		default:
			return 0, fmt.Errorf("%w: field %q expects string or enum int, got %T", errs.ErrWrongFieldType, f.Name, v)
		}
	default:
		return 0, fmt.Errorf("%w: field %q has unrecognized type", errs.ErrWrongFieldType, f.Name)
	}
}

// estimatedSize is a rough uncompressed-byte estimate of the rows buffered
// so far: one float64 per item per field, plus timestamp and snapshot
// length overhead, used only to decide when to trigger sealSegment.
func (w *Writer) estimatedSize() int {
	total := 0
	for _, r := range w.rows {
		total += 16 + len(r.keys)*8*(1+len(w.profile.Fields))
	}

	return total
}

// Flush seals the current segment builder immediately, even if the byte
// threshold has not been reached. A no-op when no rows are pending.
func (w *Writer) Flush() error {
	if len(w.rows) == 0 {
		return nil
	}

	return w.sealSegment()
}

// Finish seals any pending segment, appends the File EOS trailer, and
// returns the complete file bytes.
func (w *Writer) Finish() ([]byte, error) {
	if err := w.Flush(); err != nil {
		return nil, err
	}

	eos := format.FileEOS{RootHash: w.chain.Root()}
	w.body = append(w.body, eos.Bytes()...)

	return w.body, nil
}

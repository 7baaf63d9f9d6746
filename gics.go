// Package gics provides a lossless, columnar binary codec for irregular
// time-series snapshots: a sequence of timestamped item maps, each map
// keyed by a numeric or string item id, where every item carries the same
// set of schema-typed fields.
//
// gics is optimized for scenarios with many items per snapshot and many
// snapshots per file (order book levels, sensor fleets, per-instance
// metrics), trading a columnar per-stream layout and per-block codec
// selection for compression ratio and skip-scan query performance.
//
// # Core features
//
//   - Per-stream delta/delta-of-delta/RLE/bit-pack codec trial, smallest
//     payload wins per block
//   - Segment-scoped bloom filter + sorted item-id index for skip-scan Query
//   - Optional AES-256-GCM encryption, PBKDF2 key derivation
//   - Running SHA-256 hash chain plus per-segment CRC32 for integrity
//   - Pluggable outer byte compressor (Zstd, S2, LZ4, XZ, or none)
//
// # Basic usage
//
// Writing a file:
//
//	w, _ := writer.New()
//	w.PushLegacy(tsUs, map[snapshot.ItemKey]snapshot.Record{
//	    snapshot.NumberKey(1): {Price: 100.5, Quantity: 10},
//	})
//	data, _ := w.Finish()
//
// Reading it back:
//
//	r, _ := reader.New(data)
//	snaps, _ := r.GetAllSnapshots()
//
// This root package re-exports the most common constructors so simple
// callers need only one import; gics.Pack/gics.Unpack below generalize
// the above into one call each. For anything beyond that — explicit
// schemas, encryption, segment sizing, metrics — use the writer/reader
// packages directly.
package gics

import (
	"github.com/Shiloren/gics/reader"
	"github.com/Shiloren/gics/snapshot"
	"github.com/Shiloren/gics/writer"
)

// NewWriter is a convenience alias for writer.New.
func NewWriter(opts ...writer.Option) (*writer.Writer, error) {
	return writer.New(opts...)
}

// Open is a convenience alias for reader.New.
func Open(data []byte, opts ...reader.Option) (*reader.Reader, error) {
	return reader.New(data, opts...)
}

// Pack encodes a complete sequence of legacy-schema snapshots into one
// gics file in a single call. Timestamps must already be non-decreasing.
func Pack(snapshots []snapshot.Snapshot, opts ...writer.Option) ([]byte, error) {
	w, err := writer.New(opts...)
	if err != nil {
		return nil, err
	}

	for _, s := range snapshots {
		if err := w.PushLegacy(s.TimestampUs, s.Items); err != nil {
			return nil, err
		}
	}

	return w.Finish()
}

// Unpack decodes a complete gics file into its legacy-schema snapshots in
// a single call.
func Unpack(data []byte, opts ...reader.Option) ([]snapshot.Snapshot, error) {
	r, err := reader.New(data, opts...)
	if err != nil {
		return nil, err
	}

	return r.GetAllSnapshots()
}

package reader

import "github.com/Shiloren/gics/snapshot"

// materializedItem is one item key's decoded rows, flattened into parallel
// arrays so repeated access is O(1) instead of re-walking every segment.
type materializedItem struct {
	timestamps []int64
	records    []map[string]any
}

// MaterializedView is gics' adaptation of mebo's MaterializedNumericBlobSet
// (blob.MaterializedNumericBlobSet.Materialize): every segment decoded once
// up front into per-item flat slices, trading the decode cost for O(1)
// repeated ValueAt/TimestampAt access. Build one with Reader.Materialize
// when a caller issues many Query-shaped lookups against the same opened
// file; for a single linear pass, GetAllGenericSnapshots avoids the
// up-front cost.
type MaterializedView struct {
	items map[snapshot.ItemKey]materializedItem
}

// Materialize decodes every segment exactly once and flattens the result
// into a MaterializedView keyed by item. Safe for concurrent read access
// after it returns, since nothing further mutates the view.
func (r *Reader) Materialize() (MaterializedView, error) {
	items := make(map[snapshot.ItemKey]materializedItem)

	for _, entry := range r.segments {
		rows, err := r.decodeSegment(entry)
		if err != nil {
			return MaterializedView{}, err
		}

		for _, row := range rows {
			for i, k := range row.keys {
				rec := make(map[string]any, len(r.profile.Fields))
				for fi, f := range r.profile.Fields {
					rec[f.Name] = r.fieldValue(f, row.cols[fi][i])
				}

				mi := items[k]
				mi.timestamps = append(mi.timestamps, row.tsUs)
				mi.records = append(mi.records, rec)
				items[k] = mi
			}
		}
	}

	return MaterializedView{items: items}, nil
}

// ValueAt returns the decoded field value for key at its index-th row
// (in file order), or (nil, false) if key is unknown or index is out of
// range.
func (m MaterializedView) ValueAt(key snapshot.ItemKey, field string, index int) (any, bool) {
	mi, ok := m.items[key]
	if !ok || index < 0 || index >= len(mi.records) {
		return nil, false
	}

	v, ok := mi.records[index][field]

	return v, ok
}

// TimestampAt returns the timestamp of key's index-th row (in file order),
// or (0, false) if key is unknown or index is out of range.
func (m MaterializedView) TimestampAt(key snapshot.ItemKey, index int) (int64, bool) {
	mi, ok := m.items[key]
	if !ok || index < 0 || index >= len(mi.timestamps) {
		return 0, false
	}

	return mi.timestamps[index], true
}

// RecordAt returns the full decoded field map of key's index-th row, or
// (nil, false) if key is unknown or index is out of range.
func (m MaterializedView) RecordAt(key snapshot.ItemKey, index int) (map[string]any, bool) {
	mi, ok := m.items[key]
	if !ok || index < 0 || index >= len(mi.records) {
		return nil, false
	}

	return mi.records[index], true
}

// RowCount returns the number of rows materialized for key, or 0 if key is
// unknown.
func (m MaterializedView) RowCount(key snapshot.ItemKey) int {
	return len(m.items[key].timestamps)
}

// ItemKeys returns every item key present in the materialized view, in no
// particular order.
func (m MaterializedView) ItemKeys() []snapshot.ItemKey {
	keys := make([]snapshot.ItemKey, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}

	return keys
}

// Package snapshot defines the in-memory row shapes gics Writers accept and
// Readers reconstruct (SPEC_FULL.md §3): a timestamp plus a mapping from
// item key to record, in both the legacy {price, quantity} shape and the
// generic schema-shaped record.
package snapshot

import (
	"fmt"

	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/schema"
)

// ItemKey is either a numeric (int64) or string item identifier. Exactly
// one of the two fields is meaningful, per the schema's itemIdType.
type ItemKey struct {
	Number int64
	String string
	IsStr  bool
}

// NumberKey builds a numeric ItemKey.
func NumberKey(n int64) ItemKey { return ItemKey{Number: n} }

// StringKey builds a string ItemKey.
func StringKey(s string) ItemKey { return ItemKey{String: s, IsStr: true} }

func (k ItemKey) String() string {
	if k.IsStr {
		return k.String
	}

	return fmt.Sprintf("%d", k.Number)
}

// Record is the legacy-shape row: a price (value-strategy numeric) and a
// quantity (structural-strategy numeric).
type Record struct {
	Price    float64
	Quantity float64
}

// Snapshot is one timestamped row-set under the legacy schema.
type Snapshot struct {
	TimestampUs int64
	Items       map[ItemKey]Record
}

// GenericSnapshot is one timestamped row-set under an arbitrary schema.
// Numeric fields hold float64; categorical fields hold either the decoded
// enum string or, for unknown wire integers, the bare int passed through
// unchanged (SPEC_FULL.md §9).
type GenericSnapshot struct {
	TimestampUs int64
	Items       map[ItemKey]map[string]any
}

// SortedItemKeys returns the snapshot's item keys in ascending order, as
// required on the wire (SPEC_FULL.md §3 invariant). Numeric keys sort
// numerically; string keys sort lexically. Mixing key kinds in one
// snapshot is a schema violation the caller is expected to have already
// rejected.
func SortedItemKeys(keys []ItemKey) []ItemKey {
	out := make([]ItemKey, len(keys))
	copy(out, keys)

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	return out
}

func less(a, b ItemKey) bool {
	if a.IsStr != b.IsStr {
		return !a.IsStr // numeric sorts before string if ever mixed (should not happen)
	}
	if a.IsStr {
		return a.String < b.String
	}

	return a.Number < b.Number
}

// ValidateNumericKey checks a numeric ItemKey against the schema's
// itemIdType.
func ValidateNumericKey(p schema.Profile, k ItemKey) error {
	if k.IsStr {
		return fmt.Errorf("%w: got string key for itemIdType=number", errs.ErrWrongItemIDType)
	}
	if p.ItemIDType != format.ItemIDNumber {
		return fmt.Errorf("%w: schema expects %v", errs.ErrWrongItemIDType, p.ItemIDType)
	}

	return nil
}

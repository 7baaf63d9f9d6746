// Package schema defines the gics Schema Profile (SPEC_FULL.md §3): the
// immutable, file-wide description of item-key typing and record fields,
// serialized as zstd-compressed JSON in the file header.
package schema

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Shiloren/gics/format"
)

// Field describes one column of a record.
type Field struct {
	Name          string               `json:"name"`
	Type          format.FieldType     `json:"type"`
	CodecStrategy format.CodecStrategy `json:"codecStrategy,omitempty"`
	// EnumMap maps categorical string values to their small non-negative
	// wire integer. Only meaningful when Type == format.FieldCategorical.
	EnumMap map[string]int `json:"enumMap,omitempty"`
}

// IsNumeric reports whether the field holds numeric (float64) values.
func (f Field) IsNumeric() bool { return f.Type == format.FieldNumeric }

// IsCategorical reports whether the field holds enum-mapped string values.
func (f Field) IsCategorical() bool { return f.Type == format.FieldCategorical }

// enumReverse builds the integer→string reverse lookup for decoding. An
// integer absent from the map is passed through unchanged per §9's
// categorical passthrough rule.
func (f Field) enumReverse() map[int]string {
	rev := make(map[int]string, len(f.EnumMap))
	for s, i := range f.EnumMap {
		rev[i] = s
	}

	return rev
}

// DecodeCategorical returns the string for wire integer v, or the bare int
// unchanged when v is not in the enum map, per the passthrough rule in
// SPEC_FULL.md §9.
func (f Field) DecodeCategorical(v int) any {
	if s, ok := f.enumReverse()[v]; ok {
		return s
	}

	return v
}

// Profile is the immutable, file-wide schema description.
type Profile struct {
	ID         uuid.UUID  `json:"id"`
	Version    int        `json:"version"`
	ItemIDType format.ItemIDType `json:"itemIdType"`
	Fields     []Field    `json:"fields"`
}

// NewProfile creates a new Profile with a fresh random ID.
func NewProfile(itemIDType format.ItemIDType, fields []Field) Profile {
	return Profile{
		ID:         uuid.New(),
		Version:    1,
		ItemIDType: itemIDType,
		Fields:     fields,
	}
}

// Legacy returns the implicit schema used when no schema is embedded in the
// file: integer keys, fields [price: numeric/value, quantity: numeric/structural].
func Legacy() Profile {
	return Profile{
		Version:    0,
		ItemIDType: format.ItemIDNumber,
		Fields: []Field{
			{Name: "price", Type: format.FieldNumeric, CodecStrategy: format.CodecStrategyValue},
			{Name: "quantity", Type: format.FieldNumeric, CodecStrategy: format.CodecStrategyStructural},
		},
	}
}

// FieldIndex returns the zero-based index of the field named name, or -1.
func (p Profile) FieldIndex(name string) int {
	for i, f := range p.Fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}

// Marshal and Unmarshal are the explicit wire format for the file
// header's optional schema section (§6: "schema length + zstd(JSON(schema))").
func (p Profile) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Unmarshal parses a Profile from its JSON wire form.
func Unmarshal(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, err
	}

	return p, nil
}

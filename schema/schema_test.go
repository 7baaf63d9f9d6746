package schema

import (
	"testing"

	"github.com/Shiloren/gics/format"
	"github.com/stretchr/testify/require"
)

func TestLegacySchemaShape(t *testing.T) {
	l := Legacy()
	require.Equal(t, format.ItemIDNumber, l.ItemIDType)
	require.Equal(t, 0, l.FieldIndex("price"))
	require.Equal(t, 1, l.FieldIndex("quantity"))
	require.Equal(t, -1, l.FieldIndex("missing"))
}

func TestProfileJSONRoundTrip(t *testing.T) {
	p := NewProfile(format.ItemIDString, []Field{
		{Name: "status", Type: format.FieldCategorical, EnumMap: map[string]int{"ok": 0, "fail": 1}},
	})

	data, err := p.Marshal()
	require.NoError(t, err)

	p2, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, p.ID, p2.ID)
	require.Equal(t, p.Fields[0].Name, p2.Fields[0].Name)
}

func TestCategoricalPassthrough(t *testing.T) {
	f := Field{Type: format.FieldCategorical, EnumMap: map[string]int{"ok": 0}}
	require.Equal(t, "ok", f.DecodeCategorical(0))
	require.Equal(t, 7, f.DecodeCategorical(7))
}

package fragment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Value(t *testing.T) {
	r := Parse(KindValue, `"hello"`)
	require.True(t, r.Valid)
	require.NotNil(t, r.Node)
	vc, ok := r.Node.ValueContent()
	require.True(t, ok)
	require.Equal(t, "quoted_string", vc.Kind)
}

func TestParse_Query(t *testing.T) {
	r := Parse(KindQuery, `lore where subject = "x"`)
	require.True(t, r.Valid)
	require.NotNil(t, r.Node)
}

func TestParse_Type(t *testing.T) {
	r := Parse(KindType, `"fact"|"insight"`)
	require.True(t, r.Valid)
	fv, ok := r.Node.FieldValues()
	require.True(t, ok)
	require.Equal(t, `"fact"|"insight"`, fv.Type)
}

func TestParse_InvalidKind(t *testing.T) {
	r := Parse(Kind(99), "x")
	require.Error(t, r.Err)
}

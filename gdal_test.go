package forestedge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSridOfCrs(t *testing.T) {
	g := NewToolbox(t.TempDir())
	srid, err := g.SridOfCrs("EPSG:4326")
	require.NoError(t, err)
	require.Equal(t, 4326, srid)

	wkt, err := g.CrsOfSrid(3857)
	require.NoError(t, err)
	srid, err = g.SridOfCrs(wkt)
	require.NoError(t, err)
	require.Equal(t, 3857, srid)

	_, err = g.SridOfCrs("")
	require.ErrorIs(t, err, ErrVoidSrid)
	_, err = g.SridOfCrs("not a crs")
	require.ErrorIs(t, err, ErrVoidSrid)
}

func TestSameCrs(t *testing.T) {
	g := NewToolbox(t.TempDir())
	wkt, err := g.CrsOfSrid(UNIVERSAL_SRID)
	require.NoError(t, err)

	same, err := g.SameCrs("EPSG:4326", wkt)
	require.NoError(t, err)
	require.True(t, same)

	same, err = g.SameCrs("EPSG:4326", "EPSG:3857")
	require.NoError(t, err)
	require.False(t, same)

	same, err = g.SameCrs("", "")
	require.NoError(t, err)
	require.True(t, same)
	same, err = g.SameCrs("", wkt)
	require.NoError(t, err)
	require.False(t, same)
}

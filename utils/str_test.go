package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTileCode(t *testing.T) {
	code, ok := TileCode("/data/Hansen_GFC-2023-v1.11_lossyear_10N_020W.tif")
	require.True(t, ok)
	require.Equal(t, "10N_020W", code)

	code, ok = TileCode("00N_000E_binary.tif")
	require.True(t, ok)
	require.Equal(t, "00N_000E", code)

	code, ok = TileCode("tileA_2021_density.tif")
	require.True(t, ok)
	require.Equal(t, "tileA_2021", code)

	_, ok = TileCode("merged.tif")
	require.False(t, ok)
}

func TestGfcTileName(t *testing.T) {
	require.Equal(t, "P_30N_180W.tif", GfcTileName("P", 30, -180))
	require.Equal(t, "P_00N_000E.tif", GfcTileName("P", 0, 0))
	require.Equal(t, "P_20S_010E.tif", GfcTileName("P", -20, 10))
}

func TestStrToIntRange(t *testing.T) {
	vs, err := StrToIntRange("30:-30:-10")
	require.NoError(t, err)
	require.Equal(t, []int{30, 20, 10, 0, -10, -20, -30}, vs)

	vs, err = StrToIntRange("1, 2,3")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, vs)

	_, err = StrToIntRange("0:10:-1")
	require.Error(t, err)
}

func TestStrToFloats(t *testing.T) {
	vs, err := StrToFloats("1,2.5, 40", ",")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2.5, 40}, vs)
	_, err = StrToFloats("1,x", ",")
	require.Error(t, err)
}

func TestDeriveOutput(t *testing.T) {
	require.Equal(t, filepath.Join("out", "a_density3.tif"), DeriveOutput("in/a_edge2.tif", "out", "_edge2.tif", "_density3.tif"))
	require.Equal(t, filepath.Join("out", "a_distance.tif"), DeriveOutput("in/a.tif", "out", "", "_distance"))
	require.Equal(t, "x/c_edge.tif", InsertSuffix("x/c.tif", "_edge"))
}

func TestListFilesWithSuffix(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.tif", "a.tif", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.tif"), 0o755))
	paths, err := ListFilesWithSuffix(dir, ".tif")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.tif"), filepath.Join(dir, "b.tif")}, paths)
}

func TestWalkFilesWithSuffix(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub", "deep")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "x_land.tif"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_land.tif"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.tif"), nil, 0o644))
	paths, err := WalkFilesWithSuffix(dir, "land.tif")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a_land.tif"), filepath.Join(sub, "x_land.tif")}, paths)

	_, err = WalkFilesWithSuffix(filepath.Join(dir, "none"), ".tif")
	require.Error(t, err)
}

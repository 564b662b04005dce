package forestedge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wgdzlh/forestedge/grid"

	"github.com/stretchr/testify/require"
)

func TestFindReference(t *testing.T) {
	g := NewToolbox(t.TempDir())
	dir := t.TempDir()
	sub := filepath.Join(dir, "2020", "input")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	touch(t, dir, "a_10N_020E_landpercentage.txt", "b_00N_000E_landpercentage.tif")
	touch(t, sub, "c_10N_020E_landpercentage.tif")

	ref, err := g.FindReference(dir, "/in/Hansen_GFC_10N_020E_distance.tif", LAND_REF_SUFFIX)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(sub, "c_10N_020E_landpercentage.tif"), ref)

	_, err = g.FindReference(dir, "/in/x_20S_050W.tif", LAND_REF_SUFFIX)
	require.True(t, errors.Is(err, ErrResourceNotFound))
	_, err = g.FindReference(filepath.Join(dir, "none"), "/in/x_20S_050W.tif", LAND_REF_SUFFIX)
	require.True(t, errors.Is(err, ErrIO))
}

func TestApplyLandMask(t *testing.T) {
	g := NewToolbox(t.TempDir())
	dir, refDir := t.TempDir(), t.TempDir()
	src := testRaster(4, 4, 20, 10, grid.Int16, func(row, col int) float64 {
		if row == 1 && col == 1 {
			return 0
		}
		return float64(row*4 + col + 1)
	})
	src.HasNoData, src.NoData = true, 0
	// 2x2参考网格，右上角非陆地
	ref := testRaster(2, 2, 20, 10, grid.Byte, func(row, col int) float64 {
		if row == 0 && col == 1 {
			return 100
		}
		return LAND_VALUE
	})
	ref.Georef.Transform = grid.Affine{20, 2, 0, 10, 0, -2}
	ps := filepath.Join(dir, "x_10N_020E_distance.tif")
	require.NoError(t, g.WriteRaster(ps, src))
	require.NoError(t, g.WriteRaster(filepath.Join(refDir, "gfc_10N_020E_landpercentage.tif"), ref))
	require.NoError(t, g.WriteRaster(filepath.Join(refDir, "gfc_00N_020E_landpercentage.tif"), ref))

	out := filepath.Join(dir, "x_10N_020E_distance"+SUFFIX_PROCESSED+FILE_EXT_TIF)
	require.NoError(t, g.ApplyLandMask(ps, refDir, out, LandMaskOptions{}))
	res, err := g.ReadRaster(out)
	require.NoError(t, err)
	require.Equal(t, grid.Float32, res.DataType)
	require.Equal(t, 2, res.Width)
	require.Equal(t, 2, res.Height)
	require.True(t, res.HasNoData)
	require.Equal(t, float64(LAND_NODATA), res.NoData)
	require.Equal(t, []float64{LAND_NODATA, 0, 14, 16}, res.Data)

	err = g.ApplyLandMask(filepath.Join(dir, "x_30S_020E.tif"), refDir, out, LandMaskOptions{})
	require.True(t, errors.Is(err, ErrResourceNotFound))
}

func TestLandMaskedInvertsLand(t *testing.T) {
	r := testRaster(2, 1, 0, 1, grid.Float32, func(_, col int) float64 { return float64(col + 5) })
	ref := testRaster(2, 1, 0, 1, grid.Byte, func(_, col int) float64 { return float64(col) })
	res, err := landMasked(r, ref, []float64{1})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 6}, res.Data)
}

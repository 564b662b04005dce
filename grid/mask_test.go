package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMaskThreshold(t *testing.T) {
	r := NewRaster(5, 1, testGeo, UInt16)
	copy(r.Data, []float64{0, 2999, 3000, 6500, math.NaN()})
	m, err := BuildMask(r, Threshold{Min: 3000})
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 0, 1, 1, 0}, m.Data)
	require.Equal(t, testGeo, m.Georef)
}

func TestBuildMaskNoData(t *testing.T) {
	r := NewRaster(3, 1, testGeo, Byte)
	copy(r.Data, []float64{255, 10, 0})
	r.HasNoData = true
	r.NoData = 255

	m, err := BuildMask(r, Threshold{Min: 1})
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 1, 0}, m.Data)

	m, err = BuildMask(r, Threshold{Min: 1}, WithNoDataAs(1))
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 1, 0}, m.Data)
}

func TestBuildMaskRangeAndSet(t *testing.T) {
	r := NewRaster(5, 1, testGeo, Byte)
	copy(r.Data, []float64{0, 1, 19, 20, 23})

	m, err := BuildMask(r, Range{Min: 1, Max: 19})
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 1, 1, 0, 0}, m.Data)

	m, err = BuildMask(r, NewValueSet(0, 23))
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 0, 0, 0, 1}, m.Data)
}

func TestBuildMaskExpression(t *testing.T) {
	r := NewRaster(5, 1, testGeo, Byte)
	copy(r.Data, []float64{0, 1, 19, 20, 1})
	expr, err := NewExpression("value >= 1 && value <= 19")
	require.NoError(t, err)
	m, err := BuildMask(r, expr)
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 1, 1, 0, 1}, m.Data)
}

func TestNewExpressionInvalid(t *testing.T) {
	for _, src := range []string{"", "loss > 3", "value + 1", "value >= ("} {
		_, err := NewExpression(src)
		require.ErrorIs(t, err, ErrInvalidExpression, src)
	}
}

func TestBuildMaskBandCount(t *testing.T) {
	r := NewRaster(2, 2, testGeo, Byte)
	r.Bands = 3
	_, err := BuildMask(r, Threshold{Min: 1})
	require.ErrorIs(t, err, ErrUnsupportedBandCount)
	require.ErrorIs(t, err, ErrUnsupportedRaster)
}

func TestApplyMask(t *testing.T) {
	forest := NewRaster(3, 1, testGeo, UInt16)
	copy(forest.Data, []float64{1, 1, 0})
	loss := NewMask(3, 1, testGeo)
	loss.Data[0] = 1
	out, err := ApplyMask(forest, loss, 0)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 0}, out.Data)
	require.Equal(t, []float64{1, 1, 0}, forest.Data)

	_, err = ApplyMask(forest, NewMask(2, 1, testGeo), 0)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFillNoDataAndMultiply(t *testing.T) {
	r := NewRaster(3, 1, testGeo, Float32)
	copy(r.Data, []float64{-9999, 0.5, math.NaN()})
	r.HasNoData = true
	r.NoData = -9999
	out := Multiply(FillNoData(r, 0), 100)
	require.False(t, out.HasNoData)
	require.Equal(t, []float64{0, 50, 0}, out.Data)
}

func TestMaskInvert(t *testing.T) {
	m := squareMask()
	inv := m.Invert()
	require.Equal(t, m.Georef, inv.Georef)
	require.Equal(t, 100-m.Count(), inv.Count())
	require.Zero(t, inv.At(5, 5))
	require.Equal(t, uint8(1), inv.At(0, 0))
	require.Equal(t, m.Data, inv.Invert().Data)
}

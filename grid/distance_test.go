package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func bruteDistance(m *Mask, row, col int) float64 {
	best := math.Inf(1)
	for r := 0; r < m.Height; r++ {
		for c := 0; c < m.Width; c++ {
			if m.At(r, c) == 1 {
				best = math.Min(best, math.Hypot(float64(r-row), float64(c-col)))
			}
		}
	}
	return best
}

func TestDistanceTransformSquare(t *testing.T) {
	edges := DetectEdges(squareMask(), WithMinBackgroundNeighbors(1))
	f := DistanceTransform(edges)
	for i, v := range edges.Data {
		if v == 1 {
			require.Zero(t, f.Data[i])
		}
	}
	require.Equal(t, 1.0, f.At(5, 5))
	require.InDelta(t, math.Sqrt(32), f.At(0, 0), 1e-12)
}

func TestDistanceTransformExact(t *testing.T) {
	for seed := int64(1); seed <= 4; seed++ {
		m := randomMask(19, 13, 0.05, seed)
		if m.Count() == 0 {
			m.Data[0] = 1
		}
		f := DistanceTransform(m)
		for row := 0; row < m.Height; row++ {
			for col := 0; col < m.Width; col++ {
				require.InDelta(t, bruteDistance(m, row, col), f.At(row, col), 1e-9, "row %d col %d", row, col)
			}
		}
	}
}

func TestDistanceTransformMonotonic(t *testing.T) {
	m := NewMask(12, 5, testGeo)
	m.Data[2*12] = 1 // (2,0)
	f := DistanceTransform(m)
	for col := 1; col < 12; col++ {
		require.Greater(t, f.At(2, col), f.At(2, col-1))
	}
}

func TestDistanceTransformNoTarget(t *testing.T) {
	f := DistanceTransform(NewMask(3, 3, testGeo))
	for _, d := range f.Data {
		require.True(t, math.IsInf(d, 1))
	}
}

func TestLogByteBounds(t *testing.T) {
	require.EqualValues(t, 255, LogByte(0))
	require.EqualValues(t, 0, LogByte(math.Inf(1)))
	require.EqualValues(t, 0, LogByte(1e9))
	prev := LogByte(0)
	for d := 0.0; d < 1e6; d = d*1.1 + 0.25 {
		s := LogByte(d)
		require.LessOrEqual(t, s, prev)
		prev = s
	}
}

func TestLogByteRoundTrip(t *testing.T) {
	bound := math.Exp(1.0 / 40)
	for _, d := range []float64{0.5, 1, 2, 3, 10, 42, 100, 1000, 50000} {
		s := LogByte(d)
		require.True(t, s > 0 && s < 255, "d=%v saturated", d)
		ratio := (DecodeLogByte(s) + 1) / (d + 1)
		require.LessOrEqual(t, ratio, bound+1e-12)
		require.GreaterOrEqual(t, ratio, 1/bound-1e-12)
	}
	require.Zero(t, DecodeLogByte(255))
	require.True(t, math.IsInf(DecodeLogByte(0), 1))
}

func TestEncodeField(t *testing.T) {
	f := &Field{Width: 2, Height: 1, Data: []float64{0, math.Inf(1)}, Georef: testGeo}
	r, err := EncodeField(f, EncodingLogByte)
	require.NoError(t, err)
	require.Equal(t, Byte, r.DataType)
	require.Equal(t, []float64{255, 0}, r.Data)

	r, err = EncodeField(f, EncodingFloat32)
	require.NoError(t, err)
	require.Equal(t, Float32, r.DataType)

	_, err = EncodeField(f, Encoding("png"))
	require.ErrorIs(t, err, ErrUnknownEncoding)
}

package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// 逐像元按定义计算的平滑结果
func bruteSmooth(r *Raster, weight func(dy, dx int) float64, size int) []float64 {
	half := size / 2
	out := make([]float64, len(r.Data))
	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			var num, den float64
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					rr, cc := row+dy, col+dx
					if rr < 0 || rr >= r.Height || cc < 0 || cc >= r.Width {
						continue
					}
					v := r.At(rr, cc)
					if r.IsNoData(v) {
						continue
					}
					w := weight(dy, dx)
					num += w * v
					den += w
				}
			}
			out[row*r.Width+col] = num / den
		}
	}
	return out
}

func rampRaster(w, h int) *Raster {
	r := NewRaster(w, h, testGeo, Float32)
	for i := range r.Data {
		r.Data[i] = float64((i*37)%11) + 0.5*float64(i%3)
	}
	return r
}

func TestParseKernel(t *testing.T) {
	k, err := ParseKernel("")
	require.NoError(t, err)
	require.Equal(t, KernelUniform, k)
	_, err = ParseKernel("box")
	require.ErrorIs(t, err, ErrUnknownKernel)
}

func TestSmoothConstant(t *testing.T) {
	for _, k := range []Kernel{KernelUniform, KernelDistance, KernelGaussian} {
		out, err := Smooth(filled(7, 5, 3), k, 5)
		require.NoError(t, err)
		require.Equal(t, Float32, out.DataType)
		for _, v := range out.Data {
			require.InDelta(t, 3, v, 1e-12, "kernel %s", k)
		}
	}
}

func TestSmoothMatchesDefinition(t *testing.T) {
	r := rampRaster(9, 7)
	r.HasNoData, r.NoData = true, 0
	cases := map[Kernel]func(dy, dx int) float64{
		KernelUniform:  func(_, _ int) float64 { return 1 },
		KernelDistance: func(dy, dx int) float64 { return 1 / (1 + math.Hypot(float64(dx), float64(dy))) },
		KernelGaussian: func(dy, dx int) float64 {
			return math.Exp(-float64(dx*dx)/8) * math.Exp(-float64(dy*dy)/8)
		},
	}
	for k, weight := range cases {
		out, err := Smooth(r, k, 5, WithSigma(2))
		require.NoError(t, err)
		want := bruteSmooth(r, weight, 5)
		for i, v := range r.Data {
			if r.IsNoData(v) {
				require.Equal(t, 0.0, out.Data[i])
				continue
			}
			require.InDelta(t, want[i], out.Data[i], 1e-9, "kernel %s pixel %d", k, i)
		}
	}
}

func TestSmoothKeepsNoData(t *testing.T) {
	r := filled(5, 5, 2)
	r.HasNoData, r.NoData = true, 255
	r.Set(2, 2, 255)
	r.Set(0, 0, 8)
	out, err := Smooth(r, KernelUniform, 3)
	require.NoError(t, err)
	require.True(t, out.HasNoData)
	require.Equal(t, 255.0, out.At(2, 2))
	// 左上角窗口内有效像元为(0,0),(0,1),(1,0),(1,1)
	require.InDelta(t, 3.5, out.At(0, 0), 1e-12)
	// (1,1)的窗口含中心nodata，按8个有效像元归一化
	require.InDelta(t, (8+2*7)/8.0, out.At(1, 1), 1e-12)
}

func TestSmoothSpreadsSinglePixel(t *testing.T) {
	r := NewRaster(5, 5, testGeo, Byte)
	r.Set(2, 2, 9)
	out, err := Smooth(r, KernelUniform, 3)
	require.NoError(t, err)
	require.InDelta(t, 1, out.At(2, 2), 1e-12)
	require.InDelta(t, 1, out.At(1, 1), 1e-12)
	require.Zero(t, out.At(0, 0))
}

func TestSmoothInvalidSize(t *testing.T) {
	for _, size := range []int{0, -3, 4} {
		_, err := Smooth(filled(3, 3, 1), KernelUniform, size)
		require.ErrorIs(t, err, ErrInvalidScale)
	}
	_, err := Smooth(filled(3, 3, 1), Kernel("box"), 3)
	require.ErrorIs(t, err, ErrUnknownKernel)

	out, err := Smooth(filled(3, 3, 4), KernelGaussian, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{4, 4, 4, 4, 4, 4, 4, 4, 4}, out.Data)
}

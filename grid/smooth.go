package grid

import (
	"fmt"
	"math"
)

// 平滑核，窗口边长须为正奇数
type Kernel string

const (
	KernelUniform  Kernel = "uniform"  // 窗口内等权平均
	KernelDistance Kernel = "distance" // 权重1/(1+d)，d为到窗口中心的像元距离
	KernelGaussian Kernel = "gaussian" // 默认sigma为半径/4
)

func ParseKernel(s string) (Kernel, error) {
	switch k := Kernel(s); k {
	case KernelUniform, KernelDistance, KernelGaussian:
		return k, nil
	case "":
		return KernelUniform, nil
	}
	return "", ErrUnknownKernel
}

type smoothOptions struct {
	sigma float64
}

type SmoothOption func(*smoothOptions)

// 高斯核的标准差（像元单位），<=0时使用默认值
func WithSigma(sigma float64) SmoothOption {
	return func(o *smoothOptions) {
		if sigma > 0 {
			o.sigma = sigma
		}
	}
}

func gaussianWeights(size int, sigma float64) []float64 {
	half := size / 2
	w := make([]float64, size)
	for i := range w {
		x := float64(i - half)
		w[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	return w
}

func uniformWeights(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 1
	}
	return w
}

// 一维可分离卷积，越界部分不参与
func convolve1D(src []float64, w, h int, k []float64, horizontal bool) []float64 {
	half := len(k) / 2
	dst := make([]float64, len(src))
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			var acc float64
			for i, kv := range k {
				r, c := row, col
				if horizontal {
					c += i - half
				} else {
					r += i - half
				}
				if r < 0 || r >= h || c < 0 || c >= w {
					continue
				}
				acc += kv * src[r*w+c]
			}
			dst[row*w+col] = acc
		}
	}
	return dst
}

func convolveSeparable(src []float64, w, h int, k []float64) []float64 {
	return convolve1D(convolve1D(src, w, h, k, true), w, h, k, false)
}

// 距离核不可分离，直接二维卷积
func convolveDistance(src []float64, w, h, size int) []float64 {
	half := size / 2
	k := make([]float64, size*size)
	for i := range k {
		dy, dx := float64(i/size-half), float64(i%size-half)
		k[i] = 1 / (1 + math.Hypot(dx, dy))
	}
	dst := make([]float64, len(src))
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			var acc float64
			for ky := 0; ky < size; ky++ {
				r := row + ky - half
				if r < 0 || r >= h {
					continue
				}
				for kx := 0; kx < size; kx++ {
					c := col + kx - half
					if c < 0 || c >= w {
						continue
					}
					acc += k[ky*size+kx] * src[r*w+c]
				}
			}
			dst[row*w+col] = acc
		}
	}
	return dst
}

// 邻域加权平滑，输出Float32。
// 权重按参与计算的有效像元归一化：nodata与影像外的像元不计入，输入为nodata的像元输出仍为nodata。
func Smooth(r *Raster, k Kernel, size int, opts ...SmoothOption) (out *Raster, err error) {
	if size < 1 || size%2 == 0 {
		err = fmt.Errorf("%w: kernel size %d must be a positive odd number", ErrInvalidScale, size)
		return
	}
	if k, err = ParseKernel(string(k)); err != nil {
		return
	}
	if err = r.Validate(); err != nil {
		return
	}
	o := smoothOptions{sigma: float64(size/2) / 4}
	for _, opt := range opts {
		opt(&o)
	}
	n := r.Width * r.Height
	val, valid := make([]float64, n), make([]float64, n)
	for i, v := range r.Data {
		if !r.IsNoData(v) {
			val[i], valid[i] = v, 1
		}
	}
	var num, den []float64
	switch {
	case k == KernelDistance:
		num = convolveDistance(val, r.Width, r.Height, size)
		den = convolveDistance(valid, r.Width, r.Height, size)
	default:
		weights := uniformWeights(size)
		if k == KernelGaussian && size > 1 && o.sigma > 0 {
			weights = gaussianWeights(size, o.sigma)
		}
		num = convolveSeparable(val, r.Width, r.Height, weights)
		den = convolveSeparable(valid, r.Width, r.Height, weights)
	}
	out = NewRaster(r.Width, r.Height, r.Georef, Float32)
	out.HasNoData, out.NoData = r.HasNoData, r.NoData
	for i := range out.Data {
		if valid[i] == 0 {
			out.Data[i] = r.NoData
			continue
		}
		out.Data[i] = num[i] / den[i]
	}
	return
}

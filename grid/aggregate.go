package grid

import (
	"fmt"
	"math"
)

// 聚合方式
type Mode string

const (
	ModeSum  Mode = "sum"  // 块内计数/求和，适用于密度，不可用于距离场
	ModeMax  Mode = "max"  // 块内最大值，适用于邻近度（值越大越近，如logbyte）
	ModeMin  Mode = "min"  // 块内最小值，适用于原始距离（最近边缘）
	ModeMean Mode = "mean" // 面积加权平均，适用于连续场

	scaleTolerance = 1e-6
	sizeTolerance  = 1e-9
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeSum, ModeMax, ModeMin, ModeMean:
		return m, nil
	}
	return "", ErrUnknownMode
}

// 将分辨率之比取整，偏差超过容差则返回false
func integralFactor(f float64) (n int, ok bool) {
	r := math.Round(f)
	if r < 1 || math.Abs(f-r) > scaleTolerance*r {
		return
	}
	return int(r), true
}

// 按目标分辨率聚合。sum/max/min要求比值为整数，mean支持非整数比值（按面积加权）。
// 末尾不足一块的部分被舍弃。
func AggregateToResolution(r *Raster, mode Mode, resX, resY float64) (out *Raster, err error) {
	if resX <= 0 || resY <= 0 {
		err = fmt.Errorf("%w: resolution %v x %v", ErrInvalidScale, resX, resY)
		return
	}
	pw, ph := r.Georef.Transform.PixelSize()
	if pw == 0 || ph == 0 {
		err = fmt.Errorf("%w: zero pixel size", ErrInvalidScale)
		return
	}
	fx, fy := resX/pw, resY/ph
	nx, okX := integralFactor(fx)
	ny, okY := integralFactor(fy)
	if okX && okY {
		return Aggregate(r, mode, nx, ny)
	}
	if mode != ModeMean {
		err = fmt.Errorf("%w: %s needs an integral factor, got %.6f x %.6f", ErrInvalidScale, mode, fx, fy)
		return
	}
	return aggregateWeighted(r, fx, fy)
}

// 按整数块大小聚合
func Aggregate(r *Raster, mode Mode, fx, fy int) (out *Raster, err error) {
	if _, err = ParseMode(string(mode)); err != nil {
		return
	}
	if err = r.Validate(); err != nil {
		return
	}
	if fx < 1 || fy < 1 {
		err = fmt.Errorf("%w: block %d x %d", ErrInvalidScale, fx, fy)
		return
	}
	ow, oh := r.Width/fx, r.Height/fy
	if ow == 0 || oh == 0 {
		err = fmt.Errorf("%w: block %d x %d larger than raster %d x %d", ErrInvalidScale, fx, fy, r.Width, r.Height)
		return
	}
	out = newAggregated(r, mode, ow, oh, float64(fx), float64(fy))
	for i := 0; i < oh; i++ {
		for j := 0; j < ow; j++ {
			var (
				sum   float64
				max   = math.Inf(-1)
				min   = math.Inf(1)
				count int
			)
			for row := i * fy; row < (i+1)*fy; row++ {
				base := row * r.Width
				for col := j * fx; col < (j+1)*fx; col++ {
					v := r.Data[base+col]
					if r.IsNoData(v) {
						continue
					}
					sum += v
					if v > max {
						max = v
					}
					if v < min {
						min = v
					}
					count++
				}
			}
			idx := i*ow + j
			if count == 0 {
				out.Data[idx] = out.NoData
				continue
			}
			switch mode {
			case ModeSum:
				out.Data[idx] = sum
			case ModeMax:
				out.Data[idx] = max
			case ModeMin:
				out.Data[idx] = min
			case ModeMean:
				out.Data[idx] = sum / float64(count)
			}
		}
	}
	return
}

func newAggregated(r *Raster, mode Mode, ow, oh int, fx, fy float64) *Raster {
	geo := Georef{Transform: r.Georef.Transform.Scale(fx, fy), Crs: r.Georef.Crs}
	dt := Float32
	if mode == ModeMax || mode == ModeMin {
		dt = r.DataType
	}
	out := NewRaster(ow, oh, geo, dt)
	out.HasNoData = r.HasNoData
	out.NoData = r.NoData
	return out
}

type span struct {
	idx    int
	weight float64
}

// 输出像元在输入轴上覆盖的像元及覆盖长度
func coverage(n int, f float64) [][]span {
	spans := make([][]span, n)
	for j := 0; j < n; j++ {
		x0, x1 := float64(j)*f, float64(j+1)*f
		for k := int(math.Floor(x0)); float64(k) < x1; k++ {
			w := math.Min(x1, float64(k+1)) - math.Max(x0, float64(k))
			if w > sizeTolerance {
				spans[j] = append(spans[j], span{k, w})
			}
		}
	}
	return spans
}

func aggregateWeighted(r *Raster, fx, fy float64) (out *Raster, err error) {
	if err = r.Validate(); err != nil {
		return
	}
	if fx < 1 || fy < 1 {
		err = fmt.Errorf("%w: factor %.6f x %.6f is not coarser", ErrInvalidScale, fx, fy)
		return
	}
	ow := int(math.Floor(float64(r.Width)/fx + sizeTolerance))
	oh := int(math.Floor(float64(r.Height)/fy + sizeTolerance))
	if ow == 0 || oh == 0 {
		err = fmt.Errorf("%w: factor larger than raster", ErrInvalidScale)
		return
	}
	out = newAggregated(r, ModeMean, ow, oh, fx, fy)
	cols := coverage(ow, fx)
	rows := coverage(oh, fy)
	for i, rs := range rows {
		for j, cs := range cols {
			var sum, wsum float64
			for _, rw := range rs {
				if rw.idx >= r.Height {
					continue
				}
				base := rw.idx * r.Width
				for _, cw := range cs {
					if cw.idx >= r.Width {
						continue
					}
					v := r.Data[base+cw.idx]
					if r.IsNoData(v) {
						continue
					}
					w := rw.weight * cw.weight
					sum += v * w
					wsum += w
				}
			}
			if wsum == 0 {
				out.Data[i*ow+j] = out.NoData
			} else {
				out.Data[i*ow+j] = sum / wsum
			}
		}
	}
	return
}

// 最近邻重采样到目标分辨率（仅北向上），范围不变，尺寸向上取整
func ResampleNearest(r *Raster, resX, resY float64) (out *Raster, err error) {
	if err = r.Validate(); err != nil {
		return
	}
	a := r.Georef.Transform
	if !a.IsNorthUp() {
		err = ErrRotatedGrid
		return
	}
	if resX <= 0 || resY <= 0 {
		err = fmt.Errorf("%w: resolution %v x %v", ErrInvalidScale, resX, resY)
		return
	}
	b := r.Bounds()
	ow := ceilSize((b.MaxX - b.MinX) / resX)
	oh := ceilSize((b.MaxY - b.MinY) / resY)
	dst := Affine{a[0], math.Copysign(resX, a[1]), 0, a[3], 0, math.Copysign(resY, a[5])}
	out = NewRaster(ow, oh, Georef{Transform: dst, Crs: r.Georef.Crs}, r.DataType)
	out.HasNoData = r.HasNoData
	out.NoData = r.NoData
	srcCols := make([]int, ow)
	for j := range srcCols {
		x, _ := dst.Apply(float64(j)+0.5, 0)
		c, _ := a.Invert(x, a[3])
		srcCols[j] = clampIndex(int(math.Floor(c)), r.Width)
	}
	for i := 0; i < oh; i++ {
		_, y := dst.Apply(0, float64(i)+0.5)
		_, rf := a.Invert(a[0], y)
		row := clampIndex(int(math.Floor(rf)), r.Height)
		base := row * r.Width
		for j, col := range srcCols {
			out.Data[i*ow+j] = r.Data[base+col]
		}
	}
	return
}

// 最近邻重采样到参考网格（仅北向上，坐标系须一致），参考网格中落在src范围外及src为nodata的像元填fill，
// 输出以fill为nodata
func ResampleOnto(src *Raster, ref Georef, width, height int, fill float64) (out *Raster, err error) {
	if err = src.Validate(); err != nil {
		return
	}
	a, dst := src.Georef.Transform, ref.Transform
	if !a.IsNorthUp() || !dst.IsNorthUp() {
		err = ErrRotatedGrid
		return
	}
	if width <= 0 || height <= 0 {
		err = ErrShapeMismatch
		return
	}
	out = NewRaster(width, height, ref, src.DataType)
	out.HasNoData, out.NoData = true, fill
	srcCols := make([]int, width)
	for j := range srcCols {
		x, _ := dst.Apply(float64(j)+0.5, 0)
		c, _ := a.Invert(x, a[3])
		srcCols[j] = int(math.Floor(c))
	}
	for i := 0; i < height; i++ {
		_, y := dst.Apply(0, float64(i)+0.5)
		_, rf := a.Invert(a[0], y)
		row := int(math.Floor(rf))
		for j, col := range srcCols {
			v := fill
			if row >= 0 && row < src.Height && col >= 0 && col < src.Width {
				if sv := src.Data[row*src.Width+col]; !src.IsNoData(sv) {
					v = sv
				}
			}
			out.Data[i*width+j] = v
		}
	}
	return
}

func ceilSize(v float64) int {
	n := int(math.Ceil(v - sizeTolerance))
	if n < 1 {
		n = 1
	}
	return n
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

package grid

import "math"

const isotropyTolerance = 1e-9

// GDAL顺序的仿射系数：
// x = a[0] + col*a[1] + row*a[2]
// y = a[3] + col*a[4] + row*a[5]
type Affine [6]float64

// 地理范围
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b Bounds) Empty() bool {
	return b.MaxX <= b.MinX || b.MaxY <= b.MinY
}

func (b Bounds) Intersect(o Bounds) (ret Bounds, ok bool) {
	ret = Bounds{
		MinX: math.Max(b.MinX, o.MinX),
		MinY: math.Max(b.MinY, o.MinY),
		MaxX: math.Min(b.MaxX, o.MaxX),
		MaxY: math.Min(b.MaxY, o.MaxY),
	}
	ok = !ret.Empty()
	return
}

func (a Affine) Apply(col, row float64) (x, y float64) {
	x = a[0] + col*a[1] + row*a[2]
	y = a[3] + col*a[4] + row*a[5]
	return
}

// 北向上（无旋转）
func (a Affine) IsNorthUp() bool {
	return a[2] == 0 && a[4] == 0
}

// 像元宽高（绝对值）
func (a Affine) PixelSize() (w, h float64) {
	w = math.Hypot(a[1], a[4])
	h = math.Hypot(a[2], a[5])
	return
}

// 像元是否为正方形，距离变换只有在此时才具有地理意义
func (a Affine) IsIsotropic() bool {
	w, h := a.PixelSize()
	return math.Abs(w-h) <= isotropyTolerance*math.Max(w, h)
}

// 按块大小缩放像元尺寸，原点不变
func (a Affine) Scale(fx, fy float64) Affine {
	return Affine{a[0], a[1] * fx, a[2] * fy, a[3], a[4] * fx, a[5] * fy}
}

// 平移到(col,row)像元的左上角
func (a Affine) Offset(col, row int) Affine {
	x, y := a.Apply(float64(col), float64(row))
	return Affine{x, a[1], a[2], y, a[4], a[5]}
}

// 北向上影像的像元坐标，返回浮点列行号
func (a Affine) Invert(x, y float64) (col, row float64) {
	col = (x - a[0]) / a[1]
	row = (y - a[3]) / a[5]
	return
}

func (a Affine) Bounds(width, height int) (b Bounds) {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = a.Apply(0, 0)
	xs[1], ys[1] = a.Apply(float64(width), 0)
	xs[2], ys[2] = a.Apply(0, float64(height))
	xs[3], ys[3] = a.Apply(float64(width), float64(height))
	b = Bounds{MinX: xs[0], MinY: ys[0], MaxX: xs[0], MaxY: ys[0]}
	for i := 1; i < 4; i++ {
		b.MinX = math.Min(b.MinX, xs[i])
		b.MaxX = math.Max(b.MaxX, xs[i])
		b.MinY = math.Min(b.MinY, ys[i])
		b.MaxY = math.Max(b.MaxY, ys[i])
	}
	return
}

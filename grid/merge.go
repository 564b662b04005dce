package grid

import (
	"math"
)

const resolutionTolerance = 1e-9

// 两景影像的公共范围
func Intersect(a, b *Raster) (ret Bounds, err error) {
	ret, ok := a.Bounds().Intersect(b.Bounds())
	if !ok {
		err = ErrNoOverlap
	}
	return
}

func sameResolution(a, b Affine) bool {
	aw, ah := a.PixelSize()
	bw, bh := b.PixelSize()
	return math.Abs(aw-bw) <= resolutionTolerance*aw && math.Abs(ah-bh) <= resolutionTolerance*ah
}

// 按地理范围裁剪（仅北向上），范围取整到像元网格
func Window(r *Raster, b Bounds) (out *Raster, err error) {
	a := r.Georef.Transform
	if !a.IsNorthUp() {
		err = ErrRotatedGrid
		return
	}
	c0, r0 := a.Invert(b.MinX, b.MaxY)
	c1, r1 := a.Invert(b.MaxX, b.MinY)
	if c0 > c1 {
		c0, c1 = c1, c0
	}
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	col0 := clampOffset(int(math.Round(c0)), r.Width)
	row0 := clampOffset(int(math.Round(r0)), r.Height)
	col1 := clampOffset(int(math.Round(c1)), r.Width)
	row1 := clampOffset(int(math.Round(r1)), r.Height)
	if col1 <= col0 || row1 <= row0 {
		err = ErrNoOverlap
		return
	}
	return crop(r, col0, row0, col1-col0, row1-row0), nil
}

func crop(r *Raster, col0, row0, w, h int) *Raster {
	out := NewRaster(w, h, Georef{Transform: r.Georef.Transform.Offset(col0, row0), Crs: r.Georef.Crs}, r.DataType)
	out.HasNoData = r.HasNoData
	out.NoData = r.NoData
	out.Bands = r.Bands
	for i := 0; i < h; i++ {
		copy(out.Data[i*w:(i+1)*w], r.Data[(row0+i)*r.Width+col0:(row0+i)*r.Width+col0+w])
	}
	return out
}

func clampOffset(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// 两景同分辨率影像裁剪到公共范围，尺寸不一致时取较小者
func ClipToCommon(a, b *Raster) (ca, cb *Raster, err error) {
	if !sameResolution(a.Georef.Transform, b.Georef.Transform) {
		err = ErrShapeMismatch
		return
	}
	bounds, err := Intersect(a, b)
	if err != nil {
		return
	}
	if ca, err = Window(a, bounds); err != nil {
		return
	}
	if cb, err = Window(b, bounds); err != nil {
		return
	}
	w, h := ca.Width, ca.Height
	if cb.Width < w {
		w = cb.Width
	}
	if cb.Height < h {
		h = cb.Height
	}
	if w != ca.Width || h != ca.Height {
		ca = crop(ca, 0, 0, w, h)
	}
	if w != cb.Width || h != cb.Height {
		cb = crop(cb, 0, 0, w, h)
	}
	return
}

// 主影像为nodata处取备用影像的值
func Overlay(primary, fallback *Raster) (out *Raster, err error) {
	if primary.Width != fallback.Width || primary.Height != fallback.Height {
		err = ErrShapeMismatch
		return
	}
	out = primary.Clone()
	for i, v := range primary.Data {
		if primary.IsNoData(v) {
			out.Data[i] = fallback.Data[i]
		}
	}
	return
}

// 将src按像元偏移放入ref的网格，ref范围外的部分被丢弃，空白处填nodata（无则0）
func PadTo(src *Raster, ref Georef, width, height int) (out *Raster, err error) {
	sa, ra := src.Georef.Transform, ref.Transform
	if !sa.IsNorthUp() || !ra.IsNorthUp() {
		err = ErrRotatedGrid
		return
	}
	if !sameResolution(sa, ra) {
		err = ErrShapeMismatch
		return
	}
	offX := int(math.Round((sa[0] - ra[0]) / ra[1]))
	offY := int(math.Round((sa[3] - ra[3]) / ra[5]))
	out = NewRaster(width, height, Georef{Transform: ra, Crs: src.Georef.Crs}, src.DataType)
	out.HasNoData = src.HasNoData
	out.NoData = src.NoData
	if src.HasNoData {
		for i := range out.Data {
			out.Data[i] = src.NoData
		}
	}
	copied := false
	for row := 0; row < src.Height; row++ {
		dr := row + offY
		if dr < 0 || dr >= height {
			continue
		}
		c0, c1 := offX, offX+src.Width
		s0 := 0
		if c0 < 0 {
			s0 = -c0
			c0 = 0
		}
		if c1 > width {
			c1 = width
		}
		if c1 <= c0 {
			continue
		}
		copy(out.Data[dr*width+c0:dr*width+c1], src.Data[row*src.Width+s0:row*src.Width+s0+c1-c0])
		copied = true
	}
	if !copied {
		out = nil
		err = ErrNoOverlap
	}
	return
}

package forestedge

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/wgdzlh/forestedge/grid"
	"github.com/wgdzlh/forestedge/log"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// 取有效像元的最小/最大值，用于线性拉伸
func valueRange(r *grid.Raster) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range r.Data {
		if r.IsNoData(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	return
}

func stretch(r *grid.Raster) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	lo, hi, ok := valueRange(r)
	if !ok {
		return img
	}
	span := hi - lo
	for i, v := range r.Data {
		switch {
		case r.IsNoData(v):
			continue
		case math.IsInf(v, 1):
			img.Pix[i] = math.MaxUint8
		case math.IsInf(v, -1):
		case span == 0:
			img.Pix[i] = math.MaxUint8
		default:
			img.Pix[i] = uint8(math.Round((v - lo) / span * math.MaxUint8))
		}
	}
	return img
}

// 输出灰度PNG快视图，长边超过maxSize时等比缩小
func (g *Toolbox) WritePreview(r *grid.Raster, path string, maxSize int) (err error) {
	if err = r.Validate(); err != nil {
		return
	}
	if maxSize <= 0 {
		maxSize = PREVIEW_MAX_SIZE
	}
	var dst image.Image = stretch(r)
	if long := max(r.Width, r.Height); long > maxSize {
		k := float64(maxSize) / float64(long)
		w := max(1, int(math.Round(float64(r.Width)*k)))
		h := max(1, int(math.Round(float64(r.Height)*k)))
		scaled := image.NewGray(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), dst, dst.Bounds(), draw.Src, nil)
		dst = scaled
	}
	if err = os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	err = multierr.Append(png.Encode(f, dst), f.Close())
	if err != nil {
		log.Error(g.logTag+"write preview failed", zap.String("png", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	b := dst.Bounds()
	log.Info(g.logTag+"preview written", zap.String("png", path), zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	return
}

package forestedge

import (
	"fmt"

	"github.com/wgdzlh/forestedge/grid"
	"github.com/wgdzlh/forestedge/log"
	"github.com/wgdzlh/forestedge/utils"

	"go.uber.org/zap"
)

// 坐标系不一致或无法解析时返回错误
func (g *Toolbox) checkSameCrs(a, b string) (err error) {
	same, err := g.SameCrs(a, b)
	if err != nil {
		return
	}
	if !same {
		err = ErrCrsMismatch
	}
	return
}

// 将两景影像裁剪到公共范围，输出：主影像裁剪结果、nodata置0结果、主影像nodata处由备用影像补全的结果
func (g *Toolbox) ClipMerge(primary, fallback, out string) (outs []string, err error) {
	log.Info(g.logTag+"start clip merge", zap.String("primary", primary), zap.String("fallback", fallback))
	a, err := g.ReadRaster(primary)
	if err != nil {
		return
	}
	b, err := g.ReadRaster(fallback)
	if err != nil {
		return
	}
	if err = g.checkSameCrs(a.Georef.Crs, b.Georef.Crs); err != nil {
		return
	}
	ca, cb, err := grid.ClipToCommon(a, b)
	if err != nil {
		log.Error(g.logTag+"no overlapping area found", zap.String("primary", primary), zap.String("fallback", fallback), zap.Error(err))
		return
	}
	merged, err := grid.Overlay(ca, cb)
	if err != nil {
		return
	}
	products := []struct {
		path string
		r    *grid.Raster
	}{
		{utils.InsertSuffix(out, SUFFIX_CLIPPED), ca},
		{utils.InsertSuffix(out, SUFFIX_NODATA_ZERO), grid.FillNoData(ca, 0)},
		{out, merged},
	}
	for _, p := range products {
		if err = g.WriteRaster(p.path, p.r); err != nil {
			return
		}
		outs = append(outs, p.path)
	}
	return
}

// 将影像按像元偏移放入参考影像的范围与网格
func (g *Toolbox) PadToReference(src, ref, out string) (err error) {
	r, err := g.ReadRaster(src)
	if err != nil {
		return
	}
	info, err := g.Info(ref)
	if err != nil {
		return
	}
	refGeo := grid.Georef{Transform: grid.Affine(info.Transform), Crs: info.Crs}
	if err = g.checkSameCrs(r.Georef.Crs, refGeo.Crs); err != nil {
		return
	}
	padded, err := grid.PadTo(r, refGeo, info.Width, info.Height)
	if err != nil {
		log.Error(g.logTag+"pad raster failed", zap.String("src", src), zap.String("ref", ref), zap.Error(err))
		return
	}
	padded.Georef.Crs = refGeo.Crs
	return g.WriteRaster(out, padded)
}

type SubtractOptions struct {
	Loss       grid.Predicate // 判定为损失的像元，默认 value >= 1（损失年份）
	Multiplier float64        // 结果乘数，0视为1
	Resolution float64        // >0时按面积加权平均聚合到该分辨率
	DataType   grid.DataType
}

// 从森林覆盖中剔除损失像元
func (g *Toolbox) SubtractLoss(forest, loss, out string, opts SubtractOptions) (err error) {
	log.Info(g.logTag+"start subtract loss", zap.String("forest", forest), zap.String("loss", loss))
	fr, err := g.ReadRaster(forest)
	if err != nil {
		return
	}
	lr, err := g.ReadRaster(loss)
	if err != nil {
		return
	}
	if fr.Width != lr.Width || fr.Height != lr.Height {
		if fr, lr, err = grid.ClipToCommon(fr, lr); err != nil {
			return
		}
	}
	pred := opts.Loss
	if pred == nil {
		pred = grid.Threshold{Min: 1}
	}
	lm, err := grid.BuildMask(lr, pred)
	if err != nil {
		return
	}
	res, err := grid.ApplyMask(grid.FillNoData(fr, 0), lm, 0)
	if err != nil {
		return
	}
	if opts.Multiplier != 0 && opts.Multiplier != 1 {
		res = grid.Multiply(res, opts.Multiplier)
	}
	if opts.Resolution > 0 {
		if res, err = grid.AggregateToResolution(res, grid.ModeMean, opts.Resolution, opts.Resolution); err != nil {
			return
		}
	}
	log.Info(g.logTag+"loss subtracted", zap.Int("loss_pixels", lm.Count()), zap.String("out", out))
	err = g.WriteRaster(out, res, WriteOptions{DataType: opts.DataType})
	if err != nil {
		err = fmt.Errorf("subtract loss: %w", err)
	}
	return
}

package forestedge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/forestedge/grid"
	"github.com/wgdzlh/forestedge/log"
	"github.com/wgdzlh/forestedge/utils"

	"go.uber.org/zap"
)

type LandMaskOptions struct {
	RefSuffix string    // 参考切片文件名后缀，默认landpercentage.tif
	Values    []float64 // 参考切片中视为陆地的取值，默认254
}

func (o LandMaskOptions) withDefaults() LandMaskOptions {
	if o.RefSuffix == "" {
		o.RefSuffix = LAND_REF_SUFFIX
	}
	if len(o.Values) == 0 {
		o.Values = []float64{LAND_VALUE}
	}
	return o
}

// 在refDir下（递归）查找与tif同一切片编号的参考切片
func (g *Toolbox) FindReference(refDir, tif, suffix string) (ref string, err error) {
	code, ok := utils.TileCode(tif)
	if !ok {
		err = fmt.Errorf("%w: no tile code in %s", ErrResourceNotFound, filepath.Base(tif))
		return
	}
	paths, err := utils.WalkFilesWithSuffix(refDir, suffix)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	for _, p := range paths {
		if strings.Contains(utils.NormalizeName(filepath.Base(p)), code) {
			ref = p
			return
		}
	}
	err = fmt.Errorf("%w: no reference for tile %s in %s", ErrResourceNotFound, code, refDir)
	return
}

// 重采样到参考网格并剔除非陆地像元：非陆地置0，无数据处为-9999
func landMasked(r, ref *grid.Raster, values []float64) (out *grid.Raster, err error) {
	out, err = grid.ResampleOnto(r, ref.Georef, ref.Width, ref.Height, LAND_NODATA)
	if err != nil {
		return
	}
	out.DataType = grid.Float32
	land, err := grid.BuildMask(ref, grid.NewValueSet(values...))
	if err != nil {
		return
	}
	return grid.ApplyMask(out, land.Invert(), 0)
}

// 按切片编号匹配参考切片，最近邻重采样到其网格后乘以陆地掩膜，输出float32
func (g *Toolbox) ApplyLandMask(src, refDir, out string, opts LandMaskOptions) (err error) {
	opts = opts.withDefaults()
	refPath, err := g.FindReference(refDir, src, opts.RefSuffix)
	if err != nil {
		log.Warn(g.logTag+"land reference not found", zap.String("src", src), zap.String("ref_dir", refDir), zap.Error(err))
		return
	}
	r, err := g.ReadRaster(src)
	if err != nil {
		return
	}
	ref, err := g.ReadRaster(refPath)
	if err != nil {
		return
	}
	if err = g.checkSameCrs(r.Georef.Crs, ref.Georef.Crs); err != nil {
		return
	}
	res, err := landMasked(r, ref, opts.Values)
	if err != nil {
		log.Error(g.logTag+"land mask failed", zap.String("src", src), zap.String("ref", refPath), zap.Error(err))
		return
	}
	return g.WriteRaster(out, res, WriteOptions{
		Metadata: map[string]string{MD_LAND_REFERENCE: filepath.Base(refPath)},
	})
}

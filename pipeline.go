package forestedge

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/wgdzlh/forestedge/grid"
	"github.com/wgdzlh/forestedge/log"
	"github.com/wgdzlh/forestedge/utils"

	"go.uber.org/zap"
)

type tileRun struct {
	g       *Toolbox
	s       *Settings
	input   string
	outputs []string
	land    *grid.Raster // 陆地参考切片，未配置时为nil
	landRef string
}

func (t *tileRun) output(suffix string) string {
	return utils.DeriveOutput(t.input, t.s.OutputDir, t.s.Strip, suffix)
}

func (t *tileRun) write(product, suffix string, r *grid.Raster, opts WriteOptions) (err error) {
	out := t.output(suffix)
	if opts.Metadata == nil {
		opts.Metadata = map[string]string{}
	}
	opts.Metadata[MD_SOURCE] = filepath.Base(t.input)
	if err = t.g.WriteRaster(out, r, opts); err != nil {
		return
	}
	t.outputs = append(t.outputs, out)
	if t.land == nil || !t.s.landMasked(product) {
		return
	}
	masked, err := landMasked(r, t.land, t.s.LandMask.Values)
	if err != nil {
		return fmt.Errorf("land mask %s: %w", product, err)
	}
	opts.DataType = grid.Unknown
	opts.Metadata[MD_LAND_REFERENCE] = filepath.Base(t.landRef)
	processed := utils.InsertSuffix(out, SUFFIX_PROCESSED)
	if err = t.g.WriteRaster(processed, masked, opts); err != nil {
		return
	}
	t.outputs = append(t.outputs, processed)
	return
}

// 查找并读取本切片的陆地参考，找不到时仅告警，不输出*_processed
func (t *tileRun) loadLand(r *grid.Raster) (err error) {
	lm := t.s.LandMask
	if lm == nil {
		return
	}
	ref, e := t.g.FindReference(lm.RefDir, t.input, lm.RefSuffix)
	if e != nil {
		log.Warn(t.g.logTag+"skip land mask", zap.String("tile", filepath.Base(t.input)), zap.Error(e))
		return
	}
	land, err := t.g.ReadRaster(ref)
	if err != nil {
		return
	}
	if err = t.g.checkSameCrs(r.Georef.Crs, land.Georef.Crs); err != nil {
		return
	}
	t.land, t.landRef = land, ref
	return
}

func (t *tileRun) smooth(mask, edges *grid.Mask, density *grid.Raster) (err error) {
	m := t.s.Smooth
	var src *grid.Raster
	switch m.Source {
	case SmoothFromEdge:
		src = edges.Raster()
	case SmoothFromDensity:
		src = density
	default:
		src = mask.Raster()
	}
	if m.Multiplier != 1 {
		src = grid.Multiply(src, m.Multiplier)
	}
	k, err := grid.ParseKernel(m.Kernel)
	if err != nil {
		return
	}
	out, err := grid.Smooth(src, k, m.Size, grid.WithSigma(m.Sigma))
	if err != nil {
		return fmt.Errorf("smooth: %w", err)
	}
	return t.write(ProductSmoothed, SUFFIX_SMOOTHED, out, WriteOptions{
		Metadata: map[string]string{MD_SMOOTH_KERNEL: string(k)},
	})
}

func aggregateBy(r *grid.Raster, a *AggregateSettings) (out *grid.Raster, dt grid.DataType, err error) {
	mode, err := grid.ParseMode(a.Mode)
	if err != nil {
		return
	}
	if a.DataType != "" {
		if dt, err = grid.ParseDataType(a.DataType); err != nil {
			return
		}
	}
	if a.PreResolution > 0 {
		if r, err = grid.ResampleNearest(r, a.PreResolution, a.PreResolution); err != nil {
			return
		}
	}
	out, err = grid.AggregateToResolution(r, mode, a.Resolution, a.Resolution)
	return
}

func countNoData(r *grid.Raster) (n int) {
	for _, v := range r.Data {
		if r.IsNoData(v) {
			n++
		}
	}
	return
}

// 单个切片的完整流程：读取 -> 二值掩膜 -> 边缘 -> 距离场 -> 聚合
func (g *Toolbox) RunTile(ctx context.Context, s *Settings, path string) (res TileResult) {
	start := time.Now()
	t := &tileRun{g: g, s: s, input: path}
	res.Input = path
	defer func() {
		res.Outputs = t.outputs
		res.Duration = time.Since(start)
		if res.Err != nil {
			res.Error = res.Err.Error()
			log.Error(g.logTag+"tile failed", zap.String("tile", filepath.Base(path)), zap.Error(res.Err))
		} else {
			log.Info(g.logTag+"tile done", zap.String("tile", filepath.Base(path)), zap.Duration("cost", res.Duration))
		}
	}()
	res.Err = t.run(ctx)
	return
}

func (t *tileRun) run(ctx context.Context) (err error) {
	s := t.s
	r, err := t.g.ReadRaster(t.input)
	if err != nil {
		return
	}
	if err = t.loadLand(r); err != nil {
		return
	}
	pred, err := s.predicate()
	if err != nil {
		return
	}
	mask, err := grid.BuildMask(r, pred, grid.WithNoDataAs(s.Mask.NoDataAs))
	if err != nil {
		return
	}
	if n := countNoData(r); n > 0 {
		log.Debug(t.g.logTag+"nodata folded into mask", zap.String("tile", filepath.Base(t.input)),
			zap.Int("nodata", n), zap.Uint8("as", s.Mask.NoDataAs))
	}
	if s.wants(ProductBinary) {
		if err = t.write(ProductBinary, SUFFIX_BINARY, mask.Raster(), WriteOptions{}); err != nil {
			return
		}
	}
	if err = ctx.Err(); err != nil {
		return
	}
	edges := grid.DetectEdges(mask, grid.WithMinBackgroundNeighbors(s.Edge.MinBackgroundNeighbors))
	log.Debug(t.g.logTag+"edges detected", zap.Int("forest", mask.Count()), zap.Int("edge", edges.Count()))
	if s.wants(ProductEdge) {
		if err = t.write(ProductEdge, SUFFIX_EDGE, edges.Raster(), WriteOptions{}); err != nil {
			return
		}
	}
	var density *grid.Raster
	smoothDensity := s.wants(ProductSmoothed) && s.Smooth.Source == SmoothFromDensity
	if s.wants(ProductDensity) || smoothDensity {
		if err = ctx.Err(); err != nil {
			return
		}
		var dt grid.DataType
		if density, dt, err = aggregateBy(edges.Raster(), s.Density); err != nil {
			return
		}
		if s.wants(ProductDensity) {
			err = t.write(ProductDensity, SUFFIX_DENSITY, density, WriteOptions{
				DataType: dt,
				Metadata: map[string]string{MD_AGGREGATION_MODE: s.Density.Mode},
			})
			if err != nil {
				return
			}
		}
	}
	if s.wants(ProductSmoothed) {
		if err = ctx.Err(); err != nil {
			return
		}
		if err = t.smooth(mask, edges, density); err != nil {
			return
		}
	}
	if !s.wants(ProductDistance) && !s.wants(ProductDistanceAgg) {
		return
	}
	if err = ctx.Err(); err != nil {
		return
	}
	if !r.Georef.Transform.IsIsotropic() {
		log.Warn(t.g.logTag+"pixels not square, distance measured in pixel units", zap.String("tile", filepath.Base(t.input)))
	}
	target := edges
	if s.Distance.Source == DistanceFromMask {
		target = mask
	}
	enc, err := grid.ParseEncoding(s.Distance.Encoding)
	if err != nil {
		return
	}
	dist, err := grid.EncodeField(grid.DistanceTransform(target), enc)
	if err != nil {
		return
	}
	md := map[string]string{MD_DISTANCE_ENCODING: string(enc)}
	if s.wants(ProductDistance) {
		if err = t.write(ProductDistance, SUFFIX_DISTANCE, dist, WriteOptions{Metadata: md}); err != nil {
			return
		}
	}
	if s.wants(ProductDistanceAgg) {
		var (
			agg *grid.Raster
			dt  grid.DataType
		)
		if agg, dt, err = aggregateBy(dist, s.Distance.Aggregate); err != nil {
			return fmt.Errorf("distance aggregate: %w", err)
		}
		err = t.write(ProductDistanceAgg, SUFFIX_DISTANCE_AGG, agg, WriteOptions{
			DataType: dt,
			Metadata: map[string]string{
				MD_DISTANCE_ENCODING: string(enc),
				MD_AGGREGATION_MODE:  s.Distance.Aggregate.Mode,
			},
		})
	}
	return
}

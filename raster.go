package forestedge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/forestedge/grid"
	"github.com/wgdzlh/forestedge/log"

	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func (g *Toolbox) openRaster(tif string) (ds *godal.Dataset, err error) {
	if _, err = os.Stat(tif); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrResourceNotFound, tif)
		} else {
			err = fmt.Errorf("%w: %v", ErrIO, err)
		}
		return
	}
	if ds, err = godal.Open(tif, godal.RasterOnly()); err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: open %s: %v", ErrIO, tif, err)
	}
	return
}

// 读取Tif的一个波段（默认第1波段），记录源数据集的波段数
func (g *Toolbox) ReadRaster(tif string, band ...int) (r *grid.Raster, err error) {
	ds, err := g.openRaster(tif)
	if err != nil {
		return
	}
	defer ds.Close()
	idx := 1
	if len(band) > 0 && band[0] > 0 {
		idx = band[0]
	}
	tifBands := ds.Bands()
	bc := len(tifBands)
	if bc == 0 {
		err = ErrEmptyTif
		return
	}
	if idx > bc {
		log.Error(g.logTag+"tif bands not enough", zap.String("tif", tif), zap.Int("bands", bc), zap.Int("band", idx))
		err = fmt.Errorf("%w: band %d of %d", ErrUnsupportedRaster, idx, bc)
		return
	}
	b := tifBands[idx-1]
	bs := b.Structure()
	dt := fromGodalType(bs.DataType)
	if dt == grid.Unknown {
		log.Error(g.logTag+"tif data type not supported", zap.String("tif", tif), zap.String("dt", bs.DataType.String()))
		err = fmt.Errorf("%w: %s", ErrUnsupportedDataType, bs.DataType.String())
		return
	}
	gt, e := ds.GeoTransform()
	if e != nil {
		log.Warn(g.logTag+"tif without geotransform, use identity", zap.String("tif", tif))
		gt = identityTransform
	}
	r = grid.NewRaster(bs.SizeX, bs.SizeY, grid.Georef{Transform: grid.Affine(gt), Crs: ds.Projection()}, dt)
	r.Bands = bc
	if nd, ok := b.NoData(); ok {
		r.NoData = nd
		r.HasNoData = true
	}
	log.Info(g.logTag+"read tif band", zap.String("tif", tif), zap.Int("band", idx), zap.String("dt", dt.String()),
		zap.Int("width", bs.SizeX), zap.Int("height", bs.SizeY))
	if err = b.Read(0, 0, r.Data, bs.SizeX, bs.SizeY); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.String("tif", tif), zap.Error(err))
		r = nil
		err = fmt.Errorf("%w: read %s: %v", ErrIO, tif, err)
	}
	return
}

// 读取Tif基本信息，不读像元
func (g *Toolbox) Info(tif string) (info RasterInfo, err error) {
	ds, err := g.openRaster(tif)
	if err != nil {
		return
	}
	defer ds.Close()
	st := ds.Structure()
	info = RasterInfo{
		Path:     tif,
		Width:    st.SizeX,
		Height:   st.SizeY,
		Bands:    st.NBands,
		DataType: st.DataType.String(),
		Crs:      ds.Projection(),
	}
	if info.Transform, err = ds.GeoTransform(); err != nil {
		info.Transform = identityTransform
		err = nil
	}
	info.Bounds = grid.Affine(info.Transform).Bounds(st.SizeX, st.SizeY)
	if bands := ds.Bands(); len(bands) > 0 {
		if nd, ok := bands[0].NoData(); ok {
			info.NoData = &nd
		}
	}
	if info.Crs != "" {
		if srid, e := g.SridOfCrs(info.Crs); e == nil {
			info.Srid = srid
		}
	}
	return
}

// 统一转为WKT，便于写入GeoTIFF
func (g *Toolbox) crsWkt(crs string) (wkt string, err error) {
	if crs == "" || strings.HasPrefix(crs, "GEOGCS") || strings.HasPrefix(crs, "PROJCS") ||
		strings.HasPrefix(crs, "GEOGCRS") || strings.HasPrefix(crs, "PROJCRS") {
		wkt = crs
		return
	}
	ref, err := g.parseCrs(crs)
	if err != nil {
		return
	}
	defer ref.Destroy()
	return ref.ToWKT()
}

// 输出单波段LZW压缩GeoTIFF
func (g *Toolbox) WriteRaster(tif string, r *grid.Raster, opts ...WriteOptions) (err error) {
	if err = r.Validate(); err != nil {
		return
	}
	var o WriteOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	dt := o.DataType
	if dt == grid.Unknown {
		dt = r.DataType
	}
	gdt := toGodalType(dt)
	if gdt == godal.Unknown {
		err = fmt.Errorf("%w: %s", ErrUnsupportedDataType, dt)
		return
	}
	wkt, err := g.crsWkt(r.Georef.Crs)
	if err != nil {
		return
	}
	if err = os.MkdirAll(filepath.Dir(tif), os.ModePerm); err != nil {
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	ds, err := godal.Create(godal.GTiff, tif, 1, gdt, r.Width, r.Height,
		godal.CreationOption(LZW_OPTION, TILED_OPTION, BIGTIFF_OPTION))
	if err != nil {
		log.Error(g.logTag+"create tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrGdalDriverCreate, err)
		return
	}
	defer func() {
		err = multierr.Append(err, ds.Close())
		if err != nil {
			log.Error(g.logTag+"write tif failed", zap.String("tif", tif), zap.Error(err))
			if !errors.Is(err, ErrIO) {
				err = fmt.Errorf("%w: %v", ErrIO, err)
			}
		}
	}()
	err = multierr.Append(err, ds.SetGeoTransform([6]float64(r.Georef.Transform)))
	if wkt != "" {
		err = multierr.Append(err, ds.SetProjection(wkt))
	}
	b := ds.Bands()[0]
	if r.HasNoData {
		err = multierr.Append(err, b.SetNoData(r.NoData))
	} else {
		err = multierr.Append(err, ds.SetMetadata(MD_NODATA, MD_NODATA_NONE))
	}
	for k, v := range o.Metadata {
		err = multierr.Append(err, ds.SetMetadata(k, v))
	}
	if err != nil {
		return
	}
	err = b.Write(0, 0, castBuffer(r.Data, dt), r.Width, r.Height)
	if err == nil {
		log.Info(g.logTag+"tif written", zap.String("tif", tif), zap.String("dt", dt.String()),
			zap.Int("width", r.Width), zap.Int("height", r.Height))
	}
	return
}

// 将多景Tif拼接为一个VRT，再转为LZW压缩的GTiff；排序靠后的优先显示
func (g *Toolbox) Mosaic(tifs []string, out string) (err error) {
	if len(tifs) == 0 {
		err = ErrEmptyTif
		return
	}
	for _, t := range tifs {
		if _, e := os.Stat(t); e != nil {
			err = fmt.Errorf("%w: %s", ErrResourceNotFound, t)
			return
		}
	}
	if err = os.MkdirAll(filepath.Dir(out), os.ModePerm); err != nil {
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	tmpVrt := filepath.Join(g.tmpDir, fmt.Sprintf(TMP_VRT, uuid.NewString()))
	defer os.Remove(tmpVrt)
	log.Info(g.logTag+"mosaic rasters", zap.Int("tif_cnt", len(tifs)), zap.String("out", out))
	vrt, err := godal.BuildVRT(tmpVrt, tifs, []string{"-resolution", "highest", "-overwrite"})
	if err != nil {
		log.Error(g.logTag+"failed to build vrt", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	defer vrt.Close()
	finalDs, err := vrt.Translate(out, []string{"-of", "GTiff", "-co", LZW_OPTION, "-co", TILED_OPTION, "-co", BIGTIFF_OPTION})
	if err != nil {
		log.Error(g.logTag+"failed to translate vrt", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	if err = finalDs.Close(); err != nil {
		err = fmt.Errorf("%w: %v", ErrIO, err)
	}
	return
}

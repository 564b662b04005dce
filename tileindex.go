package forestedge

import (
	"os"
	"path/filepath"

	"github.com/wgdzlh/forestedge/log"
	"github.com/wgdzlh/forestedge/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 切片范围多边形，统一转换到4326
func (g *Toolbox) footprint(info RasterInfo) (geo gdal.Geometry, err error) {
	if info.Srid == 0 {
		err = ErrVoidSrid
		return
	}
	ref, err := g.getSridRef(info.Srid)
	if err != nil {
		return
	}
	if geo, err = gdal.CreateFromWKT(boundsToWkt(info.Bounds), ref); err != nil {
		log.Error(g.logTag+"create footprint failed", zap.String("tif", info.Path), zap.Error(err))
		return
	}
	if info.Srid == UNIVERSAL_SRID {
		return
	}
	tRef, err := g.getSridRef(UNIVERSAL_SRID)
	if err != nil {
		geo.Destroy()
		return
	}
	if err = geo.TransformTo(tRef); err != nil {
		log.Error(g.logTag+"footprint transform failed", zap.String("tif", info.Path), zap.Error(err))
		geo.Destroy()
	}
	return
}

func (g *Toolbox) initIndexLayer(layer gdal.Layer) (err error) {
	for _, name := range []string{FIELD_TILE, FIELD_LOCATION} {
		fd := gdal.CreateFieldDefinition(name, gdal.FT_String)
		fd.SetWidth(254)
		err = layer.CreateField(fd, false)
		fd.Destroy()
		if err != nil {
			return
		}
	}
	return
}

// 输出切片索引shp（4326），每个切片一个范围多边形，返回写入的要素数
func (g *Toolbox) WriteTileIndex(shp string, tifs []string) (n int, err error) {
	if len(tifs) == 0 {
		err = ErrEmptyTif
		return
	}
	ref, err := g.getSridRef(UNIVERSAL_SRID)
	if err != nil {
		return
	}
	if err = os.MkdirAll(filepath.Dir(shp), os.ModePerm); err != nil {
		return
	}
	log.Info(g.logTag+"output tile index", zap.String("shp", shp), zap.Int("tif_cnt", len(tifs)))
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	layer := ds.CreateLayer(utils.GetFilenameWithoutExt(shp), ref, gdal.GT_Polygon, []string{ENCODING_OPTION})
	if err = g.initIndexLayer(layer); err != nil {
		return
	}
	def := layer.Definition()
	for _, tif := range tifs {
		info, e := g.Info(tif)
		if e != nil {
			log.Warn(g.logTag+"skip tif in index", zap.String("tif", tif), zap.Error(e))
			continue
		}
		geo, e := g.footprint(info)
		if e != nil {
			continue
		}
		code, ok := utils.TileCode(tif)
		if !ok {
			code = utils.GetFilenameWithoutExt(tif)
		}
		feature := def.Create()
		feature.SetFieldString(0, utils.NormalizeName(code))
		feature.SetFieldString(1, tif)
		// FID由shp驱动按写入顺序分配
		if e = feature.SetGeometryDirectly(geo); e != nil {
			geo.Destroy()
		} else {
			e = layer.Create(feature)
		}
		feature.Destroy()
		if e != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.String("tif", tif), zap.Error(e))
			continue
		}
		n++
	}
	log.Info(g.logTag+"output tile index done", zap.String("shp", shp), zap.Int("total", len(tifs)), zap.Int("valid", n))
	return
}

// 一组切片的范围并集在目标区域（4326 WKT）中的覆盖率
func (g *Toolbox) CoverageRatio(aoiWkt string, tifs []string) (ratio float64, err error) {
	ref, err := g.getSridRef(UNIVERSAL_SRID)
	if err != nil {
		return
	}
	aoi, err := gdal.CreateFromWKT(aoiWkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse aoi wkt failed", zap.Error(err))
		err = ErrVoidSrid
		return
	}
	var (
		unionGeo = gdal.Create(gdal.GT_Polygon)
		subGeo   gdal.Geometry
		gc       = []destroyable{aoi, unionGeo}
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for _, tif := range tifs {
		var info RasterInfo
		if info, err = g.Info(tif); err != nil {
			return
		}
		if subGeo, err = g.footprint(info); err != nil {
			return
		}
		unionGeo = unionGeo.Union(subGeo)
		gc = append(gc, subGeo, unionGeo)
	}
	area := aoi.Area()
	if area == 0 {
		return
	}
	inter := aoi.Intersection(unionGeo)
	gc = append(gc, inter)
	ratio = inter.Area() / area
	log.Info(g.logTag+"got coverage ratio", zap.Float64("ratio", ratio))
	return
}

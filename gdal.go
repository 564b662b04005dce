package forestedge

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wgdzlh/forestedge/log"

	"github.com/airbusgeo/godal"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type Toolbox struct {
	refMap map[int]gdal.SpatialReference
	rLock  sync.Mutex
	tmpDir string
	logTag string
	client *http.Client
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

var registerOnce sync.Once

// 初始化工具箱，tmpDir为可选的临时目录路径（未提供的话为当前目录）
func NewToolbox(tmpDir ...string) *Toolbox {
	registerOnce.Do(godal.RegisterAll)
	g := &Toolbox{
		refMap: map[int]gdal.SpatialReference{},
		logTag: "Toolbox:",
		client: &http.Client{Timeout: 30 * time.Minute},
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (g *Toolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[srid]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil {
		log.Error(g.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		return
	}
	// 固定为(经度,纬度)的传统GIS轴序，与GeoTIFF的仿射变换一致
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[srid] = ref
	return
}

// 解析WKT或"EPSG:xxxx"等用户输入，返回的对象需调用方回收
func (g *Toolbox) parseCrs(crs string) (ref gdal.SpatialReference, err error) {
	ref = gdal.CreateSpatialReference("")
	if err = ref.SetFromUserInput(crs); err != nil {
		log.Error(g.logTag+"parse crs failed", zap.String("crs", crs), zap.Error(err))
		ref.Destroy()
		err = ErrVoidSrid
	}
	return
}

func (g *Toolbox) getSrid(sp gdal.SpatialReference) (srid int, err error) {
	rawId, ok := sp.AttrValue("AUTHORITY", 1)
	if !ok {
		if e := sp.AutoIdentifyEPSG(); e == nil {
			rawId, ok = sp.AttrValue("AUTHORITY", 1)
		}
	}
	if !ok {
		wkt, _ := sp.ToWKT()
		if strings.Contains(wkt, "WGS_1984") || strings.Contains(wkt, `"WGS 84"`) {
			rawId = strconv.Itoa(UNIVERSAL_SRID)
		} else {
			err = ErrVoidSrid
			return
		}
	}
	srid, err = strconv.Atoi(rawId)
	return
}

// 获取坐标系的EPSG编号
func (g *Toolbox) SridOfCrs(crs string) (srid int, err error) {
	if crs == "" {
		err = ErrVoidSrid
		return
	}
	ref, err := g.parseCrs(crs)
	if err != nil {
		return
	}
	defer ref.Destroy()
	return g.getSrid(ref)
}

// EPSG编号转WKT
func (g *Toolbox) CrsOfSrid(srid int) (wkt string, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	return ref.ToWKT()
}

// 判断两个坐标系是否相同，均为空时视为相同
func (g *Toolbox) SameCrs(a, b string) (same bool, err error) {
	if a == "" || b == "" {
		same = a == b
		return
	}
	if a == b {
		same = true
		return
	}
	refA, err := g.parseCrs(a)
	if err != nil {
		return
	}
	refB, err := g.parseCrs(b)
	if err != nil {
		refA.Destroy()
		return
	}
	gc := []destroyable{refA, refB}
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	same = refA.IsSame(refB)
	return
}

package grid

import (
	"math"
	"strings"
)

// 像元数据类型，与GDAL类型名保持一致
type DataType int

const (
	Unknown DataType = iota
	Byte
	UInt16
	Int16
	UInt32
	Int32
	Float32
	Float64
)

var dataTypeNames = [...]string{"Unknown", "Byte", "UInt16", "Int16", "UInt32", "Int32", "Float32", "Float64"}

func (d DataType) String() string {
	if d < 0 || int(d) >= len(dataTypeNames) {
		return dataTypeNames[0]
	}
	return dataTypeNames[d]
}

func ParseDataType(s string) (DataType, error) {
	for i, n := range dataTypeNames[1:] {
		if strings.EqualFold(n, s) {
			return DataType(i + 1), nil
		}
	}
	return Unknown, ErrUnsupportedDataType
}

// 地理参考：仿射变换及坐标系WKT
type Georef struct {
	Transform Affine
	Crs       string
}

// 单波段栅格，按行存储
type Raster struct {
	Width     int
	Height    int
	Data      []float64
	Georef    Georef
	NoData    float64
	HasNoData bool
	DataType  DataType
	Bands     int // 源数据集的波段数
}

func NewRaster(width, height int, geo Georef, dt DataType) *Raster {
	return &Raster{
		Width:    width,
		Height:   height,
		Data:     make([]float64, width*height),
		Georef:   geo,
		DataType: dt,
		Bands:    1,
	}
}

func (r *Raster) At(row, col int) float64 {
	return r.Data[row*r.Width+col]
}

func (r *Raster) Set(row, col int, v float64) {
	r.Data[row*r.Width+col] = v
}

// 是否为无效值（nodata或NaN）
func (r *Raster) IsNoData(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return r.HasNoData && v == r.NoData
}

func (r *Raster) Validate() error {
	if r.Width <= 0 || r.Height <= 0 || len(r.Data) != r.Width*r.Height {
		return ErrShapeMismatch
	}
	return nil
}

func (r *Raster) Bounds() Bounds {
	return r.Georef.Transform.Bounds(r.Width, r.Height)
}

func (r *Raster) Clone() *Raster {
	c := *r
	c.Data = make([]float64, len(r.Data))
	copy(c.Data, r.Data)
	return &c
}

// 二值掩膜，取值{0,1}
type Mask struct {
	Width  int
	Height int
	Data   []uint8
	Georef Georef
}

func NewMask(width, height int, geo Georef) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Data:   make([]uint8, width*height),
		Georef: geo,
	}
}

func (m *Mask) At(row, col int) uint8 {
	return m.Data[row*m.Width+col]
}

func (m *Mask) Count() (n int) {
	for _, v := range m.Data {
		n += int(v)
	}
	return
}

func (m *Mask) Invert() *Mask {
	out := NewMask(m.Width, m.Height, m.Georef)
	for i, v := range m.Data {
		out.Data[i] = 1 - v
	}
	return out
}

// 转为Byte栅格以便输出，掩膜不带nodata
func (m *Mask) Raster() *Raster {
	r := NewRaster(m.Width, m.Height, m.Georef, Byte)
	for i, v := range m.Data {
		r.Data[i] = float64(v)
	}
	return r
}

// 距离场，单位为像元
type Field struct {
	Width  int
	Height int
	Data   []float64
	Georef Georef
}

func (f *Field) At(row, col int) float64 {
	return f.Data[row*f.Width+col]
}

func (f *Field) Raster() *Raster {
	r := NewRaster(f.Width, f.Height, f.Georef, Float32)
	copy(r.Data, f.Data)
	return r
}

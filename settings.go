package forestedge

import (
	"errors"
	"fmt"
	"os"

	"github.com/wgdzlh/forestedge/grid"

	"gopkg.in/yaml.v2"
)

// 产品名
const (
	ProductBinary      = "binary"
	ProductEdge        = "edge"
	ProductDistance    = "distance"
	ProductDensity     = "density"
	ProductDistanceAgg = "distance_agg"
	ProductSmoothed    = "smoothed"

	DistanceFromEdge = "edge"
	DistanceFromMask = "mask"

	SmoothFromMask    = "mask"
	SmoothFromEdge    = "edge"
	SmoothFromDensity = "density"

	DefaultSmoothSize = 21
)

var allProducts = []string{ProductBinary, ProductEdge, ProductDistance, ProductDensity, ProductDistanceAgg, ProductSmoothed}

type MaskSettings struct {
	Threshold *float64  `yaml:"threshold"`
	Values    []float64 `yaml:"values"`
	Range     []float64 `yaml:"range"`
	Expr      string    `yaml:"expr"`
	NoDataAs  uint8     `yaml:"nodata_as"`
}

type EdgeSettings struct {
	MinBackgroundNeighbors int `yaml:"min_background_neighbors"`
}

type AggregateSettings struct {
	Mode          string  `yaml:"mode"`
	PreResolution float64 `yaml:"pre_resolution"` // 聚合前先最近邻重采样到该分辨率
	Resolution    float64 `yaml:"resolution"`
	DataType      string  `yaml:"dtype"`
}

type DistanceSettings struct {
	Encoding  string             `yaml:"encoding"`
	Source    string             `yaml:"source"`
	Aggregate *AggregateSettings `yaml:"aggregate"`
}

type SmoothSettings struct {
	Source     string  `yaml:"source"` // mask, edge或density
	Kernel     string  `yaml:"kernel"`
	Size       int     `yaml:"size"`
	Sigma      float64 `yaml:"sigma"`
	Multiplier float64 `yaml:"multiplier"` // 平滑前乘数，如100将0/1转为百分比
}

// 按参考切片剔除非陆地像元，输出*_processed.tif
type LandMaskSettings struct {
	RefDir    string    `yaml:"ref_dir"`
	RefSuffix string    `yaml:"ref_suffix"`
	Values    []float64 `yaml:"values"`
	Products  []string  `yaml:"products"` // 为空时处理全部已输出产品
}

// 批处理配置，输入须为单波段影像
type Settings struct {
	InputDir  string             `yaml:"input_dir"`
	OutputDir string             `yaml:"output_dir"`
	Suffix    string             `yaml:"suffix"`
	Strip     string             `yaml:"strip"`
	Workers   int                `yaml:"workers"`
	Products  []string           `yaml:"products"`
	Mask      MaskSettings       `yaml:"mask"`
	Edge      EdgeSettings       `yaml:"edge"`
	Distance  DistanceSettings   `yaml:"distance"`
	Density   *AggregateSettings `yaml:"density"`
	Smooth    *SmoothSettings    `yaml:"smooth"`
	LandMask  *LandMaskSettings  `yaml:"land_mask"`
}

func LoadSettings(path string) (s *Settings, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
		return
	}
	return ParseSettings(raw)
}

func ParseSettings(raw []byte) (s *Settings, err error) {
	s = &Settings{}
	if err = yaml.UnmarshalStrict(raw, s); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		s = nil
		return
	}
	s.ApplyDefaults()
	if err = s.Validate(); err != nil {
		s = nil
	}
	return
}

func (s *Settings) ApplyDefaults() {
	if s.Suffix == "" {
		s.Suffix = FILE_EXT_TIF
	}
	if s.Workers <= 0 {
		s.Workers = DEFAULT_WORKERS
	}
	if s.Edge.MinBackgroundNeighbors <= 0 {
		s.Edge.MinBackgroundNeighbors = grid.DefaultMinBackgroundNeighbors
	}
	if s.Distance.Encoding == "" {
		s.Distance.Encoding = string(grid.EncodingFloat32)
	}
	if s.Distance.Source == "" {
		s.Distance.Source = DistanceFromEdge
	}
	if s.Density != nil && s.Density.Mode == "" {
		s.Density.Mode = string(grid.ModeSum)
	}
	if s.Distance.Aggregate != nil && s.Distance.Aggregate.Mode == "" {
		s.Distance.Aggregate.Mode = string(nearestMode(s.Distance.Encoding))
	}
	if s.Smooth != nil {
		if s.Smooth.Source == "" {
			s.Smooth.Source = SmoothFromMask
		}
		if s.Smooth.Kernel == "" {
			s.Smooth.Kernel = string(grid.KernelUniform)
		}
		if s.Smooth.Size == 0 {
			s.Smooth.Size = DefaultSmoothSize
		}
		if s.Smooth.Multiplier == 0 {
			s.Smooth.Multiplier = 1
		}
	}
	if s.LandMask != nil {
		if s.LandMask.RefSuffix == "" {
			s.LandMask.RefSuffix = LAND_REF_SUFFIX
		}
		if len(s.LandMask.Values) == 0 {
			s.LandMask.Values = []float64{LAND_VALUE}
		}
	}
	if len(s.Products) == 0 {
		s.Products = []string{ProductEdge, ProductDistance}
		if s.Density != nil {
			s.Products = append(s.Products, ProductDensity)
		}
		if s.Distance.Aggregate != nil {
			s.Products = append(s.Products, ProductDistanceAgg)
		}
		if s.Smooth != nil {
			s.Products = append(s.Products, ProductSmoothed)
		}
	}
}

// 块内最近边缘：原始距离取最小值，logbyte越近值越大取最大值
func nearestMode(encoding string) grid.Mode {
	if grid.Encoding(encoding) == grid.EncodingLogByte {
		return grid.ModeMax
	}
	return grid.ModeMin
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
}

func (a *AggregateSettings) validate(name string) (err error) {
	if _, err = grid.ParseMode(a.Mode); err != nil {
		return invalid("%s mode %q", name, a.Mode)
	}
	if a.Resolution <= 0 {
		return invalid("%s resolution must be positive", name)
	}
	if a.PreResolution < 0 || (a.PreResolution > 0 && a.PreResolution > a.Resolution) {
		return invalid("%s pre_resolution must be finer than resolution", name)
	}
	if a.DataType != "" {
		if _, err = grid.ParseDataType(a.DataType); err != nil {
			return invalid("%s dtype %q", name, a.DataType)
		}
	}
	return
}

func (s *Settings) Validate() (err error) {
	if s.InputDir == "" || s.OutputDir == "" {
		return invalid("input_dir and output_dir are required")
	}
	set := 0
	if s.Mask.Threshold != nil {
		set++
	}
	if len(s.Mask.Values) > 0 {
		set++
	}
	if len(s.Mask.Range) > 0 {
		if len(s.Mask.Range) != 2 || s.Mask.Range[0] > s.Mask.Range[1] {
			return invalid("mask range must be [min, max]")
		}
		set++
	}
	if s.Mask.Expr != "" {
		if _, err = grid.NewExpression(s.Mask.Expr); err != nil {
			return invalid("mask expr: %v", err)
		}
		set++
	}
	if set > 1 {
		return invalid("only one of threshold, values, range, expr may be set")
	}
	if s.Mask.NoDataAs > 1 {
		return invalid("nodata_as must be 0 or 1")
	}
	if s.Edge.MinBackgroundNeighbors > 4 {
		return invalid("min_background_neighbors must be within 1..4")
	}
	if _, err = grid.ParseEncoding(s.Distance.Encoding); err != nil {
		return invalid("distance encoding %q", s.Distance.Encoding)
	}
	if s.Distance.Source != DistanceFromEdge && s.Distance.Source != DistanceFromMask {
		return invalid("distance source %q", s.Distance.Source)
	}
	if s.Density != nil {
		if err = s.Density.validate("density"); err != nil {
			return
		}
	}
	if s.Distance.Aggregate != nil {
		if err = s.Distance.Aggregate.validate("distance aggregate"); err != nil {
			return
		}
		// 距离不可求和，min/max须与编码方向一致
		near := nearestMode(s.Distance.Encoding)
		if m := grid.Mode(s.Distance.Aggregate.Mode); m != near && m != grid.ModeMean {
			return invalid("distance aggregate mode %q with %s encoding, use %s or mean", m, s.Distance.Encoding, near)
		}
	}
	if s.Smooth != nil {
		if err = s.Smooth.validate(s.Density != nil); err != nil {
			return
		}
	}
	if s.LandMask != nil && s.LandMask.RefDir == "" {
		return invalid("land_mask ref_dir is required")
	}
	for _, p := range s.Products {
		switch p {
		case ProductBinary, ProductEdge, ProductDistance:
		case ProductDensity:
			if s.Density == nil {
				return invalid("product density needs density settings")
			}
		case ProductDistanceAgg:
			if s.Distance.Aggregate == nil {
				return invalid("product distance_agg needs distance aggregate settings")
			}
		case ProductSmoothed:
			if s.Smooth == nil {
				return invalid("product smoothed needs smooth settings")
			}
		default:
			return invalid("unknown product %q, valid products are %v", p, allProducts)
		}
	}
	if s.LandMask != nil {
		for _, p := range s.LandMask.Products {
			if !s.wants(p) {
				return invalid("land_mask product %q is not produced", p)
			}
		}
	}
	if s.Workers < 1 {
		return invalid("workers must be positive")
	}
	return
}

func (m *SmoothSettings) validate(hasDensity bool) (err error) {
	switch m.Source {
	case SmoothFromMask, SmoothFromEdge:
	case SmoothFromDensity:
		if !hasDensity {
			return invalid("smooth source density needs density settings")
		}
	default:
		return invalid("smooth source %q", m.Source)
	}
	if _, err = grid.ParseKernel(m.Kernel); err != nil {
		return invalid("smooth kernel %q", m.Kernel)
	}
	if m.Size < 1 || m.Size%2 == 0 {
		return invalid("smooth size must be a positive odd number")
	}
	if m.Sigma < 0 {
		return invalid("smooth sigma must not be negative")
	}
	return
}

// 是否需要为该产品输出陆地掩膜结果
func (s *Settings) landMasked(product string) bool {
	if s.LandMask == nil {
		return false
	}
	if len(s.LandMask.Products) == 0 {
		return true
	}
	for _, p := range s.LandMask.Products {
		if p == product {
			return true
		}
	}
	return false
}

func (s *Settings) wants(product string) bool {
	for _, p := range s.Products {
		if p == product {
			return true
		}
	}
	return false
}

// 每个切片各自构造判定条件（表达式缓存非并发安全）
func (s *Settings) predicate() (p grid.Predicate, err error) {
	switch {
	case s.Mask.Threshold != nil:
		p = grid.Threshold{Min: *s.Mask.Threshold}
	case len(s.Mask.Values) > 0:
		p = grid.NewValueSet(s.Mask.Values...)
	case len(s.Mask.Range) == 2:
		p = grid.Range{Min: s.Mask.Range[0], Max: s.Mask.Range[1]}
	case s.Mask.Expr != "":
		p, err = grid.NewExpression(s.Mask.Expr)
	default:
		p = grid.Threshold{Min: 1}
	}
	return
}

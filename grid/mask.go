package grid

import (
	"fmt"
	"strings"

	goeval "github.com/edisonguo/govaluate"
)

// 像元值判定条件
type Predicate interface {
	Match(v float64) bool
}

// v >= Min
type Threshold struct {
	Min float64
}

func (t Threshold) Match(v float64) bool {
	return v >= t.Min
}

// Min <= v <= Max
type Range struct {
	Min, Max float64
}

func (r Range) Match(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type ValueSet map[float64]struct{}

func NewValueSet(vs ...float64) ValueSet {
	s := make(ValueSet, len(vs))
	for _, v := range vs {
		s[v] = struct{}{}
	}
	return s
}

func (s ValueSet) Match(v float64) bool {
	_, ok := s[v]
	return ok
}

const (
	exprVariable  = "value"
	exprCacheSize = 1 << 16
)

// 基于表达式的判定，如 "value >= 1 && value <= 19"
// 结果按像元值缓存，适用于整型影像
type Expression struct {
	expr  *goeval.EvaluableExpression
	src   string
	cache map[float64]bool
}

func NewExpression(src string) (e *Expression, err error) {
	if strings.TrimSpace(src) == "" {
		err = fmt.Errorf("%w: empty", ErrInvalidExpression)
		return
	}
	expr, err := goeval.NewEvaluableExpression(src)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidExpression, err)
		return
	}
	for _, token := range expr.Tokens() {
		if token.Kind != goeval.VARIABLE {
			continue
		}
		if name, ok := token.Value.(string); !ok || name != exprVariable {
			err = fmt.Errorf("%w: variable %v is not supported, only %q", ErrInvalidExpression, token.Value, exprVariable)
			return
		}
	}
	e = &Expression{expr: expr, src: src, cache: map[float64]bool{}}
	if _, err = e.eval(0); err != nil {
		e = nil
	}
	return
}

func (e *Expression) String() string {
	return e.src
}

func (e *Expression) eval(v float64) (ok bool, err error) {
	res, err := e.expr.Evaluate(map[string]interface{}{exprVariable: v})
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidExpression, err)
		return
	}
	ok, isBool := res.(bool)
	if !isBool {
		err = fmt.Errorf("%w: result %v is not boolean", ErrInvalidExpression, res)
	}
	return
}

// 非并发安全，每个切片任务应各自构造
func (e *Expression) Match(v float64) bool {
	if ok, hit := e.cache[v]; hit {
		return ok
	}
	ok, err := e.eval(v)
	if err != nil {
		ok = false
	}
	if len(e.cache) < exprCacheSize {
		e.cache[v] = ok
	}
	return ok
}

type maskOptions struct {
	noDataValue uint8
}

type MaskOption func(*maskOptions)

// nodata像元的掩膜取值，默认0（背景）
func WithNoDataAs(v uint8) MaskOption {
	return func(o *maskOptions) {
		if v > 1 {
			v = 1
		}
		o.noDataValue = v
	}
}

// 由判定条件生成二值掩膜
func BuildMask(r *Raster, p Predicate, opts ...MaskOption) (m *Mask, err error) {
	if r.Bands > 1 {
		err = ErrUnsupportedBandCount
		return
	}
	if err = r.Validate(); err != nil {
		return
	}
	o := maskOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	m = NewMask(r.Width, r.Height, r.Georef)
	for i, v := range r.Data {
		if r.IsNoData(v) {
			m.Data[i] = o.noDataValue
		} else if p.Match(v) {
			m.Data[i] = 1
		}
	}
	return
}

// 掩膜为1处的像元置为value，如从森林覆盖中剔除损失像元
func ApplyMask(r *Raster, m *Mask, value float64) (out *Raster, err error) {
	if r.Width != m.Width || r.Height != m.Height {
		err = ErrShapeMismatch
		return
	}
	out = r.Clone()
	for i, v := range m.Data {
		if v == 1 {
			out.Data[i] = value
		}
	}
	return
}

// 将nodata及NaN并入value，输出不再带nodata
func FillNoData(r *Raster, value float64) *Raster {
	out := r.Clone()
	for i, v := range out.Data {
		if r.IsNoData(v) {
			out.Data[i] = value
		}
	}
	out.HasNoData = false
	out.NoData = 0
	return out
}

// 逐像元乘以常数，如将0/1覆盖转为百分比
func Multiply(r *Raster, k float64) *Raster {
	out := r.Clone()
	for i, v := range out.Data {
		if !r.IsNoData(v) {
			out.Data[i] = v * k
		}
	}
	return out
}


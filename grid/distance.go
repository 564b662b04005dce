package grid

import (
	"math"
)

// 距离场存储方式，每次运行只能选择一种，并写入输出元数据
type Encoding string

const (
	EncodingFloat32 Encoding = "float32" // 原始像元距离
	EncodingLogByte Encoding = "logbyte" // 255 - 20*ln(d+1)，截断到0..255

	logByteMax   = 255
	logByteSlope = 20

	edtInf = 1e20
)

func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case EncodingFloat32, EncodingLogByte:
		return e, nil
	case "":
		return EncodingFloat32, nil
	}
	return "", ErrUnknownEncoding
}

// 精确欧氏距离变换：每个像元到最近的掩膜前景像元的距离（像元单位），前景本身为0。
// 掩膜无前景时全部为+Inf。像元非正方形时结果不具地理意义，由调用方检查Affine.IsIsotropic。
func DistanceTransform(m *Mask) *Field {
	w, h := m.Width, m.Height
	f := &Field{Width: w, Height: h, Data: make([]float64, w*h), Georef: m.Georef}
	for i, v := range m.Data {
		if v == 0 {
			f.Data[i] = edtInf
		}
	}
	n := w
	if h > n {
		n = h
	}
	var (
		line = make([]float64, n)
		out  = make([]float64, n)
		v    = make([]int, n)
		z    = make([]float64, n+1)
	)
	// 先按列，再按行
	for col := 0; col < w; col++ {
		for row := 0; row < h; row++ {
			line[row] = f.Data[row*w+col]
		}
		squaredEDT1D(line[:h], out[:h], v, z)
		for row := 0; row < h; row++ {
			f.Data[row*w+col] = out[row]
		}
	}
	for row := 0; row < h; row++ {
		copy(line[:w], f.Data[row*w:(row+1)*w])
		squaredEDT1D(line[:w], out[:w], v, z)
		copy(f.Data[row*w:(row+1)*w], out[:w])
	}
	for i, d := range f.Data {
		if d >= edtInf/2 {
			f.Data[i] = math.Inf(1)
		} else {
			f.Data[i] = math.Sqrt(d)
		}
	}
	return f
}

// 一维平方距离变换（抛物线下包络），Felzenszwalb & Huttenlocher
func squaredEDT1D(f, d []float64, v []int, z []float64) {
	n := len(f)
	if n == 0 {
		return
	}
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		fq := f[q] + float64(q*q)
		s := (fq - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		for s <= z[k] {
			k--
			s = (fq - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

// 距离的对数字节编码：d=0为255，单调不增，大距离饱和为0
func LogByte(d float64) uint8 {
	s := math.RoundToEven(logByteMax - logByteSlope*math.Log(d+1))
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	if s >= logByteMax {
		return logByteMax
	}
	return uint8(s)
}

// 对数字节解码，0为饱和值返回+Inf；非饱和值的(d+1)相对误差在exp(±1/40)内
func DecodeLogByte(s uint8) float64 {
	if s == 0 {
		return math.Inf(1)
	}
	if s == logByteMax {
		return 0
	}
	return math.Exp(float64(logByteMax-int(s))/logByteSlope) - 1
}

// 按编码方式将距离场转为可输出的栅格
func EncodeField(f *Field, enc Encoding) (r *Raster, err error) {
	switch enc {
	case EncodingFloat32:
		r = f.Raster()
	case EncodingLogByte:
		r = NewRaster(f.Width, f.Height, f.Georef, Byte)
		for i, d := range f.Data {
			r.Data[i] = float64(LogByte(d))
		}
	default:
		err = ErrUnknownEncoding
	}
	return
}

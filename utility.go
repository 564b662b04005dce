package forestedge

import (
	"fmt"
	"math"

	"github.com/wgdzlh/forestedge/grid"

	"github.com/airbusgeo/godal"
)

var (
	identityTransform = [6]float64{0, 1, 0, 0, 0, 1}
)

func boundsToWkt(b grid.Bounds) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", b.MinX, b.MaxX, b.MinY, b.MaxY)
}

func fromGodalType(dt godal.DataType) grid.DataType {
	switch dt {
	case godal.Byte:
		return grid.Byte
	case godal.UInt16:
		return grid.UInt16
	case godal.Int16:
		return grid.Int16
	case godal.UInt32:
		return grid.UInt32
	case godal.Int32:
		return grid.Int32
	case godal.Float32:
		return grid.Float32
	case godal.Float64:
		return grid.Float64
	}
	return grid.Unknown
}

func toGodalType(dt grid.DataType) godal.DataType {
	switch dt {
	case grid.Byte:
		return godal.Byte
	case grid.UInt16:
		return godal.UInt16
	case grid.Int16:
		return godal.Int16
	case grid.UInt32:
		return godal.UInt32
	case grid.Int32:
		return godal.Int32
	case grid.Float32:
		return godal.Float32
	case grid.Float64:
		return godal.Float64
	}
	return godal.Unknown
}

// 各类型可表示的取值范围，写出前截断以免GDAL按类型回绕
func typeRange(dt grid.DataType) (lo, hi float64) {
	switch dt {
	case grid.Byte:
		return 0, math.MaxUint8
	case grid.UInt16:
		return 0, math.MaxUint16
	case grid.Int16:
		return math.MinInt16, math.MaxInt16
	case grid.UInt32:
		return 0, math.MaxUint32
	case grid.Int32:
		return math.MinInt32, math.MaxInt32
	}
	return math.Inf(-1), math.Inf(1)
}

// 按输出类型截断并取整，浮点类型原样返回
func castBuffer(data []float64, dt grid.DataType) []float64 {
	if dt == grid.Float32 || dt == grid.Float64 {
		return data
	}
	lo, hi := typeRange(dt)
	out := make([]float64, len(data))
	for i, v := range data {
		switch {
		case math.IsNaN(v):
			out[i] = 0
		case v < lo:
			out[i] = lo
		case v > hi:
			out[i] = hi
		default:
			out[i] = math.Round(v)
		}
	}
	return out
}

package forestedge

import (
	"time"

	"github.com/wgdzlh/forestedge/grid"
)

// 栅格文件基本信息
type RasterInfo struct {
	Path      string      `json:"path"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Bands     int         `json:"bands"`
	DataType  string      `json:"dtype"`
	Transform [6]float64  `json:"transform"`
	Crs       string      `json:"crs"`
	Srid      int         `json:"srid,omitempty"`
	NoData    *float64    `json:"nodata,omitempty"`
	Bounds    grid.Bounds `json:"bounds"`
}

// 输出参数
type WriteOptions struct {
	DataType grid.DataType     // 为Unknown时使用栅格自身类型
	Metadata map[string]string // 附加元数据
}

// 单个切片的处理结果
type TileResult struct {
	Input    string        `json:"input"`
	Outputs  []string      `json:"outputs,omitempty"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (t TileResult) OK() bool {
	return t.Err == nil
}

// 切片下载请求，纬度/经度为切片左上角整度数
type DownloadRequest struct {
	BaseURL   string
	Prefix    string
	Lats      []int
	Lons      []int
	OutputDir string
	Workers   int
}

// 两个目录切片编号的差异
type TileSetDiff struct {
	OnlyInA []string `json:"only_in_a"`
	OnlyInB []string `json:"only_in_b"`
}

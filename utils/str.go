package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	tileCodePattern = regexp.MustCompile(`\d{2}[NS]_\d{3}[EW]`)
)

func StrToFloats(s, sep string) (rets []float64, err error) {
	var v float64
	for _, f := range strings.Split(s, sep) {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		if v, err = strconv.ParseFloat(f, 64); err != nil {
			return
		}
		rets = append(rets, v)
	}
	return
}

func StrToInts(s, sep string) (rets []int, err error) {
	var v int
	for _, f := range strings.Split(s, sep) {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		if v, err = strconv.Atoi(f); err != nil {
			return
		}
		rets = append(rets, v)
	}
	return
}

// "a:b:step" 形式的整数区间（含两端），step可为负
func StrToIntRange(s string) (rets []int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return StrToInts(s, ",")
	}
	var from, to, step int
	if from, err = strconv.Atoi(parts[0]); err != nil {
		return
	}
	if to, err = strconv.Atoi(parts[1]); err != nil {
		return
	}
	if step, err = strconv.Atoi(parts[2]); err != nil {
		return
	}
	if step == 0 || (to-from)*step < 0 {
		err = fmt.Errorf("invalid range %q", s)
		return
	}
	for v := from; (step > 0 && v <= to) || (step < 0 && v >= to); v += step {
		rets = append(rets, v)
	}
	return
}

// 统一为NFC，避免不同文件系统下的文件名不一致
func NormalizeName(s string) string {
	return norm.NFC.String(s)
}

// 从文件名中提取切片编号，如 10N_020W；无标准编号时取前两个下划线字段
func TileCode(path string) (code string, ok bool) {
	name := NormalizeName(filepath.Base(path))
	if code = tileCodePattern.FindString(name); code != "" {
		ok = true
		return
	}
	fields := strings.Split(GetFilenameWithoutExt(name), "_")
	if len(fields) < 2 {
		return
	}
	code, ok = fields[0]+"_"+fields[1], true
	return
}

// Hansen GFC 切片文件名，纬度两位、经度三位
func GfcTileName(prefix string, lat, lon int) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%s_%02d%s_%03d%s.tif", prefix, lat, ns, lon, ew)
}

func GetNowTimeTag() string {
	const tf = "20060102150405.000"
	t := time.Now().Format(tf)
	return t[:len(tf)-4] + t[len(tf)-3:]
}

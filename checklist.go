package forestedge

import (
	"fmt"
	"sort"

	"github.com/wgdzlh/forestedge/log"
	"github.com/wgdzlh/forestedge/utils"

	"go.uber.org/zap"
)

func tileCodes(dir string) (codes map[string]struct{}, err error) {
	files, err := utils.ListFilesWithSuffix(dir, FILE_EXT_TIF)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	codes = make(map[string]struct{}, len(files))
	for _, f := range files {
		if code, ok := utils.TileCode(f); ok {
			codes[utils.NormalizeName(code)] = struct{}{}
		}
	}
	return
}

func missingFrom(a, b map[string]struct{}) (ret []string) {
	for c := range a {
		if _, ok := b[c]; !ok {
			ret = append(ret, c)
		}
	}
	sort.Strings(ret)
	return
}

// 比较两个目录中的切片编号，列出仅在一侧出现的编号
func (g *Toolbox) CompareTileSets(dirA, dirB string) (diff TileSetDiff, err error) {
	a, err := tileCodes(dirA)
	if err != nil {
		return
	}
	b, err := tileCodes(dirB)
	if err != nil {
		return
	}
	diff.OnlyInA = missingFrom(a, b)
	diff.OnlyInB = missingFrom(b, a)
	log.Info(g.logTag+"tile sets compared", zap.Int("a", len(a)), zap.Int("b", len(b)),
		zap.Int("only_a", len(diff.OnlyInA)), zap.Int("only_b", len(diff.OnlyInB)))
	return
}

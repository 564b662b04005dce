package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// 同目录下的唯一临时文件路径
func GetUniqTmpPath(dir, ext string) string {
	return filepath.Join(dir, "."+uuid.NewString()+ext)
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// a/b/c.tif + "_edge" -> a/b/c_edge.tif
func InsertSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// 由输入文件名推导输出路径：from为空时在扩展名前追加to，否则将文件名中的from替换为to
func DeriveOutput(input, outDir, from, to string) string {
	name := filepath.Base(input)
	if from == "" || !strings.Contains(name, from) {
		name = InsertSuffix(name, to)
	} else {
		name = strings.Replace(name, from, to, 1)
	}
	return filepath.Join(outDir, name)
}

// 列出目录下（不递归）以suffix结尾的文件，按名称排序
func ListFilesWithSuffix(dir, suffix string) (paths []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return
}

// 递归列出目录下以suffix结尾的文件，按路径排序
func WalkFilesWithSuffix(dir, suffix string) (paths []string, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if e != nil {
			return e
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return
}

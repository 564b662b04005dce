package forestedge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wgdzlh/forestedge/log"
	"github.com/wgdzlh/forestedge/utils"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const reportName = "report_%s.json"

type batchReport struct {
	InputDir  string       `json:"input_dir"`
	OutputDir string       `json:"output_dir"`
	Total     int          `json:"total"`
	Failed    int          `json:"failed"`
	Cost      string       `json:"cost"`
	Tiles     []TileResult `json:"tiles"`
}

// 批量处理目录下所有切片，单个切片失败不影响其余切片；返回各切片结果及合并后的错误
func (g *Toolbox) RunBatch(ctx context.Context, s *Settings) (results []TileResult, err error) {
	if err = s.Validate(); err != nil {
		return
	}
	tiles, err := utils.ListFilesWithSuffix(s.InputDir, s.Suffix)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	if len(tiles) == 0 {
		log.Warn(g.logTag+"no tile found", zap.String("dir", s.InputDir), zap.String("suffix", s.Suffix))
		return
	}
	if err = os.MkdirAll(s.OutputDir, os.ModePerm); err != nil {
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	start := time.Now()
	log.Info(g.logTag+"start batch", zap.Int("tiles", len(tiles)), zap.Int("workers", s.Workers))
	results = make([]TileResult, len(tiles))
	cl := utils.NewConcLimiter(s.Workers)
	dispatched := 0
	for i, tile := range tiles {
		if !cl.Increase(ctx) {
			break
		}
		dispatched++
		go func(i int, tile string) {
			defer cl.Decrease()
			results[i] = g.RunTile(ctx, s, tile)
		}(i, tile)
	}
	cl.Wait()
	results = results[:dispatched]

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			err = multierr.Append(err, fmt.Errorf("%s: %w", filepath.Base(r.Input), r.Err))
		}
	}
	if ctx.Err() != nil && dispatched < len(tiles) {
		log.Warn(g.logTag+"batch cancelled", zap.Int("dispatched", dispatched), zap.Int("total", len(tiles)))
		err = multierr.Append(err, ctx.Err())
	}
	cost := time.Since(start)
	log.Info(g.logTag+"batch done", zap.Int("total", len(results)), zap.Int("failed", failed), zap.Duration("cost", cost))
	if e := g.writeReport(s, batchReport{
		InputDir:  s.InputDir,
		OutputDir: s.OutputDir,
		Total:     len(results),
		Failed:    failed,
		Cost:      cost.String(),
		Tiles:     results,
	}); e != nil {
		log.Warn(g.logTag+"write batch report failed", zap.Error(e))
	}
	return
}

func (g *Toolbox) writeReport(s *Settings, rep batchReport) (err error) {
	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(s.OutputDir, fmt.Sprintf(reportName, utils.GetNowTimeTag()))
	if err = os.WriteFile(path, raw, 0o644); err == nil {
		log.Info(g.logTag+"batch report written", zap.String("report", path))
	}
	return
}

package forestedge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/forestedge/log"
	"github.com/wgdzlh/forestedge/utils"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// 按经纬度网格下载切片，已存在的文件跳过；返回成功落盘（含已存在）的文件列表
func (g *Toolbox) DownloadTiles(ctx context.Context, req DownloadRequest) (files []string, err error) {
	if req.BaseURL == "" {
		req.BaseURL = GFC_BASE_URL
	}
	if req.Prefix == "" {
		req.Prefix = GFC_PREFIX
	}
	if req.OutputDir == "" {
		req.OutputDir = "."
	}
	if err = os.MkdirAll(req.OutputDir, os.ModePerm); err != nil {
		err = fmt.Errorf("%w: %v", ErrIO, err)
		return
	}
	var names []string
	for _, lat := range req.Lats {
		for _, lon := range req.Lons {
			names = append(names, utils.GfcTileName(req.Prefix, lat, lon))
		}
	}
	log.Info(g.logTag+"start download", zap.Int("tiles", len(names)), zap.String("base", req.BaseURL))
	errs := make([]error, len(names))
	cl := utils.NewConcLimiter(req.Workers)
	for i, name := range names {
		if !cl.Increase(ctx) {
			errs[i] = ctx.Err()
			break
		}
		go func(i int, name string) {
			defer cl.Decrease()
			errs[i] = g.download(ctx, strings.TrimSuffix(req.BaseURL, "/")+"/"+name, filepath.Join(req.OutputDir, name))
		}(i, name)
	}
	cl.Wait()
	for i, e := range errs {
		if e != nil {
			err = multierr.Append(err, e)
			continue
		}
		// 取消后未派发的切片同样没有错误，以文件是否存在为准
		p := filepath.Join(req.OutputDir, names[i])
		if _, se := os.Stat(p); se == nil {
			files = append(files, p)
		}
	}
	return
}

func (g *Toolbox) download(ctx context.Context, url, out string) (err error) {
	if _, e := os.Stat(out); e == nil {
		log.Debug(g.logTag+"tile exists, skip", zap.String("file", out))
		return
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return
	}
	resp, err := g.client.Do(hr)
	if err != nil {
		log.Warn(g.logTag+"download request failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warn(g.logTag+"download skipped", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %d %s", ErrDownloadStatus, resp.StatusCode, url)
	}
	tmp := utils.GetUniqTmpPath(filepath.Dir(out), FILE_EXT_PART)
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	n, err := io.Copy(f, resp.Body)
	err = multierr.Append(err, f.Close())
	if err == nil {
		err = os.Rename(tmp, out)
	}
	if err != nil {
		os.Remove(tmp)
		log.Error(g.logTag+"download failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	log.Info(g.logTag+"tile downloaded", zap.String("file", out), zap.Int64("bytes", n))
	return
}

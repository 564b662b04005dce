package forestedge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDownloadTiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/P_10N_020E.tif" {
			w.Write([]byte("tile"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	g := NewToolbox(t.TempDir())
	dir := t.TempDir()
	req := DownloadRequest{BaseURL: srv.URL + "/", Prefix: "P", Lats: []int{10}, Lons: []int{20, 30}, OutputDir: dir, Workers: 2}
	files, err := g.DownloadTiles(context.Background(), req)
	require.True(t, errors.Is(err, ErrDownloadStatus))
	require.Equal(t, []string{filepath.Join(dir, "P_10N_020E.tif")}, files)
	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.Equal(t, "tile", string(raw))
	require.NoFileExists(t, filepath.Join(dir, "P_10N_030E.tif"))

	parts, err := filepath.Glob(filepath.Join(dir, "*"+FILE_EXT_PART))
	require.NoError(t, err)
	require.Empty(t, parts)

	// 已存在的切片不再请求
	srv.Close()
	files, err = g.DownloadTiles(context.Background(), DownloadRequest{BaseURL: srv.URL, Prefix: "P", Lats: []int{10}, Lons: []int{20}, OutputDir: dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
}

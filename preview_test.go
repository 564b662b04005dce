package forestedge

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/wgdzlh/forestedge/grid"

	"github.com/stretchr/testify/require"
)

func TestWritePreview(t *testing.T) {
	g := NewToolbox(t.TempDir())
	r := testRaster(200, 100, 0, 100, grid.Float32, func(_, col int) float64 { return float64(col) })
	r.Data[0] = math.Inf(1)
	path := filepath.Join(t.TempDir(), "p", "quick.png")
	require.NoError(t, g.WritePreview(r, path, 50))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, 50, img.Bounds().Dx())
	require.Equal(t, 25, img.Bounds().Dy())

	small := testRaster(4, 2, 0, 2, grid.Byte, func(_, col int) float64 { return float64(col) })
	out := filepath.Join(t.TempDir(), "s.png")
	require.NoError(t, g.WritePreview(small, out, 0))
	f2, err := os.Open(out)
	require.NoError(t, err)
	defer f2.Close()
	img, err = png.Decode(f2)
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())
	gray, _, _, _ := img.At(3, 0).RGBA()
	require.Equal(t, uint32(0xffff), gray)
}

package grid

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var testGeo = Georef{Transform: Affine{0, 1, 0, 10, 0, -1}, Crs: "EPSG:4326"}

// 10x10掩膜，中心(5,5)处3x3前景方块
func squareMask() *Mask {
	m := NewMask(10, 10, testGeo)
	for row := 4; row <= 6; row++ {
		for col := 4; col <= 6; col++ {
			m.Data[row*10+col] = 1
		}
	}
	return m
}

func randomMask(w, h int, p float64, seed int64) *Mask {
	rnd := rand.New(rand.NewSource(seed))
	m := NewMask(w, h, testGeo)
	for i := range m.Data {
		if rnd.Float64() < p {
			m.Data[i] = 1
		}
	}
	return m
}

func TestDetectEdgesSquarePerimeter(t *testing.T) {
	m := squareMask()
	edges := DetectEdges(m, WithMinBackgroundNeighbors(1))
	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			inSquare := row >= 4 && row <= 6 && col >= 4 && col <= 6
			perimeter := inSquare && !(row == 5 && col == 5)
			if perimeter {
				require.EqualValues(t, 1, edges.At(row, col), "row %d col %d", row, col)
			} else {
				require.EqualValues(t, 0, edges.At(row, col), "row %d col %d", row, col)
			}
		}
	}
	require.Equal(t, 8, edges.Count())
}

func TestDetectEdgesDefaultKeepsCorners(t *testing.T) {
	edges := DetectEdges(squareMask())
	require.Equal(t, 4, edges.Count())
	for _, p := range [][2]int{{4, 4}, {4, 6}, {6, 4}, {6, 6}} {
		require.EqualValues(t, 1, edges.At(p[0], p[1]))
	}
}

func TestDetectEdgesSubsetAndBorder(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		m := randomMask(23, 17, 0.6, seed)
		for _, n := range []int{1, 2, 3} {
			edges := DetectEdges(m, WithMinBackgroundNeighbors(n))
			for i, v := range edges.Data {
				if v == 1 {
					require.EqualValues(t, 1, m.Data[i], "edge outside mask")
				}
			}
			for col := 0; col < m.Width; col++ {
				require.Zero(t, edges.At(0, col))
				require.Zero(t, edges.At(m.Height-1, col))
			}
			for row := 0; row < m.Height; row++ {
				require.Zero(t, edges.At(row, 0))
				require.Zero(t, edges.At(row, m.Width-1))
			}
		}
	}
}

func TestDetectEdgesFullMask(t *testing.T) {
	m := NewMask(5, 5, testGeo)
	for i := range m.Data {
		m.Data[i] = 1
	}
	require.Zero(t, DetectEdges(m, WithMinBackgroundNeighbors(1)).Count())
}

func TestErode(t *testing.T) {
	eroded := Erode(squareMask())
	require.Equal(t, 1, eroded.Count())
	require.EqualValues(t, 1, eroded.At(5, 5))
}

func TestZeroBorder(t *testing.T) {
	m := NewMask(4, 3, testGeo)
	for i := range m.Data {
		m.Data[i] = 1
	}
	ZeroBorder(m)
	require.Equal(t, []uint8{
		0, 0, 0, 0,
		0, 1, 1, 0,
		0, 0, 0, 0,
	}, m.Data)
}

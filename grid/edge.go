package grid

const DefaultMinBackgroundNeighbors = 2

// 4邻域偏移（上、左、右、下）
var crossOffsets = [4][2]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}

type edgeOptions struct {
	minBg int
}

type EdgeOption func(*edgeOptions)

// 边缘像元所需的最少背景邻居数（1..4）
func WithMinBackgroundNeighbors(n int) EdgeOption {
	return func(o *edgeOptions) {
		if n < 1 {
			n = 1
		} else if n > 4 {
			n = 4
		}
		o.minBg = n
	}
}

// 十字结构元腐蚀：仅当4邻域全为前景时保留，越界视为背景
func Erode(m *Mask) *Mask {
	out := NewMask(m.Width, m.Height, m.Georef)
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			if m.At(row, col) == 0 {
				continue
			}
			keep := uint8(1)
			for _, d := range crossOffsets {
				r, c := row+d[0], col+d[1]
				if r < 0 || r >= m.Height || c < 0 || c >= m.Width || m.At(r, c) == 0 {
					keep = 0
					break
				}
			}
			out.Data[row*m.Width+col] = keep
		}
	}
	return out
}

// 以十字核卷积背景，得到每个像元的4邻域背景数；越界不计
func countBackgroundNeighbors(m *Mask) []uint8 {
	counts := make([]uint8, len(m.Data))
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			var n uint8
			for _, d := range crossOffsets {
				r, c := row+d[0], col+d[1]
				if r >= 0 && r < m.Height && c >= 0 && c < m.Width && m.At(r, c) == 0 {
					n++
				}
			}
			counts[row*m.Width+col] = n
		}
	}
	return counts
}

// 提取森林边缘：前景中被腐蚀掉、且背景邻居数达到阈值的像元。
// 首末行列恒置0，真实边界恰在影像边上时会被截断。
func DetectEdges(m *Mask, opts ...EdgeOption) *Mask {
	o := edgeOptions{minBg: DefaultMinBackgroundNeighbors}
	for _, opt := range opts {
		opt(&o)
	}
	eroded := Erode(m)
	counts := countBackgroundNeighbors(m)
	out := NewMask(m.Width, m.Height, m.Georef)
	for i, v := range m.Data {
		if v == 1 && eroded.Data[i] == 0 && int(counts[i]) >= o.minBg {
			out.Data[i] = 1
		}
	}
	ZeroBorder(out)
	return out
}

// 原地将首末行列置0
func ZeroBorder(m *Mask) {
	if m.Width == 0 || m.Height == 0 {
		return
	}
	last := (m.Height - 1) * m.Width
	for col := 0; col < m.Width; col++ {
		m.Data[col] = 0
		m.Data[last+col] = 0
	}
	for row := 0; row < m.Height; row++ {
		m.Data[row*m.Width] = 0
		m.Data[row*m.Width+m.Width-1] = 0
	}
}

package layout

import "math"

// SnapMM 将 v 对齐到 grid 的整数倍；grid <= 0 时原样返回。
func SnapMM(v, grid float64) float64 {
	if grid <= 0 || math.IsNaN(grid) || math.IsInf(grid, 0) {
		return v
	}
	return math.Round(v/grid) * grid
}

// SnapToGrid 对齐未锁定文本框的位置与尺寸，尺寸最小为一个网格。
func (t *Template) SnapToGrid(grid float64) {
	if t == nil || grid <= 0 {
		return
	}
	for i := range t.Boxes {
		b := &t.Boxes[i]
		if b.Locked {
			continue
		}
		b.XMM = SnapMM(b.XMM, grid)
		b.YMM = SnapMM(b.YMM, grid)
		b.WMM = math.Max(SnapMM(b.WMM, grid), grid)
		b.HMM = math.Max(SnapMM(b.HMM, grid), grid)
	}
}

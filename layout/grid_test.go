package layout

import "testing"

func TestSnapMM(t *testing.T) {
	cases := []struct {
		v, grid, want float64
	}{
		{12.4, 1, 12},
		{12.6, 1, 13},
		{7.3, 2.5, 7.5},
		{7.3, 0, 7.3},
		{-1.6, 1, -2},
	}
	for _, tc := range cases {
		if got := SnapMM(tc.v, tc.grid); got != tc.want {
			t.Fatalf("SnapMM(%g, %g) = %g, want %g", tc.v, tc.grid, got, tc.want)
		}
	}
}

func TestTemplateSnapToGrid(t *testing.T) {
	tpl := &Template{Boxes: []Box{{XMM: 20.4, YMM: 41.6, WMM: 169.7, HMM: 0.2}}}
	tpl.SnapToGrid(1)
	b := tpl.Boxes[0]
	if b.XMM != 20 || b.YMM != 42 || b.WMM != 170 || b.HMM != 1 {
		t.Fatalf("unexpected snapped box %+v", b)
	}
	tpl.SnapToGrid(0)
	if tpl.Boxes[0] != b {
		t.Fatalf("zero grid must not change boxes")
	}
}

func TestSnapToGridSkipsLocked(t *testing.T) {
	tpl := &Template{Boxes: []Box{{XMM: 20.4, YMM: 41.6, WMM: 10, HMM: 5, Locked: true}}}
	tpl.SnapToGrid(1)
	if tpl.Boxes[0].XMM != 20.4 || tpl.Boxes[0].YMM != 41.6 {
		t.Fatalf("locked box moved: %+v", tpl.Boxes[0])
	}
}

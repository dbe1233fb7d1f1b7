package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ByLCY/chequer/binding"
)

// ErrNoTemplate 表示没有可用的模板。
var ErrNoTemplate = errors.New("layout: template is nil")

// SortedBoxes 返回按 z_index、再按 id 升序排列的文本框副本，即绘制顺序。
func SortedBoxes(boxes []Box) []Box {
	out := make([]Box, len(boxes))
	copy(out, boxes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Resolve 为一张支票计算模板上每个文本框的绘制指令。
// c 为 nil 时生成空白预览：绑定字段为空，未绑定字段显示 label。
func Resolve(t *Template, c *Cheque, opts ResolveOptions) (*Page, error) {
	if t == nil {
		return nil, ErrNoTemplate
	}
	if t.DPI <= 0 {
		return nil, fmt.Errorf("%w: dpi must be positive, got %d", ErrInvalidTemplate, t.DPI)
	}
	dpi := t.DPI
	m := opts.measurer()
	tag := opts.locale()
	offX := MmToPx(opts.Offset.XMM, dpi)
	offY := MmToPx(opts.Offset.YMM, dpi)

	// 分行状态只在本次解析内有效，支票之间互不影响。
	flows := ComputeAmountFlows(t.Boxes, dpi, c, m)

	page := &Page{
		Width:        MmToPx(t.WidthMM, dpi),
		Height:       MmToPx(t.HeightMM, dpi),
		DPI:          dpi,
		Instructions: make([]RenderInstruction, 0, len(t.Boxes)),
	}
	if c != nil {
		page.ChequeID = c.ID
	}

	for _, b := range SortedBoxes(t.Boxes) {
		style := b.Style.WithDefaults()
		fallback := b.Label
		// 含 ${} 占位符的 label 属于数据绑定，打印时同样输出
		if opts.HideLabels && !binding.HasPlaceholders(b.Label) {
			fallback = ""
		}
		text := ResolveBoxText(b, c, fallback, flows, tag)
		if b.Field != FieldAmountWords {
			text = displayText(text, style)
		}
		col, err := ParseColor(style.Color)
		if err != nil {
			col = Color{}
		}
		page.Instructions = append(page.Instructions, RenderInstruction{
			BoxID: b.ID,
			Label: b.Label,
			Field: b.Field,
			Text:  text,
			Rect: Rect{
				X:      MmToPx(b.XMM, dpi) + offX,
				Y:      MmToPx(b.YMM, dpi) + offY,
				Width:  MmToPx(b.WMM, dpi),
				Height: MmToPx(b.HMM, dpi),
			},
			Rotation: b.Rotation,
			Style:    style,
			Color:    col,
		})
	}
	return page, nil
}

// NewResult 创建不含页面的结果，标题缺省为模板名。
func NewResult(t *Template, meta DocumentMeta) *Result {
	res := &Result{
		Template: TemplateInfo{
			ID:             t.ID,
			Name:           t.Name,
			WidthMM:        t.WidthMM,
			HeightMM:       t.HeightMM,
			DPI:            t.DPI,
			Orientation:    t.Orientation,
			BackgroundPath: t.BackgroundPath,
		},
		Meta: meta,
	}
	if res.Meta.Title == "" {
		res.Meta.Title = t.Name
	}
	return res
}

// ResolveBatch 逐张独立解析支票，每张支票对应一页。
// 没有支票时输出一页空白预览。
func ResolveBatch(t *Template, cheques []*Cheque, opts ResolveOptions) (*Result, error) {
	if t == nil {
		return nil, ErrNoTemplate
	}
	res := NewResult(t, opts.Meta)

	if len(cheques) == 0 {
		cheques = []*Cheque{nil}
	}
	res.Pages = make([]Page, 0, len(cheques))
	for i, c := range cheques {
		page, err := Resolve(t, c, opts)
		if err != nil {
			return nil, fmt.Errorf("cheque %d: %w", i, err)
		}
		res.Pages = append(res.Pages, *page)
	}
	return res, nil
}

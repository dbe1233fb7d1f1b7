package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/chequer/words"
)

func sampleTemplate() *Template {
	return &Template{
		ID:          1,
		Name:        "MDV Cheque A5",
		WidthMM:     210,
		HeightMM:    99,
		DPI:         300,
		Orientation: Landscape,
		MarginMM:    5,
		Boxes: []Box{
			{ID: 1, Label: "Amount Words", Field: FieldAmountWords, XMM: 20, YMM: 42, WMM: 170, HMM: 12, Style: Style{FontSize: 10}},
			{ID: 2, Label: "Amount Words 2", Field: FieldAmountWords, XMM: 20, YMM: 60, WMM: 30, HMM: 12, Style: Style{FontSize: 10}},
			{ID: 3, Label: "Cheque No.", XMM: 150, YMM: 80, WMM: 40, HMM: 8},
		},
	}
}

func TestResolveEndToEnd(t *testing.T) {
	amountWords, err := words.AmountToWords(1234.50)
	if err != nil {
		t.Fatalf("AmountToWords 失败: %v", err)
	}
	const want = "One Thousand Two Hundred Thirty Four Rufiyaa and Fifty Laari Only"
	if amountWords != want {
		t.Fatalf("amount words = %q", amountWords)
	}

	tpl := sampleTemplate()
	cheque := &Cheque{ID: 7, Amount: 1234.50, AmountWords: amountWords, Date: "2024-03-07", Payee: "Island Traders"}
	page, err := Resolve(tpl, cheque, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}

	if math.Abs(page.Width-MmToPx(210, 300)) > 1e-9 || math.Abs(page.Height-MmToPx(99, 300)) > 1e-9 {
		t.Fatalf("页面尺寸错误: %gx%g", page.Width, page.Height)
	}
	if page.ChequeID != 7 {
		t.Fatalf("ChequeID = %d", page.ChequeID)
	}
	got := map[int64]string{}
	for _, in := range page.Instructions {
		got[in.BoxID] = in.Text
	}
	wantTexts := map[int64]string{1: want, 2: "", 3: "Cheque No."}
	if diff := cmp.Diff(wantTexts, got); diff != "" {
		t.Fatalf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveOrderAndOffset(t *testing.T) {
	tpl := &Template{
		Name: "t", WidthMM: 100, HeightMM: 50, DPI: 254,
		Boxes: []Box{
			{ID: 4, Label: "top", XMM: 1, YMM: 1, WMM: 10, HMM: 5, ZIndex: 2},
			{ID: 2, Label: "b", XMM: 2, YMM: 2, WMM: 10, HMM: 5, ZIndex: 1},
			{ID: 1, Label: "a", XMM: 3, YMM: 3, WMM: 10, HMM: 5, ZIndex: 1, Rotation: 90},
		},
	}
	page, err := Resolve(tpl, nil, ResolveOptions{Offset: Offset{XMM: 1.5, YMM: -0.5}})
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	var order []int64
	for _, in := range page.Instructions {
		order = append(order, in.BoxID)
	}
	if diff := cmp.Diff([]int64{1, 2, 4}, order); diff != "" {
		t.Fatalf("绘制顺序错误 (-want +got):\n%s", diff)
	}
	first := page.Instructions[0]
	wantRect := Rect{X: 45, Y: 25, Width: 100, Height: 50}
	if diff := cmp.Diff(wantRect, first.Rect, cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })); diff != "" {
		t.Fatalf("rect mismatch (-want +got):\n%s", diff)
	}
	if first.Rotation != 90 {
		t.Fatalf("旋转角度应透传，实际 %g", first.Rotation)
	}
	if tpl.Boxes[0].ID != 4 {
		t.Fatalf("Resolve 不应修改模板中的文本框顺序")
	}
}

func TestResolveEmptyPreviewAndHideLabels(t *testing.T) {
	tpl := sampleTemplate()
	tpl.Boxes = append(tpl.Boxes, Box{ID: 4, Label: "Payee", Field: FieldPayeeName, XMM: 40, YMM: 28, WMM: 120, HMM: 10})

	page, err := Resolve(tpl, nil, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	for _, in := range page.Instructions {
		want := ""
		if in.Field == FieldNone {
			want = in.Label
		}
		if in.Text != want {
			t.Fatalf("box %d: got %q, want %q", in.BoxID, in.Text, want)
		}
	}

	page, err = Resolve(tpl, &Cheque{Payee: "X"}, ResolveOptions{HideLabels: true})
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	for _, in := range page.Instructions {
		if in.Field == FieldNone && in.Text != "" {
			t.Fatalf("打印模式下未绑定字段应为空，实际 %q", in.Text)
		}
	}
}

func TestResolveBoundLabelPrints(t *testing.T) {
	tpl := &Template{
		Name: "t", WidthMM: 100, HeightMM: 50, DPI: 300,
		Boxes: []Box{
			{ID: 1, Label: "No. ${cheque_no|------}", WMM: 40, HMM: 6},
			{ID: 2, Label: "Signature", WMM: 40, HMM: 6},
		},
	}
	page, err := Resolve(tpl, &Cheque{ChequeNo: "000123"}, ResolveOptions{HideLabels: true})
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if got := page.Instructions[0].Text; got != "No. 000123" {
		t.Fatalf("带占位符的 label 打印时应输出绑定值，实际 %q", got)
	}
	if got := page.Instructions[1].Text; got != "" {
		t.Fatalf("普通 label 打印时应隐藏，实际 %q", got)
	}

	page, err = Resolve(tpl, nil, ResolveOptions{HideLabels: true})
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if got := page.Instructions[0].Text; got != "No. ------" {
		t.Fatalf("没有支票时使用默认值，实际 %q", got)
	}
}

func TestResolveUppercaseAndColor(t *testing.T) {
	tpl := &Template{
		Name: "t", WidthMM: 100, HeightMM: 50, DPI: 300,
		Boxes: []Box{{ID: 1, Field: FieldPayeeName, WMM: 80, HMM: 8, Style: Style{Uppercase: true, Color: "#1a2B3c"}}},
	}
	page, err := Resolve(tpl, &Cheque{Payee: "Island Traders"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	in := page.Instructions[0]
	if in.Text != "ISLAND TRADERS" {
		t.Fatalf("uppercase 未生效: %q", in.Text)
	}
	if diff := cmp.Diff(Color{R: 0x1a, G: 0x2b, B: 0x3c}, in.Color); diff != "" {
		t.Fatalf("color mismatch (-want +got):\n%s", diff)
	}
	if in.Style.FontFamily != DefaultFontFamily || in.Style.FontSize != DefaultFontSize || in.Style.Align != AlignLeft {
		t.Fatalf("样式默认值未补全: %+v", in.Style)
	}
}

func TestResolveBatchIndependentPages(t *testing.T) {
	tpl := sampleTemplate()
	cheques := []*Cheque{
		{ID: 1, AmountWords: "Ten Rufiyaa Only"},
		{ID: 2, AmountWords: "Twenty Rufiyaa Only"},
	}
	res, err := ResolveBatch(tpl, cheques, ResolveOptions{})
	if err != nil {
		t.Fatalf("ResolveBatch 失败: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	if res.Meta.Title != tpl.Name || res.Template.DPI != 300 {
		t.Fatalf("模板信息错误: %+v %+v", res.Template, res.Meta)
	}
	for i, p := range res.Pages {
		if p.ChequeID != cheques[i].ID {
			t.Fatalf("page %d ChequeID = %d", i, p.ChequeID)
		}
		if p.Instructions[0].Text != cheques[i].AmountWords {
			t.Fatalf("page %d 文本 = %q", i, p.Instructions[0].Text)
		}
	}

	empty, err := ResolveBatch(tpl, nil, ResolveOptions{})
	if err != nil {
		t.Fatalf("ResolveBatch 失败: %v", err)
	}
	if len(empty.Pages) != 1 || empty.Pages[0].ChequeID != 0 {
		t.Fatalf("无支票时应输出一页空白预览: %+v", empty.Pages)
	}
}

func TestResolveErrors(t *testing.T) {
	if _, err := Resolve(nil, nil, ResolveOptions{}); !errors.Is(err, ErrNoTemplate) {
		t.Fatalf("nil 模板应返回 ErrNoTemplate，实际 %v", err)
	}
	if _, err := Resolve(&Template{Name: "x", WidthMM: 1, HeightMM: 1}, nil, ResolveOptions{}); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("dpi 为 0 应返回 ErrInvalidTemplate，实际 %v", err)
	}
	if _, err := ResolveBatch(nil, nil, ResolveOptions{}); !errors.Is(err, ErrNoTemplate) {
		t.Fatalf("nil 模板应返回 ErrNoTemplate，实际 %v", err)
	}
}

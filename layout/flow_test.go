package layout

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// runeMeasurer 是测试用的等宽测量器：每个字符 perRune 像素，大写字母按 upper 计。
// dpi 为 254 时 1mm = 10px，便于用毫米直接推算可容纳的字符数。
type runeMeasurer struct {
	perRune float64
	upper   float64
}

func (m runeMeasurer) TextWidth(text string, style TextStyle, dpi int) float64 {
	w := 0.0
	for _, r := range text {
		if m.upper > 0 && unicode.IsUpper(r) {
			w += m.upper
			continue
		}
		w += m.perRune
	}
	return w + LetterSpacingPx(text, style.LetterSpacing, dpi)
}

func perRune(px float64) MeasureFunc {
	return func(s string) float64 { return px * float64(utf8.RuneCountInString(s)) }
}

const testDPI = 254

const sampleWords = "One Thousand Two Hundred Thirty Four Rufiyaa and Fifty Laari Only"

func TestTakeLineFittingGreedy(t *testing.T) {
	line, rest := TakeLineFitting("One Thousand Two Hundred", 120, perRune(10))
	if line != "One Thousand" || rest != "Two Hundred" {
		t.Fatalf("got (%q, %q)", line, rest)
	}
}

func TestTakeLineFittingWholeText(t *testing.T) {
	line, rest := TakeLineFitting("  Fifty   Laari ", 1000, perRune(10))
	if line != "Fifty Laari" || rest != "" {
		t.Fatalf("got (%q, %q)", line, rest)
	}
}

func TestTakeLineFittingHardBreak(t *testing.T) {
	line, rest := TakeLineFitting("Supercalifragilistic rest", 50, perRune(10))
	if line != "Super" || rest != "califragilistic rest" {
		t.Fatalf("got (%q, %q)", line, rest)
	}
}

func TestTakeLineFittingNothingFits(t *testing.T) {
	text := "One Two"
	line, rest := TakeLineFitting(text, 5, perRune(10))
	if line != "" || rest != text {
		t.Fatalf("过窄的框应返回空行与原文，got (%q, %q)", line, rest)
	}
	line, rest = TakeLineFitting("", 100, perRune(10))
	if line != "" || rest != "" {
		t.Fatalf("空文本应返回空结果，got (%q, %q)", line, rest)
	}
}

// TestTakeLineFittingKeepsWords 验证在不拆词的宽度下，line 与 rest 合起来恰好是原文的全部单词。
func TestTakeLineFittingKeepsWords(t *testing.T) {
	want := strings.Fields(sampleWords)
	for width := 80.0; width <= 800; width += 10 {
		line, rest := TakeLineFitting(sampleWords, width, perRune(10))
		got := append(strings.Fields(line), strings.Fields(rest)...)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("width=%g 单词丢失或重复 (-want +got):\n%s", width, diff)
		}
	}
}

// TestTakeLineFittingRepeatedTerminates 反复取行直到耗尽，拼接结果应还原原文（拆词处不插入空格）。
func TestTakeLineFittingRepeatedTerminates(t *testing.T) {
	for _, width := range []float64{10, 25, 40, 70} {
		remaining := sampleWords
		var pieces []string
		for i := 0; remaining != ""; i++ {
			if i > 200 {
				t.Fatalf("width=%g 未能在有限步内结束", width)
			}
			line, rest := TakeLineFitting(remaining, width, perRune(10))
			if line == "" {
				t.Fatalf("width=%g 至少应能放下一个字符", width)
			}
			pieces = append(pieces, line)
			remaining = rest
		}
		joined := strings.ReplaceAll(strings.Join(pieces, ""), " ", "")
		if want := strings.ReplaceAll(sampleWords, " ", ""); joined != want {
			t.Fatalf("width=%g 还原失败: %q", width, joined)
		}
	}
}

func amountBox(id int64, x, y, w float64) Box {
	return Box{ID: id, Field: FieldAmountWords, XMM: x, YMM: y, WMM: w, HMM: 8}
}

func TestComputeAmountFlowsReadingOrder(t *testing.T) {
	boxes := []Box{
		amountBox(3, 20, 60, 20),
		amountBox(1, 100, 42, 20),
		{ID: 9, Field: FieldPayeeName, XMM: 0, YMM: 0, WMM: 200, HMM: 8},
		amountBox(2, 20, 42, 20),
		amountBox(4, 20, 80, 20),
		amountBox(5, 20, 90, 20),
	}
	cheque := &Cheque{AmountWords: sampleWords}
	got := ComputeAmountFlows(boxes, testDPI, cheque, runeMeasurer{perRune: 10})
	want := map[int64]string{
		2: "One Thousand Two",
		1: "Hundred Thirty Four",
		3: "Rufiyaa and Fifty",
		4: "Laari Only",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flows mismatch (-want +got):\n%s", diff)
	}
	if cheque.AmountWords != sampleWords {
		t.Fatalf("分行不应修改支票数据")
	}
}

func TestComputeAmountFlowsExhaustion(t *testing.T) {
	boxes := []Box{amountBox(1, 10, 10, 170), amountBox(2, 10, 20, 30)}
	got := ComputeAmountFlows(boxes, testDPI, &Cheque{AmountWords: sampleWords}, runeMeasurer{perRune: 10})
	if got[1] != sampleWords {
		t.Fatalf("宽框应容纳全部文本，实际 %q", got[1])
	}
	if _, ok := got[2]; ok {
		t.Fatalf("文本耗尽后的框不应有条目")
	}
}

func TestComputeAmountFlowsUppercaseMeasuredAsDrawn(t *testing.T) {
	b := amountBox(1, 0, 0, 9)
	b.Style.Uppercase = true
	next := amountBox(2, 0, 10, 50)
	got := ComputeAmountFlows([]Box{b, next}, testDPI, &Cheque{AmountWords: "aaaa bbbb"}, runeMeasurer{perRune: 10, upper: 20})
	want := map[int64]string{1: "AAAA", 2: "bbbb"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flows mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeAmountFlowsNarrowBoxDefers(t *testing.T) {
	boxes := []Box{amountBox(1, 0, 0, 0.05), amountBox(2, 0, 10, 200)}
	got := ComputeAmountFlows(boxes, testDPI, &Cheque{AmountWords: "Ten Only"}, runeMeasurer{perRune: 10})
	want := map[int64]string{2: "Ten Only"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flows mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeAmountFlowsLetterSpacing(t *testing.T) {
	b := amountBox(1, 0, 0, 10) // 100px
	// 2pt 间距在 254dpi 下约 7.06px；"Ten Only" 8 个字符 = 80px + 7 * 7.06px > 100px
	b.Style.LetterSpacing = 2
	got := ComputeAmountFlows([]Box{b}, testDPI, &Cheque{AmountWords: "Ten Only"}, runeMeasurer{perRune: 10})
	if got[1] != "Ten" {
		t.Fatalf("字间距应参与测量，实际 %q", got[1])
	}
}

func TestComputeAmountFlowsNoCheque(t *testing.T) {
	got := ComputeAmountFlows([]Box{amountBox(1, 0, 0, 100)}, testDPI, nil, runeMeasurer{perRune: 10})
	if len(got) != 0 {
		t.Fatalf("无支票时不应分配文本: %v", got)
	}
}

func TestLetterSpacingBetweenCharactersOnly(t *testing.T) {
	if got := LetterSpacingPx("A", 3, 72); got != 0 {
		t.Fatalf("单字符不应有字间距，实际 %g", got)
	}
	if got := LetterSpacingPx("ABCD", 3, 72); got != 9 {
		t.Fatalf("4 个字符应有 3 个间距 = 9px，实际 %g", got)
	}
	if got := LetterSpacingPx("", 3, 72); got != 0 {
		t.Fatalf("空串应为 0，实际 %g", got)
	}
}

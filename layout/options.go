package layout

import (
	"unicode/utf8"

	"golang.org/x/text/language"
)

// ResolveOptions 配置一次渲染解析所需的依赖与开关。
type ResolveOptions struct {
	Measurer TextMeasurer
	Offset   Offset
	// HideLabels 为 true 时未绑定字段的文本框不输出 label（正式打印）；预览时保持 false。
	HideLabels bool
	// Locale 决定数字金额的千分位格式，零值使用 en。
	Locale language.Tag
	Meta   DocumentMeta
}

func (o ResolveOptions) measurer() TextMeasurer {
	if o.Measurer == nil {
		return EstimateMeasurer{}
	}
	return o.Measurer
}

func (o ResolveOptions) locale() language.Tag {
	if o.Locale == language.Und {
		return language.English
	}
	return o.Locale
}

// TextMeasurer 返回文本在给定 DPI 下的渲染宽度（像素）。
// 实现必须与最终绘制使用同一套字形数据，且可被并发调用。
type TextMeasurer interface {
	TextWidth(text string, style TextStyle, dpi int) float64
}

// MeasureFunc 是绑定了样式与 DPI 的单参数测量函数。
type MeasureFunc func(text string) float64

// MeasureWith binds style and dpi to m.
func MeasureWith(m TextMeasurer, style TextStyle, dpi int) MeasureFunc {
	return func(text string) float64 { return m.TextWidth(text, style, dpi) }
}

// estimateEm 是每个字符按字号估算的平均宽度比例。
const estimateEm = 0.55

// EstimateMeasurer 不依赖字体文件，按字符数估算宽度。
// 仅在没有配置真实测量器时使用，结果与最终绘制不保证一致。
type EstimateMeasurer struct{}

// TextWidth implements TextMeasurer.
func (EstimateMeasurer) TextWidth(text string, style TextStyle, dpi int) float64 {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	size := style.Size
	if size <= 0 {
		size = DefaultFontSize
	}
	w := PtToPx(size*estimateEm, dpi) * float64(n)
	return w + LetterSpacingPx(text, style.LetterSpacing, dpi)
}

// LetterSpacingPx 返回字间距带来的额外宽度：只加在字符之间，末尾不加。
func LetterSpacingPx(text string, spacingPt float64, dpi int) float64 {
	if spacingPt == 0 {
		return 0
	}
	gaps := utf8.RuneCountInString(text) - 1
	if gaps <= 0 {
		return 0
	}
	return PtToPx(spacingPt, dpi) * float64(gaps)
}

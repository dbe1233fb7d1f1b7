package layout

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ByLCY/chequer/binding"
	"github.com/ByLCY/chequer/datefmt"
	"github.com/ByLCY/chequer/words"
)

// ResolveBoxText 计算单个文本框要显示的字符串。
// AmountWords 从 flows 中按框 ID 取值；未绑定字段的框返回 fallback，
// 其中的 ${path} 占位符会用支票数据替换；没有支票时仅应用占位符的默认值。
func ResolveBoxText(b Box, c *Cheque, fallback string, flows map[int64]string, tag language.Tag) string {
	switch b.Field {
	case FieldPayeeName:
		if c == nil {
			return ""
		}
		return c.Payee
	case FieldAmountWords:
		return flows[b.ID]
	case FieldAmountNumeric:
		if c == nil {
			return ""
		}
		return FormatAmount(c.Amount, tag)
	case FieldDate:
		if c == nil {
			return ""
		}
		format := b.EffectiveDateFormat()
		if b.DateDigitIndex != nil && *b.DateDigitIndex >= 0 {
			return datefmt.Digit(c.Date, format, *b.DateDigitIndex)
		}
		return datefmt.FormatFull(c.Date, format)
	default:
		if fallback == "" {
			return ""
		}
		data := map[string]any{}
		if c != nil {
			data = c.Data()
		}
		return binding.Interpolate(fallback, data)
	}
}

// FormatAmount 按 locale 输出千分位、两位小数的金额；非有限值或负数返回空串。
// 舍入与 words.RoundAmount 一致，保证与大写金额相同。
func FormatAmount(amount float64, tag language.Tag) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return ""
	}
	if tag == language.Und {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf("%.2f", words.RoundAmount(amount))
}

// displayText 应用大写标志。AmountWords 在分行阶段已经转换过。
func displayText(text string, style Style) string {
	if style.Uppercase {
		return strings.ToUpper(text)
	}
	return text
}

package layout

import (
	"sort"
	"strings"
)

// TakeLineFitting 贪心地从 text 中取出能放进 widthPx 的一行。
// 按空白切词逐个追加，遇到第一个放不下的词即停止；若首个词本身就放不下，
// 则按字符二分查找可容纳的最长前缀，剩余字符拼回 rest 开头。
// 连一个字符都放不下时返回 ("", text)。
func TakeLineFitting(text string, widthPx float64, measure MeasureFunc) (line, rest string) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", ""
	}

	n := 0
	for i, w := range words {
		candidate := w
		if n > 0 {
			candidate = line + " " + w
		}
		if measure(candidate) > widthPx {
			break
		}
		line = candidate
		n = i + 1
	}
	if n > 0 {
		return line, strings.Join(words[n:], " ")
	}

	// 首词过长：二分查找最大可容纳的字符前缀。
	first := []rune(words[0])
	lo, hi := 0, len(first)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if measure(string(first[:mid])) <= widthPx {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		return "", text
	}
	remaining := append([]string{string(first[lo:])}, words[1:]...)
	return string(first[:lo]), strings.Join(remaining, " ")
}

// AmountWordsSource 返回参与分行的大写金额原文。
func AmountWordsSource(c *Cheque) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.AmountWords)
}

// ComputeAmountFlows 将支票的大写金额按阅读顺序（先 y 后 x）分配到所有 AmountWords 文本框。
// 每个框最多得到一行；文本耗尽后剩余的框不出现在结果中。
func ComputeAmountFlows(boxes []Box, dpi int, cheque *Cheque, m TextMeasurer) map[int64]string {
	flows := map[int64]string{}
	remaining := AmountWordsSource(cheque)
	if remaining == "" {
		return flows
	}
	if m == nil {
		m = EstimateMeasurer{}
	}

	targets := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if b.Field == FieldAmountWords {
			targets = append(targets, b)
		}
	}
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].YMM != targets[j].YMM {
			return targets[i].YMM < targets[j].YMM
		}
		return targets[i].XMM < targets[j].XMM
	})

	for _, b := range targets {
		if remaining == "" {
			break
		}
		style := b.Style.WithDefaults()
		measure := MeasureWith(m, style.TextStyle(), dpi)
		if style.Uppercase {
			// 按最终绘制的大写形式测量
			base := measure
			measure = func(s string) float64 { return base(strings.ToUpper(s)) }
		}
		line, rest := TakeLineFitting(remaining, MmToPx(b.WMM, dpi), measure)
		if line != "" {
			if style.Uppercase {
				line = strings.ToUpper(line)
			}
			flows[b.ID] = line
		}
		remaining = strings.TrimSpace(rest)
	}
	return flows
}

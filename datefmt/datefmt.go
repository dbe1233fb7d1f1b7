// Package datefmt parses loosely formatted cheque dates and renders them into
// the digit orders printed on cheque stock.
package datefmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultToken is used when a format token is empty or not understood.
const DefaultToken = "DDMMYYYY"

// DigitCount is the length of a digit-only rendering for the compact tokens.
const DigitCount = 8

var (
	yearFirst = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	dayFirst  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
	ddmmyyyy  = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

	// fallbackLayouts 依次尝试，顺序即优先级。
	fallbackLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2 January 2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"02-Jan-2006",
		"2006-1-2T15:04",
		"2006-1-2T15:04:05",
		"Mon Jan _2 2006",
		"Mon Jan _2 2006 15:04:05 GMT-0700",
		time.RFC1123,
		"Jan _2 2006",
	}

	// 形如 "(Coordinated Universal Time)" 的时区名后缀
	zoneName = regexp.MustCompile(`\s*\([^)]*\)$`)
)

type matcher func(s string) (time.Time, bool)

// matchers 是显式的小型日期语法：先匹配年在前，再匹配日在前，最后通用解析。
var matchers = []matcher{
	numericMatcher(yearFirst, 1, 2, 3),
	numericMatcher(dayFirst, 3, 2, 1),
	layoutMatcher,
}

func numericMatcher(re *regexp.Regexp, yi, mi, di int) matcher {
	return func(s string) (time.Time, bool) {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return time.Time{}, false
		}
		y, _ := strconv.Atoi(m[yi])
		mo, _ := strconv.Atoi(m[mi])
		d, _ := strconv.Atoi(m[di])
		// time.Date 会把越界的月/日顺延，例如 31-02 变成 3 月初。
		return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), true
	}
}

func layoutMatcher(s string) (time.Time, bool) {
	s = zoneName.ReplaceAllString(s, "")
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Parse 解析宽松格式的日期字符串；空串或无法解析时返回 false。
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, m := range matchers {
		if t, ok := m(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Format renders t according to token.
func Format(t time.Time, token string) string {
	dd := fmt.Sprintf("%02d", t.Day())
	mm := fmt.Sprintf("%02d", int(t.Month()))
	yyyy := fmt.Sprintf("%04d", t.Year())

	tok := strings.ToUpper(strings.TrimSpace(token))
	switch tok {
	case "DDMMYYYY":
		return dd + mm + yyyy
	case "MMDDYYYY":
		return mm + dd + yyyy
	case "YYYYMMDD":
		return yyyy + mm + dd
	case "YYYYDDMM":
		return yyyy + dd + mm
	case "DD-MM-YYYY":
		return dd + "-" + mm + "-" + yyyy
	case "DD/MM/YYYY":
		return dd + "/" + mm + "/" + yyyy
	case "DD.MM.YYYY":
		return dd + "." + mm + "." + yyyy
	}

	if sep := separatorOf(tok); sep != "" {
		parts := strings.Split(tok, sep)
		out := make([]string, len(parts))
		for i, p := range parts {
			switch {
			case strings.HasPrefix(p, "Y"):
				out[i] = yyyy
			case strings.HasPrefix(p, "M"):
				out[i] = mm
			default:
				out[i] = dd
			}
		}
		return strings.Join(out, sep)
	}
	return dd + mm + yyyy
}

func separatorOf(token string) string {
	for _, sep := range []string{"-", "/", "."} {
		if strings.Contains(token, sep) {
			return sep
		}
	}
	return ""
}

// FormatFull parses s and renders it with token; "" when s is not a date.
func FormatFull(s, token string) string {
	t, ok := Parse(s)
	if !ok {
		return ""
	}
	return Format(t, token)
}

// FormatDigits 返回 FormatFull 去掉所有非数字字符后的结果。
func FormatDigits(s, token string) string {
	full := FormatFull(s, token)
	if full == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range full {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Digit 返回数字串中第 index 位；日期无法解析或下标越界时返回空串。
func Digit(s, token string, index int) string {
	digits := FormatDigits(s, token)
	if index < 0 || index >= len(digits) {
		return ""
	}
	return digits[index : index+1]
}

// Valid 判断录入的日期能否使用：DD-MM-YYYY 形式必须是真实存在的日期，
// 其他形式只要求可解析。空串视为未填写，返回 true。
func Valid(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	if ddmmyyyy.MatchString(s) {
		return IsDDMMYYYY(s)
	}
	_, ok := Parse(s)
	return ok
}

// IsDDMMYYYY reports whether s is a real calendar date written as DD-MM-YYYY.
func IsDDMMYYYY(s string) bool {
	m := ddmmyyyy.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return false
	}
	d, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	y, _ := strconv.Atoi(m[3])
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	return t.Day() == d && int(t.Month()) == mo && t.Year() == y
}

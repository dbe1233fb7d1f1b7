// Package words spells cheque amounts out in English for a two-level currency.
package words

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount  = errors.New("words: negative amount")
	ErrNonFiniteAmount = errors.New("words: amount is not finite")
	ErrAmountTooLarge  = errors.New("words: amount too large")
)

var (
	ones = []string{
		"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}

	maxWhole = decimal.New(1, 18)
	hundred  = decimal.NewFromInt(100)
)

// Composer 组合主币种与辅币名称，例如 Rufiyaa / Laari。
type Composer struct {
	Currency string
	Subunit  string
}

// Default is the Maldivian Rufiyaa composer.
var Default = Composer{Currency: "Rufiyaa", Subunit: "Laari"}

// AmountToWords spells amount with the Default composer.
func AmountToWords(amount float64) (string, error) {
	return Default.Compose(amount)
}

// Compose 将金额转为英文大写。结尾总是追加 " Only"。
func (c Composer) Compose(amount float64) (string, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", ErrNonFiniteAmount
	}
	return c.ComposeDecimal(decimal.NewFromFloat(amount))
}

// RoundAmount 将金额按十进制半数进位到两位小数，数字金额与大写金额共用此结果。
// 非有限值原样返回。
func RoundAmount(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// ComposeDecimal is Compose for an exact decimal amount.
func (c Composer) ComposeDecimal(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", fmt.Errorf("%w: %s", ErrNegativeAmount, amount.String())
	}
	rounded := amount.Round(2)
	whole := rounded.Truncate(0)
	if whole.GreaterThanOrEqual(maxWhole) {
		return "", fmt.Errorf("%w: %s", ErrAmountTooLarge, amount.String())
	}
	frac := rounded.Sub(whole).Mul(hundred).IntPart()

	var b strings.Builder
	b.WriteString(Spell(whole.IntPart()))
	if cur := strings.TrimSpace(c.Currency); cur != "" {
		b.WriteString(" ")
		b.WriteString(cur)
	}
	if frac > 0 {
		b.WriteString(" and ")
		b.WriteString(Spell(frac))
		if sub := strings.TrimSpace(c.Subunit); sub != "" {
			b.WriteString(" ")
			b.WriteString(sub)
		}
	}
	b.WriteString(" Only")
	return b.String(), nil
}

type scale struct {
	value int64
	name  string
}

var scales = []scale{
	{1_000_000_000, "Billion"},
	{1_000_000, "Million"},
	{1_000, "Thousand"},
	{100, "Hundred"},
}

// Spell 返回非负整数的英文读法；负数按绝对值处理。
func Spell(n int64) string {
	if n < 0 {
		n = -n
	}
	if n < 20 {
		return ones[n]
	}
	if n < 100 {
		if r := n % 10; r != 0 {
			return tens[n/10] + " " + ones[r]
		}
		return tens[n/10]
	}
	for _, s := range scales {
		if n < s.value {
			continue
		}
		out := Spell(n/s.value) + " " + s.name
		if r := n % s.value; r != 0 {
			out += " " + Spell(r)
		}
		return out
	}
	return ""
}

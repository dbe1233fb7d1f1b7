package layout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidTemplate = errors.New("invalid template")
	ErrInvalidBox      = errors.New("invalid box")
	ErrInvalidCheque   = errors.New("invalid cheque")
)

// MaxDigitIndex 是日期数字串的最大下标（DDMMYYYY 共 8 位）。
const MaxDigitIndex = 7

// Validate 检查模板几何与全部文本框。
func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: template is nil", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if !positive(t.WidthMM) || !positive(t.HeightMM) {
		return fmt.Errorf("%w: page size must be positive, got %gx%gmm", ErrInvalidTemplate, t.WidthMM, t.HeightMM)
	}
	if t.DPI <= 0 {
		return fmt.Errorf("%w: dpi must be positive, got %d", ErrInvalidTemplate, t.DPI)
	}
	if t.MarginMM < 0 || math.IsNaN(t.MarginMM) {
		return fmt.Errorf("%w: margin must not be negative", ErrInvalidTemplate)
	}
	switch t.Orientation {
	case "", Portrait, Landscape:
	default:
		return fmt.Errorf("%w: unknown orientation %q", ErrInvalidTemplate, t.Orientation)
	}
	for i := range t.Boxes {
		if err := t.Boxes[i].Validate(); err != nil {
			return fmt.Errorf("box %d (%s): %w", i, t.Boxes[i].Label, err)
		}
	}
	return nil
}

// Validate 检查单个文本框。
func (b *Box) Validate() error {
	if !positive(b.WMM) || !positive(b.HMM) {
		return fmt.Errorf("%w: size must be positive, got %gx%gmm", ErrInvalidBox, b.WMM, b.HMM)
	}
	if !b.Field.Valid() {
		return fmt.Errorf("%w: unknown mapped field %q", ErrInvalidBox, b.Field)
	}
	if b.Style.FontSize < 0 || b.Style.LineHeight < 0 {
		return fmt.Errorf("%w: font size and line height must be positive", ErrInvalidBox)
	}
	switch b.Style.Align {
	case "", AlignLeft, AlignCenter, AlignRight:
	default:
		return fmt.Errorf("%w: unknown align %q", ErrInvalidBox, b.Style.Align)
	}
	if b.Style.Color != "" {
		if _, err := ParseColor(b.Style.Color); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBox, err)
		}
	}
	if b.DateDigitIndex != nil && (*b.DateDigitIndex < 0 || *b.DateDigitIndex > MaxDigitIndex) {
		return fmt.Errorf("%w: date digit index %d out of range 0..%d", ErrInvalidBox, *b.DateDigitIndex, MaxDigitIndex)
	}
	return nil
}

// Validate 检查支票金额。日期与收款人允许为空，渲染时退化为空串。
func (c *Cheque) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: cheque is nil", ErrInvalidCheque)
	}
	if math.IsNaN(c.Amount) || math.IsInf(c.Amount, 0) {
		return fmt.Errorf("%w: amount is not finite", ErrInvalidCheque)
	}
	if c.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative, got %g", ErrInvalidCheque, c.Amount)
	}
	return nil
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// ParseColor 解析 #rgb / #rrggbb 形式的颜色。
func ParseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	return Color{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}

package layout

import (
	"strconv"
	"strings"
)

// 该文件定义模板、文本框与支票的数据模型，以及解析后供渲染器使用的绘制指令。
// 模板几何以毫米为单位；绘制指令以模板 DPI 下的像素为单位；字号与字间距以 pt 为单位。

// Orientation 仅作展示用途，不影响换算。
type Orientation string

const (
	Portrait  Orientation = "Portrait"
	Landscape Orientation = "Landscape"
)

// MappedField 描述文本框绑定的语义字段；空值表示未绑定，渲染时回退为 Label。
type MappedField string

const (
	FieldNone          MappedField = ""
	FieldPayeeName     MappedField = "PayeeName"
	FieldAmountWords   MappedField = "AmountWords"
	FieldAmountNumeric MappedField = "AmountNumeric"
	FieldDate          MappedField = "Date"
)

// Fields 按固定顺序列出全部可绑定字段。
var Fields = []MappedField{FieldPayeeName, FieldAmountWords, FieldAmountNumeric, FieldDate}

// Valid reports whether f is a known field or FieldNone.
func (f MappedField) Valid() bool {
	if f == FieldNone {
		return true
	}
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Align 为文本水平对齐方式。
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Style 的默认值，与模板编辑器保存文本框时的补全规则一致。
const (
	DefaultFontFamily = "System"
	DefaultFontSize   = 12.0
	DefaultLineHeight = 1.2
	DefaultColor      = "#000000"
	DefaultDateFormat = "DDMMYYYY"
	DefaultDPI        = 300
)

// Template 是页面几何与文本框集合的聚合根。Boxes 总是整体替换，从不增量比对。
type Template struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	WidthMM        float64     `json:"width_mm"`
	HeightMM       float64     `json:"height_mm"`
	DPI            int         `json:"dpi"`
	Orientation    Orientation `json:"orientation"`
	MarginMM       float64     `json:"margin_mm"`
	BackgroundPath string      `json:"background_path,omitempty"`
	Boxes          []Box       `json:"boxes"`
}

// Box 是模板上一块定位的单行文本区域。
type Box struct {
	ID       int64       `json:"id"`
	Label    string      `json:"label"`
	Field    MappedField `json:"mapped_field"`
	XMM      float64     `json:"x_mm"`
	YMM      float64     `json:"y_mm"`
	WMM      float64     `json:"w_mm"`
	HMM      float64     `json:"h_mm"`
	Rotation float64     `json:"rotation"` // 度，仅影响绘制
	Style    Style       `json:"style"`
	ZIndex   int         `json:"z_index"`
	Locked   bool        `json:"locked"`
	// 仅对 Date 字段有意义；nil 表示使用默认格式 / 输出完整日期。
	DateFormat     *string `json:"date_format,omitempty"`
	DateDigitIndex *int    `json:"date_digit_index,omitempty"`
}

// Style 描述文本框的字体与排版属性。
type Style struct {
	FontFamily    string  `json:"font_family"`
	FontSize      float64 `json:"font_size"` // pt
	Bold          bool    `json:"bold"`
	Italic        bool    `json:"italic"`
	LetterSpacing float64 `json:"letter_spacing"` // pt，仅加在字符之间
	LineHeight    float64 `json:"line_height"`    // 字号倍数
	Color         string  `json:"color"`
	Uppercase     bool    `json:"uppercase"`
	Align         Align   `json:"align"`
}

// WithDefaults 返回补全默认值后的样式副本。
func (s Style) WithDefaults() Style {
	if strings.TrimSpace(s.FontFamily) == "" {
		s.FontFamily = DefaultFontFamily
	}
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	if s.LineHeight <= 0 {
		s.LineHeight = DefaultLineHeight
	}
	if strings.TrimSpace(s.Color) == "" {
		s.Color = DefaultColor
	}
	if s.Align == "" {
		s.Align = AlignLeft
	}
	return s
}

// TextStyle 抽取测量所需的属性。
func (s Style) TextStyle() TextStyle {
	d := s.WithDefaults()
	return TextStyle{
		Family:        d.FontFamily,
		Size:          d.FontSize,
		Bold:          d.Bold,
		Italic:        d.Italic,
		LetterSpacing: d.LetterSpacing,
	}
}

// TextStyle 是文本测量的输入：测量只依赖这些属性与文本本身。
type TextStyle struct {
	Family        string  `json:"family"`
	Size          float64 `json:"size"` // pt
	Bold          bool    `json:"bold"`
	Italic        bool    `json:"italic"`
	LetterSpacing float64 `json:"letterSpacing"` // pt
}

// EffectiveDateFormat returns the box date pattern, defaulting to DDMMYYYY.
func (b Box) EffectiveDateFormat() string {
	if b.DateFormat == nil || strings.TrimSpace(*b.DateFormat) == "" {
		return DefaultDateFormat
	}
	return strings.TrimSpace(*b.DateFormat)
}

// Cheque 是一次具体的支票数据。渲染过程从不修改它。
type Cheque struct {
	ID          int64    `json:"id"`
	TemplateID  int64    `json:"template_id"`
	Date        string   `json:"date"`
	Payee       string   `json:"payee"`
	Amount      float64  `json:"amount"`
	AmountWords string   `json:"amount_words"`
	ChequeNo    string   `json:"cheque_no,omitempty"`
	AccountNo   string   `json:"account_no,omitempty"`
	Bank        string   `json:"bank,omitempty"`
	Branch      string   `json:"branch,omitempty"`
	Custom      []string `json:"custom,omitempty"`
}

// Data 以 map 形式暴露支票字段，供 label 中的 ${path} 占位符绑定。
func (c *Cheque) Data() map[string]any {
	if c == nil {
		return nil
	}
	custom := make([]any, len(c.Custom))
	for i, v := range c.Custom {
		custom[i] = v
	}
	return map[string]any{
		"id":           c.ID,
		"date":         c.Date,
		"payee":        c.Payee,
		"amount":       strconv.FormatFloat(c.Amount, 'f', 2, 64),
		"amount_words": c.AmountWords,
		"cheque_no":    c.ChequeNo,
		"account_no":   c.AccountNo,
		"bank":         c.Bank,
		"branch":       c.Branch,
		"custom":       custom,
	}
}

// Offset 为打印机进纸误差补偿，单位 mm，对本次渲染的所有文本框统一生效。
type Offset struct {
	XMM float64 `json:"x_mm"`
	YMM float64 `json:"y_mm"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Rect 为模板像素坐标系下的矩形（左上角为原点）。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RenderInstruction 是单个文本框的解析结果：画什么、画在哪、用什么样式。
type RenderInstruction struct {
	BoxID    int64       `json:"boxId"`
	Label    string      `json:"label"`
	Field    MappedField `json:"field,omitempty"`
	Text     string      `json:"text"`
	Rect     Rect        `json:"rect"`
	Rotation float64     `json:"rotation,omitempty"`
	Style    Style       `json:"style"`
	Color    Color       `json:"color"`
}

// Page 是一张支票的渲染结果，宽高为像素。
type Page struct {
	ChequeID     int64               `json:"chequeId,omitempty"`
	Width        float64             `json:"width"`
	Height       float64             `json:"height"`
	DPI          int                 `json:"dpi"`
	Instructions []RenderInstruction `json:"instructions"`
}

// TemplateInfo 记录渲染器需要的模板元信息。
type TemplateInfo struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	WidthMM        float64     `json:"widthMm"`
	HeightMM       float64     `json:"heightMm"`
	DPI            int         `json:"dpi"`
	Orientation    Orientation `json:"orientation"`
	BackgroundPath string      `json:"backgroundPath,omitempty"`
}

// Result 保存一次批量渲染的全部页面。
type Result struct {
	Template TemplateInfo `json:"template"`
	Pages    []Page       `json:"pages"`
	Meta     DocumentMeta `json:"meta"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

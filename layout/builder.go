package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/chequer/dsl"
)

// Build 将 DSL 文档转换为模板：补全默认值、按声明顺序分配框 ID 并校验。
func Build(doc *dsl.Document) (*Template, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	t := &Template{Name: strings.TrimSpace(string(doc.Name))}

	pages := 0
	for _, section := range doc.Sections {
		switch {
		case section.Page != nil:
			pages++
			if pages > 1 {
				return nil, fmt.Errorf("%s: page 段落只能出现一次", section.Page.Pos)
			}
			if err := applyPage(t, section.Page.Block); err != nil {
				return nil, err
			}
		case section.Box != nil:
			box, err := buildBox(section.Box)
			if err != nil {
				return nil, err
			}
			box.ID = int64(len(t.Boxes) + 1)
			t.Boxes = append(t.Boxes, box)
		}
	}
	if pages == 0 {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}
	if t.DPI == 0 {
		t.DPI = DefaultDPI
	}
	if t.Orientation == "" {
		t.Orientation = Portrait
		if t.WidthMM > t.HeightMM {
			t.Orientation = Landscape
		}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("模板 %q 校验失败: %w", t.Name, err)
	}
	return t, nil
}

// CollectMeta 读取 meta 段落中的 PDF 元信息；title 缺省时使用模板名。
func CollectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{}
	if doc == nil {
		return meta
	}
	meta.Title = string(doc.Name)
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, a := range section.Meta.Block.Assignments {
			val := a.Value.Raw()
			switch strings.ToLower(a.Key) {
			case "title":
				meta.Title = val
			case "author":
				meta.Author = val
			case "subject":
				meta.Subject = val
			case "creator":
				meta.Creator = val
			case "keywords":
				for _, kw := range strings.Split(val, ",") {
					if kw = strings.TrimSpace(kw); kw != "" {
						meta.Keywords = append(meta.Keywords, kw)
					}
				}
			}
		}
	}
	return meta
}

func applyPage(t *Template, block *dsl.Block) error {
	if block == nil {
		return fmt.Errorf("page 段落缺少内容")
	}
	for _, a := range block.Assignments {
		var err error
		switch strings.ToLower(a.Key) {
		case "width":
			t.WidthMM, err = parseMM(a)
		case "height":
			t.HeightMM, err = parseMM(a)
		case "margin":
			t.MarginMM, err = parseMM(a)
		case "dpi":
			t.DPI, err = parseInt(a)
		case "orientation":
			switch strings.ToLower(a.Value.Raw()) {
			case "portrait":
				t.Orientation = Portrait
			case "landscape":
				t.Orientation = Landscape
			default:
				err = valueError(a, "应为 portrait 或 landscape")
			}
		case "background":
			t.BackgroundPath = a.Value.Raw()
		default:
			err = fmt.Errorf("%s: page 未知属性 %s", a.Pos, a.Key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func buildBox(section *dsl.BoxSection) (Box, error) {
	b := Box{Label: string(section.Label)}
	if section.Block == nil {
		return b, fmt.Errorf("%s: box %q 缺少内容", section.Pos, b.Label)
	}
	for _, a := range section.Block.Assignments {
		if err := applyBoxAssignment(&b, a); err != nil {
			return b, err
		}
	}
	if b.Field != FieldDate && (b.DateFormat != nil || b.DateDigitIndex != nil) {
		return b, fmt.Errorf("%s: box %q 的 date-format/digit 仅适用于 Date 字段", section.Pos, b.Label)
	}
	b.Style = b.Style.WithDefaults()
	return b, nil
}

func applyBoxAssignment(b *Box, a *dsl.Assignment) error {
	var err error
	switch strings.ToLower(a.Key) {
	case "field":
		b.Field, err = parseField(a)
	case "x":
		b.XMM, err = parseMM(a)
	case "y":
		b.YMM, err = parseMM(a)
	case "w", "width":
		b.WMM, err = parseMM(a)
	case "h", "height":
		b.HMM, err = parseMM(a)
	case "rotation":
		b.Rotation, err = parseNumber(a)
	case "z", "z-index":
		b.ZIndex, err = parseInt(a)
	case "locked":
		b.Locked, err = parseBool(a)
	case "font", "family":
		b.Style.FontFamily = a.Value.Raw()
	case "size":
		b.Style.FontSize, err = parsePt(a)
	case "bold":
		b.Style.Bold, err = parseBool(a)
	case "italic":
		b.Style.Italic, err = parseBool(a)
	case "letter-spacing":
		b.Style.LetterSpacing, err = parsePt(a)
	case "line-height":
		b.Style.LineHeight, err = parseNumber(a)
	case "color":
		if _, err = ParseColor(a.Value.Raw()); err == nil {
			b.Style.Color = a.Value.Raw()
		} else {
			err = valueError(a, "颜色无法解析")
		}
	case "uppercase":
		b.Style.Uppercase, err = parseBool(a)
	case "align":
		b.Style.Align, err = parseAlign(a)
	case "date-format":
		f := a.Value.Raw()
		b.DateFormat = &f
	case "digit", "date-digit":
		var idx int
		if idx, err = parseInt(a); err == nil {
			b.DateDigitIndex = &idx
		}
	default:
		err = fmt.Errorf("%s: box %q 未知属性 %s", a.Pos, b.Label, a.Key)
	}
	return err
}

func parseField(a *dsl.Assignment) (MappedField, error) {
	raw := a.Value.Raw()
	if strings.EqualFold(raw, "none") {
		return FieldNone, nil
	}
	for _, f := range Fields {
		if strings.EqualFold(raw, string(f)) {
			return f, nil
		}
	}
	return FieldNone, valueError(a, "未知字段")
}

func parseAlign(a *dsl.Assignment) (Align, error) {
	switch strings.ToLower(a.Value.Raw()) {
	case "left", "start":
		return AlignLeft, nil
	case "center", "middle":
		return AlignCenter, nil
	case "right", "end":
		return AlignRight, nil
	}
	return "", valueError(a, "应为 left/center/right")
}

// parseMM 解析长度；无单位数值按毫米处理。
func parseMM(a *dsl.Assignment) (float64, error) {
	l, err := parseLength(a)
	if err != nil {
		return 0, err
	}
	return l.ToMM(), nil
}

// parsePt 解析字号类长度；无单位数值按 pt 处理。
func parsePt(a *dsl.Assignment) (float64, error) {
	l, err := parseLength(a)
	if err != nil {
		return 0, err
	}
	return l.ToPT(), nil
}

func parseLength(a *dsl.Assignment) (Length, error) {
	if a.Value == nil || a.Value.Number == nil {
		return Length{}, valueError(a, "应为数值")
	}
	return ParseRawLengthStr(*a.Value.Number), nil
}

func parseNumber(a *dsl.Assignment) (float64, error) {
	if a.Value == nil || a.Value.Number == nil {
		return 0, valueError(a, "应为数值")
	}
	f, err := strconv.ParseFloat(*a.Value.Number, 64)
	if err != nil {
		return 0, valueError(a, "应为无单位数值")
	}
	return f, nil
}

func parseInt(a *dsl.Assignment) (int, error) {
	if a.Value == nil || a.Value.Number == nil {
		return 0, valueError(a, "应为整数")
	}
	n, err := strconv.Atoi(*a.Value.Number)
	if err != nil {
		return 0, valueError(a, "应为整数")
	}
	return n, nil
}

func parseBool(a *dsl.Assignment) (bool, error) {
	v, err := strconv.ParseBool(strings.ToLower(a.Value.Raw()))
	if err != nil {
		return false, valueError(a, "应为 true 或 false")
	}
	return v, nil
}

func valueError(a *dsl.Assignment, msg string) error {
	return fmt.Errorf("%s: %s 的值 %q 无效：%s", a.Pos, a.Key, a.Value.Raw(), msg)
}

package renderer

import (
	"fmt"
	"strings"

	"github.com/ByLCY/chequer/layout"
)

// Format 为渲染输出格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts pdf, png or svg in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatPNG, FormatSVG:
		return f, nil
	case "":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("不支持的输出格式：%s", s)
	}
}

// Renderer 将解析结果输出为最终文件。Render 返回多页 PDF 的字节数据。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// PageRenderer 将单页输出为图像类格式（PNG/SVG），也可输出单页 PDF。
type PageRenderer interface {
	RenderPage(result *layout.Result, index int, format Format) ([]byte, error)
}

// Typesetter 同时负责测量与绘制，保证分行时的测量结果与最终输出一致。
type Typesetter interface {
	Renderer
	PageRenderer
	layout.TextMeasurer
}

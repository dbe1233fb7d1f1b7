package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/chequer/fonts"
	"github.com/ByLCY/chequer/layout"
	"github.com/ByLCY/chequer/renderer"
)

const outlineWidth = 0.2 // mm

// Renderer 使用 github.com/tdewolff/canvas 测量并绘制解析结果。
// 测量与绘制共用同一组字体面，分行结果与最终输出一致。
type Renderer struct {
	baseDir string
	fonts   *fonts.Registry
	opts    Options

	fontMu       sync.Mutex
	fontFamilies map[string]*canvas.FontFamily

	// 字形整形不保证可重入，测量与绘制文本时串行化。
	shapeMu sync.Mutex
}

var (
	_ renderer.Typesetter = (*Renderer)(nil)
	_ layout.TextMeasurer = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   *fonts.Registry
	// Outline 为每个文本框绘制边框，用于版式校对。
	Outline bool
	// Background 在页面底层绘制模板的背景扫描图（如果有）。
	Background bool
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving background images.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with an explicit font registry and drawing switches.
func NewRendererWithOptions(opts Options) *Renderer {
	reg := opts.Fonts
	if reg == nil {
		reg = fonts.NewRegistry()
	}
	return &Renderer{
		baseDir:      opts.BaseDir,
		fonts:        reg,
		opts:         opts,
		fontFamilies: map[string]*canvas.FontFamily{},
	}
}

// TextWidth 实现 layout.TextMeasurer：返回给定 DPI 下的像素宽度。
// 字间距只加在字符之间，与 drawSpaced 的排布方式一致。
func (r *Renderer) TextWidth(text string, style layout.TextStyle, dpi int) float64 {
	if text == "" {
		return 0
	}
	face, err := r.fontFace(style, color.Black)
	if err != nil {
		return layout.EstimateMeasurer{}.TextWidth(text, style, dpi)
	}
	r.shapeMu.Lock()
	w := face.TextWidth(text)
	r.shapeMu.Unlock()
	return layout.MmToPx(w, dpi) + layout.LetterSpacingPx(text, style.LetterSpacing, dpi)
}

// Render 将全部页面输出为一个多页 PDF。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	w, h := pageSize(result, result.Pages[0])
	writer := pdf.New(&buf, w, h, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		pw, ph := pageSize(result, page)
		if i > 0 {
			writer.NewPage(pw, ph)
		}
		c, err := r.drawCanvas(result, page, false)
		if err != nil {
			return nil, fmt.Errorf("绘制第 %d 页失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage 将单页输出为 PDF、PNG（按模板 DPI 栅格化）或 SVG。
func (r *Renderer) RenderPage(result *layout.Result, index int, format renderer.Format) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if index < 0 || index >= len(result.Pages) {
		return nil, fmt.Errorf("页码 %d 超出范围（共 %d 页）", index+1, len(result.Pages))
	}
	page := result.Pages[index]

	switch format {
	case renderer.FormatPDF, "":
		single := *result
		single.Pages = []layout.Page{page}
		return r.Render(&single)
	case renderer.FormatPNG:
		c, err := r.drawCanvas(result, page, true)
		if err != nil {
			return nil, err
		}
		img := rasterizer.Draw(c, canvas.DPMM(float64(page.DPI)/layout.MmPerInch), canvas.DefaultColorSpace)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("编码 PNG 失败: %w", err)
		}
		return buf.Bytes(), nil
	case renderer.FormatSVG:
		c, err := r.drawCanvas(result, page, false)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := c.Write(&buf, renderers.SVG()); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("不支持的输出格式：%s", format)
	}
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// pageSize 返回页面的毫米尺寸。
func pageSize(result *layout.Result, page layout.Page) (float64, float64) {
	if result.Template.WidthMM > 0 && result.Template.HeightMM > 0 {
		return result.Template.WidthMM, result.Template.HeightMM
	}
	return layout.PxToMm(page.Width, page.DPI), layout.PxToMm(page.Height, page.DPI)
}

func (r *Renderer) drawCanvas(result *layout.Result, page layout.Page, paper bool) (*canvas.Canvas, error) {
	if page.DPI <= 0 {
		return nil, fmt.Errorf("页面 DPI 无效：%d", page.DPI)
	}
	w, h := pageSize(result, page)
	c := canvas.New(w, h)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与模板保持左上角为原点

	if paper {
		ctx.SetFillColor(canvas.White)
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(0, 0, canvas.Rectangle(w, h))
	}
	if r.opts.Background && result.Template.BackgroundPath != "" {
		if err := r.drawBackground(ctx, result.Template.BackgroundPath, w); err != nil {
			return nil, err
		}
	}
	for _, in := range page.Instructions {
		if err := r.drawInstruction(ctx, in, page.DPI); err != nil {
			return nil, fmt.Errorf("box %d: %w", in.BoxID, err)
		}
	}
	return c, nil
}

// drawInstruction 将像素坐标换算回毫米后绘制单个文本框。文本按框顶对齐，与预览一致。
func (r *Renderer) drawInstruction(ctx *canvas.Context, in layout.RenderInstruction, dpi int) error {
	x := layout.PxToMm(in.Rect.X, dpi)
	y := layout.PxToMm(in.Rect.Y, dpi)
	w := layout.PxToMm(in.Rect.Width, dpi)
	h := layout.PxToMm(in.Rect.Height, dpi)

	if in.Rotation != 0 {
		ctx.Push()
		defer ctx.Pop()
		ctx.RotateAbout(in.Rotation, x+w/2, y+h/2)
	}

	if r.opts.Outline {
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(canvas.Hex("#9ca3af"))
		ctx.SetStrokeWidth(outlineWidth)
		ctx.DrawPath(x, y, canvas.Rectangle(w, h))
	}
	if in.Text == "" {
		return nil
	}

	style := in.Style.TextStyle()
	face, err := r.fontFace(style, colorFromLayout(in.Color))
	if err != nil {
		return err
	}

	r.shapeMu.Lock()
	defer r.shapeMu.Unlock()

	baseline := y + face.Metrics().Ascent
	if style.LetterSpacing != 0 {
		r.drawSpaced(ctx, face, in.Text, x, w, baseline, in.Style.Align, style.LetterSpacing*layout.PtToMm)
		return nil
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch in.Style.Align {
	case layout.AlignCenter:
		textAlign = canvas.Center
		anchorX = x + w/2
	case layout.AlignRight:
		textAlign = canvas.Right
		anchorX = x + w
	default:
		textAlign = canvas.Left
		anchorX = x
	}
	ctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, in.Text, textAlign))
	return nil
}

// drawSpaced 逐字绘制带字间距的文本：第 i 个字符位于前缀宽度加 i 个间距处，
// 总宽度等于 TextWidth 的测量值。调用方持有 shapeMu。
func (r *Renderer) drawSpaced(ctx *canvas.Context, face *canvas.FontFace, text string, x, w, baseline float64, align layout.Align, spacing float64) {
	runes := []rune(text)
	total := face.TextWidth(text) + spacing*float64(len(runes)-1)
	left := x
	switch align {
	case layout.AlignCenter:
		left = x + (w-total)/2
	case layout.AlignRight:
		left = x + w - total
	}
	for i, ch := range runes {
		prefix := face.TextWidth(string(runes[:i]))
		ctx.DrawText(left+prefix+spacing*float64(i), baseline, canvas.NewTextLine(face, string(ch), canvas.Left))
	}
}

func (r *Renderer) drawBackground(ctx *canvas.Context, path string, widthMM float64) error {
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return fmt.Errorf("未指定资源目录时不允许使用相对路径：%s", path)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("读取背景图 %s 失败: %w", path, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return fmt.Errorf("解码背景图 %s 失败: %w", path, err)
	}
	dpmm := float64(img.Bounds().Dx()) / widthMM
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(0, 0, img, canvas.DPMM(dpmm))
	return nil
}

func (r *Renderer) fontFace(style layout.TextStyle, col color.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(style.Family)
	if err != nil {
		return nil, err
	}
	size := style.Size
	if size <= 0 {
		size = layout.DefaultFontSize
	}
	r.shapeMu.Lock()
	defer r.shapeMu.Unlock()
	return family.Face(size, col, fontStyle(style.Bold, style.Italic), canvas.FontNormal), nil
}

// ensureFontFamily 按规范名缓存字体族，四种样式一次性加载。
func (r *Renderer) ensureFontFamily(name string) (*canvas.FontFamily, error) {
	canonical, set := r.fonts.Resolve(name)

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if family, ok := r.fontFamilies[canonical]; ok {
		return family, nil
	}

	family := canvas.NewFontFamily(canonical)
	for _, s := range []fonts.Style{fonts.Regular, fonts.Bold, fonts.Italic, fonts.BoldItalic} {
		if err := family.LoadFont(set.Data(s), 0, fontStyle(s == fonts.Bold || s == fonts.BoldItalic, s == fonts.Italic || s == fonts.BoldItalic)); err != nil {
			return nil, fmt.Errorf("加载字体 %s (%s) 失败: %w", canonical, s, err)
		}
	}
	r.fontFamilies[canonical] = family
	return family, nil
}

func fontStyle(bold, italic bool) canvas.FontStyle {
	style := canvas.FontRegular
	if bold {
		style |= canvas.FontBold
	}
	if italic {
		style |= canvas.FontItalic
	}
	return style
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

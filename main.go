package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/chequer/config"
	"github.com/ByLCY/chequer/dsl"
	"github.com/ByLCY/chequer/fonts"
	"github.com/ByLCY/chequer/layout"
	"github.com/ByLCY/chequer/renderer"
	canvasrenderer "github.com/ByLCY/chequer/renderer/canvas"
	"github.com/ByLCY/chequer/service"
	"github.com/ByLCY/chequer/store"
	"github.com/ByLCY/chequer/words"
)

type options struct {
	configPath   string
	templatePath string
	chequesPath  string
	importPath   string
	outPath      string
	format       string
	debugPath    string
	labels       bool
	outline      bool
	dbPath       string
	templateID   int64
	chequeIDs    string
	printer      string
	copies       int
	offsetX      float64
	offsetY      float64
	offsetSet    bool
	seed         bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", config.DefaultLocation, "TOML 配置文件路径")
	flag.StringVar(&o.templatePath, "template", "", "模板 DSL 文件路径（不经过数据库直接渲染）")
	flag.StringVar(&o.chequesPath, "cheques", "", "与 -template 配合使用的支票 JSON 文件")
	flag.StringVar(&o.importPath, "import", "", "将模板 DSL 导入数据库")
	flag.StringVar(&o.outPath, "out", "output/cheques.pdf", "输出路径；png/svg 多页时自动追加页码")
	flag.StringVar(&o.format, "format", "pdf", "输出格式：pdf、png 或 svg")
	flag.StringVar(&o.debugPath, "debug", "", "布局调试 JSON 输出路径")
	flag.BoolVar(&o.labels, "labels", false, "输出未绑定文本框的 label（预览模式）")
	flag.BoolVar(&o.outline, "outline", false, "绘制文本框边框")
	flag.StringVar(&o.dbPath, "db", "", "覆盖配置中的数据库路径")
	flag.Int64Var(&o.templateID, "template-id", 0, "数据库中的模板 ID")
	flag.StringVar(&o.chequeIDs, "cheque-ids", "", "逗号分隔的支票 ID")
	flag.StringVar(&o.printer, "printer", "", "打印机名称，用于读取与保存偏移")
	flag.IntVar(&o.copies, "copies", 1, "每张支票的份数")
	flag.Float64Var(&o.offsetX, "offset-x", 0, "水平打印偏移（毫米）")
	flag.Float64Var(&o.offsetY, "offset-y", 0, "垂直打印偏移（毫米）")
	flag.BoolVar(&o.seed, "seed", false, "写入示例模板 MDV Cheque A5")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "offset-x" || f.Name == "offset-y" {
			o.offsetSet = true
		}
	})

	cfg, err := config.Load(o.configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()

	o.labels = o.labels || cfg.Labels
	if err := run(context.Background(), cfg, o, logger); err != nil {
		logger.Fatal("chequer failed", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	zc.DisableStacktrace = true
	return zc.Build()
}

// run 根据参数选择导入、示例数据、DSL 直出或数据库打印四种模式之一。
func run(ctx context.Context, cfg config.Config, o options, logger *zap.Logger) error {
	format, err := renderer.ParseFormat(o.format)
	if err != nil {
		return err
	}
	reg := fonts.NewRegistry()
	if err := cfg.RegisterFonts(reg); err != nil {
		return fmt.Errorf("注册字体失败: %w", err)
	}
	baseDir := cfg.DataDir
	if o.templatePath != "" {
		baseDir = filepath.Dir(o.templatePath)
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:    baseDir,
		Fonts:      reg,
		Outline:    o.outline,
		Background: o.labels,
	})

	if o.templatePath != "" && o.importPath == "" && !o.seed {
		return runTemplateFile(cfg, o, format, r, logger)
	}

	dbPath := cfg.DatabasePath()
	if o.dbPath != "" {
		dbPath = o.dbPath
	}
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return err
	}

	switch {
	case o.seed:
		t, err := st.EnsureSampleTemplate(ctx)
		if err != nil {
			return fmt.Errorf("写入示例模板失败: %w", err)
		}
		fmt.Printf("示例模板 ID：%d\n", t.ID)
		return nil
	case o.importPath != "":
		t, _, err := loadTemplate(o.importPath)
		if err != nil {
			return err
		}
		t.SnapToGrid(cfg.GridMM)
		saved, err := st.CreateTemplate(ctx, t)
		if err != nil {
			return fmt.Errorf("导入模板失败: %w", err)
		}
		fmt.Printf("已导入模板 %q，ID：%d\n", saved.Name, saved.ID)
		return nil
	case o.templateID > 0:
		svc, err := service.New(service.Params{
			Store:    st,
			Renderer: r,
			Composer: cfg.Composer(),
			Log:      logger,
			Locale:   cfg.LanguageTag(),
			Meta:     layout.DocumentMeta{Creator: "chequer"},
		})
		if err != nil {
			return err
		}
		return runStored(ctx, svc, o, format, r)
	default:
		return fmt.Errorf("需要 -template、-template-id、-import 或 -seed 之一")
	}
}

// runTemplateFile 直接从 DSL 与 JSON 渲染，不访问数据库。
func runTemplateFile(cfg config.Config, o options, format renderer.Format, r *canvasrenderer.Renderer, logger *zap.Logger) error {
	t, meta, err := loadTemplate(o.templatePath)
	if err != nil {
		return err
	}

	var cheques []*layout.Cheque
	if o.chequesPath != "" {
		cheques, err = loadCheques(o.chequesPath)
		if err != nil {
			return err
		}
	}
	composer := cfg.Composer()
	for _, c := range cheques {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("支票 %d: %w", c.ID, err)
		}
		c.Amount = words.RoundAmount(c.Amount)
		if strings.TrimSpace(c.AmountWords) == "" {
			if c.AmountWords, err = composer.Compose(c.Amount); err != nil {
				return fmt.Errorf("支票 %d: %w", c.ID, err)
			}
		}
	}

	if meta.Creator == "" {
		meta.Creator = "chequer"
	}
	res, err := layout.ResolveBatch(t, cheques, layout.ResolveOptions{
		Measurer:   r,
		Offset:     layout.Offset{XMM: o.offsetX, YMM: o.offsetY},
		HideLabels: !o.labels,
		Locale:     cfg.LanguageTag(),
		Meta:       meta,
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	logger.Info("template rendered",
		zap.String("template", t.Name),
		zap.Int("boxes", len(t.Boxes)),
		zap.Int("pages", len(res.Pages)),
	)
	return writeResult(res, o, format, r)
}

// runStored 使用数据库中的模板与支票：-labels 输出预览，否则按打印流程输出。
func runStored(ctx context.Context, svc *service.Service, o options, format renderer.Format, r *canvasrenderer.Renderer) error {
	ids, err := parseIDs(o.chequeIDs)
	if err != nil {
		return err
	}
	req := service.PrintRequest{
		TemplateID:  o.templateID,
		ChequeIDs:   ids,
		PrinterName: o.printer,
		Copies:      o.copies,
	}
	if o.offsetSet {
		req.Offset = &layout.Offset{XMM: o.offsetX, YMM: o.offsetY}
	}

	var res *layout.Result
	if o.labels {
		res, err = svc.Preview(ctx, req)
	} else {
		res, err = svc.PrintLayout(ctx, req)
	}
	if err != nil {
		return err
	}
	return writeResult(res, o, format, r)
}

func writeResult(res *layout.Result, o options, format renderer.Format, r *canvasrenderer.Renderer) error {
	if o.debugPath != "" {
		if err := writeDebug(res, o.debugPath); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(o.outPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	if format == renderer.FormatPDF {
		data, err := r.Render(res)
		if err != nil {
			return fmt.Errorf("渲染 PDF 失败: %w", err)
		}
		if err := os.WriteFile(o.outPath, data, 0o644); err != nil {
			return fmt.Errorf("写入 PDF 文件失败: %w", err)
		}
		fmt.Printf("已生成 PDF：%s\n", o.outPath)
		return nil
	}

	for i := range res.Pages {
		data, err := r.RenderPage(res, i, format)
		if err != nil {
			return fmt.Errorf("渲染第 %d 页失败: %w", i+1, err)
		}
		path := pagePath(o.outPath, i, len(res.Pages))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", path, err)
		}
		fmt.Printf("已生成 %s：%s\n", strings.ToUpper(string(format)), path)
	}
	return nil
}

// pagePath 在多页输出时为文件名追加页码：out.png -> out-1.png。
func pagePath(out string, index, total int) string {
	if total <= 1 {
		return out
	}
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(out, ext), index+1, ext)
}

func loadTemplate(path string) (*layout.Template, layout.DocumentMeta, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, layout.DocumentMeta{}, fmt.Errorf("无法打开模板文件 %s: %w", path, err)
	}
	defer file.Close()
	doc, err := dsl.ParseFile(path, file)
	if err != nil {
		return nil, layout.DocumentMeta{}, fmt.Errorf("解析模板失败: %w", err)
	}
	t, err := layout.Build(doc)
	if err != nil {
		return nil, layout.DocumentMeta{}, fmt.Errorf("构建模板失败: %w", err)
	}
	return t, layout.CollectMeta(doc), nil
}

func loadCheques(path string) ([]*layout.Cheque, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取支票文件失败: %w", err)
	}
	var cheques []*layout.Cheque
	if err := json.Unmarshal(data, &cheques); err != nil {
		return nil, fmt.Errorf("解析支票 JSON 失败: %w", err)
	}
	return cheques, nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("无效的支票 ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// Package service 串联存储、排版与渲染：创建支票、预览与打印。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/ByLCY/chequer/datefmt"
	"github.com/ByLCY/chequer/layout"
	"github.com/ByLCY/chequer/renderer"
	"github.com/ByLCY/chequer/store"
	"github.com/ByLCY/chequer/words"
)

var (
	ErrNoCheques  = errors.New("no cheques to print")
	ErrNoRenderer = errors.New("renderer is required")
	ErrNoStore    = errors.New("store is required")
)

// Store 为服务所需的持久化能力，*store.Store 满足该接口。
type Store interface {
	GetTemplate(ctx context.Context, id int64) (*layout.Template, error)
	GetCheques(ctx context.Context, ids []int64) ([]*layout.Cheque, error)
	CreateCheque(ctx context.Context, c *layout.Cheque) (*layout.Cheque, error)
	GetPrinterProfile(ctx context.Context, name string) (*store.PrinterProfile, error)
	SavePrinterProfile(ctx context.Context, name string, offset layout.Offset) (*store.PrinterProfile, error)
}

type Params struct {
	Store    Store
	Renderer renderer.Typesetter
	Composer words.Composer
	Log      *zap.Logger
	Locale   language.Tag
	Meta     layout.DocumentMeta
}

type Service struct {
	store    Store
	renderer renderer.Typesetter
	composer words.Composer
	log      *zap.Logger
	locale   language.Tag
	meta     layout.DocumentMeta
}

func New(p Params) (*Service, error) {
	if p.Store == nil {
		return nil, ErrNoStore
	}
	if p.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if p.Composer.Currency == "" {
		p.Composer = words.Default
	}
	if p.Log == nil {
		p.Log = zap.NewNop()
	}
	return &Service{
		store:    p.Store,
		renderer: p.Renderer,
		composer: p.Composer,
		log:      p.Log.Named("service"),
		locale:   p.Locale,
		meta:     p.Meta,
	}, nil
}

// PrintRequest 描述一次预览或打印。
// Offset 为 nil 时使用打印机配置中保存的偏移；Copies 小于 1 按 1 处理。
type PrintRequest struct {
	TemplateID  int64
	ChequeIDs   []int64
	PrinterName string
	Offset      *layout.Offset
	Copies      int
	HideLabels  bool
}

// CreateCheque 校验并保存支票；大写金额为空时按金额自动生成。
func (s *Service) CreateCheque(ctx context.Context, c *layout.Cheque) (*layout.Cheque, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	in := *c
	in.Payee = strings.TrimSpace(in.Payee)
	in.Amount = words.RoundAmount(in.Amount)
	if !datefmt.Valid(in.Date) {
		return nil, fmt.Errorf("%w: invalid date %q", layout.ErrInvalidCheque, in.Date)
	}
	if strings.TrimSpace(in.AmountWords) == "" {
		text, err := s.composer.Compose(in.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", layout.ErrInvalidCheque, err)
		}
		in.AmountWords = text
	}
	saved, err := s.store.CreateCheque(ctx, &in)
	if err != nil {
		return nil, err
	}
	s.log.Info("cheque created",
		zap.Int64("cheque_id", saved.ID),
		zap.Int64("template_id", saved.TemplateID),
	)
	return saved, nil
}

// Preview 解析带标签的预览页；没有支票时返回一页空白预览。
func (s *Service) Preview(ctx context.Context, req PrintRequest) (*layout.Result, error) {
	t, err := s.store.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template %d: %w", req.TemplateID, err)
	}
	cheques, err := s.store.GetCheques(ctx, req.ChequeIDs)
	if err != nil {
		return nil, fmt.Errorf("load cheques: %w", err)
	}
	offset := layout.Offset{}
	if req.Offset != nil {
		offset = *req.Offset
	}
	return layout.ResolveBatch(t, cheques, s.options(offset, req.HideLabels))
}

// PrintLayout resolves the print pages without labels, repeating each
// cheque Copies times, and remembers the offset for the printer.
func (s *Service) PrintLayout(ctx context.Context, req PrintRequest) (*layout.Result, error) {
	t, err := s.store.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template %d: %w", req.TemplateID, err)
	}
	cheques, err := s.store.GetCheques(ctx, req.ChequeIDs)
	if err != nil {
		return nil, fmt.Errorf("load cheques: %w", err)
	}
	if len(cheques) == 0 {
		return nil, ErrNoCheques
	}
	offset, err := s.resolveOffset(ctx, req)
	if err != nil {
		return nil, err
	}
	copies := req.Copies
	if copies < 1 {
		copies = 1
	}

	opts := s.options(offset, true)
	res := layout.NewResult(t, opts.Meta)
	res.Pages = make([]layout.Page, 0, len(cheques)*copies)
	for _, c := range cheques {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := layout.Resolve(t, c, opts)
		if err != nil {
			return nil, fmt.Errorf("cheque %d: %w", c.ID, err)
		}
		for i := 0; i < copies; i++ {
			res.Pages = append(res.Pages, *page)
		}
	}

	if req.PrinterName != "" {
		if _, err := s.store.SavePrinterProfile(ctx, req.PrinterName, offset); err != nil {
			// 打印本身已成功，配置写入失败只记录
			s.log.Warn("save printer profile failed", zap.String("printer", req.PrinterName), zap.Error(err))
		}
	}
	s.log.Info("print job resolved",
		zap.Int64("template_id", t.ID),
		zap.Int("cheques", len(cheques)),
		zap.Int("copies", copies),
		zap.Int("pages", len(res.Pages)),
		zap.String("printer", req.PrinterName),
		zap.Float64("offset_x_mm", offset.XMM),
		zap.Float64("offset_y_mm", offset.YMM),
	)
	return res, nil
}

// Print renders the print job as a multi-page PDF.
func (s *Service) Print(ctx context.Context, req PrintRequest) ([]byte, error) {
	res, err := s.PrintLayout(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := s.renderer.Render(res)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return data, nil
}

// Export 按页输出 PNG/SVG（或单页 PDF）。
func (s *Service) Export(ctx context.Context, req PrintRequest, format renderer.Format) ([][]byte, error) {
	res, err := s.PrintLayout(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(res.Pages))
	for i := range res.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.renderer.RenderPage(res, i, format)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		out = append(out, data)
	}
	return out, nil
}

func (s *Service) resolveOffset(ctx context.Context, req PrintRequest) (layout.Offset, error) {
	if req.Offset != nil {
		return *req.Offset, nil
	}
	if req.PrinterName == "" {
		return layout.Offset{}, nil
	}
	profile, err := s.store.GetPrinterProfile(ctx, req.PrinterName)
	if errors.Is(err, store.ErrNotFound) {
		return layout.Offset{}, nil
	}
	if err != nil {
		return layout.Offset{}, fmt.Errorf("load printer profile %s: %w", req.PrinterName, err)
	}
	return profile.Offset, nil
}

func (s *Service) options(offset layout.Offset, hideLabels bool) layout.ResolveOptions {
	return layout.ResolveOptions{
		Measurer:   s.renderer,
		Offset:     offset,
		HideLabels: hideLabels,
		Locale:     s.locale,
		Meta:       s.meta,
	}
}

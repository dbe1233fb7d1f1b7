package store

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ByLCY/chequer/layout"
)

const sampleTemplateName = "MDV Cheque A5"

// SampleTemplate 返回内置的马尔代夫支票模板（A5 横向裁切，210x99mm）。
func SampleTemplate() *layout.Template {
	style := func(align layout.Align) layout.Style {
		return layout.Style{FontFamily: "Arial", FontSize: 10, LineHeight: layout.DefaultLineHeight, Color: layout.DefaultColor, Align: align}
	}
	return &layout.Template{
		Name:        sampleTemplateName,
		WidthMM:     210,
		HeightMM:    99,
		DPI:         layout.DefaultDPI,
		Orientation: layout.Landscape,
		MarginMM:    5,
		Boxes: []layout.Box{
			{Label: "Payee", Field: layout.FieldPayeeName, XMM: 40, YMM: 28, WMM: 120, HMM: 10, Style: style(layout.AlignLeft), ZIndex: 0},
			{Label: "Amount Words", Field: layout.FieldAmountWords, XMM: 20, YMM: 42, WMM: 170, HMM: 12, Style: style(layout.AlignLeft), ZIndex: 1},
			{Label: "Amount Numeric", Field: layout.FieldAmountNumeric, XMM: 155, YMM: 28, WMM: 35, HMM: 10, Style: style(layout.AlignRight), ZIndex: 2},
			{Label: "Date", Field: layout.FieldDate, XMM: 160, YMM: 12, WMM: 30, HMM: 8, Style: style(layout.AlignCenter), ZIndex: 3},
		},
	}
}

// EnsureSampleTemplate seeds the sample template unless one with the same name exists.
func (s *Store) EnsureSampleTemplate(ctx context.Context) (*layout.Template, error) {
	var existing Template
	err := s.db.WithContext(ctx).Where("name = ?", sampleTemplateName).Order("id asc").First(&existing).Error
	if err == nil {
		return s.GetTemplate(ctx, existing.ID.Int64())
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	t, err := s.CreateTemplate(ctx, SampleTemplate())
	if err != nil {
		return nil, err
	}
	s.log.Info("seeded template", zap.Int64("template_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

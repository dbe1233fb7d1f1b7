// Package store 负责模板、支票与打印机配置的持久化，基于 gorm + sqlite。
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ByLCY/chequer/layout"
)

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidInput   = errors.New("invalid_input")
	ErrMissingPrinter = errors.New("printer_name_required")
)

// ListLimit 限制 ListCheques 一次返回的行数。
const ListLimit = 200

// Store wraps a gorm connection and an ID generator.
type Store struct {
	db   *gorm.DB
	node *snowflake.Node
	log  *zap.Logger
	now  func() time.Time
}

// Open 打开（必要时创建）sqlite 数据库并完成迁移。
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return New(db, log)
}

// New builds a Store on an existing connection and migrates the schema.
func New(db *gorm.DB, log *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: nil database")
	}
	if log == nil {
		log = zap.NewNop()
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, node: node, log: log.Named("store"), now: func() time.Time { return time.Now().UTC() }}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the four tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Template{}, &TemplateBox{}, &Cheque{}, &PrinterProfileRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB { return s.db }

// CreateTemplate 保存模板及其所有框，返回带新 ID 的副本。
func (s *Store) CreateTemplate(ctx context.Context, t *layout.Template) (*layout.Template, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil template", ErrInvalidInput)
	}
	in := *t
	in.Name = strings.TrimSpace(in.Name)
	if in.DPI <= 0 {
		in.DPI = layout.DefaultDPI
	}
	if in.Orientation == "" {
		in.Orientation = layout.Landscape
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	row := Template{
		ID:             s.node.Generate(),
		Name:           in.Name,
		WidthMM:        in.WidthMM,
		HeightMM:       in.HeightMM,
		DPI:            in.DPI,
		Orientation:    string(in.Orientation),
		MarginMM:       in.MarginMM,
		BackgroundPath: in.BackgroundPath,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	boxes := s.boxRows(row.ID, in.Boxes, now)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(boxes) > 0 {
			if err := tx.Create(&boxes).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	s.log.Debug("template created", zap.Int64("template_id", row.ID.Int64()), zap.Int("boxes", len(boxes)))
	return toTemplate(row, boxes), nil
}

// GetTemplate loads a template with its boxes ordered by (z_index, id).
func (s *Store) GetTemplate(ctx context.Context, id int64) (*layout.Template, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	db := s.db.WithContext(ctx)
	var row Template
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var boxes []TemplateBox
	if err := db.Where("template_id = ?", id).Order("z_index asc").Order("id asc").Find(&boxes).Error; err != nil {
		return nil, err
	}
	return toTemplate(row, boxes), nil
}

// ListTemplates 按最近更新排序返回模板摘要（不含框）。
func (s *Store) ListTemplates(ctx context.Context) ([]layout.TemplateInfo, error) {
	var rows []Template
	if err := s.db.WithContext(ctx).Order("updated_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	infos := make([]layout.TemplateInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, layout.TemplateInfo{
			ID:             row.ID.Int64(),
			Name:           row.Name,
			WidthMM:        row.WidthMM,
			HeightMM:       row.HeightMM,
			DPI:            row.DPI,
			Orientation:    layout.Orientation(row.Orientation),
			BackgroundPath: row.BackgroundPath,
		})
	}
	return infos, nil
}

// TemplatePatch 描述模板的部分更新，nil 字段保持不变。
type TemplatePatch struct {
	Name           *string
	WidthMM        *float64
	HeightMM       *float64
	DPI            *int
	Orientation    *layout.Orientation
	MarginMM       *float64
	BackgroundPath *string
}

// UpdateTemplate applies patch and returns the updated template.
func (s *Store) UpdateTemplate(ctx context.Context, id int64, patch TemplatePatch) (*layout.Template, error) {
	current, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		current.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.WidthMM != nil {
		current.WidthMM = *patch.WidthMM
	}
	if patch.HeightMM != nil {
		current.HeightMM = *patch.HeightMM
	}
	if patch.DPI != nil {
		current.DPI = *patch.DPI
	}
	if patch.Orientation != nil {
		current.Orientation = *patch.Orientation
	}
	if patch.MarginMM != nil {
		current.MarginMM = *patch.MarginMM
	}
	if patch.BackgroundPath != nil {
		current.BackgroundPath = *patch.BackgroundPath
	}
	if err := current.Validate(); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":            current.Name,
		"width_mm":        current.WidthMM,
		"height_mm":       current.HeightMM,
		"dpi":             current.DPI,
		"orientation":     string(current.Orientation),
		"margin_mm":       current.MarginMM,
		"background_path": current.BackgroundPath,
		"updated_at":      s.now(),
	}
	if err := s.db.WithContext(ctx).Model(&Template{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return current, nil
}

// DeleteTemplate 删除模板与其所有框。已有支票保留，但无法再渲染。
func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", id).Delete(&TemplateBox{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Template{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ReplaceBoxes 整体替换模板的框：先删除再按顺序插入，新框获得新 ID。
func (s *Store) ReplaceBoxes(ctx context.Context, templateID int64, boxes []layout.Box) ([]layout.Box, error) {
	for i := range boxes {
		if err := boxes[i].Validate(); err != nil {
			return nil, err
		}
	}
	now := s.now()
	rows := s.boxRows(snowflake.ID(templateID), boxes, now)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Template{}).Where("id = ?", templateID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Where("template_id = ?", templateID).Delete(&TemplateBox{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return tx.Model(&Template{}).Where("id = ?", templateID).Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]layout.Box, 0, len(rows))
	for _, row := range rows {
		out = append(out, toBox(row))
	}
	return out, nil
}

// DeleteBox removes a single box.
func (s *Store) DeleteBox(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&TemplateBox{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) boxRows(templateID snowflake.ID, boxes []layout.Box, now time.Time) []TemplateBox {
	rows := make([]TemplateBox, 0, len(boxes))
	for _, b := range boxes {
		rows = append(rows, fromBox(s.node.Generate(), templateID, b, now))
	}
	return rows
}

// CreateCheque persists c under its template and returns it with the new ID.
func (s *Store) CreateCheque(ctx context.Context, c *layout.Cheque) (*layout.Cheque, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil cheque", ErrInvalidInput)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetTemplate(ctx, c.TemplateID); err != nil {
		return nil, fmt.Errorf("cheque template %d: %w", c.TemplateID, err)
	}
	row, err := fromCheque(c)
	if err != nil {
		return nil, fmt.Errorf("%w: custom fields: %v", ErrInvalidInput, err)
	}
	now := s.now()
	row.ID = s.node.Generate()
	row.CreatedAt = now
	row.UpdatedAt = now
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create cheque: %w", err)
	}
	return toCheque(row), nil
}

// GetCheques 按 id 升序返回存在的支票，非正数 id 被忽略，不存在的 id 不报错。
func (s *Store) GetCheques(ctx context.Context, ids []int64) ([]*layout.Cheque, error) {
	valid := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*layout.Cheque{}, nil
	}
	var rows []Cheque
	if err := s.db.WithContext(ctx).Where("id IN ?", valid).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*layout.Cheque, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCheque(row))
	}
	return out, nil
}

// ListCheques returns the newest cheques of a template, or of all templates
// when templateID is not positive.
func (s *Store) ListCheques(ctx context.Context, templateID int64) ([]*layout.Cheque, error) {
	q := s.db.WithContext(ctx).Model(&Cheque{})
	if templateID > 0 {
		q = q.Where("template_id = ?", templateID)
	}
	var rows []Cheque
	if err := q.Order("id desc").Limit(ListLimit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*layout.Cheque, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCheque(row))
	}
	return out, nil
}

// UpdateCheque 覆盖支票的全部数据字段。
func (s *Store) UpdateCheque(ctx context.Context, c *layout.Cheque) error {
	if c == nil || c.ID <= 0 {
		return fmt.Errorf("%w: cheque id required", ErrInvalidInput)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	row, err := fromCheque(c)
	if err != nil {
		return fmt.Errorf("%w: custom fields: %v", ErrInvalidInput, err)
	}
	updates := map[string]any{
		"template_id":  row.TemplateID,
		"date":         row.Date,
		"payee":        row.Payee,
		"amount":       row.Amount,
		"amount_words": row.AmountWords,
		"cheque_no":    row.ChequeNo,
		"account_no":   row.AccountNo,
		"bank":         row.Bank,
		"branch":       row.Branch,
		"custom":       row.Custom,
		"updated_at":   s.now(),
	}
	res := s.db.WithContext(ctx).Model(&Cheque{}).Where("id = ?", c.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCheque removes a cheque.
func (s *Store) DeleteCheque(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Cheque{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPrinterProfile returns the saved offset of a printer.
func (s *Store) GetPrinterProfile(ctx context.Context, name string) (*PrinterProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingPrinter
	}
	var row PrinterProfileRow
	if err := s.db.WithContext(ctx).Where("printer_name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p := &PrinterProfile{
		PrinterName: row.PrinterName,
		Offset:      layout.Offset{XMM: row.OffsetXMM, YMM: row.OffsetYMM},
	}
	if row.LastUsedAt != nil {
		p.LastUsedAt = *row.LastUsedAt
	}
	return p, nil
}

// SavePrinterProfile 写入或更新打印机偏移，并刷新 last_used_at。
func (s *Store) SavePrinterProfile(ctx context.Context, name string, offset layout.Offset) (*PrinterProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingPrinter
	}
	now := s.now()
	row := PrinterProfileRow{
		PrinterName: name,
		OffsetXMM:   offset.XMM,
		OffsetYMM:   offset.YMM,
		LastUsedAt:  &now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "printer_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"offset_x_mm", "offset_y_mm", "last_used_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("save printer profile: %w", err)
	}
	return &PrinterProfile{PrinterName: name, Offset: offset, LastUsedAt: now}, nil
}

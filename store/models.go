package store

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/ByLCY/chequer/layout"
)

// Template is the persisted page geometry of a cheque layout.
type Template struct {
	ID             snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Name           string       `gorm:"type:text;not null"`
	WidthMM        float64      `gorm:"column:width_mm;not null"`
	HeightMM       float64      `gorm:"column:height_mm;not null"`
	DPI            int          `gorm:"column:dpi;not null;default:300"`
	Orientation    string       `gorm:"type:text;not null;default:'Landscape'"`
	MarginMM       float64      `gorm:"column:margin_mm;not null;default:0"`
	BackgroundPath string       `gorm:"type:text"`
	CreatedAt      time.Time    `gorm:"not null"`
	UpdatedAt      time.Time    `gorm:"not null;index"`
}

// TableName sets the database table name.
func (Template) TableName() string { return "templates" }

// TemplateBox is one positioned text region of a template.
type TemplateBox struct {
	ID             snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	TemplateID     snowflake.ID `gorm:"not null;index"`
	Label          string       `gorm:"type:text;not null"`
	MappedField    string       `gorm:"type:text"`
	XMM            float64      `gorm:"column:x_mm;not null"`
	YMM            float64      `gorm:"column:y_mm;not null"`
	WMM            float64      `gorm:"column:w_mm;not null"`
	HMM            float64      `gorm:"column:h_mm;not null"`
	Rotation       float64      `gorm:"not null;default:0"`
	FontFamily     string       `gorm:"type:text;not null;default:'System'"`
	FontSize       float64      `gorm:"not null;default:12"`
	Bold           bool         `gorm:"not null;default:false"`
	Italic         bool         `gorm:"not null;default:false"`
	LetterSpacing  float64      `gorm:"not null;default:0"`
	LineHeight     float64      `gorm:"not null;default:1.2"`
	Color          string       `gorm:"type:text;not null;default:'#000000'"`
	Uppercase      bool         `gorm:"not null;default:false"`
	Align          string       `gorm:"type:text;not null;default:'left'"`
	ZIndex         int          `gorm:"column:z_index;not null;default:0"`
	Locked         bool         `gorm:"not null;default:false"`
	DateFormat     *string      `gorm:"type:text"`
	DateDigitIndex *int         `gorm:"column:date_digit_index"`
	CreatedAt      time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (TemplateBox) TableName() string { return "template_boxes" }

// Cheque is one filled-in cheque bound to a template.
type Cheque struct {
	ID          snowflake.ID   `gorm:"primaryKey;autoIncrement:false"`
	TemplateID  snowflake.ID   `gorm:"not null;index"`
	Date        string         `gorm:"type:text;not null"`
	Payee       string         `gorm:"type:text;not null"`
	Amount      float64        `gorm:"not null"`
	AmountWords string         `gorm:"type:text;not null"`
	ChequeNo    string         `gorm:"type:text"`
	AccountNo   string         `gorm:"type:text"`
	Bank        string         `gorm:"type:text"`
	Branch      string         `gorm:"type:text"`
	Custom      datatypes.JSON `gorm:"type:json"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (Cheque) TableName() string { return "cheques" }

// PrinterProfileRow remembers the last print offset used per printer.
type PrinterProfileRow struct {
	PrinterName string     `gorm:"primaryKey;type:text"`
	OffsetXMM   float64    `gorm:"column:offset_x_mm;not null;default:0"`
	OffsetYMM   float64    `gorm:"column:offset_y_mm;not null;default:0"`
	LastUsedAt  *time.Time `gorm:"column:last_used_at"`
}

// TableName sets the database table name.
func (PrinterProfileRow) TableName() string { return "printer_profiles" }

// PrinterProfile is the domain view of a printer's saved offset.
type PrinterProfile struct {
	PrinterName string        `json:"printer_name"`
	Offset      layout.Offset `json:"offset"`
	LastUsedAt  time.Time     `json:"last_used_at"`
}

func toTemplate(row Template, boxes []TemplateBox) *layout.Template {
	t := &layout.Template{
		ID:             row.ID.Int64(),
		Name:           row.Name,
		WidthMM:        row.WidthMM,
		HeightMM:       row.HeightMM,
		DPI:            row.DPI,
		Orientation:    layout.Orientation(row.Orientation),
		MarginMM:       row.MarginMM,
		BackgroundPath: row.BackgroundPath,
		Boxes:          make([]layout.Box, 0, len(boxes)),
	}
	for _, b := range boxes {
		t.Boxes = append(t.Boxes, toBox(b))
	}
	return t
}

func toBox(row TemplateBox) layout.Box {
	return layout.Box{
		ID:       row.ID.Int64(),
		Label:    row.Label,
		Field:    layout.MappedField(row.MappedField),
		XMM:      row.XMM,
		YMM:      row.YMM,
		WMM:      row.WMM,
		HMM:      row.HMM,
		Rotation: row.Rotation,
		Style: layout.Style{
			FontFamily:    row.FontFamily,
			FontSize:      row.FontSize,
			Bold:          row.Bold,
			Italic:        row.Italic,
			LetterSpacing: row.LetterSpacing,
			LineHeight:    row.LineHeight,
			Color:         row.Color,
			Uppercase:     row.Uppercase,
			Align:         layout.Align(row.Align),
		},
		ZIndex:         row.ZIndex,
		Locked:         row.Locked,
		DateFormat:     row.DateFormat,
		DateDigitIndex: row.DateDigitIndex,
	}
}

func fromBox(id, templateID snowflake.ID, b layout.Box, now time.Time) TemplateBox {
	style := b.Style.WithDefaults()
	return TemplateBox{
		ID:             id,
		TemplateID:     templateID,
		Label:          b.Label,
		MappedField:    string(b.Field),
		XMM:            b.XMM,
		YMM:            b.YMM,
		WMM:            b.WMM,
		HMM:            b.HMM,
		Rotation:       b.Rotation,
		FontFamily:     style.FontFamily,
		FontSize:       style.FontSize,
		Bold:           style.Bold,
		Italic:         style.Italic,
		LetterSpacing:  style.LetterSpacing,
		LineHeight:     style.LineHeight,
		Color:          style.Color,
		Uppercase:      style.Uppercase,
		Align:          string(style.Align),
		ZIndex:         b.ZIndex,
		Locked:         b.Locked,
		DateFormat:     b.DateFormat,
		DateDigitIndex: b.DateDigitIndex,
		CreatedAt:      now,
	}
}

func toCheque(row Cheque) *layout.Cheque {
	c := &layout.Cheque{
		ID:          row.ID.Int64(),
		TemplateID:  row.TemplateID.Int64(),
		Date:        row.Date,
		Payee:       row.Payee,
		Amount:      row.Amount,
		AmountWords: row.AmountWords,
		ChequeNo:    row.ChequeNo,
		AccountNo:   row.AccountNo,
		Bank:        row.Bank,
		Branch:      row.Branch,
	}
	if len(row.Custom) > 0 {
		// 自定义字段损坏时按空处理，不影响主字段渲染
		_ = json.Unmarshal(row.Custom, &c.Custom)
	}
	return c
}

func fromCheque(c *layout.Cheque) (Cheque, error) {
	row := Cheque{
		ID:          snowflake.ID(c.ID),
		TemplateID:  snowflake.ID(c.TemplateID),
		Date:        c.Date,
		Payee:       c.Payee,
		Amount:      c.Amount,
		AmountWords: c.AmountWords,
		ChequeNo:    c.ChequeNo,
		AccountNo:   c.AccountNo,
		Bank:        c.Bank,
		Branch:      c.Branch,
	}
	if len(c.Custom) > 0 {
		data, err := json.Marshal(c.Custom)
		if err != nil {
			return row, err
		}
		row.Custom = datatypes.JSON(data)
	}
	return row, nil
}

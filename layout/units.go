package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for template geometry.
// Template geometry is authored in millimeters; the render surface works in
// pixels at the template DPI; font sizes are typographic points.

// Unit represents the original unit of a length value as specified in DSL.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, interpreted by the caller
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt, mm and inches.
const (
	MmPerInch = 25.4
	PtPerInch = 72.0
	PtToMm    = MmPerInch / PtPerInch
	MmToPt    = PtPerInch / MmPerInch
)

// MmToPx converts millimeters to pixels at the given resolution.
func MmToPx(mm float64, dpi int) float64 { return mm * float64(dpi) / MmPerInch }

// PxToMm converts pixels at the given resolution back to millimeters.
func PxToMm(px float64, dpi int) float64 { return px * MmPerInch / float64(dpi) }

// PtToPx converts typographic points to pixels at the given resolution.
func PtToPx(pt float64, dpi int) float64 { return pt * float64(dpi) / PtPerInch }

// PxToPt converts pixels at the given resolution to typographic points.
func PxToPt(px float64, dpi int) float64 { return px * PtPerInch / float64(dpi) }

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// To converts this length to target unit. Supported targets: UnitMM, UnitPT.
// UnitNone lengths are returned unchanged; the caller decides their meaning.
func (l Length) To(target Unit) float64 {
	var mm float64
	switch l.Unit {
	case UnitMM:
		mm = l.Value
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = l.Value * MmPerInch
	case UnitPT:
		if target == UnitPT {
			return l.Value
		}
		mm = l.Value * PtToMm
	default:
		return l.Value
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr parses a DSL length string preserving its unit.
func ParseRawLengthStr(value string) Length {
	v := strings.TrimSpace(value)
	if v == "" {
		return Length{Value: 0, Unit: UnitNone}
	}
	lower := strings.ToLower(v)
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{Value: 0, Unit: UnitNone}
	}
	return Length{Value: f, Unit: unit}
}

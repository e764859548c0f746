// Package style holds the editor's appearance state: how the overlay text is
// drawn and which filters are applied to the base image.
package style

import (
	"errors"
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidValue is returned by setters that receive a value outside the
// enumerated set for that field, or a colour that is not a hex triplet.
var ErrInvalidValue = errors.New("style: invalid value")

// Text size bounds, in CSS pixels.
const (
	MinFontSizePx      = 16
	MaxFontSizePx      = 120
	MinLetterSpacingPx = -2
	MaxLetterSpacingPx = 20
)

type FontWeight string

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

type FontStyle string

const (
	StyleNormal FontStyle = "normal"
	StyleItalic FontStyle = "italic"
)

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

type TextDecoration string

const (
	DecorationNone      TextDecoration = "none"
	DecorationUnderline TextDecoration = "underline"
)

type TextTransform string

const (
	TransformNone      TextTransform = "none"
	TransformUppercase TextTransform = "uppercase"
)

// Palette lists the quick-pick text colours offered by the editor.
var Palette = []string{"#ffffff", "#000000", "#f87171", "#fbbf24", "#4ade80", "#60a5fa", "#a78bfa"}

// TextStyle describes the appearance of the overlay text.
type TextStyle struct {
	Color           string         `json:"color"`
	FontSizePx      float64        `json:"fontSizePx"`
	FontFamily      string         `json:"fontFamily"`
	FontWeight      FontWeight     `json:"fontWeight"`
	FontStyle       FontStyle      `json:"fontStyle"`
	TextAlign       TextAlign      `json:"textAlign"`
	TextDecoration  TextDecoration `json:"textDecoration"`
	TextTransform   TextTransform  `json:"textTransform"`
	LetterSpacingPx float64        `json:"letterSpacingPx"`
}

// DefaultTextStyle returns the style a fresh editor session starts with.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		Color:           "#ffffff",
		FontSizePx:      24,
		FontFamily:      "sans",
		FontWeight:      WeightBold,
		FontStyle:       StyleNormal,
		TextAlign:       AlignCenter,
		TextDecoration:  DecorationNone,
		TextTransform:   TransformNone,
		LetterSpacingPx: 0,
	}
}

// Normalize clamps numeric fields and replaces unknown or empty enum values
// with their defaults. It is used on styles that arrive from outside the
// Model, such as decoded JSON.
func (s TextStyle) Normalize() TextStyle {
	def := DefaultTextStyle()
	if c, err := NormalizeColor(s.Color); err == nil {
		s.Color = c
	} else {
		s.Color = def.Color
	}
	if s.FontSizePx == 0 {
		s.FontSizePx = def.FontSizePx
	}
	s.FontSizePx = ClampFontSize(s.FontSizePx)
	s.LetterSpacingPx = ClampLetterSpacing(s.LetterSpacingPx)
	if strings.TrimSpace(s.FontFamily) == "" {
		s.FontFamily = def.FontFamily
	}
	if !s.FontWeight.valid() {
		s.FontWeight = def.FontWeight
	}
	if !s.FontStyle.valid() {
		s.FontStyle = def.FontStyle
	}
	if !s.TextAlign.valid() {
		s.TextAlign = def.TextAlign
	}
	if !s.TextDecoration.valid() {
		s.TextDecoration = def.TextDecoration
	}
	if !s.TextTransform.valid() {
		s.TextTransform = def.TextTransform
	}
	return s
}

func (w FontWeight) valid() bool     { return w == WeightNormal || w == WeightBold }
func (s FontStyle) valid() bool      { return s == StyleNormal || s == StyleItalic }
func (a TextAlign) valid() bool      { return a == AlignLeft || a == AlignCenter || a == AlignRight }
func (d TextDecoration) valid() bool { return d == DecorationNone || d == DecorationUnderline }
func (t TextTransform) valid() bool  { return t == TransformNone || t == TransformUppercase }

// ClampFontSize bounds a font size to [MinFontSizePx, MaxFontSizePx].
func ClampFontSize(px float64) float64 {
	return clamp(px, MinFontSizePx, MaxFontSizePx)
}

// ClampLetterSpacing bounds letter spacing to [MinLetterSpacingPx, MaxLetterSpacingPx].
func ClampLetterSpacing(px float64) float64 {
	return clamp(px, MinLetterSpacingPx, MaxLetterSpacingPx)
}

// NormalizeColor validates a #rgb or #rrggbb colour and returns it as a
// lower-case #rrggbb string.
func NormalizeColor(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	if len(value) == 4 {
		value = "#" + strings.Repeat(value[1:2], 2) + strings.Repeat(value[2:3], 2) + strings.Repeat(value[3:4], 2)
	}
	if len(value) != 7 {
		return "", fmt.Errorf("%w: colour %q", ErrInvalidValue, value)
	}
	c, err := colorful.Hex(value)
	if err != nil {
		return "", fmt.Errorf("%w: colour %q", ErrInvalidValue, value)
	}
	return c.Hex(), nil
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package scene is the explicit description of what the editor shows: the
// picture, its filters and the text layer, laid out in a preview box. The
// exporter renders a Scene without looking at any live UI state.
package scene

import (
	"errors"
	"fmt"
	"math"

	"inspiria/overlay"
	"inspiria/source"
	"inspiria/style"
)

// MaxPreviewSide bounds each preview dimension. Exports render at a multiple
// of it.
const MaxPreviewSide = 2560

// ErrInvalidScene is wrapped by Validate errors.
var ErrInvalidScene = errors.New("scene: invalid")

// Size is a width and height in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextLayer is the overlay text and where it sits.
type TextLayer struct {
	Text   string          `json:"text"`
	Style  style.TextStyle `json:"style"`
	Offset overlay.Offset  `json:"offset"`
}

type Scene struct {
	Source  source.Ref        `json:"source"`
	Filters style.FilterState `json:"filters"`
	Text    TextLayer         `json:"text"`
	// Preview is the size the picture is displayed at while editing. The
	// text offset and font size are relative to it.
	Preview Size `json:"preview"`
}

// Default returns a scene for ref with the editor's starting state.
func Default(ref source.Ref, preview Size) Scene {
	return Scene{
		Source:  ref,
		Filters: style.DefaultFilters(),
		Text: TextLayer{
			Text:  source.DefaultOverlayText,
			Style: style.DefaultTextStyle(),
		},
		Preview: preview,
	}
}

// Validate checks that the scene can be rendered.
func (s Scene) Validate() error {
	if !(s.Preview.Width > 0) || !(s.Preview.Height > 0) || math.IsInf(s.Preview.Width, 0) || math.IsInf(s.Preview.Height, 0) {
		return fmt.Errorf("%w: preview size %vx%v", ErrInvalidScene, s.Preview.Width, s.Preview.Height)
	}
	if s.Preview.Width > MaxPreviewSide || s.Preview.Height > MaxPreviewSide {
		return fmt.Errorf("%w: preview size %vx%v over %d", ErrInvalidScene, s.Preview.Width, s.Preview.Height, MaxPreviewSide)
	}
	if err := s.Source.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	return nil
}

// Normalized returns a copy with style and filter values clamped into range.
func (s Scene) Normalized() Scene {
	s.Filters = s.Filters.Clamp()
	s.Text.Style = s.Text.Style.Normalize()
	return s
}

// Layer returns the overlay layer for rendering at scale.
func (s Scene) Layer(scale float64) overlay.Layer {
	return overlay.Layer{
		Text:          s.Text.Text,
		Style:         s.Text.Style,
		Offset:        s.Text.Offset,
		PreviewWidth:  s.Preview.Width,
		PreviewHeight: s.Preview.Height,
		Scale:         scale,
	}
}

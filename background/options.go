// Package background renders the animated "floating lines" backdrop: layers
// of glowing sine waves that bend toward the pointer and drift with parallax.
package background

import (
	"strings"

	"github.com/gogpu/gg"
)

// MaxGradientStops is the number of gradient stops the shader reads.
const MaxGradientStops = 8

// Wave names one of the three line layers.
type Wave string

const (
	WaveTop    Wave = "top"
	WaveMiddle Wave = "middle"
	WaveBottom Wave = "bottom"
)

// WavePosition shifts a layer and twists it around the centre. Rotate is
// scaled by log(|uv|+1), so lines further out bend more.
type WavePosition struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Rotate float64 `json:"rotate"`
}

// Layer configures one wave layer.
type Layer struct {
	Enabled   bool `json:"enabled"`
	LineCount int  `json:"lineCount"`
	// LineDistance is the spacing between lines in hundredths of a unit.
	LineDistance float64      `json:"lineDistance"`
	Position     WavePosition `json:"position"`
}

// Options configures an Animator.
type Options struct {
	// Gradient colours the lines, as hex strings. Only the first
	// MaxGradientStops are used. With no stops the lines take an ambient
	// blue and pink tint.
	Gradient []string `json:"gradient"`

	Top    Layer `json:"top"`
	Middle Layer `json:"middle"`
	Bottom Layer `json:"bottom"`

	Speed float64 `json:"speed"`

	Interactive  bool    `json:"interactive"`
	BendRadius   float64 `json:"bendRadius"`
	BendStrength float64 `json:"bendStrength"`
	MouseDamping float64 `json:"mouseDamping"`

	Parallax         bool    `json:"parallax"`
	ParallaxStrength float64 `json:"parallaxStrength"`

	// Dark draws opaque frames over black. When false the frame alpha follows
	// the line brightness, so the page shows through between lines.
	Dark bool `json:"dark"`

	// MaxPixelRatio caps the device pixel ratio used for the surface size.
	MaxPixelRatio float64 `json:"maxPixelRatio"`
}

// DefaultOptions returns the stock look.
func DefaultOptions() Options {
	return Options{
		Gradient: []string{"#6366f1", "#a855f7", "#ec4899"},
		Top: Layer{
			Enabled: true, LineCount: 6, LineDistance: 5,
			Position: WavePosition{X: 10, Y: 0.5, Rotate: -0.4},
		},
		Middle: Layer{
			Enabled: true, LineCount: 6, LineDistance: 5,
			Position: WavePosition{X: 5, Y: 0, Rotate: 0.2},
		},
		Bottom: Layer{
			Enabled: true, LineCount: 6, LineDistance: 5,
			Position: WavePosition{X: 2, Y: -0.7, Rotate: -1},
		},
		Speed:            1,
		Interactive:      true,
		BendRadius:       5,
		BendStrength:     -0.5,
		MouseDamping:     0.05,
		Parallax:         true,
		ParallaxStrength: 0.2,
		Dark:             true,
		MaxPixelRatio:    2,
	}
}

// WithWaves returns a copy with only the named layers enabled.
func (o Options) WithWaves(waves ...Wave) Options {
	o.Top.Enabled, o.Middle.Enabled, o.Bottom.Enabled = false, false, false
	for _, w := range waves {
		switch Wave(strings.ToLower(string(w))) {
		case WaveTop:
			o.Top.Enabled = true
		case WaveMiddle:
			o.Middle.Enabled = true
		case WaveBottom:
			o.Bottom.Enabled = true
		}
	}
	return o
}

// gradientStops parses up to MaxGradientStops colours. Unparsable entries
// become white.
func gradientStops(hexes []string) []gg.RGBA {
	if len(hexes) > MaxGradientStops {
		hexes = hexes[:MaxGradientStops]
	}
	stops := make([]gg.RGBA, 0, len(hexes))
	for _, h := range hexes {
		stops = append(stops, parseStop(h))
	}
	return stops
}

func parseStop(h string) gg.RGBA {
	v := strings.TrimPrefix(strings.TrimSpace(h), "#")
	if len(v) != 3 && len(v) != 6 {
		return gg.RGBA{R: 1, G: 1, B: 1, A: 1}
	}
	for _, r := range v {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return gg.RGBA{R: 1, G: 1, B: 1, A: 1}
		}
	}
	return gg.Hex(v)
}

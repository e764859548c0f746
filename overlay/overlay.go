// Package overlay positions and rasterises the editable text that sits on top
// of the base image.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"unicode/utf8"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"inspiria/filter"
	"inspiria/style"
)

// Layout constants in CSS pixels, multiplied by Layer.Scale when rendering.
const (
	// PaddingX is kept free on each side of the preview when wrapping.
	PaddingX = 16
	// LineHeight is relative to the font size.
	LineHeight = 1.2

	shadowOffsetY = 2
	shadowBlur    = 4
	shadowAlpha   = 0.6
)

// Layer is everything needed to rasterise the text overlay.
type Layer struct {
	Text   string
	Style  style.TextStyle
	Offset Offset

	// PreviewWidth and PreviewHeight are the on-screen size of the image the
	// text was placed on, in CSS pixels.
	PreviewWidth  float64
	PreviewHeight float64
	// Scale is the device pixel ratio of the output. Zero means 1.
	Scale float64
}

// Render draws the text layer onto a transparent canvas of
// PreviewWidth*Scale by PreviewHeight*Scale pixels.
func Render(l Layer) (*image.NRGBA, error) {
	if l.Scale <= 0 {
		l.Scale = 1
	}
	w := int(math.Round(l.PreviewWidth * l.Scale))
	h := int(math.Round(l.PreviewHeight * l.Scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("overlay: render: canvas size %dx%d", w, h)
	}
	bounds := image.Rect(0, 0, w, h)

	st := l.Style.Normalize()
	text := l.Text
	if st.TextTransform == style.TransformUppercase {
		text = cases.Upper(language.Und).String(text)
	}
	if strings.TrimSpace(text) == "" {
		return image.NewNRGBA(bounds), nil
	}

	parsed, err := lookupFont(st.FontFamily, st.FontWeight, st.FontStyle)
	if err != nil {
		return nil, err
	}
	size := st.FontSizePx * l.Scale
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("overlay: create font face: %w", err)
	}
	defer face.Close()

	t := typesetter{face: face, spacing: fixed.Int26_6(math.Round(st.LetterSpacingPx * l.Scale * 64))}
	maxWidth := fixed.Int26_6(math.Round((l.PreviewWidth - 2*PaddingX) * l.Scale * 64))
	lines := t.wrap(text, maxWidth)

	mask := image.NewAlpha(bounds)
	t.drawBlock(mask, lines, blockPlacement{
		centerX:    float64(w)/2 + l.Offset.X*l.Scale,
		centerY:    float64(h)/2 + l.Offset.Y*l.Scale,
		lineHeight: size * LineHeight,
		align:      st.TextAlign,
		underline:  st.TextDecoration == style.DecorationUnderline,
		size:       size,
	})

	fill, err := colorful.Hex(st.Color)
	if err != nil {
		return nil, fmt.Errorf("overlay: text colour %q: %w", st.Color, err)
	}
	r, g, b := fill.RGB255()

	canvas := image.NewRGBA(bounds)
	shadow := filter.BlurAlpha(mask, shadowBlur*l.Scale/2)
	dy := int(math.Round(shadowOffsetY * l.Scale))
	draw.DrawMask(canvas, bounds, image.NewUniform(color.NRGBA{A: uint8(math.Round(shadowAlpha * 255))}), image.Point{}, shadow, image.Pt(0, -dy), draw.Over)
	draw.DrawMask(canvas, bounds, image.NewUniform(color.NRGBA{R: r, G: g, B: b, A: 0xff}), image.Point{}, mask, image.Point{}, draw.Over)

	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, canvas, image.Point{}, draw.Src)
	return out, nil
}

type typesetter struct {
	face    font.Face
	spacing fixed.Int26_6
}

// measure returns the advance of s including letter spacing after every glyph.
func (t typesetter) measure(s string) fixed.Int26_6 {
	var width fixed.Int26_6
	prev := rune(-1)
	for _, r := range s {
		if prev >= 0 {
			width += t.face.Kern(prev, r)
		}
		adv, ok := t.face.GlyphAdvance(r)
		if !ok {
			adv, _ = t.face.GlyphAdvance('�')
		}
		width += adv + t.spacing
		prev = r
	}
	return width
}

// wrap breaks text into lines no wider than maxWidth, breaking only between
// words. A single word longer than maxWidth keeps a line of its own. Explicit
// newlines start a new line.
func (t typesetter) wrap(text string, maxWidth fixed.Int26_6) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			if maxWidth > 0 && t.measure(candidate) > maxWidth {
				lines = append(lines, current)
				current = word
				continue
			}
			current = candidate
		}
		lines = append(lines, current)
	}
	return lines
}

type blockPlacement struct {
	centerX, centerY float64
	lineHeight       float64
	align            style.TextAlign
	underline        bool
	size             float64
}

func (t typesetter) drawBlock(dst *image.Alpha, lines []string, p blockPlacement) {
	widths := make([]fixed.Int26_6, len(lines))
	var blockWidth fixed.Int26_6
	for i, line := range lines {
		widths[i] = t.measure(line)
		if widths[i] > blockWidth {
			blockWidth = widths[i]
		}
	}

	metrics := t.face.Metrics()
	ascent := float64(metrics.Ascent) / 64
	descent := float64(metrics.Descent) / 64
	halfLeading := (p.lineHeight - ascent - descent) / 2

	left := p.centerX - float64(blockWidth)/64/2
	top := p.centerY - p.lineHeight*float64(len(lines))/2

	for i, line := range lines {
		x := left
		switch p.align {
		case style.AlignCenter:
			x += float64(blockWidth-widths[i]) / 64 / 2
		case style.AlignRight:
			x += float64(blockWidth-widths[i]) / 64
		}
		baseline := top + float64(i)*p.lineHeight + halfLeading + ascent

		t.drawLine(dst, line, fixed.Point26_6{
			X: fixed.Int26_6(math.Round(x * 64)),
			Y: fixed.Int26_6(math.Round(baseline * 64)),
		})
		if p.underline && utf8.RuneCountInString(line) > 0 {
			drawUnderline(dst, x, baseline, float64(widths[i]-t.spacing)/64, p.size)
		}
	}
}

func (t typesetter) drawLine(dst *image.Alpha, line string, dot fixed.Point26_6) {
	src := image.NewUniform(color.Opaque)
	prev := rune(-1)
	for _, r := range line {
		if prev >= 0 {
			dot.X += t.face.Kern(prev, r)
		}
		dr, mask, maskp, advance, ok := t.face.Glyph(dot, r)
		if !ok {
			dr, mask, maskp, advance, _ = t.face.Glyph(dot, '�')
		}
		if !dr.Empty() {
			draw.DrawMask(dst, dr, src, image.Point{}, mask, maskp, draw.Over)
		}
		dot.X += advance + t.spacing
		prev = r
	}
}

func drawUnderline(dst *image.Alpha, x, baseline, width, size float64) {
	thickness := math.Max(1, math.Round(size/16))
	y := math.Round(baseline + math.Max(1, size*0.1))
	rect := image.Rect(
		int(math.Floor(x)), int(y),
		int(math.Ceil(x+width)), int(y+thickness),
	).Intersect(dst.Bounds())
	draw.Draw(dst, rect, image.NewUniform(color.Opaque), image.Point{}, draw.Src)
}

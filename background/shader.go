package background

import (
	"math"

	"github.com/gogpu/gg"
)

// Vec2 is a 2D vector.
type Vec2 struct{ X, Y float64 }

func (v Vec2) lerp(to Vec2, t float64) Vec2 {
	return Vec2{v.X + (to.X-v.X)*t, v.Y + (to.Y-v.Y)*t}
}

// Uniforms are the per-frame inputs of the shader.
type Uniforms struct {
	// Time is in seconds since the animation started.
	Time float64
	// Width and Height are the surface size in device pixels.
	Width  float64
	Height float64
	// Mouse is the damped pointer position in device pixels, origin at the
	// bottom left.
	Mouse         Vec2
	BendInfluence float64
	Parallax      Vec2
}

var (
	ambientPink = gg.RGBA{R: 233.0 / 255, G: 71.0 / 255, B: 245.0 / 255, A: 1}
	ambientBlue = gg.RGBA{R: 47.0 / 255, G: 75.0 / 255, B: 162.0 / 255, A: 1}
)

type layerParams struct {
	enabled  bool
	count    int
	distance float64
	pos      WavePosition
	// offset is the wave phase of line 0, step the increment per line.
	offset float64
	step   float64
	weight float64
	mirror bool
}

// Shader is the pure per-pixel colour function of the backdrop.
type Shader struct {
	opts   Options
	stops  []gg.RGBA
	layers [3]layerParams
}

// NewShader precomputes layer parameters and gradient stops.
func NewShader(o Options) *Shader {
	s := &Shader{opts: o, stops: gradientStops(o.Gradient)}
	// Drawn bottom, middle, top.
	s.layers[0] = layerParams{
		enabled: o.Bottom.Enabled, count: o.Bottom.LineCount, distance: o.Bottom.LineDistance * 0.01,
		pos: o.Bottom.Position, offset: 1.5, step: 0.2, weight: 0.2,
	}
	s.layers[1] = layerParams{
		enabled: o.Middle.Enabled, count: o.Middle.LineCount, distance: o.Middle.LineDistance * 0.01,
		pos: o.Middle.Position, offset: 2.0, step: 0.15, weight: 1,
	}
	s.layers[2] = layerParams{
		enabled: o.Top.Enabled, count: o.Top.LineCount, distance: o.Top.LineDistance * 0.01,
		pos: o.Top.Position, offset: 1.0, step: 0.2, weight: 0.1, mirror: true,
	}
	return s
}

// Color returns the linear colour at fragment coordinate (fx, fy), origin at
// the bottom left. Channels are not clamped.
func (s *Shader) Color(fx, fy float64, u Uniforms) (r, g, b float64) {
	uv := Vec2{(2*fx - u.Width) / u.Height, -(2*fy - u.Height) / u.Height}
	if s.opts.Parallax {
		uv.X += u.Parallax.X
		uv.Y += u.Parallax.Y
	}

	var ambient gg.RGBA
	if len(s.stops) == 0 {
		ambient = ambientColor(uv)
	}

	var mouse Vec2
	if s.opts.Interactive {
		mouse = Vec2{(2*u.Mouse.X - u.Width) / u.Height, -(2*u.Mouse.Y - u.Height) / u.Height}
	}

	radius := math.Hypot(uv.X, uv.Y)
	for _, l := range s.layers {
		if !l.enabled || l.count <= 0 {
			continue
		}
		angle := l.pos.Rotate * math.Log(radius+1)
		sin, cos := math.Sincos(angle)
		ruv := Vec2{uv.X*cos + uv.Y*sin, -uv.X*sin + uv.Y*cos}
		if l.mirror {
			ruv.X = -ruv.X
		}
		for i := 0; i < l.count; i++ {
			fi := float64(i)
			t := fi / math.Max(float64(l.count-1), 1)
			c := s.lineColor(t, ambient)
			p := Vec2{ruv.X + l.distance*fi + l.pos.X, ruv.Y + l.pos.Y}
			w := s.wave(p, l.offset+l.step*fi, uv, mouse, u) * l.weight
			r += c.R * w
			g += c.G * w
			b += c.B * w
		}
	}
	return r, g, b
}

func (s *Shader) wave(p Vec2, offset float64, screen, mouse Vec2, u Uniforms) float64 {
	time := u.Time * s.opts.Speed
	amp := math.Sin(offset+time*0.2) * 0.3
	y := math.Sin(p.X+offset+time*0.1) * amp

	if s.opts.Interactive {
		dx, dy := screen.X-mouse.X, screen.Y-mouse.Y
		influence := math.Exp(-(dx*dx + dy*dy) * s.opts.BendRadius)
		y += (mouse.Y - screen.Y) * influence * s.opts.BendStrength * u.BendInfluence
	}

	m := p.Y - y
	return 0.0175/math.Max(math.Abs(m)+0.01, 1e-3) + 0.01
}

// lineColor picks the colour of a line at position t in [0,1] across its
// layer. A single stop is used as is; no stops fall back to ambient.
func (s *Shader) lineColor(t float64, ambient gg.RGBA) gg.RGBA {
	switch n := len(s.stops); n {
	case 0:
		return ambient
	case 1:
		return scale(s.stops[0], 0.5)
	default:
		t = math.Min(math.Max(t, 0), 0.9999)
		scaled := t * float64(n-1)
		idx := int(math.Floor(scaled))
		next := min(idx+1, n-1)
		return scale(s.stops[idx].Lerp(s.stops[next], scaled-float64(idx)), 0.5)
	}
}

func ambientColor(uv Vec2) gg.RGBA {
	y := math.Sin(uv.X-0.2)*0.3 - 0.1
	m := uv.Y - y
	black := gg.RGBA{A: 1}
	blue := ambientBlue.Lerp(black, smoothstep(0, 1, math.Abs(m)))
	pink := ambientPink.Lerp(black, smoothstep(0, 1, math.Abs(m-0.8)))
	return gg.RGBA{
		R: (blue.R + pink.R) * 0.5,
		G: (blue.G + pink.G) * 0.5,
		B: (blue.B + pink.B) * 0.5,
		A: 1,
	}
}

func scale(c gg.RGBA, k float64) gg.RGBA {
	return gg.RGBA{R: c.R * k, G: c.G * k, B: c.B * k, A: c.A}
}

func smoothstep(e0, e1, x float64) float64 {
	t := math.Min(math.Max((x-e0)/(e1-e0), 0), 1)
	return t * t * (3 - 2*t)
}

// RenderRows fills rows [y0, y1) of pm. The pixmap holds premultiplied
// colour; see Options.Dark for how alpha is derived.
func (s *Shader) RenderRows(pm *gg.Pixmap, u Uniforms, y0, y1 int) {
	w := pm.Width()
	h := pm.Height()
	data := pm.Data()
	for y := y0; y < y1 && y < h; y++ {
		fy := float64(h-y) - 0.5
		row := data[y*w*4 : (y+1)*w*4]
		for x := 0; x < w; x++ {
			r, g, b := s.Color(float64(x)+0.5, fy, u)
			r, g, b = clamp01(r), clamp01(g), clamp01(b)
			a := 1.0
			if !s.opts.Dark {
				a = max(r, g, b)
			}
			i := x * 4
			row[i] = toByte(r)
			row[i+1] = toByte(g)
			row[i+2] = toByte(b)
			row[i+3] = toByte(a)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float64) uint8 {
	return uint8(v*255 + 0.5)
}

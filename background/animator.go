package background

import (
	"errors"
	"image"
	"log"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gg"
	"golang.org/x/sync/errgroup"
)

// ErrMounted is returned by Mount on an animator that is already mounted.
var ErrMounted = errors.New("background: already mounted")

var debugLogging atomic.Bool

// SetDebugLogging enables or disables per-frame logging.
func SetDebugLogging(enabled bool) {
	debugLogging.Store(enabled)
}

func logDebug(format string, args ...any) {
	if debugLogging.Load() {
		log.Printf("debug: background: "+format, args...)
	}
}

// Animator runs the backdrop's frame loop against a Host.
type Animator struct {
	opts    Options
	shader  *Shader
	workers int

	mu         sync.Mutex
	mounted    bool
	degraded   bool
	generation int
	host       Host
	surface    Surface
	pixmap     *gg.Pixmap

	cancelFrame    func()
	removePointer  func()
	disconnectSize func()

	css   Size
	ratio float64
	start time.Time
	now   float64

	targetMouse      Vec2
	currentMouse     Vec2
	targetInfluence  float64
	currentInfluence float64
	targetParallax   Vec2
	currentParallax  Vec2

	frames uint64
}

// NewAnimator returns an unmounted animator.
func NewAnimator(o Options) *Animator {
	if o.MaxPixelRatio <= 0 {
		o.MaxPixelRatio = 2
	}
	a := &Animator{
		opts:    o,
		shader:  NewShader(o),
		workers: runtime.GOMAXPROCS(0),
	}
	a.resetPointer()
	return a
}

func (a *Animator) resetPointer() {
	a.targetMouse = Vec2{-1000, -1000}
	a.currentMouse = a.targetMouse
	a.targetInfluence, a.currentInfluence = 0, 0
	a.targetParallax, a.currentParallax = Vec2{}, Vec2{}
}

// Mount attaches the animator to h and schedules the first frame. When h
// cannot provide a surface the animator stays mounted but degraded: nothing
// is drawn or scheduled and no error is returned.
func (a *Animator) Mount(h Host) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mounted {
		return ErrMounted
	}
	a.mounted = true
	a.generation++
	gen := a.generation
	a.host = h
	a.resetPointer()
	a.start = time.Time{}
	a.frames = 0

	surface, err := h.NewSurface()
	if err != nil {
		log.Printf("warning: background: no graphics surface, animation disabled: %v", err)
		a.degraded = true
		return nil
	}
	a.surface = surface
	a.degraded = false

	a.applySizeLocked(h.CurrentSize())
	a.disconnectSize = h.ObserveSize(func(sz Size) { a.onSize(gen, sz) })
	if a.opts.Interactive {
		a.removePointer = h.AddPointerListener(func(ev PointerEvent) { a.onPointer(gen, ev) })
	}
	a.cancelFrame = h.RequestFrame(func(now time.Time) { a.onFrame(gen, now) })
	return nil
}

// Unmount cancels the pending frame, detaches every listener and disposes
// the surface. It is safe to call more than once.
func (a *Animator) Unmount() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.mounted {
		return
	}
	a.mounted = false
	a.generation++

	if a.cancelFrame != nil {
		a.cancelFrame()
		a.cancelFrame = nil
	}
	if a.disconnectSize != nil {
		a.disconnectSize()
		a.disconnectSize = nil
	}
	if a.removePointer != nil {
		a.removePointer()
		a.removePointer = nil
	}
	if a.surface != nil {
		if err := a.surface.Dispose(); err != nil {
			log.Printf("warning: background: dispose surface: %v", err)
		}
		a.surface = nil
	}
	a.pixmap = nil
	a.host = nil
	a.degraded = false
}

func (a *Animator) Mounted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mounted
}

// Degraded reports whether the animator is mounted without a surface.
func (a *Animator) Degraded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.degraded
}

// Frames returns the number of frames rendered since Mount.
func (a *Animator) Frames() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// PixelSize returns the current surface size in device pixels.
func (a *Animator) PixelSize() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pixmap == nil {
		return 0, 0
	}
	return a.pixmap.Width(), a.pixmap.Height()
}

func (a *Animator) onSize(gen int, sz Size) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation || !a.mounted {
		return
	}
	a.applySizeLocked(sz)
}

// applySizeLocked sizes the surface to the CSS size times the capped device
// pixel ratio, never below 1x1.
func (a *Animator) applySizeLocked(sz Size) {
	ratio := sz.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	ratio = math.Min(ratio, a.opts.MaxPixelRatio)
	if sz.Width <= 0 {
		sz.Width = 1
	}
	if sz.Height <= 0 {
		sz.Height = 1
	}
	w := max(1, int(math.Round(sz.Width*ratio)))
	h := max(1, int(math.Round(sz.Height*ratio)))

	a.css = sz
	a.ratio = ratio
	if a.pixmap != nil && a.pixmap.Width() == w && a.pixmap.Height() == h {
		return
	}
	if err := a.surface.Resize(w, h); err != nil {
		log.Printf("warning: background: resize surface to %dx%d: %v", w, h, err)
		return
	}
	a.pixmap = gg.NewPixmap(w, h)
	logDebug("surface %dx%d (ratio %.2f)", w, h, ratio)
}

func (a *Animator) onPointer(gen int, ev PointerEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation || !a.mounted || !a.opts.Interactive {
		return
	}
	switch ev.Kind {
	case PointerMove:
		a.targetMouse = Vec2{ev.X * a.ratio, (a.css.Height - ev.Y) * a.ratio}
		a.targetInfluence = 1
		if a.opts.Parallax {
			cx, cy := a.css.Width/2, a.css.Height/2
			a.targetParallax = Vec2{
				(ev.X - cx) / a.css.Width * a.opts.ParallaxStrength,
				-(ev.Y - cy) / a.css.Height * a.opts.ParallaxStrength,
			}
		}
	case PointerLeave:
		a.targetInfluence = 0
	}
}

func (a *Animator) onFrame(gen int, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation || !a.mounted || a.degraded {
		return
	}
	if a.start.IsZero() {
		a.start = now
	}
	a.now = now.Sub(a.start).Seconds()
	a.stepLocked()

	if a.pixmap != nil {
		a.renderLocked()
		if err := a.surface.Present(a.pixmap); err != nil {
			log.Printf("warning: background: present frame: %v", err)
		}
		a.frames++
	}
	a.cancelFrame = a.host.RequestFrame(func(t time.Time) { a.onFrame(gen, t) })
}

// stepLocked eases the pointer, bend influence and parallax toward their
// targets.
func (a *Animator) stepLocked() {
	d := a.opts.MouseDamping
	if a.opts.Interactive {
		a.currentMouse = a.currentMouse.lerp(a.targetMouse, d)
		a.currentInfluence += (a.targetInfluence - a.currentInfluence) * d
	}
	if a.opts.Parallax {
		a.currentParallax = a.currentParallax.lerp(a.targetParallax, d)
	}
}

func (a *Animator) uniformsLocked() Uniforms {
	u := Uniforms{
		Time:     a.now,
		Width:    float64(a.pixmap.Width()),
		Height:   float64(a.pixmap.Height()),
		Parallax: a.currentParallax,
	}
	if a.opts.Interactive {
		u.Mouse = a.currentMouse
		u.BendInfluence = a.currentInfluence
	}
	return u
}

func (a *Animator) renderLocked() {
	renderParallel(a.shader, a.pixmap, a.uniformsLocked(), a.workers)
}

// renderParallel splits the frame into horizontal bands rendered
// concurrently.
func renderParallel(s *Shader, pm *gg.Pixmap, u Uniforms, workers int) {
	h := pm.Height()
	if workers < 1 {
		workers = 1
	}
	band := (h + workers - 1) / workers
	if band < 1 {
		band = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			s.RenderRows(pm, u, y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}

// Render draws a single still frame of o at t seconds without pointer
// influence.
func Render(o Options, width, height int, t float64) *image.RGBA {
	width, height = max(1, width), max(1, height)
	pm := gg.NewPixmap(width, height)
	u := Uniforms{Time: t, Width: float64(width), Height: float64(height), Mouse: Vec2{-1000, -1000}}
	renderParallel(NewShader(o), pm, u, runtime.GOMAXPROCS(0))
	return pm.ToImage()
}

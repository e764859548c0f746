package background

import (
	"bytes"
	"errors"
	"image"
	"sync"
	"testing"
	"time"
)

// fakeHost records registrations and fires frames on demand.
type fakeHost struct {
	mu         sync.Mutex
	size       Size
	frames     map[int]func(time.Time)
	pointers   map[int]func(PointerEvent)
	observers  map[int]func(Size)
	nextID     int
	surface    *OffscreenSurface
	surfaceErr error
}

func newFakeHost(size Size) *fakeHost {
	return &fakeHost{
		size:      size,
		frames:    map[int]func(time.Time){},
		pointers:  map[int]func(PointerEvent){},
		observers: map[int]func(Size){},
	}
}

func (h *fakeHost) RequestFrame(fn func(time.Time)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.frames[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.frames, id)
		h.mu.Unlock()
	}
}

func (h *fakeHost) AddPointerListener(fn func(PointerEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.pointers[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.pointers, id)
		h.mu.Unlock()
	}
}

func (h *fakeHost) CurrentSize() Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func (h *fakeHost) ObserveSize(fn func(Size)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.observers[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.observers, id)
		h.mu.Unlock()
	}
}

func (h *fakeHost) NewSurface() (Surface, error) {
	if h.surfaceErr != nil {
		return nil, h.surfaceErr
	}
	h.surface = NewOffscreenSurface(nil)
	return h.surface, nil
}

// fire runs every pending frame callback once.
func (h *fakeHost) fire(now time.Time) {
	h.mu.Lock()
	pending := h.frames
	h.frames = map[int]func(time.Time){}
	h.mu.Unlock()
	for _, fn := range pending {
		fn(now)
	}
}

func (h *fakeHost) pointer(ev PointerEvent) {
	h.mu.Lock()
	var fns []func(PointerEvent)
	for _, fn := range h.pointers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (h *fakeHost) resize(sz Size) {
	h.mu.Lock()
	h.size = sz
	var fns []func(Size)
	for _, fn := range h.observers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(sz)
	}
}

func (h *fakeHost) counts() (frames, pointers, observers int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames), len(h.pointers), len(h.observers)
}

func smallOptions() Options {
	o := DefaultOptions()
	o.Top.LineCount, o.Middle.LineCount, o.Bottom.LineCount = 2, 2, 2
	return o
}

func TestMountUnmountLeavesNothingBehind(t *testing.T) {
	host := newFakeHost(Size{Width: 16, Height: 12, PixelRatio: 1})
	a := NewAnimator(smallOptions())

	for cycle := 0; cycle < 3; cycle++ {
		if err := a.Mount(host); err != nil {
			t.Fatalf("Mount: %v", err)
		}
		if f, p, o := host.counts(); f != 1 || p != 1 || o != 1 {
			t.Fatalf("after Mount frames=%d pointers=%d observers=%d, want 1 each", f, p, o)
		}
		start := time.Unix(100, 0)
		for i := 0; i < 3; i++ {
			host.fire(start.Add(time.Duration(i) * 16 * time.Millisecond))
		}
		surface := host.surface

		a.Unmount()
		a.Unmount()

		if f, p, o := host.counts(); f != 0 || p != 0 || o != 0 {
			t.Fatalf("after Unmount frames=%d pointers=%d observers=%d, want 0", f, p, o)
		}
		if !surface.Disposed() {
			t.Fatal("surface not disposed")
		}
	}
}

func TestStaleFrameAfterUnmountIsIgnored(t *testing.T) {
	host := newFakeHost(Size{Width: 8, Height: 8, PixelRatio: 1})
	a := NewAnimator(smallOptions())
	if err := a.Mount(host); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	host.mu.Lock()
	var stale func(time.Time)
	for _, fn := range host.frames {
		stale = fn
	}
	host.mu.Unlock()

	a.Unmount()
	stale(time.Now())

	if f, _, _ := host.counts(); f != 0 {
		t.Fatalf("stale frame scheduled %d new frames", f)
	}
	if n := a.Frames(); n != 0 {
		t.Fatalf("Frames() = %d, want 0", n)
	}
}

func TestMountTwiceFails(t *testing.T) {
	host := newFakeHost(Size{Width: 4, Height: 4})
	a := NewAnimator(smallOptions())
	if err := a.Mount(host); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer a.Unmount()
	if err := a.Mount(host); !errors.Is(err, ErrMounted) {
		t.Fatalf("second Mount error = %v, want ErrMounted", err)
	}
}

func TestNonInteractiveIgnoresPointer(t *testing.T) {
	o := smallOptions()
	o.Interactive = false

	render := func(move bool) []byte {
		host := newFakeHost(Size{Width: 20, Height: 10, PixelRatio: 1})
		a := NewAnimator(o)
		if err := a.Mount(host); err != nil {
			t.Fatalf("Mount: %v", err)
		}
		defer a.Unmount()
		if _, p, _ := host.counts(); p != 0 {
			t.Fatalf("pointer listeners = %d, want 0", p)
		}
		start := time.Unix(0, 0)
		for i := 0; i < 5; i++ {
			if move {
				host.pointer(PointerEvent{Kind: PointerMove, X: float64(i * 4), Y: 5})
			}
			host.fire(start.Add(time.Duration(i) * 20 * time.Millisecond))
		}
		return append([]byte(nil), host.surface.Last().Pix...)
	}

	if !bytes.Equal(render(false), render(true)) {
		t.Fatal("pointer movement changed a non-interactive frame")
	}
}

func TestInteractivePointerBendsLines(t *testing.T) {
	o := smallOptions()
	o.MouseDamping = 1

	render := func(move bool) []byte {
		host := newFakeHost(Size{Width: 40, Height: 30, PixelRatio: 1})
		a := NewAnimator(o)
		if err := a.Mount(host); err != nil {
			t.Fatalf("Mount: %v", err)
		}
		defer a.Unmount()
		if move {
			host.pointer(PointerEvent{Kind: PointerMove, X: 20, Y: 10})
		}
		host.fire(time.Unix(0, 0))
		return append([]byte(nil), host.surface.Last().Pix...)
	}

	if bytes.Equal(render(false), render(true)) {
		t.Fatal("pointer had no effect on an interactive frame")
	}
}

func TestResizeCapsPixelRatio(t *testing.T) {
	host := newFakeHost(Size{Width: 100, Height: 50, PixelRatio: 3})
	a := NewAnimator(smallOptions())
	if err := a.Mount(host); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer a.Unmount()

	if w, h := a.PixelSize(); w != 200 || h != 100 {
		t.Fatalf("PixelSize() = %dx%d, want 200x100", w, h)
	}

	host.resize(Size{Width: 0, Height: 0, PixelRatio: 1})
	if w, h := a.PixelSize(); w != 1 || h != 1 {
		t.Fatalf("PixelSize() after zero resize = %dx%d, want 1x1", w, h)
	}

	host.resize(Size{Width: 30, Height: 20, PixelRatio: 1.5})
	if w, h := a.PixelSize(); w != 45 || h != 30 {
		t.Fatalf("PixelSize() = %dx%d, want 45x30", w, h)
	}
	host.fire(time.Now())
	if sw, sh := host.surface.Size(); sw != 45 || sh != 30 {
		t.Fatalf("surface size = %dx%d, want 45x30", sw, sh)
	}
}

func TestMissingSurfaceDegrades(t *testing.T) {
	host := newFakeHost(Size{Width: 10, Height: 10})
	host.surfaceErr = errors.New("webgl unavailable")
	a := NewAnimator(smallOptions())

	if err := a.Mount(host); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if !a.Degraded() {
		t.Fatal("Degraded() = false, want true")
	}
	if f, p, o := host.counts(); f != 0 || p != 0 || o != 0 {
		t.Fatalf("degraded mount registered frames=%d pointers=%d observers=%d", f, p, o)
	}
	a.Unmount()
	if a.Degraded() || a.Mounted() {
		t.Fatal("animator still degraded or mounted after Unmount")
	}
}

func TestSingleStopGivesConstantLineColour(t *testing.T) {
	o := smallOptions()
	o.Gradient = []string{"#ff0000"}
	img := Render(o, 24, 16, 1.5)
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			t.Fatalf("pixel %d = %v, want pure red hue", i/4, img.Pix[i:i+4])
		}
	}
}

func TestNoStopsUsesAmbientTint(t *testing.T) {
	o := smallOptions()
	o.Gradient = nil
	img := Render(o, 24, 16, 0)
	lit := false
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 || img.Pix[i+2] > 0 {
			lit = true
			break
		}
	}
	if !lit {
		t.Fatal("ambient frame is black")
	}
}

func TestLightModeAlphaFollowsBrightness(t *testing.T) {
	o := smallOptions()
	o.Dark = false
	img := Render(o, 16, 16, 0)
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
		if r > a || g > a || b > a {
			t.Fatalf("pixel %d = %v is not valid premultiplied colour", i/4, img.Pix[i:i+4])
		}
	}
}

func TestGradientStopsCapped(t *testing.T) {
	hexes := make([]string, 12)
	for i := range hexes {
		hexes[i] = "#123456"
	}
	if n := len(gradientStops(hexes)); n != MaxGradientStops {
		t.Fatalf("stops = %d, want %d", n, MaxGradientStops)
	}
	if c := parseStop("zzz"); c.R != 1 || c.G != 1 || c.B != 1 {
		t.Fatalf("parseStop(zzz) = %+v, want white", c)
	}
}

func TestWithWaves(t *testing.T) {
	o := DefaultOptions().WithWaves(WaveMiddle)
	if o.Top.Enabled || !o.Middle.Enabled || o.Bottom.Enabled {
		t.Fatalf("WithWaves(middle) = top:%v middle:%v bottom:%v", o.Top.Enabled, o.Middle.Enabled, o.Bottom.Enabled)
	}
}

func TestTickerHostRunsAndStops(t *testing.T) {
	frames := make(chan *image.RGBA, 8)
	host := NewTickerHost(200, Size{Width: 8, Height: 8, PixelRatio: 1})
	host.SurfaceFactory = func() (Surface, error) {
		return NewOffscreenSurface(func(img *image.RGBA) error {
			select {
			case frames <- img:
			default:
			}
			return nil
		}), nil
	}

	a := NewAnimator(smallOptions())
	if err := a.Mount(host); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	select {
	case img := <-frames:
		if img.Bounds().Dx() != 8 {
			t.Fatalf("frame width = %d, want 8", img.Bounds().Dx())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame within 2s")
	}
	a.Unmount()

	if p, o, f := host.Listeners(); p != 0 || o != 0 || f != 0 {
		t.Fatalf("after Unmount pointers=%d observers=%d frames=%d, want 0", p, o, f)
	}
}

package background

import (
	"sync"
	"time"

	"github.com/gogpu/gg"
)

// Size is the on-screen size of the backdrop in CSS pixels together with the
// device pixel ratio.
type Size struct {
	Width      float64
	Height     float64
	PixelRatio float64
}

type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerLeave
)

// PointerEvent is a pointer position relative to the backdrop's top left
// corner, in CSS pixels.
type PointerEvent struct {
	Kind PointerKind
	X, Y float64
}

// FrameScheduler runs fn once before the next frame. The returned function
// cancels a request that has not fired yet.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// PointerSource delivers pointer events until the returned function is called.
type PointerSource interface {
	AddPointerListener(fn func(PointerEvent)) (remove func())
}

// SizeObserver reports the current size and every later change until the
// returned function is called.
type SizeObserver interface {
	CurrentSize() Size
	ObserveSize(fn func(Size)) (disconnect func())
}

// Surface receives rendered frames.
type Surface interface {
	Resize(width, height int) error
	Present(frame *gg.Pixmap) error
	Dispose() error
}

// Host is the environment an Animator is mounted into.
type Host interface {
	FrameScheduler
	PointerSource
	SizeObserver
	NewSurface() (Surface, error)
}

// TickerHost drives frames from a timer at a fixed rate. Pointer events and
// size changes are fed in by the caller.
type TickerHost struct {
	Interval time.Duration
	// SurfaceFactory creates the surface. Nil means an OffscreenSurface with
	// no sink.
	SurfaceFactory func() (Surface, error)

	mu        sync.Mutex
	size      Size
	nextID    int
	pointers  map[int]func(PointerEvent)
	observers map[int]func(Size)
	pending   map[int]*time.Timer
}

// NewTickerHost returns a host running at fps frames per second.
func NewTickerHost(fps int, size Size) *TickerHost {
	if fps <= 0 {
		fps = 30
	}
	return &TickerHost{
		Interval:  time.Second / time.Duration(fps),
		size:      size,
		pointers:  map[int]func(PointerEvent){},
		observers: map[int]func(Size){},
		pending:   map[int]*time.Timer{},
	}
}

func (h *TickerHost) RequestFrame(fn func(now time.Time)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.pending[id] = time.AfterFunc(h.Interval, func() {
		h.mu.Lock()
		_, ok := h.pending[id]
		delete(h.pending, id)
		h.mu.Unlock()
		if ok {
			fn(time.Now())
		}
	})
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if t, ok := h.pending[id]; ok {
			t.Stop()
			delete(h.pending, id)
		}
	}
}

func (h *TickerHost) AddPointerListener(fn func(PointerEvent)) func() {
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

func (h *TickerHost) CurrentSize() Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func (h *TickerHost) ObserveSize(fn func(Size)) func() {
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

func (h *TickerHost) NewSurface() (Surface, error) {
	if h.SurfaceFactory != nil {
		return h.SurfaceFactory()
	}
	return NewOffscreenSurface(nil), nil
}

// Pointer delivers ev to every listener.
func (h *TickerHost) Pointer(ev PointerEvent) {
	h.mu.Lock()
	listeners := make([]func(PointerEvent), 0, len(h.pointers))
	for _, fn := range h.pointers {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// Resize records the new size and notifies observers.
func (h *TickerHost) Resize(size Size) {
	h.mu.Lock()
	h.size = size
	observers := make([]func(Size), 0, len(h.observers))
	for _, fn := range h.observers {
		observers = append(observers, fn)
	}
	h.mu.Unlock()
	for _, fn := range observers {
		fn(size)
	}
}

// Listeners reports the number of pointer listeners, size observers and
// pending frame requests.
func (h *TickerHost) Listeners() (pointers, observers, frames int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pointers), len(h.observers), len(h.pending)
}

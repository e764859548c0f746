package background

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gg"
)

var errSurfaceDisposed = errors.New("background: surface disposed")

// OffscreenSurface keeps the last presented frame in memory and optionally
// hands every frame to a sink, for example to write it to disk.
type OffscreenSurface struct {
	mu       sync.Mutex
	sink     func(*image.RGBA) error
	width    int
	height   int
	last     *image.RGBA
	frames   int
	disposed bool
}

// NewOffscreenSurface returns a surface calling sink for every frame. sink
// may be nil.
func NewOffscreenSurface(sink func(*image.RGBA) error) *OffscreenSurface {
	return &OffscreenSurface{sink: sink}
}

func (s *OffscreenSurface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("background: surface size %dx%d", width, height)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return errSurfaceDisposed
	}
	s.width, s.height = width, height
	return nil
}

// Present copies frame. Frames whose size does not match the surface are
// rejected.
func (s *OffscreenSurface) Present(frame *gg.Pixmap) error {
	if frame == nil {
		return fmt.Errorf("background: nil frame")
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return errSurfaceDisposed
	}
	if frame.Width() != s.width || frame.Height() != s.height {
		s.mu.Unlock()
		return fmt.Errorf("background: frame %dx%d on surface %dx%d", frame.Width(), frame.Height(), s.width, s.height)
	}
	img := frame.ToImage()
	s.last = img
	s.frames++
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		if err := sink(img); err != nil {
			return fmt.Errorf("background: frame sink: %w", err)
		}
	}
	return nil
}

// Last returns the most recently presented frame, or nil.
func (s *OffscreenSurface) Last() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Frames returns the number of frames presented.
func (s *OffscreenSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *OffscreenSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Dispose releases the frame buffer. Later calls are no-ops.
func (s *OffscreenSurface) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.last = nil
	return nil
}

func (s *OffscreenSurface) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

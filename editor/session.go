// Package editor ties one picture to its style model and overlay position,
// and keeps the derived preview values current.
package editor

import (
	"context"
	"errors"
	"sync"

	"inspiria/export"
	"inspiria/filter"
	"inspiria/overlay"
	"inspiria/scene"
	"inspiria/source"
	"inspiria/style"
)

// ErrExportInProgress is returned when Export is called while a previous
// export of the same session has not finished.
var ErrExportInProgress = errors.New("editor: export in progress")

// Exporter renders a scene.
type Exporter interface {
	Export(ctx context.Context, s scene.Scene) (*export.Result, error)
}

// Derived holds the values the preview recomputes after every change.
type Derived struct {
	FilterCSS string
	Transform string
}

// Session is one open editor. Sessions share no state.
type Session struct {
	ref      source.Ref
	model    *style.Model
	position *overlay.Positioner

	mu        sync.Mutex
	text      string
	derived   Derived
	listeners []func(Derived)
	exporting bool

	cancelModel func()
}

// NewSession opens ref with the default style and text.
func NewSession(ref source.Ref) *Session {
	s := &Session{
		ref:      ref,
		model:    style.NewModel(),
		position: overlay.NewPositioner(),
		text:     source.DefaultOverlayText,
	}
	s.derived = s.compute()
	s.cancelModel = s.model.Subscribe(func(style.Snapshot) { s.refresh() })
	s.position.OnChange(func(overlay.Offset) { s.refresh() })
	return s
}

// NewQuoteSession opens ref with q as the overlay text.
func NewQuoteSession(ref source.Ref, q source.Quote) *Session {
	s := NewSession(ref)
	if text := source.FormatQuote(q); text != "" {
		s.SetText(text)
	}
	return s
}

func (s *Session) Source() source.Ref            { return s.ref }
func (s *Session) Model() *style.Model           { return s.model }
func (s *Session) Position() *overlay.Positioner { return s.position }

func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText replaces the overlay text.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	changed := s.text != text
	s.text = text
	s.mu.Unlock()
	if changed {
		s.refresh()
	}
}

// Derived returns the current preview values.
func (s *Session) Derived() Derived {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.derived
}

// OnDerived registers fn to be called synchronously with fresh values after
// every change to the model, text or position.
func (s *Session) OnDerived(fn func(Derived)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) compute() Derived {
	return Derived{
		FilterCSS: filter.Descriptor(s.model.Filters()),
		Transform: overlay.Transform(s.position.Offset()),
	}
}

func (s *Session) refresh() {
	d := s.compute()
	s.mu.Lock()
	s.derived = d
	listeners := make([]func(Derived), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(d)
	}
}

// Scene snapshots the session for rendering at the given preview size.
func (s *Session) Scene(preview scene.Size) scene.Scene {
	snap := s.model.Snapshot()
	return scene.Scene{
		Source:  s.ref,
		Filters: snap.Filters,
		Text: scene.TextLayer{
			Text:   s.Text(),
			Style:  snap.Text,
			Offset: s.position.Offset(),
		},
		Preview: preview,
	}
}

// Export renders the current state through ex. Only one export per session
// runs at a time; a second call while one is in flight returns
// ErrExportInProgress.
func (s *Session) Export(ctx context.Context, ex Exporter, preview scene.Size) (*export.Result, error) {
	s.mu.Lock()
	if s.exporting {
		s.mu.Unlock()
		return nil, ErrExportInProgress
	}
	s.exporting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.exporting = false
		s.mu.Unlock()
	}()
	return ex.Export(ctx, s.Scene(preview))
}

// Close detaches the session from its model and positioner.
func (s *Session) Close() {
	s.cancelModel()
	s.position.OnChange(nil)
	s.mu.Lock()
	s.listeners = nil
	s.mu.Unlock()
}

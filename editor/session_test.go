package editor

import (
	"context"
	"errors"
	"testing"

	"inspiria/export"
	"inspiria/scene"
	"inspiria/source"
)

var testRef = source.Ref{ID: "p1", URL: "https://images.example.com/p1.jpg"}

func TestDerivedTracksChanges(t *testing.T) {
	s := NewSession(testRef)
	defer s.Close()

	var got []Derived
	s.OnDerived(func(d Derived) { got = append(got, d) })

	if d := s.Derived(); d.FilterCSS != "grayscale(0%) sepia(0%) brightness(100%) contrast(100%) blur(0px)" {
		t.Fatalf("initial FilterCSS = %q", d.FilterCSS)
	}

	s.Model().SetBrightness(150)
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if want := "grayscale(0%) sepia(0%) brightness(150%) contrast(100%) blur(0px)"; got[0].FilterCSS != want {
		t.Fatalf("FilterCSS = %q, want %q", got[0].FilterCSS, want)
	}

	s.Position().Translate(10, -4)
	if want := "translate(-50%, -50%) translate(10px, -4px)"; s.Derived().Transform != want {
		t.Fatalf("Transform = %q, want %q", s.Derived().Transform, want)
	}
	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2", len(got))
	}
}

func TestSceneSnapshot(t *testing.T) {
	s := NewQuoteSession(testRef, source.Quote{Text: "Stay hungry.", Author: "Steve Jobs"})
	defer s.Close()
	s.Model().ToggleUppercase()
	s.Position().Translate(5, 5)

	sc := s.Scene(scene.Size{Width: 320, Height: 200})
	if sc.Text.Text != `"Stay hungry." - Steve Jobs` {
		t.Fatalf("Text = %q", sc.Text.Text)
	}
	if sc.Text.Style.TextTransform != "uppercase" {
		t.Fatalf("TextTransform = %q, want uppercase", sc.Text.Style.TextTransform)
	}
	if sc.Text.Offset.X != 5 || sc.Source.ID != "p1" {
		t.Fatalf("Scene = %+v", sc)
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a := NewSession(testRef)
	b := NewSession(testRef)
	defer a.Close()
	defer b.Close()

	a.Model().SetSepia(60)
	a.SetText("mine")
	if b.Model().Filters().Sepia != 0 || b.Text() != source.DefaultOverlayText {
		t.Fatal("change to one session leaked into another")
	}
}

type blockingExporter struct {
	started chan struct{}
	release chan struct{}
}

func (e *blockingExporter) Export(ctx context.Context, s scene.Scene) (*export.Result, error) {
	close(e.started)
	<-e.release
	return &export.Result{Name: "x.png", PNG: []byte{1}}, nil
}

func TestExportGuardsReentry(t *testing.T) {
	s := NewSession(testRef)
	defer s.Close()
	ex := &blockingExporter{started: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Export(context.Background(), ex, scene.Size{Width: 10, Height: 10})
		done <- err
	}()
	<-ex.started

	if _, err := s.Export(context.Background(), ex, scene.Size{Width: 10, Height: 10}); !errors.Is(err, ErrExportInProgress) {
		t.Fatalf("second Export error = %v, want ErrExportInProgress", err)
	}

	close(ex.release)
	if err := <-done; err != nil {
		t.Fatalf("first Export: %v", err)
	}

	ex2 := &blockingExporter{started: make(chan struct{}), release: make(chan struct{})}
	close(ex2.release)
	if _, err := s.Export(context.Background(), ex2, scene.Size{Width: 10, Height: 10}); err != nil {
		t.Fatalf("Export after completion: %v", err)
	}
}

func TestCloseStopsNotifications(t *testing.T) {
	s := NewSession(testRef)
	calls := 0
	s.OnDerived(func(Derived) { calls++ })
	s.Close()

	s.Model().SetGrayscale(50)
	s.Position().Translate(1, 1)
	if calls != 0 {
		t.Fatalf("notifications after Close = %d, want 0", calls)
	}
}

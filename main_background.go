package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"inspiria/background"
	"inspiria/prefs"
)

func runBackground(ctx context.Context, cfg Config, args []string) error {
	fs := flag.NewFlagSet("background", flag.ContinueOnError)
	var (
		frames  = fs.Int("frames", 30, "number of frames to write")
		width   = fs.Float64("width", 640, "width in CSS px")
		height  = fs.Float64("height", 360, "height in CSS px")
		ratio   = fs.Float64("ratio", 1, "device pixel ratio")
		fps     = fs.Int("fps", cfg.Background.FPS, "frames per second")
		theme   = fs.String("theme", "", "dark or light (default: stored preference)")
		pointer = fs.Bool("pointer", false, "sweep a pointer across the backdrop")
		outDir  = fs.String("out", cfg.OutputDir, "output directory")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *frames < 1 {
		return fmt.Errorf("-frames must be positive")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	t := prefs.Theme(*theme)
	if !t.Valid() {
		store := openPrefs(cfg)
		t = loadPrefs(ctx, store).Theme
		if store != nil {
			store.Close()
		}
	}
	opts := cfg.backgroundOptions(t.Dark())

	var (
		written  atomic.Int64
		done     = make(chan struct{})
		doneOnce sync.Once
		failed   = make(chan error, 1)
	)
	sink := func(img *image.RGBA) error {
		n := written.Add(1)
		if n > int64(*frames) {
			return nil
		}
		path := filepath.Join(*outDir, fmt.Sprintf("%s-bg-%04d.png", cfg.AppName, n))
		if err := writePNG(path, img); err != nil {
			select {
			case failed <- err:
			default:
			}
			return err
		}
		if n == int64(*frames) {
			doneOnce.Do(func() { close(done) })
		}
		return nil
	}

	size := background.Size{Width: *width, Height: *height, PixelRatio: *ratio}
	host := background.NewTickerHost(*fps, size)
	host.SurfaceFactory = func() (background.Surface, error) {
		return background.NewOffscreenSurface(sink), nil
	}

	animator := background.NewAnimator(opts)
	if err := animator.Mount(host); err != nil {
		return err
	}
	defer animator.Unmount()
	if animator.Degraded() {
		return errors.New("background: no surface available")
	}
	w, h := animator.PixelSize()
	log.Printf("info: rendering %d frames at %dx%d (%s theme)", *frames, w, h, t)

	if *pointer {
		go sweepPointer(ctx, host, size, done)
	}

	select {
	case <-done:
		log.Printf("info: wrote %d frames to %s", *frames, *outDir)
		return nil
	case err := <-failed:
		return err
	case <-ctx.Done():
		log.Printf("info: interrupted after %d frames", min(written.Load(), int64(*frames)))
		return nil
	}
}

// sweepPointer moves a pointer along a circle until done is closed.
func sweepPointer(ctx context.Context, host *background.TickerHost, size background.Size, done <-chan struct{}) {
	ticker := time.NewTicker(host.Interval)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case now := <-ticker.C:
			a := now.Sub(start).Seconds()
			host.Pointer(background.PointerEvent{
				Kind: background.PointerMove,
				X:    size.Width/2 + math.Cos(a)*size.Width/3,
				Y:    size.Height/2 + math.Sin(a)*size.Height/3,
			})
		}
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

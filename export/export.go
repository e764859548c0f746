// Package export renders a scene description to a PNG at twice the preview
// resolution.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"

	"inspiria/filter"
	"inspiria/overlay"
	"inspiria/scene"
	"inspiria/source"
)

// ErrExportFailed wraps every export error.
var ErrExportFailed = errors.New("export: failed")

// DefaultScale is the output pixel ratio relative to the preview.
const DefaultScale = 2

// DefaultAppName prefixes exported file names.
const DefaultAppName = "inspiria"

// Loader fetches and decodes the source picture.
type Loader interface {
	Load(ctx context.Context, ref source.Ref) (image.Image, error)
}

// Result is an encoded export.
type Result struct {
	Name   string
	Width  int
	Height int
	PNG    []byte
}

// Rasterizer renders scenes. It holds no per-export state, so one value can
// serve concurrent exports.
type Rasterizer struct {
	Loader  Loader
	AppName string
	// Scale multiplies the preview size. Zero means DefaultScale.
	Scale float64
}

// New returns a rasterizer with the default scale.
func New(loader Loader, appName string) *Rasterizer {
	if appName == "" {
		appName = DefaultAppName
	}
	return &Rasterizer{Loader: loader, AppName: appName, Scale: DefaultScale}
}

// Export renders s. On failure no bytes are returned and the error wraps
// ErrExportFailed.
func (r *Rasterizer) Export(ctx context.Context, s scene.Scene) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, fail("validate scene", err)
	}
	s = s.Normalized()
	scale := r.scale()

	w := int(math.Round(s.Preview.Width * scale))
	h := int(math.Round(s.Preview.Height * scale))

	if r.Loader == nil {
		return nil, fail("load source", errors.New("no loader"))
	}
	src, err := r.Loader.Load(ctx, s.Source)
	if err != nil {
		return nil, fail("load source", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fail("load source", err)
	}

	base := filter.Apply(source.Cover(src, w, h), s.Filters, scale)

	text, err := overlay.Render(s.Layer(scale))
	if err != nil {
		return nil, fail("render text", err)
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.DrawImage(gg.ImageBufFromImage(base), 0, 0)
	dc.DrawImage(gg.ImageBufFromImage(text), 0, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fail("encode png", err)
	}

	appName := r.AppName
	if appName == "" {
		appName = DefaultAppName
	}
	return &Result{
		Name:   FileName(appName, s.Source.ID),
		Width:  w,
		Height: h,
		PNG:    buf.Bytes(),
	}, nil
}

func (r *Rasterizer) scale() float64 {
	if r.Scale > 0 {
		return r.Scale
	}
	return DefaultScale
}

func fail(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExportFailed, op, err)
}

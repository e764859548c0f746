package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"strings"

	"inspiria/editor"
	"inspiria/export"
	"inspiria/scene"
	"inspiria/source"
	"inspiria/style"
)

const defaultPreviewWidth = 800

func runExport(ctx context.Context, cfg Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var (
		src        = fs.String("src", "", "source picture: file path or http(s) URL")
		id         = fs.String("id", "", "picture id used in the output name")
		scenePath  = fs.String("scene", "", "render a JSON scene file instead of flags")
		text       = fs.String("text", "", "overlay text (default: the stock caption)")
		quote      = fs.Bool("quote", false, "use a random quote as overlay text")
		color      = fs.String("color", "#ffffff", "text colour")
		size       = fs.Float64("size", 24, "font size in px")
		family     = fs.String("font", "sans", "font family: sans, medium, mono, smallcaps")
		bold       = fs.Bool("bold", true, "bold text")
		italic     = fs.Bool("italic", false, "italic text")
		underline  = fs.Bool("underline", false, "underline text")
		uppercase  = fs.Bool("uppercase", false, "uppercase text")
		align      = fs.String("align", "center", "text alignment: left, center, right")
		spacing    = fs.Float64("spacing", 0, "letter spacing in px")
		offsetX    = fs.Float64("x", 0, "text offset from centre in px")
		offsetY    = fs.Float64("y", 0, "text offset from centre in px")
		grayscale  = fs.Float64("grayscale", 0, "grayscale %")
		sepia      = fs.Float64("sepia", 0, "sepia %")
		brightness = fs.Float64("brightness", 100, "brightness %")
		contrast   = fs.Float64("contrast", 100, "contrast %")
		blur       = fs.Float64("blur", 0, "blur radius in px")
		width      = fs.Float64("width", 0, "preview width in px (default: picture aspect at 800 wide)")
		height     = fs.Float64("height", 0, "preview height in px")
		outDir     = fs.String("out", cfg.OutputDir, "output directory")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	loader := &source.Loader{Timeout: cfg.fetchTimeout()}
	rasterizer := export.New(loader, cfg.AppName)

	if *scenePath != "" {
		res, err := exportSceneFile(ctx, rasterizer, *scenePath)
		if err != nil {
			return err
		}
		return saveExport(*outDir, res)
	}

	ref, err := refFromArg(*src, *id)
	if err != nil {
		return err
	}

	var session *editor.Session
	if *quote {
		session = editor.NewQuoteSession(ref, source.RandomQuote())
	} else {
		session = editor.NewSession(ref)
	}
	defer session.Close()
	if *text != "" {
		session.SetText(*text)
	}

	m := session.Model()
	if err := m.SetColor(*color); err != nil {
		return err
	}
	m.SetFontSize(*size)
	if err := m.SetFontFamily(*family); err != nil {
		return err
	}
	if err := m.SetTextAlign(style.TextAlign(strings.ToLower(*align))); err != nil {
		return err
	}
	m.SetLetterSpacing(*spacing)
	applyToggle(*bold, m.TextStyle().FontWeight == style.WeightBold, m.ToggleBold)
	applyToggle(*italic, m.TextStyle().FontStyle == style.StyleItalic, m.ToggleItalic)
	applyToggle(*underline, m.TextStyle().TextDecoration == style.DecorationUnderline, m.ToggleUnderline)
	applyToggle(*uppercase, m.TextStyle().TextTransform == style.TransformUppercase, m.ToggleUppercase)
	m.SetGrayscale(*grayscale)
	m.SetSepia(*sepia)
	m.SetBrightness(*brightness)
	m.SetContrast(*contrast)
	m.SetBlur(*blur)
	session.Position().Translate(*offsetX, *offsetY)

	if cfg.Debug {
		d := session.Derived()
		log.Printf("info: filter %s", d.FilterCSS)
		log.Printf("info: transform %s", d.Transform)
	}

	preview := scene.Size{Width: *width, Height: *height}
	if preview.Width <= 0 || preview.Height <= 0 {
		img, err := loader.Load(ctx, ref)
		if err != nil {
			return fmt.Errorf("measure source: %w", err)
		}
		preview = naturalPreview(img.Bounds(), preview.Width)
		// Render from the picture already in memory.
		rasterizer.Loader = loadedImage{img}
	}

	res, err := session.Export(ctx, rasterizer, preview)
	if err != nil {
		return err
	}
	return saveExport(*outDir, res)
}

func applyToggle(want, have bool, toggle func()) {
	if want != have {
		toggle()
	}
}

func exportSceneFile(ctx context.Context, r *export.Rasterizer, path string) (*export.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s := scene.Default(source.Ref{}, scene.Size{})
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene %q: %w", path, err)
	}
	return r.Export(ctx, s)
}

// refFromArg turns a -src value into a reference. Local files are validated
// like uploads.
func refFromArg(src, id string) (source.Ref, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return source.Ref{}, fmt.Errorf("export: -src is required")
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return source.Ref{ID: id, URL: src}, nil
	}
	if strings.HasPrefix(src, "data:") {
		data, ct, err := source.ParseDataURL(src)
		if err != nil {
			return source.Ref{}, err
		}
		return source.FromUpload(id, data, ct)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return source.Ref{}, fmt.Errorf("export: read %q: %w", src, err)
	}
	return source.FromUpload(id, data, "")
}

// naturalPreview sizes the preview to the picture's aspect ratio.
func naturalPreview(b image.Rectangle, width float64) scene.Size {
	if width <= 0 {
		width = math.Min(defaultPreviewWidth, float64(b.Dx()))
	}
	return scene.Size{Width: width, Height: math.Round(width * float64(b.Dy()) / float64(b.Dx()))}
}

// loadedImage serves a picture that has already been decoded.
type loadedImage struct {
	img image.Image
}

func (l loadedImage) Load(context.Context, source.Ref) (image.Image, error) {
	return l.img, nil
}

func saveExport(dir string, res *export.Result) error {
	path, err := export.SaveFile(dir, res)
	if err != nil {
		return err
	}
	log.Printf("info: wrote %s (%dx%d)", path, res.Width, res.Height)
	return nil
}

package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"regexp"
	"sync"
	"testing"

	"inspiria/scene"
	"inspiria/source"
	"inspiria/style"
)

type fakeLoader struct {
	img image.Image
	err error
}

func (f fakeLoader) Load(ctx context.Context, ref source.Ref) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

func grey(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 0xff
	}
	return img
}

func testScene(id string) scene.Scene {
	s := scene.Default(source.Ref{ID: id, URL: "https://images.example.com/p.jpg"}, scene.Size{Width: 200, Height: 100})
	s.Filters.Brightness = 150
	s.Text.Text = "Hello"
	s.Text.Style.FontSizePx = 40
	s.Text.Style.Color = "#ffffff"
	return s
}

func TestExportDoublesResolution(t *testing.T) {
	r := New(fakeLoader{img: grey(400, 200, 100)}, "inspiria")
	res, err := r.Export(context.Background(), testScene("abc123"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Width != 400 || res.Height != 200 {
		t.Fatalf("size = %dx%d, want 400x200", res.Width, res.Height)
	}
	if res.Name != "inspiria-edit-abc123.png" {
		t.Fatalf("Name = %q, want inspiria-edit-abc123.png", res.Name)
	}

	img, err := png.Decode(bytes.NewReader(res.PNG))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(400, 200) {
		t.Fatalf("png size = %v, want 400x200", got)
	}

	// Corner pixels carry no text; brightness(150%) lifts 100 to 150.
	c := color.NRGBAModel.Convert(img.At(2, 2)).(color.NRGBA)
	if c.R < 146 || c.R > 154 {
		t.Fatalf("corner pixel = %+v, want about 150", c)
	}

	white := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA); c.R > 250 && c.G > 250 && c.B > 250 {
				white++
			}
		}
	}
	if white == 0 {
		t.Fatal("no white text pixels in the export")
	}
}

func TestExportFiltersBaseOnly(t *testing.T) {
	s := testScene("red")
	s.Filters = style.FilterState{Grayscale: 100, Brightness: 100, Contrast: 100, BlurPx: 10}
	s.Text.Style.Color = "#ff0000"

	res, err := New(fakeLoader{img: grey(400, 200, 100)}, "inspiria").Export(context.Background(), s)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(res.PNG))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	red := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.R > 240 && c.G < 15 && c.B < 15 {
				red++
			}
		}
	}
	if red == 0 {
		t.Fatal("no red text pixels: filters reached the text layer")
	}

	// The base is grey, so grayscale leaves it neutral.
	if c := color.NRGBAModel.Convert(img.At(2, 2)).(color.NRGBA); c.R != c.G || c.G != c.B {
		t.Fatalf("corner pixel = %+v, want neutral grey", c)
	}
}

func TestExportGeneratesIDWhenMissing(t *testing.T) {
	r := New(fakeLoader{img: grey(10, 10, 0)}, "inspiria")
	res, err := r.Export(context.Background(), testScene(""))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !regexp.MustCompile(`^inspiria-edit-[a-z0-9]{9}\.png$`).MatchString(res.Name) {
		t.Fatalf("Name = %q, want generated id", res.Name)
	}
}

func TestExportFailureReturnsNothing(t *testing.T) {
	r := New(fakeLoader{err: source.ErrUnreadable}, "inspiria")
	res, err := r.Export(context.Background(), testScene("abc"))
	if !errors.Is(err, ErrExportFailed) {
		t.Fatalf("Export error = %v, want ErrExportFailed", err)
	}
	if !errors.Is(err, source.ErrUnreadable) {
		t.Fatalf("Export error = %v, want cause preserved", err)
	}
	if res != nil {
		t.Fatalf("Export result = %+v, want nil", res)
	}
}

func TestExportRejectsInvalidScene(t *testing.T) {
	s := testScene("abc")
	s.Preview = scene.Size{}
	if _, err := New(fakeLoader{img: grey(1, 1, 0)}, "").Export(context.Background(), s); !errors.Is(err, ErrExportFailed) {
		t.Fatalf("Export error = %v, want ErrExportFailed", err)
	}
}

func TestExportConcurrent(t *testing.T) {
	r := New(fakeLoader{img: grey(50, 50, 60)}, "inspiria")
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := testScene("c")
			s.Filters = style.DefaultFilters()
			if _, err := r.Export(context.Background(), s); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Export: %v", err)
	}
}

func TestGenerateID(t *testing.T) {
	re := regexp.MustCompile(`^[a-z0-9]{9}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := GenerateID()
		if !re.MatchString(id) {
			t.Fatalf("GenerateID() = %q", id)
		}
		seen[id] = true
	}
	if len(seen) < 45 {
		t.Fatalf("only %d distinct ids out of 50", len(seen))
	}
}

func TestFileNameKeepsProviderID(t *testing.T) {
	if got := FileName("inspiria", "aB3-x_Y"); got != "inspiria-edit-aB3-x_Y.png" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestSaveFile(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveFile(dir, &Result{Name: "inspiria-edit-x.png", PNG: []byte("png")})
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png" {
		t.Fatalf("saved = %q, %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("directory has %d entries, want 1", len(entries))
	}

	if _, err := SaveFile(dir, nil); err == nil {
		t.Fatal("SaveFile(nil) succeeded")
	}
}

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	imagedraw "image/draw"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrUnreadable is returned when the picture cannot be fetched or decoded,
// for instance when the host refuses the request.
var ErrUnreadable = errors.New("source: image unreadable")

// DefaultFetchTimeout bounds a single remote fetch.
const DefaultFetchTimeout = 10 * time.Second

// maxFetchBytes caps remote bodies. Provider images are well below this.
const maxFetchBytes = 4 * MaxUploadBytes

// Loader turns a Ref into pixels.
type Loader struct {
	// Client performs remote fetches. Nil means a client with Timeout.
	Client  *http.Client
	Timeout time.Duration
	// Now supplies the cache-busting token. Nil means time.Now.
	Now func() time.Time
}

// Load returns the decoded picture. Remote pictures are requested with a
// cache-busting query parameter and a no-cache header so that an image the
// browser cached without CORS headers is fetched fresh. Failures are not
// retried.
func (l *Loader) Load(ctx context.Context, ref Ref) (image.Image, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	data := ref.Data
	if ref.IsRemote() {
		var err error
		data, err = l.fetch(ctx, ref.URL)
		if err != nil {
			return nil, err
		}
	}
	return Decode(data)
}

// Decode decodes png, jpeg, gif and webp data.
// Pictures over MaxImagePixels are rejected from their header with
// ErrTooLarge before any pixels are allocated.
func Decode(data []byte) (image.Image, error) {
	if _, err := checkDimensions(data); err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: decode: %v", ErrUnreadable, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnreadable, err)
	}
	logDebug("decoded %s image %v", format, img.Bounds().Size())
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := CacheBust(rawURL, l.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUnreadable, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "image/*")

	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	logDebug("fetching %s", target)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", ErrUnreadable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w: http status %s: %s", ErrUnreadable, resp.Status, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnreadable, err)
	}
	if len(data) > maxFetchBytes {
		return nil, fmt.Errorf("%w: body over %d bytes", ErrUnreadable, maxFetchBytes)
	}
	return data, nil
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// CacheBust adds a cacheBust query parameter carrying t.
func CacheBust(rawURL string, t time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("cacheBust", strconv.FormatInt(t.UnixNano(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Cover scales img to exactly width x height, cropping the longer axis so the
// aspect ratio is kept.
func Cover(img image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return dst
	}
	cropped := cropToAspect(img, float64(width)/float64(height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), xdraw.Src, nil)
	return dst
}

func cropToAspect(img image.Image, aspect float64) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return img
	}

	cw, ch := width, height
	if float64(width)/float64(height) > aspect {
		cw = int(float64(height)*aspect + 0.5)
	} else {
		ch = int(float64(width)/aspect + 0.5)
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	if cw == width && ch == height {
		return img
	}

	x0 := bounds.Min.X + (width-cw)/2
	y0 := bounds.Min.Y + (height-ch)/2
	cropRect := image.Rect(x0, y0, x0+cw, y0+ch)

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(cropRect)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, cw, ch))
	imagedraw.Draw(dst, dst.Bounds(), img, cropRect.Min, imagedraw.Src)
	return dst
}

package source

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
)

// MaxUploadBytes is the largest picture accepted from the user.
const MaxUploadBytes = 10 << 20

// MaxImagePixels bounds the decoded size of any picture, uploaded or fetched.
const MaxImagePixels = 40_000_000

var (
	// ErrNotImage is returned when uploaded content is not a picture.
	ErrNotImage = errors.New("source: not an image")
	// ErrTooLarge is returned for pictures over MaxUploadBytes or
	// MaxImagePixels.
	ErrTooLarge = errors.New("source: image too large")
)

// ValidateUpload checks uploaded bytes and returns the content type to store
// with them. The type is sniffed from the data; the declared type only has
// to agree that the content is an image.
func ValidateUpload(data []byte, declaredType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrNotImage)
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	declared := mediaType(declaredType)
	if declared != "" && !strings.HasPrefix(declared, "image/") {
		return "", fmt.Errorf("%w: declared %s", ErrNotImage, declared)
	}

	sniffed := mediaType(http.DetectContentType(data))
	if !strings.HasPrefix(sniffed, "image/") {
		return "", fmt.Errorf("%w: content looks like %s", ErrNotImage, sniffed)
	}
	if _, err := checkDimensions(data); err != nil {
		return "", err
	}
	return sniffed, nil
}

// checkDimensions reads the image header and rejects pictures whose decoded
// size would exceed MaxImagePixels.
func checkDimensions(data []byte) (image.Config, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return cfg, fmt.Errorf("%w: read header: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return cfg, fmt.Errorf("%w: %s image %dx%d", ErrTooLarge, format, cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// FromUpload validates data and wraps it in a Ref.
func FromUpload(id string, data []byte, declaredType string) (Ref, error) {
	ct, err := ValidateUpload(data, declaredType)
	if err != nil {
		return Ref{}, err
	}
	return Ref{ID: id, Data: data, ContentType: ct}, nil
}

// ParseDataURL decodes a "data:<type>[;base64],<payload>" string.
func ParseDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", fmt.Errorf("source: data url: missing data: prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("source: data url: missing payload")
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta = m
		isBase64 = true
	}
	contentType := mediaType(meta)
	if contentType == "" {
		contentType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("source: data url: %w", err)
		}
		return data, contentType, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("source: data url: %w", err)
	}
	return []byte(decoded), contentType, nil
}

func mediaType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}

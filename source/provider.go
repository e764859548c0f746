package source

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultOverlayText seeds the editor when no quote is supplied.
const DefaultOverlayText = "Inspiration is everywhere."

// Photo is the subset of an image provider's record the app uses.
type Photo struct {
	ID             string `json:"id"`
	Description    string `json:"description,omitempty"`
	AltDescription string `json:"alt_description,omitempty"`
	URLs           struct {
		Regular string `json:"regular"`
		Full    string `json:"full,omitempty"`
		Small   string `json:"small,omitempty"`
	} `json:"urls"`
	Links struct {
		HTML             string `json:"html,omitempty"`
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
	User struct {
		Name     string `json:"name"`
		Username string `json:"username,omitempty"`
	} `json:"user"`
}

// Ref returns the reference an editor session opens for this photo.
func (p Photo) Ref() Ref {
	return Ref{ID: p.ID, URL: p.URLs.Regular}
}

// Caption returns the best available description of the photo.
func (p Photo) Caption() string {
	if s := strings.TrimSpace(p.Description); s != "" {
		return s
	}
	return strings.TrimSpace(p.AltDescription)
}

// Quote is a piece of text and its attribution.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// FallbackQuote is shown when no provider answers.
var FallbackQuote = Quote{
	Text:   "Code is like humor. When you have to explain it, it’s bad.",
	Author: "Cory House",
}

// LocalQuotes is the offline quote list.
var LocalQuotes = []Quote{
	{"The only way to do great work is to love what you do.", "Steve Jobs"},
	{"Innovation distinguishes between a leader and a follower.", "Steve Jobs"},
	{"Your time is limited, so don't waste it living someone else's life.", "Steve Jobs"},
	{"Stay hungry, stay foolish.", "Steve Jobs"},
	{"The future belongs to those who believe in the beauty of their dreams.", "Eleanor Roosevelt"},
	{"It does not matter how slowly you go as long as you do not stop.", "Confucius"},
	{"Everything you've ever wanted is on the other side of fear.", "George Addair"},
	{"Success is not final, failure is not fatal: it is the courage to continue that counts.", "Winston Churchill"},
	{"Hardships often prepare ordinary people for an extraordinary destiny.", "C.S. Lewis"},
	{"Believe you can and you're halfway there.", "Theodore Roosevelt"},
}

// RandomQuote picks one of LocalQuotes.
func RandomQuote() Quote {
	return LocalQuotes[rand.IntN(len(LocalQuotes))]
}

// FormatQuote renders a quote as overlay text: "text" - author. The
// attribution is dropped when the author is unknown.
func FormatQuote(q Quote) string {
	text := strings.TrimSpace(q.Text)
	author := strings.TrimSpace(q.Author)
	if text == "" {
		return ""
	}
	if author == "" {
		return "\"" + text + "\""
	}
	return fmt.Sprintf("\"%s\" - %s", text, author)
}

// TrackDownload notifies the image provider that a photo was downloaded. It
// is best effort: failures are logged and never returned.
func TrackDownload(ctx context.Context, client *http.Client, p Photo, accessKey string) {
	location := strings.TrimSpace(p.Links.DownloadLocation)
	if location == "" || accessKey == "" {
		return
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	trackCtx, cancel := context.WithTimeout(ctx, DefaultFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(trackCtx, http.MethodGet, location, nil)
	if err != nil {
		logWarning("track download %s: %v", p.ID, err)
		return
	}
	req.Header.Set("Authorization", "Client-ID "+accessKey)

	resp, err := client.Do(req)
	if err != nil {
		logWarning("track download %s: %v", p.ID, err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logWarning("track download %s: http status %s", p.ID, resp.Status)
		return
	}
	logDebug("tracked download of %s", p.ID)
}

// DownloadOriginal saves the full photo as <app>-<id>.<ext> in dir and returns
// the path. The download is tracked first.
func DownloadOriginal(ctx context.Context, client *http.Client, p Photo, accessKey, appName, dir string) (string, error) {
	TrackDownload(ctx, client, p, accessKey)

	target := p.URLs.Full
	if target == "" {
		target = p.URLs.Regular
	}
	if target == "" {
		return "", fmt.Errorf("source: download %s: %w", p.ID, ErrNoSource)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	dlCtx, cancel := context.WithTimeout(ctx, 4*DefaultFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("source: download %s: %w", p.ID, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("source: download %s: %w", p.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("source: download %s: http status %s", p.ID, resp.Status)
	}

	id := SanitizeForFilename(p.ID)
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	name := fmt.Sprintf("%s-%s.%s", appName, id, extensionFromContentType(resp.Header.Get("Content-Type")))
	path := filepath.Join(dir, name)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("source: create download directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("source: create download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("source: write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("source: write download: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("source: save download: %w", err)
	}
	return path, nil
}

// SanitizeForFilename keeps letters, digits, '-' and '_' and turns spaces into
// underscores. Case is preserved.
func SanitizeForFilename(value string) string {
	value = strings.TrimSpace(value)
	var builder strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '-' || r == '_':
			builder.WriteRune(r)
		case r == ' ':
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

func extensionFromContentType(contentType string) string {
	switch mediaType(contentType) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

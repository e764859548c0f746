package overlay

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/opentype"

	"inspiria/style"
)

// DefaultFamily is used when a style names a family with no registered face.
const DefaultFamily = "sans"

type faceKey struct {
	family string
	weight style.FontWeight
	style  style.FontStyle
}

type fontEntry struct {
	ttf    []byte
	once   sync.Once
	parsed *opentype.Font
	err    error
}

func (e *fontEntry) load() (*opentype.Font, error) {
	e.once.Do(func() {
		parsed, err := opentype.Parse(e.ttf)
		if err != nil {
			e.err = fmt.Errorf("parse font: %w", err)
			return
		}
		e.parsed = parsed
	})
	return e.parsed, e.err
}

var (
	fontsMu sync.RWMutex
	fonts   = map[faceKey]*fontEntry{}
)

func init() {
	builtin := []struct {
		family string
		weight style.FontWeight
		style  style.FontStyle
		ttf    []byte
	}{
		{"sans", style.WeightNormal, style.StyleNormal, goregular.TTF},
		{"sans", style.WeightBold, style.StyleNormal, gobold.TTF},
		{"sans", style.WeightNormal, style.StyleItalic, goitalic.TTF},
		{"sans", style.WeightBold, style.StyleItalic, gobolditalic.TTF},
		{"medium", style.WeightNormal, style.StyleNormal, gomedium.TTF},
		{"medium", style.WeightBold, style.StyleNormal, gobold.TTF},
		{"medium", style.WeightNormal, style.StyleItalic, gomediumitalic.TTF},
		{"medium", style.WeightBold, style.StyleItalic, gobolditalic.TTF},
		{"mono", style.WeightNormal, style.StyleNormal, gomono.TTF},
		{"mono", style.WeightBold, style.StyleNormal, gomonobold.TTF},
		{"mono", style.WeightNormal, style.StyleItalic, gomonoitalic.TTF},
		{"mono", style.WeightBold, style.StyleItalic, gomonobolditalic.TTF},
		{"smallcaps", style.WeightNormal, style.StyleNormal, gosmallcaps.TTF},
		{"smallcaps", style.WeightNormal, style.StyleItalic, gosmallcapsitalic.TTF},
	}
	for _, b := range builtin {
		fonts[faceKey{b.family, b.weight, b.style}] = &fontEntry{ttf: b.ttf}
	}
}

// RegisterFont adds or replaces the face used for one family, weight and
// style. The data is parsed immediately so a bad file is reported here rather
// than at render time.
func RegisterFont(family string, weight style.FontWeight, fs style.FontStyle, ttf []byte) error {
	family = strings.ToLower(strings.TrimSpace(family))
	if family == "" {
		return fmt.Errorf("overlay: register font: empty family")
	}
	entry := &fontEntry{ttf: ttf}
	if _, err := entry.load(); err != nil {
		return fmt.Errorf("overlay: register font %q: %w", family, err)
	}

	fontsMu.Lock()
	fonts[faceKey{family, weight, fs}] = entry
	fontsMu.Unlock()
	return nil
}

// Families lists the registered family names.
func Families() []string {
	fontsMu.RLock()
	defer fontsMu.RUnlock()

	seen := map[string]bool{}
	var out []string
	for k := range fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	return out
}

// lookupFont resolves the closest registered face. Within a family a missing
// weight or style falls back to the regular face; an unknown family falls back
// to DefaultFamily.
func lookupFont(family string, weight style.FontWeight, fs style.FontStyle) (*opentype.Font, error) {
	family = strings.ToLower(strings.TrimSpace(family))

	fontsMu.RLock()
	candidates := []faceKey{
		{family, weight, fs},
		{family, style.WeightNormal, fs},
		{family, weight, style.StyleNormal},
		{family, style.WeightNormal, style.StyleNormal},
		{DefaultFamily, weight, fs},
	}
	var entry *fontEntry
	for _, k := range candidates {
		if e, ok := fonts[k]; ok {
			entry = e
			break
		}
	}
	fontsMu.RUnlock()

	if entry == nil {
		return nil, fmt.Errorf("overlay: no font for family %q", family)
	}
	return entry.load()
}

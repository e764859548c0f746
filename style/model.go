package style

import (
	"fmt"
	"sync"
)

// Snapshot is a consistent copy of a Model's state.
type Snapshot struct {
	Text    TextStyle
	Filters FilterState
}

// Model owns the text style and filter state of one editor session. Every
// setter replaces a single field under the lock, and subscribers are notified
// synchronously before the setter returns. Notifications are delivered in the
// order the changes were applied, so subscribers must not call setters.
type Model struct {
	// notifyMu serialises a change together with its notification.
	notifyMu sync.Mutex
	mu       sync.Mutex
	text    TextStyle
	filters FilterState

	nextID      int
	subscribers []subscriber
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// NewModel returns a model holding the default style and filters.
func NewModel() *Model {
	return &Model{
		text:    DefaultTextStyle(),
		filters: DefaultFilters(),
	}
}

// Snapshot returns the current state.
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Text: m.text, Filters: m.filters}
}

func (m *Model) TextStyle() TextStyle {
	return m.Snapshot().Text
}

func (m *Model) Filters() FilterState {
	return m.Snapshot().Filters
}

// Subscribe registers fn to be called after every effective change. The
// returned function removes the subscription.
func (m *Model) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.subscribers {
				if s.id == id {
					m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// update applies mutate under the lock and notifies subscribers when the
// state actually changed.
func (m *Model) update(mutate func(t *TextStyle, f *FilterState)) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	before := Snapshot{Text: m.text, Filters: m.filters}
	mutate(&m.text, &m.filters)
	after := Snapshot{Text: m.text, Filters: m.filters}
	subs := make([]subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	if before == after {
		return
	}
	for _, s := range subs {
		s.fn(after)
	}
}

func (m *Model) SetColor(value string) error {
	c, err := NormalizeColor(value)
	if err != nil {
		return err
	}
	m.update(func(t *TextStyle, _ *FilterState) { t.Color = c })
	return nil
}

func (m *Model) SetFontSize(px float64) {
	px = ClampFontSize(px)
	m.update(func(t *TextStyle, _ *FilterState) { t.FontSizePx = px })
}

func (m *Model) SetFontFamily(family string) error {
	if family == "" {
		return fmt.Errorf("%w: empty font family", ErrInvalidValue)
	}
	m.update(func(t *TextStyle, _ *FilterState) { t.FontFamily = family })
	return nil
}

func (m *Model) SetFontWeight(w FontWeight) error {
	if !w.valid() {
		return fmt.Errorf("%w: font weight %q", ErrInvalidValue, w)
	}
	m.update(func(t *TextStyle, _ *FilterState) { t.FontWeight = w })
	return nil
}

func (m *Model) SetFontStyle(s FontStyle) error {
	if !s.valid() {
		return fmt.Errorf("%w: font style %q", ErrInvalidValue, s)
	}
	m.update(func(t *TextStyle, _ *FilterState) { t.FontStyle = s })
	return nil
}

func (m *Model) SetTextAlign(a TextAlign) error {
	if !a.valid() {
		return fmt.Errorf("%w: text align %q", ErrInvalidValue, a)
	}
	m.update(func(t *TextStyle, _ *FilterState) { t.TextAlign = a })
	return nil
}

func (m *Model) SetTextDecoration(d TextDecoration) error {
	if !d.valid() {
		return fmt.Errorf("%w: text decoration %q", ErrInvalidValue, d)
	}
	m.update(func(t *TextStyle, _ *FilterState) { t.TextDecoration = d })
	return nil
}

func (m *Model) SetTextTransform(tr TextTransform) error {
	if !tr.valid() {
		return fmt.Errorf("%w: text transform %q", ErrInvalidValue, tr)
	}
	m.update(func(t *TextStyle, _ *FilterState) { t.TextTransform = tr })
	return nil
}

func (m *Model) SetLetterSpacing(px float64) {
	px = ClampLetterSpacing(px)
	m.update(func(t *TextStyle, _ *FilterState) { t.LetterSpacingPx = px })
}

// SetTextStyle replaces the whole text style after normalising it.
func (m *Model) SetTextStyle(s TextStyle) {
	s = s.Normalize()
	m.update(func(t *TextStyle, _ *FilterState) { *t = s })
}

func (m *Model) ToggleBold() {
	m.update(func(t *TextStyle, _ *FilterState) {
		if t.FontWeight == WeightBold {
			t.FontWeight = WeightNormal
		} else {
			t.FontWeight = WeightBold
		}
	})
}

func (m *Model) ToggleItalic() {
	m.update(func(t *TextStyle, _ *FilterState) {
		if t.FontStyle == StyleItalic {
			t.FontStyle = StyleNormal
		} else {
			t.FontStyle = StyleItalic
		}
	})
}

func (m *Model) ToggleUnderline() {
	m.update(func(t *TextStyle, _ *FilterState) {
		if t.TextDecoration == DecorationUnderline {
			t.TextDecoration = DecorationNone
		} else {
			t.TextDecoration = DecorationUnderline
		}
	})
}

func (m *Model) ToggleUppercase() {
	m.update(func(t *TextStyle, _ *FilterState) {
		if t.TextTransform == TransformUppercase {
			t.TextTransform = TransformNone
		} else {
			t.TextTransform = TransformUppercase
		}
	})
}

func (m *Model) SetGrayscale(pct float64) {
	pct = clamp(pct, 0, MaxGrayscale)
	m.update(func(_ *TextStyle, f *FilterState) { f.Grayscale = pct })
}

func (m *Model) SetSepia(pct float64) {
	pct = clamp(pct, 0, MaxSepia)
	m.update(func(_ *TextStyle, f *FilterState) { f.Sepia = pct })
}

func (m *Model) SetBrightness(pct float64) {
	pct = clamp(pct, 0, MaxBrightness)
	m.update(func(_ *TextStyle, f *FilterState) { f.Brightness = pct })
}

func (m *Model) SetContrast(pct float64) {
	pct = clamp(pct, 0, MaxContrast)
	m.update(func(_ *TextStyle, f *FilterState) { f.Contrast = pct })
}

func (m *Model) SetBlur(px float64) {
	px = clamp(px, 0, MaxBlurPx)
	m.update(func(_ *TextStyle, f *FilterState) { f.BlurPx = px })
}

// SetFilters replaces the whole filter state after clamping it.
func (m *Model) SetFilters(state FilterState) {
	state = state.Clamp()
	m.update(func(_ *TextStyle, f *FilterState) { *f = state })
}

// ResetFilters restores the neutral filter state.
func (m *Model) ResetFilters() {
	m.update(func(_ *TextStyle, f *FilterState) { *f = DefaultFilters() })
}

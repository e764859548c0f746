package style

import (
	"errors"
	"sync"
	"testing"
)

func TestResetFiltersRestoresDefaults(t *testing.T) {
	m := NewModel()
	m.SetGrayscale(80)
	m.SetSepia(35)
	m.SetBrightness(150)
	m.SetContrast(20)
	m.SetBlur(7.5)

	m.ResetFilters()

	got := m.Filters()
	want := FilterState{Grayscale: 0, Sepia: 0, Brightness: 100, Contrast: 100, BlurPx: 0}
	if got != want {
		t.Fatalf("Filters() = %+v, want %+v", got, want)
	}
}

func TestTogglesRestoreOnlyTheirField(t *testing.T) {
	toggles := []struct {
		name   string
		toggle func(*Model)
	}{
		{"bold", (*Model).ToggleBold},
		{"italic", (*Model).ToggleItalic},
		{"underline", (*Model).ToggleUnderline},
		{"uppercase", (*Model).ToggleUppercase},
	}

	for _, tc := range toggles {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModel()
			m.SetFontSize(40)
			if err := m.SetColor("#f87171"); err != nil {
				t.Fatalf("SetColor: %v", err)
			}
			before := m.TextStyle()

			tc.toggle(m)
			if m.TextStyle() == before {
				t.Fatalf("toggle %s did not change the style", tc.name)
			}
			tc.toggle(m)

			if got := m.TextStyle(); got != before {
				t.Fatalf("after double toggle = %+v, want %+v", got, before)
			}
		})
	}
}

func TestToggleChangesSingleField(t *testing.T) {
	m := NewModel()
	before := m.TextStyle()
	m.ToggleItalic()
	after := m.TextStyle()

	if after.FontStyle != StyleItalic {
		t.Fatalf("FontStyle = %q, want italic", after.FontStyle)
	}
	after.FontStyle = before.FontStyle
	if after != before {
		t.Fatalf("other fields changed: %+v vs %+v", after, before)
	}
}

func TestSettersClampOutOfRange(t *testing.T) {
	m := NewModel()
	m.SetFontSize(500)
	m.SetLetterSpacing(-40)
	m.SetBrightness(900)
	m.SetBlur(-3)

	ts := m.TextStyle()
	if ts.FontSizePx != MaxFontSizePx {
		t.Fatalf("FontSizePx = %v, want %v", ts.FontSizePx, MaxFontSizePx)
	}
	if ts.LetterSpacingPx != MinLetterSpacingPx {
		t.Fatalf("LetterSpacingPx = %v, want %v", ts.LetterSpacingPx, MinLetterSpacingPx)
	}
	f := m.Filters()
	if f.Brightness != MaxBrightness {
		t.Fatalf("Brightness = %v, want %v", f.Brightness, MaxBrightness)
	}
	if f.BlurPx != 0 {
		t.Fatalf("BlurPx = %v, want 0", f.BlurPx)
	}
}

func TestInvalidEnumLeavesFieldUnchanged(t *testing.T) {
	m := NewModel()
	err := m.SetTextAlign("justify")
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("SetTextAlign error = %v, want ErrInvalidValue", err)
	}
	if got := m.TextStyle().TextAlign; got != AlignCenter {
		t.Fatalf("TextAlign = %q, want center", got)
	}
}

func TestSetColorNormalizes(t *testing.T) {
	m := NewModel()
	if err := m.SetColor("#FFF"); err != nil {
		t.Fatalf("SetColor: %v", err)
	}
	if got := m.TextStyle().Color; got != "#ffffff" {
		t.Fatalf("Color = %q, want #ffffff", got)
	}
	if err := m.SetColor("#A78BFA"); err != nil {
		t.Fatalf("SetColor: %v", err)
	}
	if got := m.TextStyle().Color; got != "#a78bfa" {
		t.Fatalf("Color = %q, want #a78bfa", got)
	}
	if err := m.SetColor("not-a-colour"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("SetColor error = %v, want ErrInvalidValue", err)
	}
	if got := m.TextStyle().Color; got != "#a78bfa" {
		t.Fatalf("Color after rejected set = %q, want #a78bfa", got)
	}
}

func TestSubscribersNotifiedSynchronously(t *testing.T) {
	m := NewModel()
	var seen []Snapshot
	cancel := m.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	m.SetBrightness(150)
	if len(seen) != 1 {
		t.Fatalf("notifications = %d, want 1", len(seen))
	}
	if seen[0].Filters.Brightness != 150 {
		t.Fatalf("notified Brightness = %v, want 150", seen[0].Filters.Brightness)
	}

	m.SetBrightness(150)
	if len(seen) != 1 {
		t.Fatalf("no-op set notified: %d notifications", len(seen))
	}

	cancel()
	m.SetBrightness(120)
	if len(seen) != 1 {
		t.Fatalf("cancelled subscriber notified: %d notifications", len(seen))
	}
}

func TestConcurrentSettersNotifyInOrder(t *testing.T) {
	m := NewModel()
	var last Snapshot
	m.Subscribe(func(s Snapshot) { last = s })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.SetBrightness(float64(i * 4))
			m.SetContrast(float64(200 - i*4))
		}()
	}
	wg.Wait()

	if got := m.Snapshot(); last != got {
		t.Fatalf("last notified = %+v, want current %+v", last, got)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	got := TextStyle{FontSizePx: 8, FontWeight: "heavy"}.Normalize()
	if got.FontSizePx != MinFontSizePx {
		t.Fatalf("FontSizePx = %v, want %v", got.FontSizePx, MinFontSizePx)
	}
	if got.FontWeight != WeightBold {
		t.Fatalf("FontWeight = %q, want default bold", got.FontWeight)
	}
	if got.Color != "#ffffff" {
		t.Fatalf("Color = %q, want #ffffff", got.Color)
	}
	if got.TextAlign != AlignCenter {
		t.Fatalf("TextAlign = %q, want center", got.TextAlign)
	}
}

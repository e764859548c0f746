package scene

import (
	"encoding/json"
	"errors"
	"testing"

	"inspiria/source"
	"inspiria/style"
)

func TestValidate(t *testing.T) {
	ref := source.Ref{URL: "https://images.example.com/a.jpg"}
	tests := []struct {
		name    string
		scene   Scene
		wantErr bool
	}{
		{"ok", Default(ref, Size{Width: 600, Height: 400}), false},
		{"zero width", Default(ref, Size{Width: 0, Height: 400}), true},
		{"negative height", Default(ref, Size{Width: 10, Height: -1}), true},
		{"largest preview", Default(ref, Size{Width: MaxPreviewSide, Height: MaxPreviewSide}), false},
		{"huge preview", Default(ref, Size{Width: 1e6, Height: 1e6}), true},
		{"too wide", Default(ref, Size{Width: MaxPreviewSide + 1, Height: 10}), true},
		{"no source", Default(source.Ref{}, Size{Width: 10, Height: 10}), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.scene.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidScene) {
				t.Fatalf("Validate() = %v, want ErrInvalidScene", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	body := `{
		"source": {"id": "xyz", "url": "https://images.example.com/xyz.jpg"},
		"filters": {"grayscale": 0, "sepia": 0, "brightness": 150, "contrast": 100, "blurPx": 0},
		"text": {"text": "Hello", "style": {"color": "#FFF", "fontSizePx": 40}, "offset": {"x": 10, "y": -5}},
		"preview": {"width": 320, "height": 240}
	}`
	var s Scene
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s = s.Normalized()

	if s.Filters.Brightness != 150 {
		t.Fatalf("Brightness = %v, want 150", s.Filters.Brightness)
	}
	if s.Text.Style.Color != "#ffffff" {
		t.Fatalf("Color = %q, want #ffffff", s.Text.Style.Color)
	}
	if s.Text.Style.TextAlign != style.AlignCenter {
		t.Fatalf("TextAlign = %q, want center", s.Text.Style.TextAlign)
	}
	layer := s.Layer(2)
	if layer.PreviewWidth != 320 || layer.Scale != 2 || layer.Offset.X != 10 {
		t.Fatalf("Layer(2) = %+v", layer)
	}
}

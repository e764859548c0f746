package style

// Filter bounds. Percentages for the first four, pixels for blur.
const (
	MaxGrayscale  = 100
	MaxSepia      = 100
	MaxBrightness = 200
	MaxContrast   = 200
	MaxBlurPx     = 10
)

// FilterState holds the image filter levels applied to the base image.
type FilterState struct {
	Grayscale  float64 `json:"grayscale"`
	Sepia      float64 `json:"sepia"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	BlurPx     float64 `json:"blurPx"`
}

// DefaultFilters returns the neutral filter state.
func DefaultFilters() FilterState {
	return FilterState{
		Grayscale:  0,
		Sepia:      0,
		Brightness: 100,
		Contrast:   100,
		BlurPx:     0,
	}
}

// Clamp bounds every level to its allowed range.
func (f FilterState) Clamp() FilterState {
	return FilterState{
		Grayscale:  clamp(f.Grayscale, 0, MaxGrayscale),
		Sepia:      clamp(f.Sepia, 0, MaxSepia),
		Brightness: clamp(f.Brightness, 0, MaxBrightness),
		Contrast:   clamp(f.Contrast, 0, MaxContrast),
		BlurPx:     clamp(f.BlurPx, 0, MaxBlurPx),
	}
}

// IsNeutral reports whether the state leaves the image unchanged.
func (f FilterState) IsNeutral() bool {
	return f == DefaultFilters()
}

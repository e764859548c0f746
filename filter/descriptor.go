// Package filter turns a style.FilterState into the filter expression shown
// by the live preview and applies the same chain to pixels at export time.
//
// The order is fixed: grayscale, sepia, brightness, contrast, blur. Changing
// it changes the output.
package filter

import (
	"strconv"
	"strings"

	"inspiria/style"
)

// Descriptor returns the CSS filter expression for state, for example
// "grayscale(0%) sepia(0%) brightness(100%) contrast(100%) blur(0px)".
func Descriptor(state style.FilterState) string {
	state = state.Clamp()

	var b strings.Builder
	b.Grow(72)
	b.WriteString("grayscale(")
	b.WriteString(formatNumber(state.Grayscale))
	b.WriteString("%) sepia(")
	b.WriteString(formatNumber(state.Sepia))
	b.WriteString("%) brightness(")
	b.WriteString(formatNumber(state.Brightness))
	b.WriteString("%) contrast(")
	b.WriteString(formatNumber(state.Contrast))
	b.WriteString("%) blur(")
	b.WriteString(formatNumber(state.BlurPx))
	b.WriteString("px)")
	return b.String()
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package filter

// colorMatrix is a 3x3 RGB transform plus a constant offset per channel,
// operating on straight-alpha colour in [0,1].
type colorMatrix struct {
	m      [9]float64
	offset [3]float64
}

func (cm colorMatrix) apply(r, g, b float64) (float64, float64, float64) {
	m := &cm.m
	nr := m[0]*r + m[1]*g + m[2]*b + cm.offset[0]
	ng := m[3]*r + m[4]*g + m[5]*b + cm.offset[1]
	nb := m[6]*r + m[7]*g + m[8]*b + cm.offset[2]
	return clamp01(nr), clamp01(ng), clamp01(nb)
}

// grayscaleMatrix follows the Filter Effects definition of grayscale(amount).
func grayscaleMatrix(amount float64) colorMatrix {
	inv := 1 - clamp01(amount)
	return colorMatrix{m: [9]float64{
		0.2126 + 0.7874*inv, 0.7152 - 0.7152*inv, 0.0722 - 0.0722*inv,
		0.2126 - 0.2126*inv, 0.7152 + 0.2848*inv, 0.0722 - 0.0722*inv,
		0.2126 - 0.2126*inv, 0.7152 - 0.7152*inv, 0.0722 + 0.9278*inv,
	}}
}

// sepiaMatrix follows the Filter Effects definition of sepia(amount).
func sepiaMatrix(amount float64) colorMatrix {
	inv := 1 - clamp01(amount)
	return colorMatrix{m: [9]float64{
		0.393 + 0.607*inv, 0.769 - 0.769*inv, 0.189 - 0.189*inv,
		0.349 - 0.349*inv, 0.686 + 0.314*inv, 0.168 - 0.168*inv,
		0.272 - 0.272*inv, 0.534 - 0.534*inv, 0.131 + 0.869*inv,
	}}
}

func brightnessMatrix(factor float64) colorMatrix {
	return colorMatrix{m: [9]float64{
		factor, 0, 0,
		0, factor, 0,
		0, 0, factor,
	}}
}

// contrastMatrix scales each channel around mid grey.
func contrastMatrix(factor float64) colorMatrix {
	offset := 0.5 - 0.5*factor
	return colorMatrix{
		m: [9]float64{
			factor, 0, 0,
			0, factor, 0,
			0, 0, factor,
		},
		offset: [3]float64{offset, offset, offset},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package filter

import (
	"image"
	"image/draw"

	"github.com/gogpu/gg"

	"inspiria/style"
)

// Apply runs the filter chain over img and returns a new image. Blur radius is
// multiplied by scale so a 2x export blurs as much as the preview.
func Apply(img image.Image, state style.FilterState, scale float64) *image.NRGBA {
	state = state.Clamp()
	if scale <= 0 {
		scale = 1
	}

	out := toNRGBA(img)
	if state.IsNeutral() {
		return out
	}

	chain := colorChain(state)
	if len(chain) > 0 {
		applyMatrices(out, chain)
	}

	if state.BlurPx > 0 {
		out = blurNRGBA(out, state.BlurPx*scale)
	}
	return out
}

func colorChain(state style.FilterState) []colorMatrix {
	var chain []colorMatrix
	if state.Grayscale > 0 {
		chain = append(chain, grayscaleMatrix(state.Grayscale/100))
	}
	if state.Sepia > 0 {
		chain = append(chain, sepiaMatrix(state.Sepia/100))
	}
	if state.Brightness != 100 {
		chain = append(chain, brightnessMatrix(state.Brightness/100))
	}
	if state.Contrast != 100 {
		chain = append(chain, contrastMatrix(state.Contrast/100))
	}
	return chain
}

func applyMatrices(img *image.NRGBA, chain []colorMatrix) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			if row[i+3] == 0 {
				continue
			}
			r := float64(row[i]) / 255
			g := float64(row[i+1]) / 255
			bl := float64(row[i+2]) / 255
			for _, m := range chain {
				r, g, bl = m.apply(r, g, bl)
			}
			row[i] = uint8(r*255 + 0.5)
			row[i+1] = uint8(g*255 + 0.5)
			row[i+2] = uint8(bl*255 + 0.5)
		}
	}
}

// blurNRGBA blurs in premultiplied space so transparent pixels do not bleed
// their colour into neighbours.
func blurNRGBA(img *image.NRGBA, sigma float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	premul := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(premul, premul.Bounds(), img, b.Min, draw.Src)

	src := gg.NewPixmap(w, h)
	copy(src.Data(), premul.Pix)
	blurred := BlurPixmap(src, sigma)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), blurred.ToImage(), image.Point{}, draw.Src)
	return out
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

package filter

import (
	"image"
	"math"

	"github.com/gogpu/gg"
)

// gaussianKernel returns a normalised 1D kernel covering three standard
// deviations on each side. sigma <= 0 yields the identity kernel.
func gaussianKernel(sigma float64) []float32 {
	if sigma <= 0 {
		return []float32{1}
	}
	half := int(math.Ceil(sigma * 3))
	kernel := make([]float32, half*2+1)
	twoSigmaSq := 2 * sigma * sigma
	sum := 0.0
	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}
	inv := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= inv
	}
	return kernel
}

// blurChannels runs a separable Gaussian blur over an interleaved buffer with
// the given number of channels per pixel. Edge pixels are extended.
func blurChannels(src, dst []uint8, width, height, channels int, sigma float64) {
	if sigma <= 0 || width == 0 || height == 0 {
		copy(dst, src)
		return
	}
	kernel := gaussianKernel(sigma)
	half := len(kernel) / 2
	temp := make([]float32, width*height*channels)
	acc := make([]float32, channels)

	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			for c := range acc {
				acc[c] = 0
			}
			for k, w := range kernel {
				kx := x + k - half
				if kx < 0 {
					kx = 0
				} else if kx >= width {
					kx = width - 1
				}
				idx := (row + kx) * channels
				for c := 0; c < channels; c++ {
					acc[c] += float32(src[idx+c]) * w
				}
			}
			idx := (row + x) * channels
			copy(temp[idx:idx+channels], acc)
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := range acc {
				acc[c] = 0
			}
			for k, w := range kernel {
				ky := y + k - half
				if ky < 0 {
					ky = 0
				} else if ky >= height {
					ky = height - 1
				}
				idx := (ky*width + x) * channels
				for c := 0; c < channels; c++ {
					acc[c] += temp[idx+c] * w
				}
			}
			idx := (y*width + x) * channels
			for c := 0; c < channels; c++ {
				dst[idx+c] = clampByte(acc[c])
			}
		}
	}
}

// BlurPixmap blurs a premultiplied RGBA pixmap into a new pixmap.
func BlurPixmap(src *gg.Pixmap, sigma float64) *gg.Pixmap {
	dst := gg.NewPixmap(src.Width(), src.Height())
	blurChannels(src.Data(), dst.Data(), src.Width(), src.Height(), 4, sigma)
	return dst
}

// BlurAlpha blurs an alpha mask, used for soft text shadows.
func BlurAlpha(mask *image.Alpha, sigma float64) *image.Alpha {
	b := mask.Bounds()
	out := image.NewAlpha(b)
	if mask.Stride != b.Dx() {
		// Sub-image; copy into a tight buffer first.
		tight := image.NewAlpha(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			copy(tight.Pix[(y-b.Min.Y)*tight.Stride:], mask.Pix[mask.PixOffset(b.Min.X, y):mask.PixOffset(b.Max.X, y)])
		}
		mask = tight
	}
	blurChannels(mask.Pix, out.Pix, b.Dx(), b.Dy(), 1, sigma)
	return out
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

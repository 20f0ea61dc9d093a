package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
)

// Luminance weights from ITU-R BT.601, the same weights used by the common
// vision libraries for RGB to gray conversion.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale converts img to a single-channel intensity image using BT.601
// weights. The result always has a zero origin.
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)

	// The RGBA result carries the intensity in every colour channel; keep R.
	b := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+4*b.Dx()]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[4*x]
		}
	}
	return gray
}

// GaussianBlur5 applies a 5x5 Gaussian blur to a grayscale image.
//
// The kernel is separable with sigma = 1.1, which is what a 5x5 kernel gets
// when sigma is derived from the kernel size (0.3*((5-1)*0.5-1) + 0.8).
// Normalized 1-D weights are approximately:
//
//	0.0708  0.2445  0.3695  0.2445  0.0708
//
// Borders are handled by reflection without repeating the edge pixel
// (dcb|abcd|cba), and results are rounded to the nearest integer.
func GaussianBlur5(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return result
	}

	kernel := gaussianKernel(5, 1.1)

	// Horizontal pass
	tmp := make([]float64, width*height)
	for y := 0; y < height; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for x := 0; x < width; x++ {
			var sum float64
			for k := -2; k <= 2; k++ {
				sum += float64(row[reflect101(x+k, width)]) * kernel[k+2]
			}
			tmp[y*width+x] = sum
		}
	}

	// Vertical pass
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for k := -2; k <= 2; k++ {
				sum += tmp[reflect101(y+k, height)*width+x] * kernel[k+2]
			}
			result.Pix[y*result.Stride+x] = uint8(clamp(int(math.Round(sum)), 0, 255))
		}
	}

	return result
}

// gaussianKernel returns normalized 1-D Gaussian weights of the given odd size.
func gaussianKernel(size int, sigma float64) []float64 {
	kernel := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// reflect101 maps an out-of-range index back into [0, n) by mirroring
// around the edge pixel without duplicating it.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func cloneGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src.Pix[y*src.Stride:y*src.Stride+b.Dx()])
	}
	return dst
}

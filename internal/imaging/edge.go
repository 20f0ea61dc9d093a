package imaging

import (
	"image"
)

// Canny performs Canny edge detection on an already smoothed grayscale image.
//
// The result is a binary image of the same size where edge pixels are 255
// and everything else is 0.
//
// Parameters:
//   - gray: Source intensity image. Callers normally blur it first
//     (see GaussianBlur5); Canny itself applies no smoothing.
//   - thresholdLow: Gradient magnitude a pixel must exceed to be kept as a
//     weak edge.
//   - thresholdHigh: Gradient magnitude a pixel must exceed to be a strong edge.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators on the 0-255 intensity scale,
//     border pixels replicated. Magnitude is the L1 norm |Gx| + |Gy|, so
//     thresholds are directly comparable with other Canny implementations
//     that use the same default.
//
//  2. Non-maximum suppression: each pixel is compared with its two
//     neighbours along the quantized gradient direction (horizontal,
//     vertical or one of the diagonals, split at 22.5 and 67.5 degrees).
//
//  3. Hysteresis: pixels above thresholdHigh seed the edge map; pixels above
//     thresholdLow are added when they are 8-connected to an edge pixel,
//     transitively.
//
// # Threshold Selection
//
// A low/high pair of 30/150 suits licence plates photographed at moderate
// distance: plate borders are strong edges while faint background texture
// only survives when attached to them.
func Canny(gray *image.Gray, thresholdLow, thresholdHigh float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return result
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[y*gray.Stride+x])
	}

	gradX := make([]float64, width*height)
	gradY := make([]float64, width*height)
	magnitude := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			i := y*width + x
			gradX[i] = gx
			gradY[i] = gy
			magnitude[i] = fabs(gx) + fabs(gy)
		}
	}

	mag := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= width || y >= height {
			return 0
		}
		return magnitude[y*width+x]
	}

	const (
		tan22 = 0.41421356237 // tan(22.5°)
		tan67 = 2.41421356237 // tan(67.5°)
	)

	// 0 = not an edge, 1 = weak candidate, 2 = strong edge
	state := make([]uint8, width*height)
	stack := make([]int, 0, 256)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := magnitude[i]
			if m <= thresholdLow {
				continue
			}

			gx, gy := gradX[i], gradY[i]
			ax, ay := fabs(gx), fabs(gy)

			var isMax bool
			switch {
			case ay < tan22*ax:
				isMax = m > mag(x-1, y) && m >= mag(x+1, y)
			case ay > tan67*ax:
				isMax = m > mag(x, y-1) && m >= mag(x, y+1)
			default:
				s := 1
				if (gx < 0) != (gy < 0) {
					s = -1
				}
				isMax = m > mag(x-s, y-1) && m > mag(x+s, y+1)
			}
			if !isMax {
				continue
			}

			if m > thresholdHigh {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	// Grow strong edges into connected weak candidates
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				n := ny*width + nx
				if state[n] == 1 {
					state[n] = 2
					stack = append(stack, n)
				}
			}
		}
	}

	for i, s := range state {
		if s == 2 {
			result.Pix[(i/width)*result.Stride+i%width] = 255
		}
	}

	return result
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func fabs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package imaging

import "image"

// OtsuLevel computes Otsu's threshold for a grayscale image.
//
// The returned level t maximizes the between-class variance of the two
// classes {v <= t} and {v > t}. For a uniform image the level is the single
// intensity present, so every pixel falls into the lower class.
func OtsuLevel(gray *image.Gray) uint8 {
	bounds := gray.Bounds()
	var hist [256]int
	for y := 0; y < bounds.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var (
		sumLow   float64
		countLow int
		best     float64
		level    int
	)
	first := true
	for t := 0; t < 256; t++ {
		countLow += hist[t]
		if countLow == 0 {
			continue
		}
		countHigh := total - countLow
		if countHigh == 0 {
			if first {
				level = t
			}
			break
		}
		sumLow += float64(t * hist[t])

		meanLow := sumLow / float64(countLow)
		meanHigh := (sumAll - sumLow) / float64(countHigh)
		diff := meanLow - meanHigh
		variance := float64(countLow) * float64(countHigh) * diff * diff
		if first || variance > best {
			best = variance
			level = t
			first = false
		}
	}

	return uint8(level)
}

// BinarizeOtsu thresholds gray at its Otsu level: pixels strictly brighter
// than the level become 255, all others 0. The comparison is done on the
// raw 8-bit values, so a pixel one step above the level is always white.
func BinarizeOtsu(gray *image.Gray) *image.Gray {
	level := OtsuLevel(gray)
	b := gray.Bounds()
	bin := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		dst := bin.Pix[y*bin.Stride : y*bin.Stride+b.Dx()]
		for x, v := range src {
			if v > level {
				dst[x] = 255
			}
		}
	}
	return bin
}

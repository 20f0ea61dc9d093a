package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ResizeToWidth scales img so that its width is exactly width pixels,
// preserving the aspect ratio. Shrinking uses a box filter (area averaging),
// enlarging uses linear interpolation.
func ResizeToWidth(img image.Image, width int) *image.NRGBA {
	if img.Bounds().Dx() == width {
		return imaging.Clone(img)
	}
	filter := imaging.Box
	if img.Bounds().Dx() < width {
		filter = imaging.Linear
	}
	return imaging.Resize(img, width, 0, filter)
}

// CropGray extracts a rectangular region from a grayscale image.
//
// The region uses the standard convention: Min inclusive, Max exclusive.
// The returned image is an independent copy with a zero origin.
func CropGray(gray *image.Gray, region image.Rectangle) (*image.Gray, error) {
	bounds := gray.Bounds()
	if !region.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, bounds)
	}
	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region %v", region)
	}

	return cloneGray(gray.SubImage(region).(*image.Gray)), nil
}

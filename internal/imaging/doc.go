// Package imaging provides the image decoding and low-level vision operations
// used by plate detection.
//
// This package turns uploaded bytes or canvas data URLs into bitmaps and
// implements the pixel-level stages of the detection pipeline: resizing,
// grayscale conversion, Gaussian smoothing, Canny edge detection, cropping
// and Otsu binarization. Shape reasoning (contours, polygons) lives in the
// detection package.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left), Max is exclusive (bottom-right)
//
// Every image returned by this package has a zero origin, whatever the
// bounds of its input.
//
// # Bitmaps
//
// Decoded images are *image.NRGBA with opaque alpha, giving a fixed
// R, G, B channel order. Intensity images are *image.Gray.
//
// # Thread Safety
//
// All functions are stateless and may be called concurrently. Inputs are
// never modified.
//
// # Error Handling
//
// Decoding failures wrap ErrDecode so callers can tell bad input apart from
// internal faults with errors.Is. The pixel operations do not fail except
// CropGray, which rejects regions outside the image.
package imaging

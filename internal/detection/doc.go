// Package detection finds licence plates in photos.
//
// The pipeline is a classic contour-based plate localizer followed by OCR:
//
//  1. Resize to a fixed working width and convert to grayscale
//  2. Gaussian blur and Canny edge detection
//  3. Outer contours of the edge map, largest first
//  4. Polygon approximation; quadrilaterals of plausible size are kept
//  5. Each box is cropped from the grayscale image, binarized with Otsu's
//     threshold and read by an ocr.Recognizer
//
// Pixel operations live in the imaging package. This package owns the shape
// reasoning (contour tracing, Douglas-Peucker approximation, bounding boxes)
// and the plate policy.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// Region boxes are reported in working (resized) coordinates.
//
// # Limitations
//
// The detector expects a plate whose border forms a closed, roughly
// rectangular edge loop. It works best on:
//   - Plates photographed roughly head-on
//   - Plates that contrast with the car body around them
//   - Images where the plate spans at least 50 pixels at working width
//
// Plates nested inside another closed outline (a plate frame drawn as its
// own rectangle, for example) are not examined because only outer contours
// are considered.
package detection

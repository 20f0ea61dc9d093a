package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/platewatch/internal/imaging"
	"github.com/ironsheep/platewatch/internal/ocr"
)

// ErrDetectionFault is returned (wrapped) when the detection pipeline
// cannot complete: the OCR engine failed, the deadline passed or the vision
// code panicked. It never signals "no plate found", which is an empty result.
var ErrDetectionFault = errors.New("plate detection fault")

// PlatePolicy holds the tuning constants of the plate detector.
type PlatePolicy struct {
	// ResizeWidth is the working width; the aspect ratio is preserved.
	ResizeWidth int

	// CannyLow and CannyHigh are the hysteresis thresholds on the 0-255 scale.
	CannyLow  float64
	CannyHigh float64

	// MaxContours is how many of the largest external contours are examined.
	MaxContours int

	// EpsilonFactor scales the contour perimeter into the polygon
	// approximation tolerance.
	EpsilonFactor float64

	// Vertices is the number of polygon corners a plate must have.
	Vertices int

	// MinWidth and MinHeight reject boxes too small to hold readable text.
	MinWidth  int
	MinHeight int
}

// DefaultPlatePolicy is tuned for a single plate photographed from a few
// metres away.
var DefaultPlatePolicy = PlatePolicy{
	ResizeWidth:   600,
	CannyLow:      30,
	CannyHigh:     150,
	MaxContours:   20,
	EpsilonFactor: 0.018,
	Vertices:      4,
	MinWidth:      50,
	MinHeight:     10,
}

// Region is a candidate plate area found by FindRegions.
type Region struct {
	// Box is the bounding box of the approximated polygon in working
	// (resized) coordinates.
	Box image.Rectangle

	// Polygon is the approximated contour.
	Polygon []image.Point

	// Area is the area enclosed by the original contour.
	Area float64
}

// FindRegions locates quadrilateral regions in a working-size grayscale image.
//
// # Algorithm
//
//  1. 5x5 Gaussian blur, then Canny with the policy thresholds.
//  2. External contours only, the MaxContours largest by enclosed area.
//  3. Douglas-Peucker approximation with tolerance
//     EpsilonFactor * perimeter; polygons with a vertex count other than
//     Vertices are dropped.
//  4. Bounding boxes narrower than MinWidth or shorter than MinHeight are
//     dropped.
//
// Regions are returned largest contour first.
func (p PlatePolicy) FindRegions(gray *image.Gray) []Region {
	edges := imaging.Canny(imaging.GaussianBlur5(gray), p.CannyLow, p.CannyHigh)
	contours := LargestContours(ExternalContours(edges), p.MaxContours)

	regions := make([]Region, 0)
	for _, c := range contours {
		approx := ApproxPolygon(c.Points, p.EpsilonFactor*c.ArcLength())
		if len(approx) != p.Vertices {
			continue
		}

		box := boundingBox(approx)
		if box.Dx() < p.MinWidth || box.Dy() < p.MinHeight {
			continue
		}

		regions = append(regions, Region{
			Box:     box,
			Polygon: approx,
			Area:    c.Area(),
		})
	}

	return regions
}

// PlateDetector finds licence plates in a photo and reads them with OCR.
type PlateDetector struct {
	recognizer ocr.Recognizer
	policy     PlatePolicy
	log        *logrus.Logger
}

// NewPlateDetector creates a detector using DefaultPlatePolicy.
func NewPlateDetector(recognizer ocr.Recognizer, logger *logrus.Logger) *PlateDetector {
	return &PlateDetector{
		recognizer: recognizer,
		policy:     DefaultPlatePolicy,
		log:        logger,
	}
}

// WithPolicy returns a copy of the detector using policy p.
func (d *PlateDetector) WithPolicy(p PlatePolicy) *PlateDetector {
	cp := *d
	cp.policy = p
	return &cp
}

// Detect returns the distinct plate texts read from img, in the order their
// regions were examined (largest contour first).
//
// Each region is cropped from the unblurred grayscale image, binarized at
// its Otsu level and passed to the recognizer. Surrounding whitespace is
// trimmed; empty readings are dropped and repeated readings are kept once.
//
// The result is an empty, non-nil slice when nothing readable is found.
// Recognizer errors, context cancellation between regions and panics in
// the pipeline are reported as errors wrapping ErrDetectionFault.
func (d *PlateDetector) Detect(ctx context.Context, img image.Image) (plates []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			plates = nil
			err = fmt.Errorf("%w: panic: %v", ErrDetectionFault, r)
		}
	}()

	resized := imaging.ResizeToWidth(img, d.policy.ResizeWidth)
	gray := imaging.Grayscale(resized)
	regions := d.policy.FindRegions(gray)

	d.log.WithFields(logrus.Fields{
		"width":   gray.Bounds().Dx(),
		"height":  gray.Bounds().Dy(),
		"regions": len(regions),
	}).Debug("Plate candidate regions located")

	plates = make([]string, 0, len(regions))
	seen := make(map[string]bool, len(regions))

	for i, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDetectionFault, err)
		}

		crop, err := imaging.CropGray(gray, region.Box)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDetectionFault, err)
		}

		text, err := d.recognizer.Recognize(ctx, imaging.BinarizeOtsu(crop))
		if err != nil {
			return nil, fmt.Errorf("%w: ocr: %w", ErrDetectionFault, err)
		}
		text = strings.TrimSpace(text)

		d.log.WithFields(logrus.Fields{
			"region": i,
			"box":    region.Box.String(),
			"text":   text,
		}).Debug("Plate region recognized")

		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		plates = append(plates, text)
	}

	return plates, nil
}

// Package scan runs the plate watch pipeline for one image: detect, match
// against the configured targets, locate, and alert.
package scan

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/platewatch/internal/geo"
	"github.com/ironsheep/platewatch/internal/imaging"
	"github.com/ironsheep/platewatch/internal/notify"
	"github.com/ironsheep/platewatch/internal/targets"
)

// Detector reads plate candidates from an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]string, error)
}

// ConfigSource provides the configuration in force for one scan.
type ConfigSource interface {
	Snapshot() targets.Configuration
}

// Report is the outcome of one scan.
type Report struct {
	Detected []string     `json:"detected"`
	Matches  []string     `json:"matches"`
	Location geo.Estimate `json:"location"`

	// RecipientConfigured is false when matches were found but no phone
	// number was on file, so no send was attempted.
	RecipientConfigured bool `json:"recipient_configured"`

	// Notification is only meaningful when Alerted is true.
	Alerted      bool           `json:"alerted"`
	Notification notify.Outcome `json:"notification"`
}

// Service wires the pipeline stages together.
type Service struct {
	detector Detector
	config   ConfigSource
	locator  geo.Locator
	sender   notify.Sender
	timeout  time.Duration
	log      *logrus.Logger
}

// DefaultTimeout bounds a whole scan.
const DefaultTimeout = 60 * time.Second

// NewService creates a Service. A non-positive timeout means DefaultTimeout.
func NewService(
	detector Detector,
	config ConfigSource,
	locator geo.Locator,
	sender notify.Sender,
	timeout time.Duration,
	logger *logrus.Logger,
) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		detector: detector,
		config:   config,
		locator:  locator,
		sender:   sender,
		timeout:  timeout,
		log:      logger,
	}
}

// ScanReader decodes an uploaded file and scans it. Decode failures wrap
// imaging.ErrDecode.
func (s *Service) ScanReader(ctx context.Context, r io.Reader) (Report, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return Report{}, err
	}
	return s.Scan(ctx, img)
}

// ScanDataURL decodes a "data:<mime>;base64,<payload>" string and scans it.
// Decode failures wrap imaging.ErrDecode.
func (s *Service) ScanDataURL(ctx context.Context, dataURL string) (Report, error) {
	img, err := imaging.DecodeDataURL(dataURL)
	if err != nil {
		return Report{}, err
	}
	return s.Scan(ctx, img)
}

// Scan runs detection on img and matches the candidates against one
// snapshot of the configuration. The location is always resolved. An alert
// goes out only when there is at least one match and a recipient phone.
//
// Only detection faults are returned as errors; location and notification
// problems are folded into the Report.
func (s *Service) Scan(ctx context.Context, img image.Image) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cfg := s.config.Snapshot()

	detected, err := s.detector.Detect(ctx, img)
	if err != nil {
		return Report{}, fmt.Errorf("detect: %w", err)
	}

	report := Report{
		Detected:            detected,
		Matches:             targets.Match(detected, cfg.Plates),
		RecipientConfigured: cfg.RecipientPhone != "",
	}
	report.Location = s.locator.Resolve(ctx)

	s.log.WithFields(logrus.Fields{
		"detected": len(report.Detected),
		"matches":  len(report.Matches),
		"place":    report.Location.PlaceName,
	}).Info("Scan completed")

	if len(report.Matches) == 0 || !report.RecipientConfigured {
		return report, nil
	}

	body := notify.FormatAlert(report.Matches, report.Location)
	report.Alerted = true
	report.Notification = s.sender.Send(ctx, cfg.RecipientPhone, body)

	return report, nil
}

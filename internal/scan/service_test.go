package scan

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/platewatch/internal/detection"
	"github.com/ironsheep/platewatch/internal/geo"
	"github.com/ironsheep/platewatch/internal/imaging"
	"github.com/ironsheep/platewatch/internal/notify"
	"github.com/ironsheep/platewatch/internal/targets"
)

type fakeDetector struct {
	plates []string
	err    error
	calls  int
}

func (d *fakeDetector) Detect(ctx context.Context, img image.Image) ([]string, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return append([]string{}, d.plates...), nil
}

type fixedLocator struct {
	est   geo.Estimate
	calls int
}

func (l *fixedLocator) Resolve(ctx context.Context) geo.Estimate {
	l.calls++
	return l.est
}

type recordingSender struct {
	outcome notify.Outcome
	to      []string
	bodies  []string
}

func (s *recordingSender) Send(ctx context.Context, to, body string) notify.Outcome {
	s.to = append(s.to, to)
	s.bodies = append(s.bodies, body)
	return s.outcome
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var springfield = geo.Estimate{Latitude: "37.751", Longitude: "-97.822", PlaceName: "Springfield"}

func configuredStore(t *testing.T, plates, phone string) *targets.Store {
	t.Helper()
	store := targets.NewStore(nil)
	if _, err := store.Set(targets.Submission{PlateList: plates, Phone: phone, Name: "Jane"}); err != nil {
		t.Fatalf("failed to configure store: %v", err)
	}
	return store
}

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	return img
}

func TestService_MatchWithCredentials(t *testing.T) {
	det := &fakeDetector{plates: []string{"ABC123", "QQQ000"}}
	loc := &fixedLocator{est: springfield}
	snd := &recordingSender{outcome: notify.Outcome{Status: notify.StatusSent, ID: "SM1"}}
	svc := NewService(det, configuredStore(t, "ABC123", "+15551234567"), loc, snd, 0, quietLogger())

	report, err := svc.Scan(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if !reflect.DeepEqual(report.Detected, []string{"ABC123", "QQQ000"}) {
		t.Errorf("detected: got %q", report.Detected)
	}
	if !reflect.DeepEqual(report.Matches, []string{"ABC123"}) {
		t.Errorf("matches: got %q", report.Matches)
	}
	if report.Location != springfield {
		t.Errorf("location: got %+v", report.Location)
	}
	if !report.Alerted || report.Notification.Status != notify.StatusSent || report.Notification.ID != "SM1" {
		t.Errorf("notification: alerted=%v outcome=%+v", report.Alerted, report.Notification)
	}

	if len(snd.bodies) != 1 {
		t.Fatalf("sends: got %d, want 1", len(snd.bodies))
	}
	if snd.to[0] != "+15551234567" {
		t.Errorf("recipient: got %q", snd.to[0])
	}
	if !strings.Contains(snd.bodies[0], "ABC123") || !strings.Contains(snd.bodies[0], "Springfield") {
		t.Errorf("body should mention plate and place: %q", snd.bodies[0])
	}
}

func TestService_MatchWithoutCredentials(t *testing.T) {
	det := &fakeDetector{plates: []string{"ABC123", "QQQ000"}}
	snd := &recordingSender{outcome: notify.Outcome{Status: notify.StatusSkipped, Reason: notify.ReasonNotConfigured}}
	svc := NewService(det, configuredStore(t, "ABC123", "+15551234567"), &fixedLocator{est: geo.Unknown()}, snd, 0, quietLogger())

	report, err := svc.Scan(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !report.Alerted || report.Notification.Status != notify.StatusSkipped {
		t.Errorf("expected a skipped alert, got %+v", report.Notification)
	}
}

func TestService_NoMatches(t *testing.T) {
	det := &fakeDetector{plates: []string{"QQQ000"}}
	loc := &fixedLocator{est: springfield}
	snd := &recordingSender{}
	svc := NewService(det, configuredStore(t, "ABC123", "+15551234567"), loc, snd, 0, quietLogger())

	report, err := svc.Scan(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(report.Matches) != 0 || report.Alerted {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(snd.bodies) != 0 {
		t.Error("no notification should be attempted")
	}
	if loc.calls != 1 {
		t.Errorf("location should be resolved once, got %d", loc.calls)
	}
}

func TestService_Unconfigured(t *testing.T) {
	det := &fakeDetector{plates: []string{"ABC123"}}
	snd := &recordingSender{}
	svc := NewService(det, targets.NewStore(nil), &fixedLocator{est: springfield}, snd, 0, quietLogger())

	report, err := svc.Scan(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(report.Matches) != 0 || report.Alerted || report.RecipientConfigured {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(snd.bodies) != 0 {
		t.Error("no notification should be attempted")
	}
}

func TestService_DetectionFault(t *testing.T) {
	det := &fakeDetector{err: detection.ErrDetectionFault}
	loc := &fixedLocator{est: springfield}
	snd := &recordingSender{}
	svc := NewService(det, configuredStore(t, "ABC123", "1"), loc, snd, 0, quietLogger())

	_, err := svc.Scan(context.Background(), testImage())
	if !errors.Is(err, detection.ErrDetectionFault) {
		t.Fatalf("expected ErrDetectionFault, got %v", err)
	}
	if loc.calls != 0 || len(snd.bodies) != 0 {
		t.Error("pipeline should stop at detection")
	}
}

func TestService_DeadlineReachesDetector(t *testing.T) {
	var deadline time.Time
	var ok bool
	det := detectorFunc(func(ctx context.Context, img image.Image) ([]string, error) {
		deadline, ok = ctx.Deadline()
		return []string{}, nil
	})
	svc := NewService(det, targets.NewStore(nil), &fixedLocator{est: geo.Unknown()}, &recordingSender{}, time.Minute, quietLogger())

	if _, err := svc.Scan(context.Background(), testImage()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !ok || time.Until(deadline) > time.Minute {
		t.Errorf("detector should see the scan deadline, got %v (set=%v)", deadline, ok)
	}
}

func TestService_ScanDataURL(t *testing.T) {
	det := &fakeDetector{plates: []string{}}
	svc := NewService(det, targets.NewStore(nil), &fixedLocator{est: geo.Unknown()}, &recordingSender{}, 0, quietLogger())

	var buf bytes.Buffer
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.SetGray(1, 1, color.Gray{Y: 255})
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	if _, err := svc.ScanDataURL(context.Background(), url); err != nil {
		t.Fatalf("ScanDataURL failed: %v", err)
	}
	if det.calls != 1 {
		t.Errorf("detector calls: got %d, want 1", det.calls)
	}

	if _, err := svc.ScanDataURL(context.Background(), "not a data url"); !errors.Is(err, imaging.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if _, err := svc.ScanReader(context.Background(), strings.NewReader("junk")); !errors.Is(err, imaging.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if det.calls != 1 {
		t.Errorf("detector should not run on decode failure, got %d calls", det.calls)
	}
}

type detectorFunc func(ctx context.Context, img image.Image) ([]string, error)

func (f detectorFunc) Detect(ctx context.Context, img image.Image) ([]string, error) {
	return f(ctx, img)
}

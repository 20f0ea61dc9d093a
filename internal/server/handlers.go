package server

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/platewatch/internal/scan"
	"github.com/ironsheep/platewatch/internal/targets"
)

// Notice texts shown to the operator.
const (
	msgMissingFields    = "Please enter the license plate numbers, phone number, and name."
	msgNoImage          = "No image received."
	msgNoMatches        = "No matching plates found."
	msgMatchSent        = "Match found. Notification sent."
	msgMatchNoRecipient = "Match found but recipient phone not configured."
)

type targetHandler struct {
	log     *logrus.Logger
	targets TargetStore
	flashes *flashStore
}

func newTargetHandler(log *logrus.Logger, store TargetStore, flashes *flashStore) *targetHandler {
	return &targetHandler{log: log, targets: store, flashes: flashes}
}

func (h *targetHandler) Start(srv fiber.Router) {
	srv.Get("/", h.Index)
	srv.Post("/set_target", h.SetTarget)
	srv.Get("/detect_license_plate", h.DetectPage)
}

// Index renders the watch list form, pre-filled with the current values.
func (h *targetHandler) Index(c *fiber.Ctx) error {
	cfg := h.targets.Snapshot()
	return c.Render("login", fiber.Map{
		"Title":     "Watch list",
		"Flashes":   h.flashes.pop(c),
		"Config":    cfg,
		"PlateList": cfg.PlateSummary(),
	})
}

// SetTarget replaces the watch list and recipient.
func (h *targetHandler) SetTarget(c *fiber.Ctx) error {
	var sub targets.Submission
	if err := c.BodyParser(&sub); err != nil {
		h.log.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"error":      err.Error(),
		}).Warn("Failed to parse target form")
	}

	cfg, err := h.targets.Set(sub)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"error":      err.Error(),
		}).Warn("Target configuration rejected")
		h.flashes.add(c, CategoryError, msgMissingFields)
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	h.log.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"plates":     len(cfg.Plates),
	}).Info("Target configuration updated")

	h.flashes.add(c, CategorySuccess,
		fmt.Sprintf("Target Plates: %s set for %s.", cfg.PlateSummary(), cfg.RecipientName))
	return c.Redirect("/detect_license_plate", fiber.StatusSeeOther)
}

// DetectPage renders the upload and webcam page.
func (h *targetHandler) DetectPage(c *fiber.Ctx) error {
	return c.Render("detect_license_plate", fiber.Map{
		"Title":   "Detect",
		"Flashes": h.flashes.pop(c),
		"Config":  h.targets.Snapshot(),
	})
}

type scanHandler struct {
	log     *logrus.Logger
	scanner Scanner
	flashes *flashStore
	limiter *rateLimiter
}

func newScanHandler(log *logrus.Logger, scanner Scanner, flashes *flashStore, limiter *rateLimiter) *scanHandler {
	return &scanHandler{log: log, scanner: scanner, flashes: flashes, limiter: limiter}
}

func (h *scanHandler) Start(srv fiber.Router) {
	srv.Post("/upload_image", h.limiter.handler(h.log), h.UploadImage)
}

// imagePayload is the JSON form of an upload.
type imagePayload struct {
	ImageData string `json:"image_data"`
}

// UploadImage scans an uploaded file or data URL and renders the result.
func (h *scanHandler) UploadImage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		report scan.Report
		err    error
		source imageSource
	)

	if fh := uploadedFile(c); fh != nil {
		source = sourceFile
		var f multipart.File
		f, err = fh.Open()
		if err == nil {
			report, err = h.scanner.ScanReader(ctx, f)
			f.Close()
		}
	} else if data := imageData(c); data != "" {
		source = sourceDataURL
		report, err = h.scanner.ScanDataURL(ctx, data)
	} else {
		return h.fail(c, fiber.StatusBadRequest, CategoryError, msgNoImage)
	}

	if err != nil {
		return h.scanFailed(c, source, err)
	}

	notice := reportNotice(report)
	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"report":  report,
			"flashes": []Flash{notice},
		})
	}

	return c.Render("result", fiber.Map{
		"Title":   "Result",
		"Flashes": append(h.flashes.pop(c), notice),
		"Report":  report,
	})
}

// uploadedFile returns the image_file part when one with a filename was sent.
func uploadedFile(c *fiber.Ctx) *multipart.FileHeader {
	fh, err := c.FormFile("image_file")
	if err != nil || fh == nil || fh.Filename == "" {
		return nil
	}
	return fh
}

// imageData reads image_data from the form, falling back to a JSON body
// only when the request declares a JSON content type.
func imageData(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.FormValue("image_data")); v != "" {
		return v
	}
	if !isJSONRequest(c) {
		return ""
	}
	var payload imagePayload
	if err := c.BodyParser(&payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.ImageData)
}

func isJSONRequest(c *fiber.Ctx) bool {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	return strings.HasPrefix(ct, fiber.MIMEApplicationJSON)
}

// wantsJSON reports whether the client prefers JSON over HTML.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

func (h *scanHandler) scanFailed(c *fiber.Ctx, source imageSource, err error) error {
	status, category, message := classifyScanError(source, err)

	fields := logrus.Fields{
		"request_id": requestID(c),
		"error":      err.Error(),
		"source":     string(source),
	}
	if status >= fiber.StatusInternalServerError {
		traceScanFault(h.log, fields)
	} else {
		h.log.WithFields(fields).Warn("Uploaded image rejected")
	}

	return h.fail(c, status, category, message)
}

// fail reports an upload problem as a JSON error or as a flash on the
// detection page.
func (h *scanHandler) fail(c *fiber.Ctx, status int, category, message string) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{
			"error":    message,
			"category": category,
		})
	}
	h.flashes.add(c, category, message)
	return c.Redirect("/detect_license_plate", fiber.StatusSeeOther)
}

type healthHandler struct {
	ocr OCRStatus
}

func newHealthHandler(status OCRStatus) *healthHandler {
	return &healthHandler{ocr: status}
}

func (h *healthHandler) Start(srv fiber.Router) {
	srv.Get("/healthz", h.Health)
}

// Health reports liveness and, when known, OCR availability.
func (h *healthHandler) Health(c *fiber.Ctx) error {
	body := fiber.Map{"status": "ok"}
	if h.ocr != nil {
		body["ocr"] = h.ocr.Info()
	}
	return c.JSON(body)
}

package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/platewatch/internal/detection"
	"github.com/ironsheep/platewatch/internal/imaging"
	"github.com/ironsheep/platewatch/internal/logging"
	"github.com/ironsheep/platewatch/internal/notify"
	"github.com/ironsheep/platewatch/internal/scan"
)

type imageSource string

const (
	sourceFile    imageSource = "file"
	sourceDataURL imageSource = "data_url"
)

const (
	msgDetectionFault = "Plate detection failed; please try again."
	msgScanFailed     = "The image could not be scanned; please try again."
)

// classifyScanError maps a scan error to a status, flash category and
// operator-facing message.
func classifyScanError(source imageSource, err error) (int, string, string) {
	switch {
	case errors.Is(err, imaging.ErrDecode):
		if source == sourceFile {
			return fiber.StatusBadRequest, CategoryError, fmt.Sprintf("Failed to read uploaded image: %v", err)
		}
		return fiber.StatusBadRequest, CategoryError, fmt.Sprintf("Failed to decode image data: %v", err)

	case errors.Is(err, detection.ErrDetectionFault):
		return fiber.StatusInternalServerError, CategoryError, msgDetectionFault

	case source == sourceFile:
		// Opening the multipart part failed.
		return fiber.StatusBadRequest, CategoryError, fmt.Sprintf("Failed to read uploaded image: %v", err)

	default:
		return fiber.StatusInternalServerError, CategoryError, msgScanFailed
	}
}

// reportNotice chooses the notice summarizing a successful scan.
func reportNotice(r scan.Report) Flash {
	if len(r.Matches) == 0 {
		return Flash{Category: CategoryInfo, Message: msgNoMatches}
	}
	if !r.RecipientConfigured {
		return Flash{Category: CategoryWarning, Message: msgMatchNoRecipient}
	}

	switch r.Notification.Status {
	case notify.StatusSent:
		return Flash{Category: CategorySuccess, Message: msgMatchSent}
	case notify.StatusSkipped:
		return Flash{Category: CategoryInfo, Message: fmt.Sprintf("Match found. Notification not sent: %s.", r.Notification.Reason)}
	default:
		reason := r.Notification.Reason
		if r.Notification.Err != nil {
			reason = r.Notification.Err.Error()
		}
		return Flash{Category: CategoryWarning, Message: fmt.Sprintf("Match found but the notification failed: %s.", reason)}
	}
}

func traceScanFault(logger *logrus.Logger, fields logrus.Fields) string {
	return logging.ErrorWithTraceID(logger, fields, "Scan failed")
}

// errorHandler renders every unhandled error, including recovered panics,
// as the error page, or as JSON for clients that prefer it.
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Something went wrong while handling your request."

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		fields := logrus.Fields{
			"request_id": requestID(c),
			"path":       c.Path(),
			"error":      err.Error(),
		}

		var traceID string
		if code >= fiber.StatusInternalServerError {
			traceID = logging.ErrorWithTraceID(logger, fields, "Request failed")
		}

		if wantsJSON(c) {
			return c.Status(code).JSON(fiber.Map{
				"error":    message,
				"category": CategoryError,
				"trace_id": traceID,
			})
		}

		c.Status(code)
		renderErr := c.Render("error", fiber.Map{
			"Title":   "Error",
			"Flashes": []Flash{},
			"Status":  fmt.Sprintf("%d %s", code, utils.StatusMessage(code)),
			"Message": message,
			"TraceID": traceID,
		})
		if renderErr != nil {
			logger.WithField("error", renderErr.Error()).Error("Failed to render error page")
			return c.Status(code).SendString(message)
		}
		return nil
	}
}

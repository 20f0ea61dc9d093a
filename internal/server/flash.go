package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// Flash categories, also used as CSS class suffixes.
const (
	CategoryError   = "error"
	CategoryWarning = "warning"
	CategoryInfo    = "info"
	CategorySuccess = "success"
)

// Flash is a one-time notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

const flashKey = "flashes"

// flashStore queues flashes in the session. They are stored as a JSON
// string so the session needs no gob type registration.
type flashStore struct {
	sessions *session.Store
	log      *logrus.Logger
}

// add queues a flash for the next page. Session failures are logged and
// the flash is dropped; a lost notice must not fail the request.
func (f *flashStore) add(c *fiber.Ctx, category, message string) {
	sess, err := f.sessions.Get(c)
	if err != nil {
		f.log.WithField("error", err.Error()).Warn("Failed to open session for flash")
		return
	}

	queued := decodeFlashes(sess.Get(flashKey))
	queued = append(queued, Flash{Category: category, Message: message})

	data, err := jsoniter.MarshalToString(queued)
	if err != nil {
		return
	}
	sess.Set(flashKey, data)
	if err := sess.Save(); err != nil {
		f.log.WithField("error", err.Error()).Warn("Failed to save flash")
	}
}

// pop returns and clears the queued flashes.
func (f *flashStore) pop(c *fiber.Ctx) []Flash {
	sess, err := f.sessions.Get(c)
	if err != nil {
		f.log.WithField("error", err.Error()).Warn("Failed to open session for flash")
		return []Flash{}
	}

	raw := sess.Get(flashKey)
	if raw == nil {
		return []Flash{}
	}

	sess.Delete(flashKey)
	if err := sess.Save(); err != nil {
		f.log.WithField("error", err.Error()).Warn("Failed to clear flashes")
	}
	return decodeFlashes(raw)
}

func decodeFlashes(raw interface{}) []Flash {
	s, ok := raw.(string)
	if !ok || s == "" {
		return []Flash{}
	}
	var out []Flash
	if err := jsoniter.UnmarshalFromString(s, &out); err != nil {
		return []Flash{}
	}
	return out
}

package server

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ironsheep/platewatch/internal/config"
	"github.com/ironsheep/platewatch/internal/ocr"
	"github.com/ironsheep/platewatch/internal/scan"
	"github.com/ironsheep/platewatch/internal/targets"
)

//go:embed templates
var templateFS embed.FS

const sessionCookie = "platewatch_session"

// Scanner runs the detection pipeline on an uploaded image.
type Scanner interface {
	ScanReader(ctx context.Context, r io.Reader) (scan.Report, error)
	ScanDataURL(ctx context.Context, dataURL string) (scan.Report, error)
}

// TargetStore holds the watch list.
type TargetStore interface {
	Set(sub targets.Submission) (targets.Configuration, error)
	Snapshot() targets.Configuration
}

// OCRStatus reports on the OCR backend for the health check.
type OCRStatus interface {
	Info() ocr.Info
}

// ServerOption configures a Server.
type ServerOption func(*Server) error

// Server is the HTTP front end.
type Server struct {
	engine   *fiber.App
	cfg      *config.Config
	log      *logrus.Logger
	scanner  Scanner
	targets  TargetStore
	ocr      OCRStatus
	sessions *session.Store
	limiter  *rateLimiter
	handlers []handler
}

type handler interface {
	Start(srv fiber.Router)
}

// NewServer builds the fiber app and registers every route.
func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.scanner == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if server.targets == nil {
		return nil, fmt.Errorf("target store is required")
	}

	engine, err := newFiber(server.cfg, server.log)
	if err != nil {
		return nil, err
	}
	server.engine = engine

	server.sessions = session.New(session.Config{
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:" + sessionCookie,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	server.limiter = newRateLimiter(rate.Limit(server.cfg.RateLimitRPS), server.cfg.RateLimitBurst)

	server.registerHandlers()
	return server, nil
}

// WithConfig sets the application settings.
func WithConfig(cfg *config.Config) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

// WithScanner sets the scan pipeline.
func WithScanner(scanner Scanner) ServerOption {
	return func(s *Server) error {
		s.scanner = scanner
		return nil
	}
}

// WithTargets sets the watch list store.
func WithTargets(store TargetStore) ServerOption {
	return func(s *Server) error {
		s.targets = store
		return nil
	}
}

// WithOCRStatus makes the health check report on the OCR backend.
func WithOCRStatus(status OCRStatus) ServerOption {
	return func(s *Server) error {
		s.ocr = status
		return nil
	}
}

// newFiber creates the app with embedded views and jsoniter as JSON codec.
func newFiber(cfg *config.Config, logger *logrus.Logger) (*fiber.App, error) {
	views, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open templates: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Plate Watch",
		Immutable:    true,
		Views:        html.NewFileSystem(http.FS(views), ".html"),
		ViewsLayout:  "layouts/main",
		BodyLimit:    cfg.UploadLimitBytes(),
		JSONEncoder:  jsoniter.Marshal,
		JSONDecoder:  jsoniter.Unmarshal,
		ErrorHandler: errorHandler(logger),
	})

	return app, nil
}

// cookieKey derives the 32-byte cookie encryption key from the secret.
func cookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *Server) registerHandlers() {
	s.engine.Use(recover.New(recover.Config{EnableStackTrace: true}))
	s.engine.Use(NewRequestIDMiddleware())
	s.engine.Use(NewLoggingMiddleware(s.log))
	s.engine.Use(encryptcookie.New(encryptcookie.Config{
		Key: cookieKey(s.cfg.SecretKey),
	}))

	flashes := &flashStore{sessions: s.sessions, log: s.log}

	s.handlers = append(s.handlers,
		newTargetHandler(s.log, s.targets, flashes),
		newScanHandler(s.log, s.scanner, flashes, s.limiter),
		newHealthHandler(s.ocr),
	)

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.engine
}

// Run listens on the configured port until the app is shut down.
func (s *Server) Run() error {
	if s.cfg.UsingDefaultSecret() {
		s.log.Warn("APP_SECRET_KEY is not set, using the development secret")
	}
	return s.engine.Listen(fmt.Sprintf(":%s", s.cfg.Port))
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.engine.ShutdownWithContext(ctx)
}

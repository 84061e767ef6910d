// Package web is the HTTP surface of the call controller: the Twilio
// webhooks that drive each conversation turn, the outbound call
// trigger, artifact serving, and the health and metrics endpoints.
//
// The webhook handlers can never answer Twilio with an empty error
// page. Any fault that escapes a handler, render failures and panics
// included, is mapped to a fixed fallback instruction that apologizes
// and restarts the turn.
package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/veldtlabs/dialtone/internal/metrics"
	"github.com/veldtlabs/dialtone/pkg/agent"
	"github.com/veldtlabs/dialtone/pkg/artifact"
	"github.com/veldtlabs/dialtone/pkg/telephony"
)

// Deps are the capabilities the HTTP layer exposes.
type Deps struct {
	Agent     *agent.Agent
	Dialer    telephony.Dialer
	Artifacts *artifact.Store
	Logger    *slog.Logger

	// Verbose enables per-request debug logging.
	Verbose bool
}

// Server hosts the webhook and API routes.
type Server struct {
	app    *fiber.App
	deps   Deps
	logger *slog.Logger

	// fallbackXML is rendered once at startup so the error path never
	// depends on a render succeeding.
	fallbackXML string
}

// New builds the server and wires its routes.
func New(deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fallbackXML, err := deps.Agent.Fallback().Render()
	if err != nil {
		return nil, err
	}

	s := &Server{
		deps:        deps,
		logger:      logger.With("component", "web"),
		fallbackXML: fallbackXML,
	}

	app := fiber.New(fiber.Config{
		AppName:               "dialtone",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	app.Use(recover.New())
	if deps.Verbose {
		app.Use(s.requestLogger)
	}

	app.Post("/voice", s.handleVoice)
	app.Post("/process", s.handleProcess)
	app.Get("/call", s.handleCall)
	app.Get("/audio/:name", s.handleAudio)
	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	s.app = app
	return s, nil
}

// Listen serves until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// ShutdownWithContext drains in-flight requests and stops the server.
func (s *Server) ShutdownWithContext(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// errorHandler maps faults by route: webhook routes get the fallback
// instruction so the caller hears an apology instead of dead air,
// everything else gets a JSON error.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	path := c.Path()
	s.logger.Error("handler failed", "path", path, "error", err)

	if path == "/voice" || path == "/process" {
		c.Set(fiber.HeaderContentType, "text/xml")
		return c.Status(fiber.StatusOK).SendString(s.fallbackXML)
	}

	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return err
}

package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/veldtlabs/dialtone/internal/metrics"
	"github.com/veldtlabs/dialtone/pkg/agent"
	"github.com/veldtlabs/dialtone/pkg/artifact"
)

// handleVoice answers the call-answered webhook with the greeting
// instruction.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	s.logger.Info("call answered", "call_sid", c.FormValue("CallSid"))

	xml, err := s.deps.Agent.Greet().Render()
	if err != nil {
		return err
	}
	return sendTwiML(c, xml)
}

// handleProcess answers the recording-ready webhook with the turn's
// instruction. The request context reaches every pipeline stage, so a
// hang-up cancels in-flight backend calls.
func (s *Server) handleProcess(c *fiber.Ctx) error {
	ev := agent.Event{
		CallSID:      c.FormValue("CallSid"),
		RecordingURL: c.FormValue("RecordingUrl"),
	}

	in := s.deps.Agent.Turn(c.Context(), ev)
	xml, err := in.Render()
	if err != nil {
		return err
	}
	return sendTwiML(c, xml)
}

// handleCall places an outbound call to the phone query parameter.
func (s *Server) handleCall(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone query parameter required",
		})
	}

	ref, err := s.deps.Dialer.PlaceCall(c.Context(), phone)
	if err != nil {
		metrics.RecordCallPlaced("error")
		s.logger.Error("outbound call failed", "to", phone, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	metrics.RecordCallPlaced("ok")
	s.logger.Info("outbound call placed", "to", phone, "sid", ref.SID)
	return c.JSON(fiber.Map{
		"status": "calling",
		"sid":    ref.SID,
	})
}

// handleAudio streams a stored artifact to the telephony provider.
func (s *Server) handleAudio(c *fiber.Ctx) error {
	name := c.Params("name")

	rc, art, err := s.deps.Artifacts.Open(name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) || errors.Is(err, artifact.ErrInvalidName) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "artifact not found",
			})
		}
		return err
	}

	c.Set(fiber.HeaderContentType, art.ContentType)
	return c.SendStream(rc, int(art.Size))
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "dialtone",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// sendTwiML writes an instruction document response.
func sendTwiML(c *fiber.Ctx, xml string) error {
	c.Set(fiber.HeaderContentType, "text/xml")
	return c.SendString(xml)
}

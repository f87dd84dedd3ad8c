package web

import (
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-soundscape/pkg/assistant"
	"github.com/teslashibe/go-soundscape/pkg/hub"
	"github.com/teslashibe/go-soundscape/pkg/settings"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.session.Snapshot())
}

func (s *Server) handleAction(c *fiber.Ctx) error {
	action, err := assistant.ParseAction(c.Params("name"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	reply, err := s.session.Dispatch(c.UserContext(), action)
	switch {
	case errors.Is(err, assistant.ErrClosed):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case err != nil:
		return err
	}

	if reply.Error != "" {
		s.AddLog("error", string(action)+": "+reply.Error)
	} else if !reply.Ignored {
		s.AddLog("action", string(action))
	}
	return c.JSON(reply)
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.session.Settings().Mode())
}

func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	var patch settings.Patch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid settings: "+err.Error())
	}

	live := s.session.Settings()
	mode, err := live.Update(live.Mode().Apply(patch))
	if err != nil {
		s.log.Warn("settings not persisted", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    "settings applied but not saved: " + err.Error(),
			"settings": mode,
		})
	}
	return c.JSON(mode)
}

func (s *Server) handleResetSettings(c *fiber.Ctx) error {
	mode, err := s.session.Settings().Update(settings.Defaults())
	if err != nil {
		return err
	}
	return c.JSON(mode)
}

func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(s.camera.GetConfig())
}

func (s *Server) handlePutCamera(c *fiber.Ctx) error {
	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid camera config: "+err.Error())
	}
	if err := s.camera.UpdateConfig(params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.camera.GetConfig())
}

func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if client == nil {
		return
	}
	s.statusHub.BroadcastJSON(Envelope{Type: "status", Data: s.session.Snapshot()})
	client.Run()
}

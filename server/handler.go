package server

import (
	"errors"

	"confluence-mcp/rpc"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func handleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleRPC(c *fiber.Ctx) error {
	resp, err := s.d.HandleLine(c.UserContext(), c.Body())
	if err != nil {
		if errors.Is(err, rpc.ErrMalformed) {
			return c.Status(fiber.StatusBadRequest).JSON(rpc.ParseErrorResponse())
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func handleWSUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (s *Server) handleWSConn(conn *websocket.Conn) {
	client := s.hub.AddClientConn(conn)
	defer client.Close()
	s.l.Info("WebSocket client connected", "remote", conn.RemoteAddr().String())

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.l.Info("WebSocket connection closed", "remote", conn.RemoteAddr().String())
				return
			}
			s.l.Debug("failed to read message", "err", err)
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		resp, err := s.d.HandleLine(s.ctx(), msg)
		if err != nil {
			s.l.Error("invalid JSON received", "err", err)
			continue
		}
		if err := client.SendJSON(resp); err != nil {
			s.l.Warn("failed to queue response", "err", err)
			return
		}
	}
}

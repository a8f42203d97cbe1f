package server

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"

	"confluence-mcp/config"
	"confluence-mcp/rpc"
	"confluence-mcp/service"

	"github.com/bytedance/sonic"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Server exposes the dispatcher over HTTP and WebSocket.
type Server struct {
	conf *config.Config
	d    *rpc.Dispatcher
	hub  *NotifyHub
	app  *fiber.App
	l    *slog.Logger
	base context.Context
}

func New(conf *config.Config, d *rpc.Dispatcher, events *service.Events, l *slog.Logger) *Server {
	if l == nil {
		l = slog.Default()
	}
	s := &Server{
		conf: conf,
		d:    d,
		hub:  NewNotifyHub(),
		l:    l.With("component", "server"),
		base: context.Background(),
	}
	if events != nil {
		events.SubscribePageEvents(s.notifyPageEvent)
	}
	s.app = s.newApp()
	return s
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             config.MaxRequestSize,
		DisableStartupMessage: true,
	})
	// built from scratch: ConfigDefault enables colors, which forces output to stdout
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		Output: logWriter{s.l},
	}))

	app.Get("/healthz", handleHealth)

	rg := app.Group("/api")
	rg.Use(limiter.New(limiter.Config{
		Max: max(s.conf.APIRPM, 2),
	}))
	if len(s.conf.APIKeys) > 0 {
		rg.Use(keyauth.New(keyauth.Config{
			KeyLookup: "header:X-API-Key",
			Validator: s.validateKey,
		}))
	}
	rg.Post("/rpc", s.handleRPC)
	rg.Get("/ws", handleWSUpgrade)
	rg.Get("/ws", websocket.New(s.handleWSConn))
	return app
}

func (s *Server) validateKey(c *fiber.Ctx, key string) (bool, error) {
	hashedKey := sha256.Sum256([]byte(key))
	for _, k := range s.conf.APIKeys {
		hashedAPIKey := sha256.Sum256([]byte(k))
		if subtle.ConstantTimeCompare(hashedKey[:], hashedAPIKey[:]) == 1 {
			return true, nil
		}
	}
	return false, keyauth.ErrMissingOrMalformedAPIKey
}

func (s *Server) notifyPageEvent(ev service.PageEvent) {
	msg, err := sonic.Marshal(rpc.Notification{
		JSONRPC: rpc.Version,
		Method:  rpc.MethodPageUpdated,
		Params:  ev,
	})
	if err != nil {
		s.l.Error("failed to encode page event", "err", err)
		return
	}
	s.hub.Broadcast(msg)
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.base = ctx
	addr := s.conf.Addr()
	errCh := make(chan error, 1)
	go func() {
		s.l.Info("API server listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.l.Info("API server is shutting down")
	s.hub.CloseAll()
	if err := s.app.ShutdownWithTimeout(config.ShutdownTimeout); err != nil {
		s.l.Error("failed to gracefully shutdown API server", "err", err)
		return err
	}
	s.l.Info("API server shutdown successfully")
	return nil
}

// App is the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the set of sockets receiving page notifications.
func (s *Server) Hub() *NotifyHub {
	return s.hub
}

func (s *Server) ctx() context.Context {
	return s.base
}

type logWriter struct {
	l *slog.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.l.Debug("http request", "line", string(trimNewline(p)))
	return len(p), nil
}

func trimNewline(p []byte) []byte {
	for len(p) > 0 && (p[len(p)-1] == '\n' || p[len(p)-1] == '\r') {
		p = p[:len(p)-1]
	}
	return p
}

// Package web exposes the assistant session over HTTP and websockets.
package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-soundscape/pkg/assistant"
	"github.com/teslashibe/go-soundscape/pkg/camera"
	"github.com/teslashibe/go-soundscape/pkg/capture"
	"github.com/teslashibe/go-soundscape/pkg/hub"
	"github.com/teslashibe/go-soundscape/pkg/scene"
)

const maxLogEntries = 200

// LogEntry is one line of the activity feed.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // guidance, action, error
	Message string `json:"message"`
}

// Envelope wraps websocket messages so clients can tell them apart.
type Envelope struct {
	Type string `json:"type"` // status, scene, log
	Data any    `json:"data"`
}

// Config configures a Server.
type Config struct {
	Session *assistant.Session

	// Camera enables the /api/camera routes when set.
	Camera *camera.Manager

	// AccessLog receives one line per request; defaults to stderr.
	AccessLog io.Writer
	Logger    *slog.Logger
}

// Server serves the control API.
type Server struct {
	app     *fiber.App
	session *assistant.Session
	camera  *camera.Manager
	log     *slog.Logger

	statusHub *hub.Hub

	logsMu       sync.RWMutex
	logs         []LogEntry
	lastGuidance time.Time
}

// NewServer builds the fiber app and subscribes to loop updates.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, errors.New("web: session required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.AccessLog == nil {
		cfg.AccessLog = os.Stderr
	}

	s := &Server{
		session:   cfg.Session,
		camera:    cfg.Camera,
		log:       cfg.Logger.With("component", "web"),
		statusHub: hub.New("status", cfg.Logger),
		logs:      make([]LogEntry, 0, maxLogEntries),
	}

	app := fiber.New(fiber.Config{
		AppName:               "soundscape",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Output: cfg.AccessLog,
	}))

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/actions/:name", s.handleAction)
	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handlePutSettings)
	api.Delete("/settings", s.handleResetSettings)
	api.Get("/logs", s.handleGetLogs)
	if s.camera != nil {
		api.Get("/camera", s.handleGetCamera)
		api.Put("/camera", s.handlePutCamera)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app

	loop := s.session.Loop()
	loop.OnStatus(s.onStatus)
	loop.OnScene(s.onScene)
	return s, nil
}

// App returns the fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve runs the status hub and serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubDone := make(chan struct{})
	go func() {
		s.statusHub.Run(ctx)
		close(hubDone)
	}()

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()

	s.log.Info("web server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		<-hubDone
		return err
	case <-ctx.Done():
	}

	err := s.app.ShutdownWithTimeout(5 * time.Second)
	<-errc
	<-hubDone
	return err
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// AddLog appends to the activity feed and broadcasts it.
func (s *Server) AddLog(kind, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    kind,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.statusHub.BroadcastJSON(Envelope{Type: "log", Data: entry})
}

func (s *Server) onStatus(st capture.Status) {
	if ev := st.LastGuidance; ev != nil {
		s.logsMu.Lock()
		fresh := ev.Timestamp.After(s.lastGuidance)
		if fresh {
			s.lastGuidance = ev.Timestamp
		}
		s.logsMu.Unlock()
		if fresh {
			s.AddLog("guidance", ev.Text)
		}
	}
	if st.State == capture.StateError && st.LastMessage != "" {
		s.log.Debug("loop error state", "message", st.LastMessage)
	}
	s.statusHub.BroadcastJSON(Envelope{Type: "status", Data: s.session.Snapshot()})
}

func (s *Server) onScene(d *scene.Description) {
	s.statusHub.BroadcastJSON(Envelope{Type: "scene", Data: d})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

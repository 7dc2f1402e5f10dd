// Package console is a local wizard console: the HTTP backend a human wizard
// uses to read user utterances and post replies into a session.
package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	serviceName    = "ema-helper wizard console"
	serviceVersion = "1.0.0"

	replyUser  = "Message received. A wizard will respond shortly."
	replyOther = "Message sent"
)

type Server struct {
	echo  *echo.Echo
	store *store
}

func NewServer() *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelDebug
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(c.Request().Context(), level, "request", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
			return nil
		},
	}))

	s := &Server{echo: e, store: newStore()}

	e.GET("/", s.handleRoot)
	e.POST("/message", s.handleMessage)
	e.POST("/log", s.handleLog)
	e.GET("/sessions", s.handleListSessions)
	e.GET("/sessions/:id", s.handleGetSession)

	return s
}

// Handler exposes the routes for embedding or httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start blocks serving on addr until Shutdown.
func (s *Server) Start(addr string) error {
	logger.Info("wizard console listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Events returns the pipeline events logged for a session.
func (s *Server) Events(sessionID string) []Event {
	return s.store.eventsFor(sessionID)
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":   serviceName,
		"version":   serviceVersion,
		"endpoints": []string{"/message", "/log", "/sessions"},
	})
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
}

type messageResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleMessage(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "handle message")
	defer span.End()

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" || req.Role == "" || req.Text == "" {
		span.SetStatus(codes.Error, "missing fields")
		return echo.NewHTTPError(http.StatusBadRequest, "session_id, role and text are required")
	}
	span.SetAttributes(attribute.String("session.id", req.SessionID), attribute.String("message.role", req.Role))

	if s.store.append(req.SessionID, Message{Role: req.Role, Text: req.Text, Timestamp: now()}) {
		logger.Info("new session created", "session_id", req.SessionID)
	}
	logger.Info("message", "session_id", req.SessionID, "role", req.Role, "text", req.Text)

	reply := replyOther
	if req.Role == "user" {
		reply = replyUser
	}
	return c.JSON(http.StatusOK, messageResponse{Reply: reply, SessionID: req.SessionID, Timestamp: now()})
}

func (s *Server) handleLog(c echo.Context) error {
	var event Event
	if err := c.Bind(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if event.SessionID == "" || event.EventType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id and event_type are required")
	}
	if event.Timestamp == "" {
		event.Timestamp = now()
	}
	if event.EventData == nil {
		event.EventData = map[string]any{}
	}

	s.store.logEvent(event)
	logger.Info("event logged", "session_id", event.SessionID, "event_type", event.EventType, "event_data", event.EventData)

	return c.JSON(http.StatusOK, map[string]string{"status": "logged", "logged_at": event.Timestamp})
}

func (s *Server) handleGetSession(c echo.Context) error {
	sessionID := c.Param("id")
	messages, ok := s.store.messages(sessionID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}
	if messages == nil {
		messages = []Message{}
	}
	return c.JSON(http.StatusOK, map[string]any{"session_id": sessionID, "messages": messages})
}

func (s *Server) handleListSessions(c echo.Context) error {
	sessions := s.store.sessionIDs()
	if sessions == nil {
		sessions = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
}

// Package web serves the two pages to a browser and keeps each open page in
// sync with its server-side document over a websocket.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/app"
	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/util"
)

type Server struct {
	router    chi.Router
	container *app.Container
	sessions  *sessionStore
	upgrader  websocket.Upgrader
	chatRoute string
	logger    *zap.Logger
}

func NewServer(container *app.Container, logger *zap.Logger) *Server {
	logger = util.OrNop(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	s := &Server{
		router:    r,
		container: container,
		sessions:  newSessionStore(container),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		chatRoute: container.Config.Chat.Route,
		logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get(constants.Routes.Index, s.handleIndex)
	s.router.Get(s.chatRoute, s.handleChat)
	s.router.Get("/ws", s.handleSocket)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.len(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.get(w, r)
	if err != nil {
		s.logger.Error("Failed to start session", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start session"})
		return
	}

	page, err := session.OpenIndex()
	if err != nil {
		s.logger.Error("Failed to open index page", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to render page"})
		return
	}
	writeHTML(w, page.HTML)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.get(w, r)
	if err != nil {
		s.logger.Error("Failed to start session", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start session"})
		return
	}

	page, err := session.OpenChat()
	if errors.Is(err, app.ErrNoVideo) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": constants.Messages.NoVideoProcessed})
		return
	}
	if err != nil {
		s.logger.Error("Failed to open chat page", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to render page"})
		return
	}
	writeHTML(w, page.HTML)
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

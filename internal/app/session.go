package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/api"
	"github.com/kapu/video-qa-client/internal/chat"
	"github.com/kapu/video-qa-client/internal/config"
	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/dom"
	"github.com/kapu/video-qa-client/internal/domain"
	"github.com/kapu/video-qa-client/internal/render"
	"github.com/kapu/video-qa-client/internal/submission"
)

// ErrNoVideo is returned when the chat page is opened before any video was
// processed in the session.
var ErrNoVideo = stderrors.New(constants.Messages.NoVideoProcessed)

// Backend is the full API surface a session drives.
type Backend interface {
	submission.Processor
	chat.Asker
	ClearSession(ctx context.Context) (*api.ClearSessionResponse, error)
}

// Page is one rendered and bound page. Exactly one of Submission and Chat is
// set, depending on Kind.
type Page struct {
	Kind       domain.Page
	HTML       string
	Doc        *dom.Document
	Submission *submission.Controller
	Chat       *chat.Controller
}

type Session struct {
	id      string
	cfg     *config.Config
	backend Backend
	logger  *zap.Logger

	mu        sync.Mutex
	processed bool
	current   *Page
}

func newSession(id string, cfg *config.Config, backend Backend, logger *zap.Logger) *Session {
	return &Session{
		id:      id,
		cfg:     cfg,
		backend: backend,
		logger:  logger,
	}
}

// NewSession builds a session on an existing backend, for callers that manage
// their own API client.
func NewSession(id string, cfg *config.Config, backend Backend, logger *zap.Logger) (*Session, error) {
	if cfg == nil || backend == nil {
		return nil, fmt.Errorf("session: config and backend are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return newSession(id, cfg, backend, logger), nil
}

func (s *Session) ID() string {
	return s.id
}

// HasVideo reports whether a submission succeeded since the last reset.
func (s *Session) HasVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed
}

// Current returns the most recently opened page, or nil.
func (s *Session) Current() *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OpenIndex renders a fresh submission page and binds its controller.
func (s *Session) OpenIndex() (*Page, error) {
	html, err := render.IndexPage(render.IndexData{})
	if err != nil {
		return nil, fmt.Errorf("failed to render index page: %w", err)
	}
	doc, err := dom.Load(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	els, err := submission.BindElements(doc)
	if err != nil {
		return nil, err
	}

	ctrl, err := submission.NewController(submission.Dependencies{
		API:       s.backend,
		Elements:  els,
		ChatRoute: s.cfg.Chat.Route,
		Navigate: func(route string) error {
			return s.navigate(doc, route)
		},
		Alert:  doc.Alert,
		Logger: s.logger,
	})
	if err != nil {
		return nil, err
	}

	page := &Page{Kind: domain.PageIndex, HTML: html, Doc: doc, Submission: ctrl}
	s.setCurrent(page)
	return page, nil
}

// OpenChat renders a fresh chat page. It fails with ErrNoVideo until a video
// has been processed in this session. Metadata is not requested here; the
// caller runs LoadMetadata once the page is presented.
func (s *Session) OpenChat() (*Page, error) {
	if !s.HasVideo() {
		return nil, ErrNoVideo
	}

	html, err := render.ChatPage(render.ChatData{Presets: s.cfg.Chat.Presets})
	if err != nil {
		return nil, fmt.Errorf("failed to render chat page: %w", err)
	}
	doc, err := dom.Load(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	els, err := chat.BindElements(doc)
	if err != nil {
		return nil, err
	}

	ctrl, err := chat.NewController(chat.Dependencies{
		API:      s.backend,
		Elements: els,
		Presets:  s.cfg.Chat.Presets,
		Logger:   s.logger,
	})
	if err != nil {
		return nil, err
	}

	page := &Page{Kind: domain.PageChat, HTML: html, Doc: doc, Chat: ctrl}
	s.setCurrent(page)
	return page, nil
}

// Open dispatches on a route path.
func (s *Session) Open(route string) (*Page, error) {
	switch route {
	case constants.Routes.Index:
		return s.OpenIndex()
	case s.cfg.Chat.Route:
		return s.OpenChat()
	default:
		return nil, fmt.Errorf("unknown route %q", route)
	}
}

// Reset clears the backend session, forgets the processed video and sends the
// current page back to the submission page.
func (s *Session) Reset(ctx context.Context) error {
	resp, err := s.backend.ClearSession(ctx)
	if err != nil {
		s.logger.Warn("Failed to clear backend session", zap.Error(err))
		return err
	}
	if resp.HasError() {
		s.logger.Warn("Backend refused to clear session", zap.String("error", resp.Error))
	}

	s.mu.Lock()
	s.processed = false
	current := s.current
	s.mu.Unlock()

	s.logger.Info("Session reset", zap.String("status", resp.Status))

	if current != nil {
		current.Doc.Navigate(constants.Routes.Index)
	}
	return nil
}

func (s *Session) navigate(doc *dom.Document, route string) error {
	switch route {
	case s.cfg.Chat.Route:
		s.mu.Lock()
		s.processed = true
		s.mu.Unlock()
	case constants.Routes.Index:
	default:
		return fmt.Errorf("unknown route %q", route)
	}

	doc.Navigate(route)
	return nil
}

func (s *Session) setCurrent(page *Page) {
	s.mu.Lock()
	s.current = page
	s.mu.Unlock()
}

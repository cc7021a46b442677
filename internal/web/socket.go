package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/app"
	"github.com/kapu/video-qa-client/internal/chat"
	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/dom"
	"github.com/kapu/video-qa-client/internal/domain"
	"github.com/kapu/video-qa-client/internal/submission"
)

type socketClient struct {
	conn    *websocket.Conn
	session *app.Session
	page    *app.Page
	send    chan []byte
	done    chan struct{}
	logger  *zap.Logger
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	kind := domain.Page(r.URL.Query().Get("page"))
	if !kind.IsValid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown page"})
		return
	}

	session, ok := s.sessions.lookup(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no session"})
		return
	}

	page, err := s.pageFor(session, kind)
	if errors.Is(err, app.ErrNoVideo) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": constants.Messages.NoVideoProcessed})
		return
	}
	if err != nil {
		s.logger.Error("Failed to open page for socket", zap.String("page", string(kind)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to open page"})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &socketClient{
		conn:    conn,
		session: session,
		page:    page,
		send:    make(chan []byte, constants.WebSocketConfig.SendBuffer),
		done:    make(chan struct{}),
		logger:  s.logger.With(zap.String("session", session.ID()), zap.String("page", string(kind))),
	}
	client.serve(r.Context())
}

// pageFor reuses the page the browser was just served, so that the socket
// drives the same document the HTML was rendered from.
func (s *Server) pageFor(session *app.Session, kind domain.Page) (*app.Page, error) {
	if current := session.Current(); current != nil && current.Kind == kind {
		return current, nil
	}
	if kind == domain.PageChat {
		return session.OpenChat()
	}
	return session.OpenIndex()
}

func (c *socketClient) serve(ctx context.Context) {
	unsubscribe := c.page.Doc.OnChange(c.forward)

	go c.writePump()

	// Actions run off the read loop so that the socket stays responsive while
	// requests are in flight.
	actions := pool.New()

	if c.page.Kind == domain.PageChat {
		actions.Go(func() {
			c.page.Chat.LoadMetadata(ctx)
		})
	}

	c.readPump(func(event Event) {
		actions.Go(func() {
			c.dispatch(ctx, event)
		})
	})

	actions.Wait()
	unsubscribe()
	close(c.done)
	c.logger.Debug("WebSocket client closed")
}

func (c *socketClient) forward(change dom.Change) {
	patch, err := patchFromChange(change)
	if err != nil {
		c.logger.Error("Failed to build patch", zap.String("op", change.Op.String()), zap.Error(err))
		return
	}
	data, err := json.Marshal(patch)
	if err != nil {
		c.logger.Error("Failed to marshal patch", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	case <-c.done:
	}
}

func (c *socketClient) dispatch(ctx context.Context, event Event) {
	var err error

	switch {
	case event.Type == EventSubmit && c.page.Submission != nil:
		input, bindErr := c.page.Doc.Element(domain.ElementURLInput)
		if bindErr != nil {
			err = bindErr
			break
		}
		input.SetValue(event.Value)
		_, err = c.page.Submission.Submit(ctx)
		if errors.Is(err, submission.ErrBusy) {
			err = nil
		}
	case event.Type == EventAsk && c.page.Chat != nil:
		_, err = c.page.Chat.AskQuestion(ctx, event.Value)
		if errors.Is(err, chat.ErrEmptyQuestion) {
			err = nil
		}
	case event.Type == EventPreset && c.page.Chat != nil:
		_, err = c.page.Chat.AskPreset(ctx, event.Value)
	case event.Type == EventReset:
		err = c.session.Reset(ctx)
		if err != nil {
			c.page.Doc.Alert(constants.Messages.ConnectFailed)
		}
	default:
		c.logger.Warn("Ignoring event", zap.String("type", event.Type))
		return
	}

	if err != nil {
		c.logger.Debug("Event did not complete", zap.String("type", event.Type), zap.Error(err))
	}
}

func (c *socketClient) readPump(handle func(Event)) {
	defer func() {
		_ = c.conn.Close()
	}()

	cfg := constants.WebSocketConfig
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.Warn("Malformed event", zap.Error(err))
			continue
		}
		handle(event)
	}
}

func (c *socketClient) writePump() {
	cfg := constants.WebSocketConfig
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.drain()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.drain()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// drain keeps forward from blocking after the connection is gone.
func (c *socketClient) drain() {
	for {
		select {
		case <-c.send:
		case <-c.done:
			return
		}
	}
}

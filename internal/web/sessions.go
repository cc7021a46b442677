package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/kapu/video-qa-client/internal/app"
	"github.com/kapu/video-qa-client/internal/constants"
)

type storedSession struct {
	session  *app.Session
	lastSeen time.Time
}

// sessionStore maps browser cookies to client sessions. Sessions idle for
// longer than the cookie lifetime are dropped.
type sessionStore struct {
	container *app.Container
	maxIdle   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*storedSession
}

func newSessionStore(container *app.Container) *sessionStore {
	return &sessionStore{
		container: container,
		maxIdle:   constants.SessionCookie.MaxAge,
		now:       time.Now,
		sessions:  make(map[string]*storedSession),
	}
}

// get returns the session named by the request cookie, or starts a new one.
// The cookie is (re)issued on every call so that its lifetime slides with
// activity, like the server-side idle timer.
func (s *sessionStore) get(w http.ResponseWriter, r *http.Request) (*app.Session, error) {
	if session, ok := s.lookup(r); ok {
		s.setCookie(w, session.ID())
		return session, nil
	}

	session, err := s.container.NewSession()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pruneLocked()
	s.sessions[session.ID()] = &storedSession{session: session, lastSeen: s.now()}
	s.mu.Unlock()

	s.setCookie(w, session.ID())
	return session, nil
}

func (s *sessionStore) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookie.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.maxIdle.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// lookup returns an existing session without creating one.
func (s *sessionStore) lookup(r *http.Request) (*app.Session, bool) {
	c, err := r.Cookie(constants.SessionCookie.Name)
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[c.Value]
	if !ok {
		return nil, false
	}
	if s.now().Sub(stored.lastSeen) > s.maxIdle {
		delete(s.sessions, c.Value)
		return nil, false
	}
	stored.lastSeen = s.now()
	return stored.session, true
}

func (s *sessionStore) pruneLocked() {
	now := s.now()
	for id, stored := range s.sessions {
		if now.Sub(stored.lastSeen) > s.maxIdle {
			delete(s.sessions, id)
		}
	}
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

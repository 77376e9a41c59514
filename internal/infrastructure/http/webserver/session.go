package webserver

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gourmetguru/api/internal/application/presentation"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"go.uber.org/zap"
)

// SessionCookie is the name of the browser session cookie
const SessionCookie = "gourmet-session"

const anonymousTTL = time.Hour

// Session is the server side state behind a session cookie. Anonymous
// visitors get one too so notifications survive redirects.
type Session struct {
	ID        string
	Token     string
	Email     string
	ExpiresAt time.Time

	flash *presentation.Notification
}

// SignedIn reports whether the session carries an auth token
func (s *Session) SignedIn() bool {
	return s.Token != ""
}

// SessionStore keeps sessions in memory
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	secure   bool
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a store and starts its cleanup loop. Cookies are
// marked Secure when secure is set.
func NewSessionStore(secure bool, logger *zap.Logger) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*Session),
		secure:   secure,
		logger:   logger.Named("sessions"),
		stop:     make(chan struct{}),
	}
	go s.cleanupExpired(time.Hour)
	return s
}

// Get returns the live session named by the request cookie, or nil
func (s *SessionStore) Get(r *http.Request) *Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[cookie.Value]
	if !ok {
		return nil
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, session.ID)
		return nil
	}
	return session
}

// SignIn opens an authenticated session under a fresh ID and sets the
// cookie. Any previous session of the request is discarded.
func (s *SessionStore) SignIn(w http.ResponseWriter, r *http.Request, auth *inbound.Session) *Session {
	s.Destroy(w, r)

	session := &Session{
		ID:        generateSessionID(),
		Token:     auth.Token,
		Email:     auth.User.Email,
		ExpiresAt: auth.ExpiresAt,
	}
	s.put(w, session)
	return session
}

// Destroy drops the request's session and expires the cookie
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Flash stores n to be shown on the next page rendered for this visitor
func (s *SessionStore) Flash(w http.ResponseWriter, r *http.Request, n presentation.Notification) {
	session := s.Get(r)
	if session == nil {
		session = &Session{ID: generateSessionID(), ExpiresAt: time.Now().Add(anonymousTTL)}
		s.put(w, session)
	}

	s.mu.Lock()
	session.flash = &n
	s.mu.Unlock()
}

// PopFlash returns and clears the pending notification
func (s *SessionStore) PopFlash(r *http.Request) *presentation.Notification {
	session := s.Get(r)
	if session == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := session.flash
	session.flash = nil
	return n
}

// Close stops the cleanup loop
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *SessionStore) put(w http.ResponseWriter, session *Session) {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
	})
}

// cleanupExpired removes expired sessions periodically
func (s *SessionStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.purge(now)
		}
	}
}

func (s *SessionStore) purge(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			s.logger.Debug("Cleaned up expired session")
		}
	}
}

func generateSessionID() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

package session

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"

	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/store"
)

const (
	CookieName = "spotlight"
	sidKey     = "sid"
)

// Toast kinds.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

// Toast is a one-shot message shown on the next rendered page.
type Toast struct {
	Kind    string
	Message string
}

func init() {
	gob.Register(Toast{})
}

type Options struct {
	CookieSecure bool
	DefaultTTL   time.Duration
	Logger       *slog.Logger
}

// Service keeps the signed-in staff member's backend token and user.
// The browser holds only a signed cookie with an opaque session id.
type Service struct {
	sessions *store.SessionStore
	cookies  *sessions.CookieStore
	sealer   *Sealer
	ttl      time.Duration
	logger   *slog.Logger

	mu    sync.RWMutex
	hooks []func(token string)
}

func New(st *store.SessionStore, secret string, opts Options) (*Service, error) {
	sealer, err := NewSealer(secret)
	if err != nil {
		return nil, err
	}

	hashKey := DeriveKey(secret, []byte("spotlight-cookie-hash"))
	blockKey := DeriveKey(secret, []byte("spotlight-cookie-blk"))
	cookies := sessions.NewCookieStore(hashKey, blockKey)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}

	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		sessions: st,
		cookies:  cookies,
		sealer:   sealer,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

// OnLoggedOut registers fn to run whenever a session ends, whether by
// explicit logout or by the backend rejecting its token.
func (s *Service) OnLoggedOut(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Service) loggedOut(token string) {
	s.mu.RLock()
	hooks := append([]func(string){}, s.hooks...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(token)
	}
}

func (s *Service) cookie(r *http.Request) *sessions.Session {
	c, err := s.cookies.Get(r, CookieName)
	if err != nil {
		// A cookie signed with an old key decodes to a fresh session.
		s.logger.Debug("session cookie rejected", "error", err)
	}
	return c
}

// Get returns the live session for the request, or nil when there is none.
func (s *Service) Get(r *http.Request) (*model.Session, error) {
	sid, _ := s.cookie(r).Values[sidKey].(string)
	if sid == "" {
		return nil, nil
	}
	sess, err := s.sessions.GetByToken(sid)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	token, err := s.sealer.Open(sess.SealedToken)
	if err != nil {
		// Sealed under a different secret. Treat as signed out.
		s.logger.Warn("session token unreadable", "session_id", sess.ID, "error", err)
		return nil, nil
	}
	sess.BackendToken = token
	return sess, nil
}

// Set starts a session for the backend token and user returned at login.
func (s *Service) Set(w http.ResponseWriter, r *http.Request, backendToken string, user model.User) (*model.Session, error) {
	if backendToken == "" {
		return nil, errors.New("empty backend token")
	}
	sealed, err := s.sealer.Seal(backendToken)
	if err != nil {
		return nil, fmt.Errorf("seal token: %w", err)
	}

	sess, err := s.sessions.Create(sealed, user, s.expiry(backendToken, time.Now()))
	if err != nil {
		return nil, err
	}
	sess.BackendToken = backendToken

	c := s.cookie(r)
	c.Values[sidKey] = sess.Token
	if err := c.Save(r, w); err != nil {
		return nil, fmt.Errorf("save cookie: %w", err)
	}
	return sess, nil
}

// Clear ends the request's session, if any, and notifies OnLoggedOut hooks.
func (s *Service) Clear(w http.ResponseWriter, r *http.Request) error {
	c := s.cookie(r)
	sid, _ := c.Values[sidKey].(string)
	delete(c.Values, sidKey)
	if err := c.Save(r, w); err != nil {
		return fmt.Errorf("save cookie: %w", err)
	}
	if sid == "" {
		return nil
	}
	return s.Expire(sid)
}

// Expire ends the session with the given id without touching the cookie.
// The next request carrying that cookie finds no session.
func (s *Service) Expire(sid string) error {
	if err := s.sessions.DeleteByToken(sid); err != nil {
		return err
	}
	s.loggedOut(sid)
	return nil
}

// Flash queues a toast for the next page render.
func (s *Service) Flash(w http.ResponseWriter, r *http.Request, kind, message string) {
	c := s.cookie(r)
	c.AddFlash(Toast{Kind: kind, Message: message})
	if err := c.Save(r, w); err != nil {
		s.logger.Error("save flash", "error", err)
	}
}

// Flashes drains queued toasts.
func (s *Service) Flashes(w http.ResponseWriter, r *http.Request) []Toast {
	c := s.cookie(r)
	raw := c.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := c.Save(r, w); err != nil {
		s.logger.Error("save cookie after flashes", "error", err)
	}
	toasts := make([]Toast, 0, len(raw))
	for _, v := range raw {
		if t, ok := v.(Toast); ok {
			toasts = append(toasts, t)
		}
	}
	return toasts
}

// Cleanup removes expired sessions.
func (s *Service) Cleanup() (int64, error) {
	return s.sessions.DeleteExpired()
}

// expiry reads the exp claim from a backend JWT. The backend verifies the
// signature; the console only needs to know when to stop using the token.
func (s *Service) expiry(token string, now time.Time) time.Time {
	if exp, ok := TokenExpiry(token); ok && exp.After(now) {
		return exp
	}
	return now.Add(s.ttl)
}

// TokenExpiry returns the exp claim of a JWT without verifying it.
func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

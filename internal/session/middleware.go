package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Jonnydevp/FitPose/internal/clientinfo"
)

type contextKey struct{}

type Describer interface {
	Describe(r *http.Request) clientinfo.Info
}

// Manager binds HTTP requests to sessions through a signed cookie.
type Manager struct {
	registry      *Registry
	secret        string
	secureCookies bool
	describer     Describer
}

func NewManager(registry *Registry, secret string, secureCookies bool, describer Describer) *Manager {
	return &Manager{registry: registry, secret: secret, secureCookies: secureCookies, describer: describer}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(CookieName); err == nil {
			if claims, err := ValidateToken(m.secret, cookie.Value); err == nil {
				id = claims.SessionID
			}
		}

		s, created := m.registry.Get(id)
		if created && s.ID != id {
			if err := m.setCookie(w, s.ID); err != nil {
				slog.Error("session: failed to issue cookie", "error", err)
			}
		}
		if m.describer != nil {
			s.SetClient(m.describer.Describe(r))
		}

		ctx := context.WithValue(r.Context(), contextKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// NewContext is used by tests and the CLI to attach a session directly.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func (m *Manager) setCookie(w http.ResponseWriter, sessionID string) error {
	token, err := GenerateToken(m.secret, sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(TokenDuration.Seconds()),
	})
	return nil
}

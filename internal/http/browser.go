package http

import (
	"context"
	"net/http"

	"freedom/internal/log"
	"freedom/internal/session"
)

type contextKey string

const browserKey contextKey = "browser"

// withBrowser resolves the browser session from its cookie, starting a new
// one when the cookie is missing or the session expired.
func (s *Server) withBrowser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b *session.Browser
		if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
			b = s.sessions.Get(c.Value)
		}
		if b == nil {
			b = s.sessions.Create()
			s.setSessionCookie(w, b.ID)
		}

		logger := log.FromContext(r.Context()).With(log.FieldBrowserID, b.ID)
		ctx := context.WithValue(r.Context(), browserKey, b)
		ctx = log.NewContext(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseForm rejects POST bodies that cannot be decoded.
func (s *Server) parseForm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if resp := ParseFormOrFail(r); resp != nil {
				resp.Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func browserFrom(ctx context.Context) *session.Browser {
	b, _ := ctx.Value(browserKey).(*session.Browser)
	return b
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cookieSecure,
	})
}

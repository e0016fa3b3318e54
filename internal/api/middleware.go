// Package api implements the Babilon reader HTTP API using chi.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/starford/babilon/internal/reader"
)

type ctxKey struct{}

// CookieConfig names the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// SessionMiddleware attaches the visitor's reading session to the
// request, starting one (and setting its cookie) when the request has
// none. While the site index is unavailable every request gets 503.
func SessionMiddleware(svc *reader.Service, cookie CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookie.Name); err == nil {
				id = c.Value
			}
			sess, created, err := svc.Acquire(id)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     cookie.Name,
					Value:    sess.ID,
					Path:     "/",
					MaxAge:   int(cookie.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cookie.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
		})
	}
}

// ReadyMiddleware answers 503 until the site index is loaded.
func ReadyMiddleware(svc *reader.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := svc.Ready(); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionFrom(r *http.Request) *reader.Session {
	sess, _ := r.Context().Value(ctxKey{}).(*reader.Session)
	return sess
}

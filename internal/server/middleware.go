package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"hseguardian/internal"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyActor contextKey = "actor"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = strings.TrimSuffix(r.URL.Path, "/")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireAuth accepts either the passphrase session cookie set by /api/login
// or a Supabase-issued JWT bearer token verified against the project JWKS.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			s.requireBearer(w, r, next, strings.TrimPrefix(auth, "Bearer "))
			return
		}

		cookie, err := r.Cookie(internal.COOKIE_SESSION_NAME)
		if err != nil {
			s.logger.WithError(err).Debug("no session cookie found")
			s.unauthorized(w)
			return
		}

		var actor string
		if err := s.cookie.Decode(internal.COOKIE_SESSION_NAME, cookie.Value, &actor); err != nil {
			s.logger.WithError(err).Error("failed to decrypt session cookie")
			s.unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) requireBearer(w http.ResponseWriter, r *http.Request, next http.Handler, raw string) {
	set, err := s.jwksCache.Lookup(r.Context(), s.jwksURL)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch JWKS")
		s.unauthorized(w)
		return
	}

	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		s.logger.WithError(err).Error("failed to parse JWT")
		s.unauthorized(w)
		return
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		s.logger.Error("no subject claim in JWT")
		s.unauthorized(w)
		return
	}

	ctx := context.WithValue(r.Context(), contextKeyActor, subject)
	next.ServeHTTP(w, r.WithContext(ctx))
}

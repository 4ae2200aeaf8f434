package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"hseguardian/internal"
)

// handleLogin checks the shared passphrase and sets an encrypted session
// cookie. The passphrase lives server-side only; the old client shipped it in
// the bundle.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	passphrase := r.FormValue("passphrase")

	if s.config.SessionPassphrase == "" {
		s.logger.Error("SESSION_PASSPHRASE is not configured")
		s.internalServerError(w)
		return
	}

	if subtle.ConstantTimeCompare([]byte(passphrase), []byte(s.config.SessionPassphrase)) != 1 {
		s.renderError(w, http.StatusUnauthorized, "invalid passphrase")
		return
	}

	if name == "" {
		name = "reporter"
	}

	encrypted, err := s.cookie.Encode(internal.COOKIE_SESSION_NAME, name)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt session cookie")
		s.internalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_SESSION_NAME,
		Value:    encrypted,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.config.SessionMaxAgeSec,
		Path:     "/",
	})

	s.renderJSON(w, http.StatusOK, map[string]string{"actor": name})
}

func (s *Service) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_SESSION_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}

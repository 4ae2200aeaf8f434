package server

import (
	"encoding/json"
	"net/http"
)

func (s *Service) renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) renderError(w http.ResponseWriter, status int, message string) {
	s.renderJSON(w, status, errorResponse{Error: message})
}

func (s *Service) unauthorized(w http.ResponseWriter) {
	s.renderError(w, http.StatusUnauthorized, "authentication required")
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	s.renderError(w, http.StatusInternalServerError, "internal server error")
}

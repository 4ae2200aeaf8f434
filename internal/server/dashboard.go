package server

import (
	"net/http"
	"strconv"
	"time"
)

// handleDashboard serves the aggregate counts behind the dashboard charts.
// Defaults to the trailing 30 days.
func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.renderError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	since := time.Now().AddDate(0, 0, -days)

	summary, err := s.dashboard.Summary(r.Context(), since, r.URL.Query().Get("site"))
	if err != nil {
		s.logger.WithError(err).Error("failed to compute dashboard summary")
		s.internalServerError(w)
		return
	}

	s.renderJSON(w, http.StatusOK, summary)
}

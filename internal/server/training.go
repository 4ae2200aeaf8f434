package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hseguardian/pkg/types"
)

func (s *Service) handleListTraining(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := s.trainingRepo.Roster(ctx, r.URL.Query().Get("site"))
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch training roster")
		s.internalServerError(w)
		return
	}

	s.renderJSON(w, http.StatusOK, records)
}

func (s *Service) handleCreateTraining(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	var record types.TrainingRecord
	if err := decoder.Decode(&record, r.Form); err != nil {
		s.renderError(w, http.StatusBadRequest, "invalid form fields")
		return
	}

	if record.EmployeeName == "" || record.Course == "" {
		s.renderError(w, http.StatusBadRequest, "employee_name and course are required")
		return
	}

	if v := r.FormValue("completed_at"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.renderError(w, http.StatusBadRequest, "completed_at must be YYYY-MM-DD")
			return
		}
		record.CompletedAt = &t
	}
	if v := r.FormValue("expires_at"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.renderError(w, http.StatusBadRequest, "expires_at must be YYYY-MM-DD")
			return
		}
		record.ExpiresAt = &t
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.trainingRepo.CreateRecord(ctx, &record); err != nil {
		s.logger.WithError(err).Error("failed to create training record")
		s.internalServerError(w)
		return
	}

	s.audit(r.Context(), s.actorFromContext(r.Context()), "training.created", "training", record.Course)
	s.renderJSON(w, http.StatusCreated, record)
}

func (s *Service) handleExpiringTraining(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			s.renderError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := s.trainingRepo.Expiring(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch expiring certifications")
		s.internalServerError(w)
		return
	}

	s.renderJSON(w, http.StatusOK, records)
}

func (s *Service) handleListAudit(w http.ResponseWriter, r *http.Request) {
	var limit uint64 = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			s.renderError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := s.auditRepo.Recent(ctx, limit)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch audit entries")
		s.internalServerError(w)
		return
	}

	s.renderJSON(w, http.StatusOK, entries)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"hseguardian/internal/syncer"
	"hseguardian/pkg/types"

	"github.com/sirupsen/logrus"
)

// Large enough for a handful of phone photos; Airtable rejects oversized
// payloads anyway.
const maxUploadBytes = 32 << 20

type submitResponse struct {
	Queued  bool   `json:"queued"`
	QueueID string `json:"queue_id,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Service) handleSubmitObservation(w http.ResponseWriter, r *http.Request) {
	var f types.ObservationForm
	images, ok := s.decodeReport(w, r, &f)
	if !ok {
		return
	}

	if f.ReporterName == "" || f.Site == "" || f.Description == "" {
		s.renderError(w, http.StatusBadRequest, "reporter_name, site and description are required")
		return
	}
	if f.ObservedAt.IsZero() {
		f.ObservedAt = time.Now().UTC()
	}

	s.submitReport(w, r, types.ReportKindObservation, f, images)
}

func (s *Service) handleSubmitIncident(w http.ResponseWriter, r *http.Request) {
	var f types.IncidentForm
	images, ok := s.decodeReport(w, r, &f)
	if !ok {
		return
	}

	if f.ReporterName == "" || f.Site == "" || f.Description == "" {
		s.renderError(w, http.StatusBadRequest, "reporter_name, site and description are required")
		return
	}
	if f.Severity == "" {
		s.renderError(w, http.StatusBadRequest, "severity is required")
		return
	}
	if f.OccurredAt.IsZero() {
		f.OccurredAt = time.Now().UTC()
	}

	s.submitReport(w, r, types.ReportKindIncident, f, images)
}

// decodeReport parses a multipart or urlencoded report submission into form
// and returns any attached images.
func (s *Service) decodeReport(w http.ResponseWriter, r *http.Request, form any) ([]types.QueuedImage, bool) {
	var images []types.QueuedImage

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			s.renderError(w, http.StatusBadRequest, "invalid form payload")
			return nil, false
		}
		if err := r.ParseForm(); err != nil {
			s.renderError(w, http.StatusBadRequest, "invalid form payload")
			return nil, false
		}
	}

	if err := decoder.Decode(form, r.Form); err != nil {
		s.logger.WithError(err).Debug("failed to decode report form")
		s.renderError(w, http.StatusBadRequest, "invalid form fields")
		return nil, false
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				s.renderError(w, http.StatusBadRequest, fmt.Sprintf("unreadable image %s", header.Filename))
				return nil, false
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				s.renderError(w, http.StatusBadRequest, fmt.Sprintf("unreadable image %s", header.Filename))
				return nil, false
			}
			images = append(images, types.QueuedImage{Filename: header.Filename, Data: data})
		}
	}

	return images, true
}

// submitReport tries the remote write inline. Transient failures queue the
// whole report for the next sync pass instead of bouncing it back to the
// user.
func (s *Service) submitReport(w http.ResponseWriter, r *http.Request, kind types.ReportKind, form syncer.FieldMapper, images []types.QueuedImage) {
	actor := s.actorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	err := s.orchestrator.Submit(ctx, kind, form, images)
	if err == nil {
		s.audit(r.Context(), actor, "report.submitted", string(kind), "")
		s.renderJSON(w, http.StatusCreated, submitResponse{Queued: false})
		return
	}

	var serr *types.SyncError
	if errors.As(err, &serr) && serr.Transient() {
		item, qerr := s.queue.Enqueue(r.Context(), kind, form, images)
		if qerr != nil {
			s.logger.WithError(qerr).Error("failed to queue report after transient failure")
			s.internalServerError(w)
			return
		}

		s.logger.WithFields(logrus.Fields{"item": item.ID, "kind": kind}).
			Info("report queued for later sync")
		s.audit(r.Context(), actor, "report.queued", string(kind), serr.Message)

		s.renderJSON(w, http.StatusAccepted, submitResponse{
			Queued:  true,
			QueueID: item.ID,
			Message: serr.Message,
		})
		return
	}

	if serr != nil {
		s.logger.WithError(err).WithField("class", serr.Class).Warn("report rejected")
		s.renderError(w, statusForClass(serr.Class), serr.Message)
		return
	}

	s.logger.WithError(err).Error("failed to submit report")
	s.internalServerError(w)
}

func statusForClass(class types.ErrorClass) int {
	switch class {
	case types.ErrClassPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case types.ErrClassSchemaMismatch:
		return http.StatusUnprocessableEntity
	case types.ErrClassAuth, types.ErrClassPermission, types.ErrClassNotFound:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Service) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	items, err := s.queue.Pending(r.Context(), "")
	if err != nil {
		s.logger.WithError(err).Error("failed to read queue")
		s.internalServerError(w)
		return
	}

	type itemSummary struct {
		ID        string    `json:"id"`
		Kind      string    `json:"kind"`
		Images    int       `json:"images"`
		Attempts  int       `json:"attempts"`
		LastError string    `json:"last_error,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	summaries := make([]itemSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, itemSummary{
			ID:        item.ID,
			Kind:      string(item.Kind),
			Images:    len(item.Images),
			Attempts:  item.Attempts,
			LastError: item.LastError,
			CreatedAt: item.CreatedAt,
		})
	}

	s.renderJSON(w, http.StatusOK, map[string]any{
		"pending": len(summaries),
		"items":   summaries,
	})
}

func (s *Service) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	n, err := s.orchestrator.Sync(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("manual sync pass failed")
		s.internalServerError(w)
		return
	}
	s.renderJSON(w, http.StatusOK, map[string]int{"synced": n})
}

// audit appends a trail entry, best effort. Roster database being down must
// not fail a report submission.
func (s *Service) audit(ctx context.Context, actor, action, entity, detail string) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Append(ctx, actor, action, entity, detail); err != nil {
		s.logger.WithError(err).Warn("failed to append audit entry")
	}
}

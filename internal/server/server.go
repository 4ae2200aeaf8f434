package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"hseguardian/internal/dashboard"
	"hseguardian/internal/queue"
	"hseguardian/internal/store"
	"hseguardian/internal/syncer"
	"hseguardian/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

func init() {
	// Browsers post datetime-local values without a zone or seconds;
	// API clients send RFC 3339.
	decoder.RegisterCustomTypeFunc(func(vals []string) (any, error) {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, vals[0]); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("unrecognized time value %q", vals[0])
	}, time.Time{})
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	orchestrator *syncer.Orchestrator
	queue        *queue.Store
	dashboard    *dashboard.Service
	trainingRepo *store.TrainingRepository
	auditRepo    *store.AuditRepository

	cookie *securecookie.SecureCookie

	jwksCache *jwk.Cache
	jwksURL   string

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	orchestrator *syncer.Orchestrator,
	q *queue.Store,
	dash *dashboard.Service,
	trainingRepo *store.TrainingRepository,
	auditRepo *store.AuditRepository,
	jwkCache *jwk.Cache,
	jwksURL string,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger: logger,
		config: config,
		cookie: securecookie.New(hashKey, blockKey),

		orchestrator: orchestrator,
		queue:        q,
		dashboard:    dash,
		trainingRepo: trainingRepo,
		auditRepo:    auditRepo,

		jwksCache: jwkCache,
		jwksURL:   jwksURL,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.HandleFunc("/api/login", s.handleLogin, http.MethodPost)
	r.HandleFunc("/api/logout", s.handleLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/observations", s.handleSubmitObservation, http.MethodPost)
		r.HandleFunc("/api/incidents", s.handleSubmitIncident, http.MethodPost)

		r.HandleFunc("/api/queue", s.handleQueueStatus, http.MethodGet)
		r.HandleFunc("/api/sync", s.handleSyncNow, http.MethodPost)

		r.HandleFunc("/api/dashboard", s.handleDashboard, http.MethodGet)

		r.HandleFunc("/api/training", s.handleListTraining, http.MethodGet)
		r.HandleFunc("/api/training", s.handleCreateTraining, http.MethodPost)
		r.HandleFunc("/api/training/expiring", s.handleExpiringTraining, http.MethodGet)

		r.HandleFunc("/api/audit", s.handleListAudit, http.MethodGet)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) actorFromContext(ctx context.Context) string {
	actor, ok := ctx.Value(contextKeyActor).(string)
	if !ok || actor == "" {
		return "anonymous"
	}
	return actor
}

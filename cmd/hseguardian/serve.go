package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hseguardian/internal/airtable"
	"hseguardian/internal/dashboard"
	"hseguardian/internal/db"
	"hseguardian/internal/image"
	"hseguardian/internal/queue"
	"hseguardian/internal/server"
	"hseguardian/internal/storage"
	"hseguardian/internal/store"
	"hseguardian/internal/syncer"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server and the background sync loop",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if config.DatabaseURL == "" {
		return fmt.Errorf("set DATABASE_URL")
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	trainingRepo := store.NewTrainingRepository(pool)
	auditRepo := store.NewAuditRepository(pool)

	q, err := queue.Open(config.QueuePath)
	if err != nil {
		return err
	}
	defer q.Close()

	records := airtable.New(config.AirtableBaseID, config.AirtableAPIKey, airtable.WithLogger(logger))
	uploads := storage.NewSupabaseStorage(config.SupabaseProjectID, config.SupabaseServiceKey, config.StorageBucketName)
	compressor := image.NewCompressor(config.ImageMaxEdge, config.ImageJPEGQuality)

	orchestrator := syncer.New(
		q,
		records,
		uploads,
		compressor,
		config.AirtableObservationsTable,
		config.AirtableIncidentsTable,
		logger,
	).WithAuditor(auditRepo)

	dash := dashboard.New(records, config.AirtableObservationsTable, config.AirtableIncidentsTable)

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	if config.SupabaseJWKSURL != "" {
		if err := jwkCache.Register(context.Background(), config.SupabaseJWKSURL); err != nil {
			return fmt.Errorf("failed to register supabase jwk with cache: %w", err)
		}
	}

	srv, err := server.New(
		config,
		logger,
		orchestrator,
		q,
		dash,
		trainingRepo,
		auditRepo,
		jwkCache,
		config.SupabaseJWKSURL,
	)
	if err != nil {
		return err
	}

	// Flush anything left over from the previous run, then keep draining on
	// an interval.
	go orchestrator.Run(ctx, time.Duration(config.SyncIntervalSec)*time.Second)

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

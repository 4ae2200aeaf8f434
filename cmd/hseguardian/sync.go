package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hseguardian/internal/airtable"
	"hseguardian/internal/image"
	"hseguardian/internal/queue"
	"hseguardian/internal/storage"
	"hseguardian/internal/syncer"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var syncCommand = &cli.Command{
	Name:   "sync",
	Usage:  "Run one sync pass over the offline queue and exit",
	Action: syncOnce,
}

func syncOnce(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

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
	)

	n, err := orchestrator.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d reports\n", n)
	return nil
}

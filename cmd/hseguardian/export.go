package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hseguardian/internal/airtable"
	"hseguardian/internal/export"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var exportCommand = &cli.Command{
	Name:  "export",
	Usage: "Snapshot Airtable tables to the archive bucket",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "table",
			Aliases: []string{"t"},
			Usage:   "Table to export (repeatable); defaults to both report tables",
		},
	},
	Action: exportSnapshots,
}

func exportSnapshots(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if config.ExportBucket == "" {
		return fmt.Errorf("set EXPORT_BUCKET")
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}
	s3Client := s3.NewFromConfig(awsConfig)

	records := airtable.New(config.AirtableBaseID, config.AirtableAPIKey, airtable.WithLogger(logger))
	exporter := export.New(records, s3Client, config.ExportBucket, config.ExportPrefix, logger)

	tables := cCtx.StringSlice("table")
	if len(tables) == 0 {
		tables = []string{config.AirtableObservationsTable, config.AirtableIncidentsTable}
	}

	for _, table := range tables {
		key, err := exporter.Snapshot(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", table, err)
		}
		fmt.Printf("Exported %s to %s\n", table, key)
	}

	return nil
}

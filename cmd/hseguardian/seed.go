package main

import (
	"context"
	"fmt"

	"hseguardian/internal/db"
	"hseguardian/internal/seed"
	"hseguardian/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the roster database with initial data",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.DatabaseURL == "" {
			return fmt.Errorf("set DATABASE_URL")
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		trainingRepo := store.NewTrainingRepository(pool)

		logrus.Info("Seeding training roster...")
		if err := seed.SeedTrainingRoster(ctx, trainingRepo); err != nil {
			return fmt.Errorf("failed to seed training roster: %w", err)
		}

		return nil
	},
}

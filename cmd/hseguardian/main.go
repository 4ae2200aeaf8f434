package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	// Best effort; production supplies real environment variables.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "hseguardian",
		Usage: "Backend for the HSE Guardian safety reporting app",
		Commands: []*cli.Command{
			serveCommand,
			syncCommand,
			seedCommand,
			exportCommand,
			configCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}

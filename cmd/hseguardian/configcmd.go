package main

import (
	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "Print the resolved configuration with secrets redacted",
	Action: func(c *cli.Context) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}

		redacted := *config
		redacted.AirtableAPIKey = redact(redacted.AirtableAPIKey)
		redacted.SupabaseServiceKey = redact(redacted.SupabaseServiceKey)
		redacted.SessionPassphrase = redact(redacted.SessionPassphrase)
		redacted.CookieHashKey = redact(redacted.CookieHashKey)
		redacted.CookieBlockKey = redact(redacted.CookieBlockKey)
		redacted.DatabaseURL = redact(redacted.DatabaseURL)

		pp.Println(redacted)
		return nil
	},
}

func redact(v string) string {
	if v == "" {
		return ""
	}
	return "<redacted>"
}

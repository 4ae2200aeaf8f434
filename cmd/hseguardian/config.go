package main

import (
	"context"
	"fmt"

	"hseguardian/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/kelseyhightower/envconfig"
)

func loadConfig() (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.AirtableBaseID == "" {
		return nil, fmt.Errorf("set AIRTABLE_BASE_ID")
	}

	if c.AirtableAPIKey == "" {
		return nil, fmt.Errorf("set AIRTABLE_API_KEY")
	}

	if c.SupabaseJWKSURL == "" && c.SupabaseProjectID != "" {
		c.SupabaseJWKSURL = fmt.Sprintf("https://%s.supabase.co/auth/v1/.well-known/jwks.json", c.SupabaseProjectID)
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8080
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 10
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 15
	}

	if c.SyncIntervalSec == 0 {
		c.SyncIntervalSec = 60
	}

	return c, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}

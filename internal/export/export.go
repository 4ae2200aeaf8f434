// Package export writes point-in-time snapshots of Airtable tables to an
// S3-compatible bucket, so report data has an off-provider backup.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hseguardian/internal/airtable"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

type Lister interface {
	ListRecords(ctx context.Context, table, formula string) ([]airtable.Record, error)
}

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Exporter struct {
	records Lister
	bucket  ObjectPutter
	name    string
	prefix  string
	logger  *logrus.Logger
}

func New(records Lister, bucket ObjectPutter, bucketName, prefix string, logger *logrus.Logger) *Exporter {
	return &Exporter{
		records: records,
		bucket:  bucket,
		name:    bucketName,
		prefix:  prefix,
		logger:  logger,
	}
}

type snapshot struct {
	Table      string            `json:"table"`
	ExportedAt time.Time         `json:"exported_at"`
	Count      int               `json:"count"`
	Records    []airtable.Record `json:"records"`
}

// Snapshot dumps every record in the table to one JSON object and returns
// the object key.
func (e *Exporter) Snapshot(ctx context.Context, table string) (string, error) {
	records, err := e.records.ListRecords(ctx, table, "")
	if err != nil {
		return "", fmt.Errorf("list records for export: %w", err)
	}

	snap := snapshot{
		Table:      table,
		ExportedAt: time.Now().UTC(),
		Count:      len(records),
		Records:    records,
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.json", e.prefix, table, snap.ExportedAt.Format("20060102T150405Z"))

	_, err = e.bucket.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.name),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"table":   table,
		"key":     key,
		"records": len(records),
	}).Info("exported snapshot")

	return key, nil
}

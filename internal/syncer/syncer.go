// Package syncer drains the offline queue: compress images, upload them to
// storage, submit the record to Airtable, and delete the queue entry once the
// remote write is acknowledged.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hseguardian/internal/airtable"
	"hseguardian/internal/queue"
	"hseguardian/internal/storage"
	"hseguardian/pkg/types"

	"github.com/sirupsen/logrus"
)

// attachmentColumn is the Airtable attachment column shared by both report
// tables.
const attachmentColumn = "Photos"

// FieldMapper is implemented by every form that maps onto Airtable columns.
type FieldMapper interface {
	Fields() map[string]any
}

// RecordClient submits report rows to the remote datastore.
type RecordClient interface {
	CreateRecord(ctx context.Context, table string, fields map[string]any) error
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// Compressor shrinks an image before upload.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Auditor appends an audit trail entry. Optional.
type Auditor interface {
	Append(ctx context.Context, actor, action, entity, detail string) error
}

type Orchestrator struct {
	queue    *queue.Store
	records  RecordClient
	uploads  Uploader
	compress Compressor
	auditor  Auditor
	logger   *logrus.Logger

	tables map[types.ReportKind]string
}

func New(
	q *queue.Store,
	records RecordClient,
	uploads Uploader,
	compress Compressor,
	observationsTable, incidentsTable string,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		queue:    q,
		records:  records,
		uploads:  uploads,
		compress: compress,
		logger:   logger,
		tables: map[types.ReportKind]string{
			types.ReportKindObservation: observationsTable,
			types.ReportKindIncident:    incidentsTable,
		},
	}
}

// WithAuditor attaches an audit trail sink for flush events.
func (o *Orchestrator) WithAuditor(a Auditor) *Orchestrator {
	o.auditor = a
	return o
}

// Submit pushes a single report straight through: compress, upload, create.
// Images that were uploaded are not rolled back on record failure; the
// caller queues the whole report and the next pass re-uploads.
func (o *Orchestrator) Submit(ctx context.Context, kind types.ReportKind, form FieldMapper, images []types.QueuedImage) error {
	table, ok := o.tables[kind]
	if !ok {
		return fmt.Errorf("no table configured for report kind %q", kind)
	}

	attachments := make([]types.Attachment, 0, len(images))
	for _, img := range images {
		compressed, err := o.compress.Compress(img.Data)
		if err != nil {
			return fmt.Errorf("compress %s: %w", img.Filename, err)
		}

		objectPath := storage.ObjectPath(string(kind)+"s", img.Filename)
		url, err := o.uploads.UploadFile(ctx, objectPath, compressed, "image/jpeg")
		if err != nil {
			return fmt.Errorf("upload %s: %w", img.Filename, err)
		}

		attachments = append(attachments, types.Attachment{URL: url, Filename: img.Filename})
	}

	fields := form.Fields()
	if len(attachments) > 0 {
		fields[attachmentColumn] = airtable.AttachmentCell(attachments)
	}

	return o.records.CreateRecord(ctx, table, fields)
}

// Sync drains the queue once: observations first, then incidents. A failed
// item stays queued and does not abort the pass. Returns the number of items
// flushed.
func (o *Orchestrator) Sync(ctx context.Context) (int, error) {
	synced := 0

	for _, kind := range []types.ReportKind{types.ReportKindObservation, types.ReportKindIncident} {
		items, err := o.queue.Pending(ctx, kind)
		if err != nil {
			return synced, fmt.Errorf("read pending %s reports: %w", kind, err)
		}

		for _, item := range items {
			if err := o.syncItem(ctx, item); err != nil {
				o.logger.WithError(err).WithFields(logrus.Fields{
					"item": item.ID,
					"kind": item.Kind,
				}).Warn("queued report not synced, will retry")

				if ferr := o.queue.RecordFailure(ctx, item.ID, err.Error()); ferr != nil {
					o.logger.WithError(ferr).WithField("item", item.ID).Error("failed to record sync failure")
				}
				continue
			}

			if err := o.queue.Delete(ctx, item.ID); err != nil && !errors.Is(err, types.ErrQueueItemNotFound) {
				return synced, fmt.Errorf("remove synced item %s: %w", item.ID, err)
			}
			synced++
		}
	}

	if synced > 0 && o.auditor != nil {
		detail := fmt.Sprintf("flushed %d queued reports", synced)
		if err := o.auditor.Append(ctx, "syncer", "sync.flush", "queue", detail); err != nil {
			o.logger.WithError(err).Warn("failed to append sync audit entry")
		}
	}

	return synced, nil
}

func (o *Orchestrator) syncItem(ctx context.Context, item *types.QueuedReport) error {
	form, err := decodeForm(item)
	if err != nil {
		return err
	}
	return o.Submit(ctx, item.Kind, form, item.Images)
}

func decodeForm(item *types.QueuedReport) (FieldMapper, error) {
	switch item.Kind {
	case types.ReportKindObservation:
		var f types.ObservationForm
		if err := json.Unmarshal(item.Form, &f); err != nil {
			return nil, fmt.Errorf("decode queued observation %s: %w", item.ID, err)
		}
		return f, nil
	case types.ReportKindIncident:
		var f types.IncidentForm
		if err := json.Unmarshal(item.Form, &f); err != nil {
			return nil, fmt.Errorf("decode queued incident %s: %w", item.ID, err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("unknown report kind %q for item %s", item.Kind, item.ID)
}

// Run performs a sync pass immediately and then on every tick until ctx is
// cancelled. Stands in for the browser's online event: connectivity is
// probed by simply attempting the pass.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := o.Sync(ctx)
		if err != nil {
			o.logger.WithError(err).Error("sync pass failed")
		} else if n > 0 {
			o.logger.WithField("synced", n).Info("flushed queued reports")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

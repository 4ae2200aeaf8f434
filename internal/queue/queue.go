// Package queue is the durable offline buffer for reports that could not be
// delivered to Airtable. Items live in a local SQLite file and survive
// restarts; an item leaves the queue only after its remote submission has
// been acknowledged.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hseguardian/internal/utils"
	"hseguardian/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	_ "modernc.org/sqlite"
)

const queueTableName = "queued_reports"

const schema = `
CREATE TABLE IF NOT EXISTS queued_reports (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	form       BLOB NOT NULL,
	images     BLOB NOT NULL,
	attempts   INTEGER NOT NULL DEFAULT 0,
	last_error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queued_reports_kind ON queued_reports (kind, created_at);
`

type queueRow struct {
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	Form      []byte `db:"form"`
	Images    []byte `db:"images"`
	Attempts  int    `db:"attempts"`
	LastError string `db:"last_error"`
	CreatedAt int64  `db:"created_at"`
}

type Store struct {
	db *sql.DB
}

// Open creates or opens the queue database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}

	// Single writer; WAL keeps readers from blocking the sync pass.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure queue database: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create queue schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Enqueue buffers a report for later submission. The form is stored as JSON
// so observation and incident payloads share one table.
func (s *Store) Enqueue(ctx context.Context, kind types.ReportKind, form any, images []types.QueuedImage) (*types.QueuedReport, error) {
	formJSON, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("encode queued form: %w", err)
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encode queued images: %w", err)
	}

	item := &types.QueuedReport{
		ID:        utils.NanoIDSize(21),
		Kind:      kind,
		Form:      formJSON,
		Images:    images,
		CreatedAt: time.Now().UTC(),
	}

	query, args, err := sq.Insert(queueTableName).
		Columns("id", "kind", "form", "images", "attempts", "last_error", "created_at").
		Values(item.ID, string(item.Kind), formJSON, imagesJSON, 0, "", item.CreatedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate enqueue query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to enqueue report: %w", err)
	}

	return item, nil
}

// Pending returns queued items oldest first. An empty kind matches all kinds.
func (s *Store) Pending(ctx context.Context, kind types.ReportKind) ([]*types.QueuedReport, error) {
	builder := sq.Select("id", "kind", "form", "images", "attempts", "last_error", "created_at").
		From(queueTableName).
		OrderBy("created_at ASC")
	if kind != "" {
		builder = builder.Where(sq.Eq{"kind": string(kind)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate pending query: %w", err)
	}

	var rows []*queueRow
	if err := sqlscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch pending reports: %w", err)
	}

	items := make([]*types.QueuedReport, 0, len(rows))
	for _, row := range rows {
		item, err := row.toReport()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Delete removes a synced item. Callers must only delete after the remote
// submission succeeded.
func (s *Store) Delete(ctx context.Context, id string) error {
	query, args, err := sq.Delete(queueTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete queued report: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return types.ErrQueueItemNotFound
	}
	return nil
}

// RecordFailure bumps the attempt counter and keeps the last error for the
// queue status endpoint.
func (s *Store) RecordFailure(ctx context.Context, id, lastError string) error {
	query, args, err := sq.Update(queueTableName).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", lastError).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate failure query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

// Len reports the number of items waiting to sync.
func (s *Store) Len(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From(queueTableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count query: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queued reports: %w", err)
	}
	return n, nil
}

func (r *queueRow) toReport() (*types.QueuedReport, error) {
	var images []types.QueuedImage
	if err := json.Unmarshal(r.Images, &images); err != nil {
		return nil, fmt.Errorf("decode queued images: %w", err)
	}

	return &types.QueuedReport{
		ID:        r.ID,
		Kind:      types.ReportKind(r.Kind),
		Form:      r.Form,
		Images:    images,
		Attempts:  r.Attempts,
		LastError: r.LastError,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
	}, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"hseguardian/internal/utils"
	"hseguardian/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const trainingTableName = "hseguardian.training_records"

var trainingColumns = utils.StructTagValues(types.TrainingRecord{})

type TrainingRepository struct {
	pool *pgxpool.Pool
}

func NewTrainingRepository(pool *pgxpool.Pool) *TrainingRepository {
	return &TrainingRepository{pool: pool}
}

func (r *TrainingRepository) Record(ctx context.Context, id string) (*types.TrainingRecord, error) {
	query, args, err := psql().
		Select(trainingColumns...).
		From(trainingTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate training query: %w", err)
	}

	var record types.TrainingRecord
	err = pgxscan.Get(ctx, r.pool, &record, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrTrainingNotFound
		}
		return nil, fmt.Errorf("failed to fetch training record: %w", err)
	}

	return &record, nil
}

// Roster lists training records, optionally scoped to one site.
func (r *TrainingRepository) Roster(ctx context.Context, site string) ([]*types.TrainingRecord, error) {
	builder := psql().
		Select(trainingColumns...).
		From(trainingTableName).
		OrderBy("employee_name ASC", "course ASC")
	if site != "" {
		builder = builder.Where(sq.Eq{"site": site})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate roster query: %w", err)
	}

	var records = make([]*types.TrainingRecord, 0)
	err = pgxscan.Select(ctx, r.pool, &records, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}

	return records, nil
}

// Expiring lists records whose certification lapses within the window.
func (r *TrainingRepository) Expiring(ctx context.Context, within time.Duration) ([]*types.TrainingRecord, error) {
	cutoff := time.Now().Add(within)

	query, args, err := psql().
		Select(trainingColumns...).
		From(trainingTableName).
		Where(sq.NotEq{"expires_at": nil}).
		Where(sq.LtOrEq{"expires_at": cutoff}).
		OrderBy("expires_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate expiring query: %w", err)
	}

	var records = make([]*types.TrainingRecord, 0)
	err = pgxscan.Select(ctx, r.pool, &records, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expiring records: %w", err)
	}

	return records, nil
}

func (r *TrainingRepository) CreateRecord(ctx context.Context, record *types.TrainingRecord) error {
	now := time.Now()
	if record.ID == "" {
		record.ID = utils.NanoID()
	}
	record.CreatedAt = now
	record.UpdatedAt = now

	query, args, err := psql().
		Insert(trainingTableName).
		SetMap(utils.StructToMap(record)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate training insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create training record: %w", err)
	}
	return nil
}

func (r *TrainingRepository) UpdateRecord(ctx context.Context, record *types.TrainingRecord) error {
	record.UpdatedAt = time.Now()

	query, args, err := psql().
		Update(trainingTableName).
		SetMap(utils.StructToMap(record)).
		Where(sq.Eq{"id": record.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate training update: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update training record: %w", err)
	}
	return nil
}

func (r *TrainingRepository) DeleteRecord(ctx context.Context, id string) error {
	query, args, err := psql().
		Delete(trainingTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate training delete: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete training record: %w", err)
	}
	return nil
}

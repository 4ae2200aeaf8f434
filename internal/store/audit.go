package store

import (
	"context"
	"fmt"
	"time"

	"hseguardian/internal/utils"
	"hseguardian/pkg/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditTableName = "hseguardian.audit_log"

var auditColumns = utils.StructTagValues(types.AuditEntry{})

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append records one audit trail entry.
func (r *AuditRepository) Append(ctx context.Context, actor, action, entity, detail string) error {
	query, args, err := psql().
		Insert(auditTableName).
		Columns(auditColumns...).
		Values(utils.NanoID(), actor, action, entity, detail, time.Now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate audit insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Recent lists the newest entries, capped at limit.
func (r *AuditRepository) Recent(ctx context.Context, limit uint64) ([]*types.AuditEntry, error) {
	if limit == 0 {
		limit = 50
	}

	query, args, err := psql().
		Select(auditColumns...).
		From(auditTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate audit query: %w", err)
	}

	var entries = make([]*types.AuditEntry, 0)
	err = pgxscan.Select(ctx, r.pool, &entries, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit entries: %w", err)
	}

	return entries, nil
}

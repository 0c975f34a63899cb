package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type InconsistencyRepository interface {
	Create(ctx context.Context, inc *entity.Inconsistency) error
	// FindOpen returns unresolved records of kind that have been tried
	// fewer than maxAttempts times, oldest first.
	FindOpen(ctx context.Context, kind entity.InconsistencyKind, limit, maxAttempts int) ([]*entity.Inconsistency, error)
	List(ctx context.Context, includeResolved bool, limit, offset int) ([]*entity.Inconsistency, error)
	Count(ctx context.Context, includeResolved bool) (int64, error)
	RecordAttempt(ctx context.Context, id uuid.UUID, reason string) error
	Resolve(ctx context.Context, id uuid.UUID) error
}

type inconsistencyRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewInconsistencyRepository(db database.PgxIface, log *zap.Logger) InconsistencyRepository {
	return &inconsistencyRepository{
		db:  db,
		log: log.With(zap.String("repository", "inconsistency")),
	}
}

const inconsistencyColumns = `id, kind, booking_id, payment_order_id, reason, attempts, resolved_at, created_at, updated_at`

func collectInconsistencies(rows pgx.Rows) ([]*entity.Inconsistency, error) {
	defer rows.Close()

	var out []*entity.Inconsistency
	for rows.Next() {
		var inc entity.Inconsistency
		err := rows.Scan(
			&inc.ID,
			&inc.Kind,
			&inc.BookingID,
			&inc.PaymentOrderID,
			&inc.Reason,
			&inc.Attempts,
			&inc.ResolvedAt,
			&inc.CreatedAt,
			&inc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan inconsistency row: %w", err)
		}
		out = append(out, &inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inconsistency rows: %w", err)
	}
	return out, nil
}

func (r *inconsistencyRepository) Create(ctx context.Context, inc *entity.Inconsistency) error {
	query := `
		INSERT INTO reconciliation_inconsistencies (` + inconsistencyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		inc.ID,
		inc.Kind,
		inc.BookingID,
		inc.PaymentOrderID,
		inc.Reason,
		inc.Attempts,
		inc.ResolvedAt,
		inc.CreatedAt,
		inc.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create inconsistency",
			zap.Error(err),
			zap.String("kind", string(inc.Kind)),
			zap.String("booking_id", inc.BookingID.String()),
			zap.String("order_id", inc.PaymentOrderID.String()),
		)
		return fmt.Errorf("create inconsistency for booking %s: %w", inc.BookingID.String(), err)
	}

	return nil
}

func (r *inconsistencyRepository) FindOpen(ctx context.Context, kind entity.InconsistencyKind, limit, maxAttempts int) ([]*entity.Inconsistency, error) {
	query := `
		SELECT ` + inconsistencyColumns + `
		FROM reconciliation_inconsistencies
		WHERE resolved_at IS NULL AND kind = $1 AND attempts < $3
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, kind, limit, maxAttempts)
	if err != nil {
		r.log.Error("Failed to find open inconsistencies", zap.Error(err))
		return nil, fmt.Errorf("find open inconsistencies: %w", err)
	}

	return collectInconsistencies(rows)
}

func (r *inconsistencyRepository) List(ctx context.Context, includeResolved bool, limit, offset int) ([]*entity.Inconsistency, error) {
	query := `
		SELECT ` + inconsistencyColumns + `
		FROM reconciliation_inconsistencies
		WHERE $1 OR resolved_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, includeResolved, limit, offset)
	if err != nil {
		r.log.Error("Failed to list inconsistencies", zap.Error(err))
		return nil, fmt.Errorf("list inconsistencies: %w", err)
	}

	return collectInconsistencies(rows)
}

func (r *inconsistencyRepository) Count(ctx context.Context, includeResolved bool) (int64, error) {
	query := `SELECT COUNT(*) FROM reconciliation_inconsistencies WHERE $1 OR resolved_at IS NULL`

	var total int64
	if err := r.db.QueryRow(ctx, query, includeResolved).Scan(&total); err != nil {
		r.log.Error("Failed to count inconsistencies", zap.Error(err))
		return 0, fmt.Errorf("count inconsistencies: %w", err)
	}

	return total, nil
}

func (r *inconsistencyRepository) RecordAttempt(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE reconciliation_inconsistencies
		SET attempts = attempts + 1, reason = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, reason)
	if err != nil {
		r.log.Error("Failed to record repair attempt",
			zap.Error(err),
			zap.String("inconsistency_id", id.String()),
		)
		return fmt.Errorf("record attempt for inconsistency %s: %w", id.String(), err)
	}

	return nil
}

func (r *inconsistencyRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE reconciliation_inconsistencies
		SET attempts = attempts + 1, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND resolved_at IS NULL
	`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to resolve inconsistency",
			zap.Error(err),
			zap.String("inconsistency_id", id.String()),
		)
		return fmt.Errorf("resolve inconsistency %s: %w", id.String(), err)
	}

	return nil
}

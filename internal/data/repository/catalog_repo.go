package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// CatalogRepository reads the salon and service catalog. It never writes.
type CatalogRepository interface {
	FindResource(ctx context.Context, id uuid.UUID) (*entity.Resource, error)
	FindServices(ctx context.Context, resourceID uuid.UUID, ids []uuid.UUID) ([]*entity.ServiceOffering, error)
}

type catalogRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCatalogRepository(db database.PgxIface, log *zap.Logger) CatalogRepository {
	return &catalogRepository{
		db:  db,
		log: log.With(zap.String("repository", "catalog")),
	}
}

func timeOfDay(t pgtype.Time) time.Duration {
	return time.Duration(t.Microseconds) * time.Microsecond
}

func (r *catalogRepository) FindResource(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	query := `SELECT id, name, open_time, close_time FROM salons WHERE id = $1`

	var (
		resource      entity.Resource
		open, closing pgtype.Time
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&resource.ID,
		&resource.Name,
		&open,
		&closing,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find salon by ID",
			zap.Error(err),
			zap.String("resource_id", id.String()),
		)
		return nil, fmt.Errorf("find salon by ID %s: %w", id.String(), err)
	}

	resource.OpenTime = timeOfDay(open)
	resource.CloseTime = timeOfDay(closing)
	return &resource, nil
}

// FindServices returns the offerings among ids that belong to resourceID.
// Unknown or foreign ids are silently absent from the result.
func (r *catalogRepository) FindServices(ctx context.Context, resourceID uuid.UUID, ids []uuid.UUID) ([]*entity.ServiceOffering, error) {
	query := `
		SELECT id, salon_id, name, duration_minutes, price
		FROM salon_services
		WHERE salon_id = $1 AND id = ANY($2)
	`

	rows, err := r.db.Query(ctx, query, resourceID, ids)
	if err != nil {
		r.log.Error("Failed to find salon services",
			zap.Error(err),
			zap.String("resource_id", resourceID.String()),
			zap.Int("requested", len(ids)),
		)
		return nil, fmt.Errorf("find services for salon %s: %w", resourceID.String(), err)
	}
	defer rows.Close()

	var services []*entity.ServiceOffering
	for rows.Next() {
		var (
			svc     entity.ServiceOffering
			minutes int
		)
		if err := rows.Scan(&svc.ID, &svc.ResourceID, &svc.Name, &minutes, &svc.Price); err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		svc.Duration = time.Duration(minutes) * time.Minute
		services = append(services, &svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service rows: %w", err)
	}

	return services, nil
}

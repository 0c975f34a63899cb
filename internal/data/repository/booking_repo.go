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
	"go.uber.org/zap"
)

// AdmitFunc decides whether a new booking may be inserted given the active
// bookings that intersect its window. A non-nil error aborts the insert.
type AdmitFunc func(existing []*entity.Booking) error

type BookingRepository interface {
	// CreateAdmitted runs the admission check and the insert as one unit,
	// serialized per resource.
	CreateAdmitted(ctx context.Context, booking *entity.Booking, admit AdmitFunc) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*entity.Booking, error)
	FindByResourceID(ctx context.Context, resourceID uuid.UUID) ([]*entity.Booking, error)
	FindActiveByResourceBetween(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*entity.Booking, error)
	// UpdateStatus is a compare-and-set; it reports false when the booking
	// is no longer in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus) (bool, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, resource_id, customer_id, service_ids, start_time, end_time, total_price, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.ResourceID,
		&booking.CustomerID,
		&booking.ServiceIDs,
		&booking.StartTime,
		&booking.EndTime,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) CreateAdmitted(ctx context.Context, booking *entity.Booking, admit AdmitFunc) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes check+insert for this resource until commit/rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, booking.ResourceID.String()); err != nil {
		r.log.Error("Failed to lock resource",
			zap.Error(err),
			zap.String("resource_id", booking.ResourceID.String()),
		)
		return fmt.Errorf("lock resource %s: %w", booking.ResourceID.String(), err)
	}

	rows, err := tx.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE resource_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`, booking.ResourceID, booking.StartTime, booking.EndTime)
	if err != nil {
		return fmt.Errorf("find overlapping bookings for resource %s: %w", booking.ResourceID.String(), err)
	}
	existing, err := collectBookings(rows)
	if err != nil {
		return err
	}

	if err := admit(existing); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		booking.ID,
		booking.ResourceID,
		booking.CustomerID,
		booking.ServiceIDs,
		booking.StartTime,
		booking.EndTime,
		booking.TotalPrice,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("resource_id", booking.ResourceID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking %s: %w", booking.ID.String(), err)
	}
	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_id = $1
		ORDER BY start_time DESC
	`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		r.log.Error("Failed to find bookings by customer ID",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return nil, fmt.Errorf("find bookings by customer ID %s: %w", customerID.String(), err)
	}

	return collectBookings(rows)
}

func (r *bookingRepository) FindByResourceID(ctx context.Context, resourceID uuid.UUID) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE resource_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, resourceID)
	if err != nil {
		r.log.Error("Failed to find bookings by resource ID",
			zap.Error(err),
			zap.String("resource_id", resourceID.String()),
		)
		return nil, fmt.Errorf("find bookings by resource ID %s: %w", resourceID.String(), err)
	}

	return collectBookings(rows)
}

func (r *bookingRepository) FindActiveByResourceBetween(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE resource_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, resourceID, from, to)
	if err != nil {
		r.log.Error("Failed to find active bookings in window",
			zap.Error(err),
			zap.String("resource_id", resourceID.String()),
			zap.Time("from", from),
			zap.Time("to", to),
		)
		return nil, fmt.Errorf("find active bookings for resource %s: %w", resourceID.String(), err)
	}

	return collectBookings(rows)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus) (bool, error) {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("update booking %s status to %s: %w", id.String(), string(to), err)
	}

	return result.RowsAffected() == 1, nil
}

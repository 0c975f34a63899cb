package repository

import (
	"context"
	"errors"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentOrderRepository interface {
	Create(ctx context.Context, order *entity.PaymentOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentOrder, error)
	FindByLinkID(ctx context.Context, linkID string) (*entity.PaymentOrder, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentOrder, error)
	FindByResourceID(ctx context.Context, resourceID uuid.UUID) ([]*entity.PaymentOrder, error)
	SetLinkID(ctx context.Context, id uuid.UUID, linkID string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkSucceeded moves a pending order to success and records its
	// settlement transaction atomically. It reports false when the order was
	// not pending anymore, in which case nothing is written.
	MarkSucceeded(ctx context.Context, id uuid.UUID, txn *entity.Transaction) (bool, error)
}

type paymentOrderRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentOrderRepository(db database.PgxIface, log *zap.Logger) PaymentOrderRepository {
	return &paymentOrderRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_order")),
	}
}

const paymentOrderColumns = `id, amount, method, payment_link_id, booking_id, resource_id, payer_id, status, created_at, updated_at`

func scanPaymentOrder(row pgx.Row) (*entity.PaymentOrder, error) {
	var order entity.PaymentOrder
	err := row.Scan(
		&order.ID,
		&order.Amount,
		&order.Method,
		&order.PaymentLinkID,
		&order.BookingID,
		&order.ResourceID,
		&order.PayerID,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func collectPaymentOrders(rows pgx.Rows) ([]*entity.PaymentOrder, error) {
	defer rows.Close()

	var orders []*entity.PaymentOrder
	for rows.Next() {
		order, err := scanPaymentOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment order rows: %w", err)
	}
	return orders, nil
}

func (r *paymentOrderRepository) Create(ctx context.Context, order *entity.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (` + paymentOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		order.ID,
		order.Amount,
		order.Method,
		order.PaymentLinkID,
		order.BookingID,
		order.ResourceID,
		order.PayerID,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateRef
	}
	if err != nil {
		r.log.Error("Failed to create payment order",
			zap.Error(err),
			zap.String("booking_id", order.BookingID.String()),
			zap.String("method", string(order.Method)),
		)
		return fmt.Errorf("create payment order for booking %s: %w", order.BookingID.String(), err)
	}

	return nil
}

func (r *paymentOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentOrder, error) {
	query := `SELECT ` + paymentOrderColumns + ` FROM payment_orders WHERE id = $1`

	order, err := scanPaymentOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment order by ID",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return nil, fmt.Errorf("find payment order by ID %s: %w", id.String(), err)
	}

	return order, nil
}

func (r *paymentOrderRepository) FindByLinkID(ctx context.Context, linkID string) (*entity.PaymentOrder, error) {
	query := `SELECT ` + paymentOrderColumns + ` FROM payment_orders WHERE payment_link_id = $1`

	order, err := scanPaymentOrder(r.db.QueryRow(ctx, query, linkID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment order by link ID",
			zap.Error(err),
			zap.String("payment_link_id", linkID),
		)
		return nil, fmt.Errorf("find payment order by link ID %s: %w", linkID, err)
	}

	return order, nil
}

func (r *paymentOrderRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentOrder, error) {
	query := `
		SELECT ` + paymentOrderColumns + `
		FROM payment_orders
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find payment orders by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment orders by booking ID %s: %w", bookingID.String(), err)
	}

	return collectPaymentOrders(rows)
}

func (r *paymentOrderRepository) FindByResourceID(ctx context.Context, resourceID uuid.UUID) ([]*entity.PaymentOrder, error) {
	query := `
		SELECT ` + paymentOrderColumns + `
		FROM payment_orders
		WHERE resource_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, resourceID)
	if err != nil {
		r.log.Error("Failed to find payment orders by resource ID",
			zap.Error(err),
			zap.String("resource_id", resourceID.String()),
		)
		return nil, fmt.Errorf("find payment orders by resource ID %s: %w", resourceID.String(), err)
	}

	return collectPaymentOrders(rows)
}

func (r *paymentOrderRepository) SetLinkID(ctx context.Context, id uuid.UUID, linkID string) error {
	query := `UPDATE payment_orders SET payment_link_id = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, linkID)
	if isUniqueViolation(err) {
		return ErrDuplicateRef
	}
	if err != nil {
		r.log.Error("Failed to set payment link ID",
			zap.Error(err),
			zap.String("order_id", id.String()),
			zap.String("payment_link_id", linkID),
		)
		return fmt.Errorf("set payment link ID for order %s: %w", id.String(), err)
	}

	return nil
}

func (r *paymentOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM payment_orders WHERE id = $1 AND status = 'pending'`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete payment order",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return fmt.Errorf("delete payment order %s: %w", id.String(), err)
	}

	return nil
}

func (r *paymentOrderRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, txn *entity.Transaction) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE payment_orders
		SET status = 'success', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		r.log.Error("Failed to mark payment order succeeded",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return false, fmt.Errorf("mark payment order %s succeeded: %w", id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, payment_order_id, resource_id, payer_id, amount, method, external_payment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		txn.ID,
		txn.PaymentOrderID,
		txn.ResourceID,
		txn.PayerID,
		txn.Amount,
		txn.Method,
		txn.ExternalPaymentID,
		txn.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to record transaction",
			zap.Error(err),
			zap.String("order_id", id.String()),
			zap.String("external_payment_id", txn.ExternalPaymentID),
		)
		return false, fmt.Errorf("record transaction for order %s: %w", id.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit payment order %s: %w", id.String(), err)
	}
	return true, nil
}

package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionRepository is read-only; rows are written by
// PaymentOrderRepository.MarkSucceeded.
type TransactionRepository interface {
	FindByResourceID(ctx context.Context, resourceID uuid.UUID) ([]*entity.Transaction, error)
}

type transactionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTransactionRepository(db database.PgxIface, log *zap.Logger) TransactionRepository {
	return &transactionRepository{
		db:  db,
		log: log.With(zap.String("repository", "transaction")),
	}
}

func (r *transactionRepository) FindByResourceID(ctx context.Context, resourceID uuid.UUID) ([]*entity.Transaction, error) {
	query := `
		SELECT id, payment_order_id, resource_id, payer_id, amount, method, external_payment_id, created_at
		FROM transactions
		WHERE resource_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, resourceID)
	if err != nil {
		r.log.Error("Failed to find transactions by resource ID",
			zap.Error(err),
			zap.String("resource_id", resourceID.String()),
		)
		return nil, fmt.Errorf("find transactions by resource ID %s: %w", resourceID.String(), err)
	}
	defer rows.Close()

	var txns []*entity.Transaction
	for rows.Next() {
		var txn entity.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.PaymentOrderID,
			&txn.ResourceID,
			&txn.PayerID,
			&txn.Amount,
			&txn.Method,
			&txn.ExternalPaymentID,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txns, nil
}

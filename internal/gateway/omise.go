package gateway

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"go.uber.org/zap"
)

type Omise struct {
	client *omise.Client
	log    *zap.Logger
}

func NewOmise(publicKey, secretKey string, log *zap.Logger) (*Omise, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("create omise client: %w", err)
	}
	client.SetDebug(false)

	return &Omise{
		client: client,
		log:    log.With(zap.String("gateway", string(entity.PaymentMethodOmise))),
	}, nil
}

func (g *Omise) Method() entity.PaymentMethod { return entity.PaymentMethodOmise }

// do runs an SDK call that has no context support, abandoning it when ctx
// is done.
func (g *Omise) do(ctx context.Context, call func() error) error {
	done := make(chan error, 1)
	go func() { done <- call() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Omise) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	link := &omise.Link{}
	op := &operations.CreateLink{
		Amount:      MinorUnits(req.Amount),
		Currency:    req.Currency,
		Title:       req.Description,
		Description: fmt.Sprintf("order %s booking %s", req.OrderID, req.BookingID),
		Multiple:    false,
	}

	if err := g.do(ctx, func() error { return g.client.Do(link, op) }); err != nil {
		g.log.Error("Failed to create payment link",
			zap.Error(err),
			zap.String("order_id", req.OrderID.String()),
			zap.String("amount", req.Amount.String()),
		)
		return nil, &Error{Method: g.Method(), Op: "create link", Err: err}
	}

	g.log.Info("Payment link created",
		zap.String("order_id", req.OrderID.String()),
		zap.String("payment_link_id", link.ID),
	)
	return &Link{ID: link.ID, URL: link.PaymentURI}, nil
}

func (g *Omise) IsCompleted(status string) bool {
	return statusIn(status, "successful", "paid")
}

func (g *Omise) FetchStatus(ctx context.Context, paymentID, linkID string) (string, error) {
	charge := &omise.Charge{}
	op := &operations.RetrieveCharge{ChargeID: paymentID}
	if err := g.do(ctx, func() error { return g.client.Do(charge, op) }); err != nil {
		g.log.Error("Failed to retrieve charge",
			zap.Error(err),
			zap.String("payment_id", paymentID),
			zap.String("payment_link_id", linkID),
		)
		return "", &Error{Method: g.Method(), Op: "retrieve charge", Err: err}
	}
	return string(charge.Status), nil
}

package gateway

import (
	"context"

	"salon-booking/internal/data/entity"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"
)

// Stripe issues Checkout Sessions; the session id is the link reference.
type Stripe struct {
	sessions session.Client
	log      *zap.Logger
}

func NewStripe(secretKey string, log *zap.Logger) *Stripe {
	return &Stripe{
		sessions: session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		log:      log.With(zap.String("gateway", string(entity.PaymentMethodStripe))),
	}
}

func (g *Stripe) Method() entity.PaymentMethod { return entity.PaymentMethodStripe }

func (g *Stripe) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
	}
	if req.Payer.Email != "" {
		params.CustomerEmail = stripe.String(req.Payer.Email)
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID.String())
	params.AddMetadata("booking_id", req.BookingID.String())

	s, err := g.sessions.New(params)
	if err != nil {
		g.log.Error("Failed to create checkout session",
			zap.Error(err),
			zap.String("order_id", req.OrderID.String()),
			zap.String("amount", req.Amount.String()),
		)
		return nil, &Error{Method: g.Method(), Op: "create checkout session", Err: err}
	}

	g.log.Info("Checkout session created",
		zap.String("order_id", req.OrderID.String()),
		zap.String("payment_link_id", s.ID),
	)
	return &Link{ID: s.ID, URL: s.URL}, nil
}

func (g *Stripe) IsCompleted(status string) bool {
	return statusIn(status, "paid", "succeeded")
}

func (g *Stripe) FetchStatus(ctx context.Context, paymentID, linkID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(linkID, params)
	if err != nil {
		g.log.Error("Failed to retrieve checkout session",
			zap.Error(err),
			zap.String("payment_id", paymentID),
			zap.String("payment_link_id", linkID),
		)
		return "", &Error{Method: g.Method(), Op: "retrieve checkout session", Err: err}
	}
	return string(s.PaymentStatus), nil
}

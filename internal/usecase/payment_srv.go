package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/internal/gateway"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentService interface {
	// CreateOrder opens a pending order and a provider payment link for it.
	// On a gateway failure the order is deleted before the error returns.
	CreateOrder(ctx context.Context, req *request.CreatePaymentRequest) (*response.PaymentLinkResponse, error)
	GetOrderByID(ctx context.Context, orderID string) (*response.PaymentOrderResponse, error)
	GetResourceOrders(ctx context.Context, resourceID string) ([]response.PaymentOrderResponse, error)
	GetResourceTransactions(ctx context.Context, resourceID string) ([]response.TransactionResponse, error)
}

type paymentService struct {
	repo     *repository.Repository
	gateways *gateway.Registry
	cfg      utils.PaymentConfig
	now      func() time.Time
	log      *zap.Logger
}

func NewPaymentService(repo *repository.Repository, gateways *gateway.Registry, cfg utils.PaymentConfig, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:     repo,
		gateways: gateways,
		cfg:      cfg,
		now:      time.Now,
		log:      log.With(zap.String("service", "payment")),
	}
}

// chargeAmount applies the provider minimum charge.
func chargeAmount(total, minimum decimal.Decimal) decimal.Decimal {
	return decimal.Max(total, minimum)
}

func callbackURL(base string, orderID, bookingID uuid.UUID) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("order_id", orderID.String())
	q.Set("booking_id", bookingID.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// ensurePayable rejects cancelled bookings and bookings that already have
// a settled order.
func ensurePayable(ctx context.Context, orders repository.PaymentOrderRepository, booking *entity.Booking) error {
	if booking.Status == entity.BookingStatusCancelled {
		return fmt.Errorf("booking %s: %w", booking.ID, ErrBookingCancelled)
	}

	existing, err := orders.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return fmt.Errorf("find orders for booking %s: %w", booking.ID, err)
	}
	for _, o := range existing {
		if o.Status.Terminal() {
			return fmt.Errorf("booking %s order %s: %w", booking.ID, o.ID, ErrAlreadySettled)
		}
	}
	return nil
}

func (s *paymentService) CreateOrder(ctx context.Context, req *request.CreatePaymentRequest) (*response.PaymentLinkResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Create payment validation failed", zap.Error(err))
		return nil, err
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, invalidField("booking_id", "Must be a valid UUID")
	}
	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		return nil, invalidField("payer_id", "Must be a valid UUID")
	}

	method := entity.PaymentMethod(req.Method)
	gw, err := s.gateways.Get(method)
	if err != nil {
		return nil, invalidField("method", "Payment method is not enabled")
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, notFound("booking", bookingID.String())
	}
	if err := ensurePayable(ctx, s.repo.PaymentOrder, booking); err != nil {
		s.log.Warn("Booking not payable", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, err
	}

	now := s.now()
	order := &entity.PaymentOrder{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Amount:     chargeAmount(booking.TotalPrice, s.cfg.MinAmount),
		Method:     method,
		BookingID:  booking.ID,
		ResourceID: booking.ResourceID,
		PayerID:    payerID,
		Status:     entity.PaymentOrderStatusPending,
	}

	if err := s.repo.PaymentOrder.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	link, err := gw.CreateLink(ctx, gateway.LinkRequest{
		OrderID:     order.ID,
		BookingID:   booking.ID,
		Amount:      order.Amount,
		Currency:    s.cfg.Currency,
		Description: fmt.Sprintf("Salon booking %s", booking.StartTime.Format("2006-01-02 15:04")),
		Payer: gateway.Payer{
			ID:    payerID,
			Name:  req.PayerName,
			Email: req.PayerEmail,
		},
		SuccessURL: callbackURL(s.cfg.SuccessURL, order.ID, booking.ID),
		CancelURL:  callbackURL(s.cfg.CancelURL, order.ID, booking.ID),
	})
	if err == nil {
		err = s.repo.PaymentOrder.SetLinkID(ctx, order.ID, link.ID)
	}
	if err != nil {
		s.compensate(ctx, order, err)
		return nil, fmt.Errorf("create payment link for order %s: %w", order.ID, err)
	}

	s.log.Info("Payment order created",
		zap.String("order_id", order.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("method", string(method)),
		zap.String("amount", order.Amount.String()),
		zap.String("payment_link_id", link.ID),
	)

	return &response.PaymentLinkResponse{
		OrderID:        order.ID.String(),
		PaymentLinkURL: link.URL,
		PaymentLinkID:  link.ID,
	}, nil
}

// compensate removes an order that never got a payment artifact. It runs
// even if the request context is already cancelled.
func (s *paymentService) compensate(ctx context.Context, order *entity.PaymentOrder, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repo.PaymentOrder.Delete(ctx, order.ID); err != nil {
		s.log.Error("Compensating delete failed; orphan payment order left pending",
			zap.Error(err),
			zap.NamedError("cause", cause),
			zap.String("order_id", order.ID.String()),
		)
		return
	}
	s.log.Warn("Payment order rolled back",
		zap.Error(cause),
		zap.String("order_id", order.ID.String()),
		zap.Bool("gateway_error", errors.Is(cause, gateway.ErrGateway)),
	)
}

func (s *paymentService) GetOrderByID(ctx context.Context, orderID string) (*response.PaymentOrderResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, invalidField("order_id", "Must be a valid UUID")
	}

	order, err := s.repo.PaymentOrder.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, notFound("payment order", orderID)
	}

	resp := response.PaymentOrderToResponse(order)
	return &resp, nil
}

func (s *paymentService) GetResourceOrders(ctx context.Context, resourceID string) ([]response.PaymentOrderResponse, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, invalidField("resource_id", "Must be a valid UUID")
	}

	orders, err := s.repo.PaymentOrder.FindByResourceID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get salon payment orders: %w", err)
	}
	return response.PaymentOrdersToResponse(orders), nil
}

func (s *paymentService) GetResourceTransactions(ctx context.Context, resourceID string) ([]response.TransactionResponse, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, invalidField("resource_id", "Must be a valid UUID")
	}

	txns, err := s.repo.Transaction.FindByResourceID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get salon transactions: %w", err)
	}
	return response.TransactionsToResponse(txns), nil
}

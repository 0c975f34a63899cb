package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/internal/gateway"
	"salon-booking/pkg/mq"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileService drives payment orders and bookings toward agreement.
//
// Failure policy: once a payment order is durably recorded (success or
// pending_salon_payment) the operation reports success even if confirming
// the booking fails. Such failures are stored as inconsistencies, published
// and retried by RepairPending.
type ReconcileService interface {
	// ConfirmPayment handles a provider completion signal. Unknown and
	// duplicate signals are outcomes, not errors.
	ConfirmPayment(ctx context.Context, req *request.PaymentWebhookRequest) (*response.ConfirmationResponse, error)
	// ProceedPayment re-fetches the authoritative status from the provider
	// and applies it, for signals that never arrived.
	ProceedPayment(ctx context.Context, req *request.ProceedPaymentRequest) (*response.ConfirmationResponse, error)
	PayAtSalon(ctx context.Context, req *request.PayAtSalonRequest) (*response.PaymentOrderResponse, error)

	ListInconsistencies(ctx context.Context, req *request.ListInconsistenciesRequest) (*response.PaginatedResponse[response.InconsistencyResponse], error)
	RepairPending(ctx context.Context) (int, error)
	RunRepairLoop(ctx context.Context, interval time.Duration)
}

type reconcileService struct {
	repo      *repository.Repository
	gateways  *gateway.Registry
	confirmer BookingConfirmer
	publisher Publisher
	guard     SignalGuard
	cfg       utils.ReconcileConfig
	now       func() time.Time
	log       *zap.Logger
}

func NewReconcileService(
	repo *repository.Repository,
	gateways *gateway.Registry,
	confirmer BookingConfirmer,
	publisher Publisher,
	guard SignalGuard,
	cfg utils.ReconcileConfig,
	log *zap.Logger,
) ReconcileService {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 5 * time.Second
	}
	if cfg.RepairBatch <= 0 {
		cfg.RepairBatch = 50
	}
	if cfg.RepairMaxAttempts <= 0 {
		cfg.RepairMaxAttempts = 10
	}
	return &reconcileService{
		repo:      repo,
		gateways:  gateways,
		confirmer: confirmer,
		publisher: publisher,
		guard:     guard,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With(zap.String("service", "reconcile")),
	}
}

func (s *reconcileService) ConfirmPayment(ctx context.Context, req *request.PaymentWebhookRequest) (*response.ConfirmationResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Payment signal validation failed", zap.Error(err))
		return nil, err
	}

	if s.guard != nil {
		key := req.PaymentLinkID + ":" + req.PaymentID + ":" + req.Status
		acquired, err := s.guard.Acquire(ctx, key)
		switch {
		case err != nil:
			// the ledger CAS still makes this safe
			s.log.Warn("Signal guard unavailable", zap.Error(err))
		case !acquired:
			s.log.Info("Duplicate payment signal dropped",
				zap.String("payment_link_id", req.PaymentLinkID),
				zap.String("payment_id", req.PaymentID),
			)
			return &response.ConfirmationResponse{Outcome: response.OutcomeAlreadyProcessed}, nil
		default:
			resp, err := s.confirm(ctx, req.PaymentLinkID, req.PaymentID, req.Status)
			if err != nil || !signalApplied(resp) {
				// let a redelivery run the confirmation again
				if relErr := s.guard.Release(context.WithoutCancel(ctx), key); relErr != nil {
					s.log.Warn("Failed to release signal guard", zap.Error(relErr))
				}
			}
			return resp, err
		}
	}

	return s.confirm(ctx, req.PaymentLinkID, req.PaymentID, req.Status)
}

// signalApplied reports whether a redelivery of the same signal has nothing
// left to do.
func signalApplied(resp *response.ConfirmationResponse) bool {
	switch resp.Outcome {
	case response.OutcomeRejected:
		return true
	case response.OutcomeSuccess, response.OutcomeAlreadyProcessed:
		return resp.BookingConfirmed
	default:
		return false
	}
}

func (s *reconcileService) ProceedPayment(ctx context.Context, req *request.ProceedPaymentRequest) (*response.ConfirmationResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	order, err := s.repo.PaymentOrder.FindByLinkID(ctx, req.PaymentLinkID)
	if err != nil {
		return nil, fmt.Errorf("find payment order by link %s: %w", req.PaymentLinkID, err)
	}
	if order == nil {
		return nil, notFound("payment order for link", req.PaymentLinkID)
	}
	if !order.Method.Online() {
		return &response.ConfirmationResponse{
			Outcome: response.OutcomeRejected,
			OrderID: order.ID.String(),
			Status:  order.Status,
		}, nil
	}

	gw, err := s.gateways.Get(order.Method)
	if err != nil {
		return nil, fmt.Errorf("resync order %s: %w", order.ID, err)
	}

	status, err := gw.FetchStatus(ctx, req.PaymentID, req.PaymentLinkID)
	if err != nil {
		return nil, fmt.Errorf("resync order %s: %w", order.ID, err)
	}

	s.log.Info("Fetched provider status",
		zap.String("order_id", order.ID.String()),
		zap.String("provider_status", status),
	)
	return s.confirm(ctx, req.PaymentLinkID, req.PaymentID, status)
}

func (s *reconcileService) confirm(ctx context.Context, linkID, paymentID, status string) (*response.ConfirmationResponse, error) {
	order, err := s.repo.PaymentOrder.FindByLinkID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("find payment order by link %s: %w", linkID, err)
	}
	if order == nil {
		s.log.Warn("Payment signal for unknown order",
			zap.String("payment_link_id", linkID),
			zap.String("payment_id", paymentID),
		)
		return &response.ConfirmationResponse{Outcome: response.OutcomeNotFound}, nil
	}

	resp := &response.ConfirmationResponse{OrderID: order.ID.String(), Status: order.Status}

	if !order.Method.Online() {
		resp.Outcome = response.OutcomeRejected
		return resp, nil
	}

	gw, err := s.gateways.Get(order.Method)
	if err != nil {
		return nil, fmt.Errorf("confirm order %s: %w", order.ID, err)
	}
	if !gw.IsCompleted(status) {
		s.log.Info("Payment signal is not a completion",
			zap.String("order_id", order.ID.String()),
			zap.String("provider_status", status),
		)
		resp.Outcome = response.OutcomeRejected
		return resp, nil
	}

	if order.Status.Terminal() {
		// Booking confirmation is idempotent, so a replayed signal doubles
		// as a retry of a confirmation that failed earlier.
		resp.Outcome = response.OutcomeAlreadyProcessed
		resp.BookingConfirmed = s.callConfirmer(ctx, order.BookingID) == nil
		return resp, nil
	}

	if paymentID == "" {
		paymentID = linkID
	}
	txn := &entity.Transaction{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		PaymentOrderID:    order.ID,
		ResourceID:        order.ResourceID,
		PayerID:           order.PayerID,
		Amount:            order.Amount,
		Method:            order.Method,
		ExternalPaymentID: paymentID,
	}

	ok, err := s.repo.PaymentOrder.MarkSucceeded(ctx, order.ID, txn)
	if err != nil {
		return nil, fmt.Errorf("confirm order %s: %w", order.ID, err)
	}
	if !ok {
		resp.Outcome = response.OutcomeAlreadyProcessed
		resp.Status = entity.PaymentOrderStatusSuccess
		return resp, nil
	}
	order.Status = entity.PaymentOrderStatusSuccess

	s.log.Info("Payment order succeeded",
		zap.String("order_id", order.ID.String()),
		zap.String("booking_id", order.BookingID.String()),
		zap.String("payment_id", paymentID),
		zap.String("amount", order.Amount.String()),
	)
	s.publish(ctx, mq.KeyPaymentSucceeded, PaymentSucceededEvent{
		OrderID:           order.ID.String(),
		BookingID:         order.BookingID.String(),
		ResourceID:        order.ResourceID.String(),
		PayerID:           order.PayerID.String(),
		Amount:            order.Amount,
		Method:            order.Method,
		ExternalPaymentID: paymentID,
		OccurredAt:        txn.CreatedAt,
	})

	s.checkDuplicatePayment(ctx, order)

	resp.Outcome = response.OutcomeSuccess
	resp.Status = order.Status
	resp.BookingConfirmed = s.confirmBooking(ctx, order)
	return resp, nil
}

// checkDuplicatePayment flags a booking that ended up with more than one
// settled order.
func (s *reconcileService) checkDuplicatePayment(ctx context.Context, order *entity.PaymentOrder) {
	orders, err := s.repo.PaymentOrder.FindByBookingID(ctx, order.BookingID)
	if err != nil {
		s.log.Warn("Could not check for duplicate payment", zap.Error(err))
		return
	}
	for _, o := range orders {
		if o.ID != order.ID && o.Status.Terminal() {
			s.recordInconsistency(ctx, entity.InconsistencyDuplicatePayment, order,
				fmt.Sprintf("booking already settled by order %s", o.ID))
			return
		}
	}
}

func (s *reconcileService) PayAtSalon(ctx context.Context, req *request.PayAtSalonRequest) (*response.PaymentOrderResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, invalidField("amount", "Must be greater than 0")
	}

	bookingID, _ := uuid.Parse(req.BookingID)
	resourceID, _ := uuid.Parse(req.ResourceID)
	payerID, _ := uuid.Parse(req.PayerID)

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, notFound("booking", bookingID.String())
	}
	if booking.ResourceID != resourceID {
		return nil, invalidField("resource_id", "Does not match the booking")
	}

	ref := entity.PayAtSalonRef(bookingID)
	existing, err := s.repo.PaymentOrder.FindByLinkID(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("find pay at salon order for booking %s: %w", bookingID, err)
	}
	if existing != nil {
		// replay: the order is durable, only the booking side may be behind
		if err := s.callConfirmer(ctx, bookingID); err != nil {
			s.log.Warn("Booking still unconfirmed on replay", zap.Error(err), zap.String("booking_id", bookingID.String()))
		}
		resp := response.PaymentOrderToResponse(existing)
		return &resp, nil
	}

	if err := ensurePayable(ctx, s.repo.PaymentOrder, booking); err != nil {
		s.log.Warn("Booking not payable at salon", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, err
	}

	now := s.now()
	order := &entity.PaymentOrder{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Amount:        req.Amount,
		Method:        entity.PaymentMethodPayAtSalon,
		PaymentLinkID: &ref,
		BookingID:     bookingID,
		ResourceID:    resourceID,
		PayerID:       payerID,
		Status:        entity.PaymentOrderStatusPendingSalonPayment,
	}

	err = s.repo.PaymentOrder.Create(ctx, order)
	if errors.Is(err, repository.ErrDuplicateRef) {
		// a concurrent request for the same booking won
		winner, findErr := s.repo.PaymentOrder.FindByLinkID(ctx, ref)
		if findErr != nil || winner == nil {
			return nil, fmt.Errorf("create pay at salon order for booking %s: %w", bookingID, err)
		}
		resp := response.PaymentOrderToResponse(winner)
		return &resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create pay at salon order for booking %s: %w", bookingID, err)
	}

	s.log.Info("Pay at salon order created",
		zap.String("order_id", order.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("amount", order.Amount.String()),
	)

	// Payment side is durable from here on; the booking side is best effort.
	s.confirmBooking(ctx, order)

	resp := response.PaymentOrderToResponse(order)
	return &resp, nil
}

// callConfirmer bounds the remote call and detaches it from the caller's
// cancellation.
func (s *reconcileService) callConfirmer(ctx context.Context, bookingID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ConfirmTimeout)
	defer cancel()
	return s.confirmer.ConfirmBooking(ctx, bookingID)
}

// confirmBooking confirms the order's booking and records an inconsistency
// when that fails. It never returns the failure.
func (s *reconcileService) confirmBooking(ctx context.Context, order *entity.PaymentOrder) bool {
	err := s.callConfirmer(ctx, order.BookingID)
	if err == nil {
		return true
	}

	s.log.Error("Booking confirmation failed after payment was recorded",
		zap.Error(err),
		zap.String("order_id", order.ID.String()),
		zap.String("booking_id", order.BookingID.String()),
		zap.String("method", string(order.Method)),
	)
	s.recordInconsistency(ctx, entity.InconsistencyBookingNotConfirmed, order, err.Error())
	return false
}

func (s *reconcileService) recordInconsistency(ctx context.Context, kind entity.InconsistencyKind, order *entity.PaymentOrder, reason string) {
	ctx = context.WithoutCancel(ctx)
	now := s.now()
	inc := &entity.Inconsistency{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Kind:           kind,
		BookingID:      order.BookingID,
		PaymentOrderID: order.ID,
		Reason:         reason,
	}

	if err := s.repo.Inconsistency.Create(ctx, inc); err != nil {
		// the log line is the only record left
		s.log.Error("Failed to persist reconciliation inconsistency",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.String("order_id", order.ID.String()),
			zap.String("booking_id", order.BookingID.String()),
			zap.String("reason", reason),
		)
	}

	s.publish(ctx, mq.KeyInconsistency, InconsistencyEvent{
		ID:             inc.ID.String(),
		Kind:           kind,
		BookingID:      order.BookingID.String(),
		PaymentOrderID: order.ID.String(),
		Reason:         reason,
		OccurredAt:     now,
	})
}

func (s *reconcileService) publish(ctx context.Context, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, key, event); err != nil {
		s.log.Warn("Failed to publish event", zap.Error(err), zap.String("routing_key", key))
	}
}

func (s *reconcileService) ListInconsistencies(ctx context.Context, req *request.ListInconsistenciesRequest) (*response.PaginatedResponse[response.InconsistencyResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	items, err := s.repo.Inconsistency.List(ctx, req.IncludeResolved, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list inconsistencies: %w", err)
	}

	total, err := s.repo.Inconsistency.Count(ctx, req.IncludeResolved)
	if err != nil {
		return nil, fmt.Errorf("count inconsistencies: %w", err)
	}

	return response.NewPaginatedResponse(response.InconsistenciesToResponse(items), req.Page, req.PerPage, total), nil
}

// RepairPending retries booking confirmation for open inconsistencies and
// returns how many were resolved.
func (s *reconcileService) RepairPending(ctx context.Context) (int, error) {
	items, err := s.repo.Inconsistency.FindOpen(ctx, entity.InconsistencyBookingNotConfirmed, s.cfg.RepairBatch, s.cfg.RepairMaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("load open inconsistencies: %w", err)
	}

	repaired := 0
	for _, inc := range items {
		if ctx.Err() != nil {
			return repaired, ctx.Err()
		}

		if err := s.callConfirmer(ctx, inc.BookingID); err != nil {
			s.log.Warn("Repair attempt failed",
				zap.Error(err),
				zap.String("inconsistency_id", inc.ID.String()),
				zap.String("booking_id", inc.BookingID.String()),
				zap.Int("attempts", inc.Attempts+1),
			)
			if err := s.repo.Inconsistency.RecordAttempt(ctx, inc.ID, err.Error()); err != nil {
				return repaired, err
			}
			continue
		}

		if err := s.repo.Inconsistency.Resolve(ctx, inc.ID); err != nil {
			return repaired, err
		}
		repaired++
		s.log.Info("Inconsistency repaired",
			zap.String("inconsistency_id", inc.ID.String()),
			zap.String("booking_id", inc.BookingID.String()),
		)
	}

	return repaired, nil
}

func (s *reconcileService) RunRepairLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("Repair loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Repair loop stopped")
			return
		case <-ticker.C:
			repaired, err := s.RepairPending(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error("Repair pass failed", zap.Error(err), zap.Int("repaired", repaired))
				continue
			}
			if repaired > 0 {
				s.log.Info("Repair pass finished", zap.Int("repaired", repaired))
			}
		}
	}
}

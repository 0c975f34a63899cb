package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/internal/gateway"
	"salon-booking/pkg/mq"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reconcileFixture struct {
	store     *memStore
	gw        *mockGateway
	confirmer *mockConfirmer
	publisher *mockPublisher
	svc       ReconcileService
}

func newReconcileFixture(t *testing.T, guard SignalGuard) *reconcileFixture {
	t.Helper()
	store := newMemStore()
	gw := &mockGateway{method: entity.PaymentMethodStripe}
	confirmer := &mockConfirmer{}
	publisher := &mockPublisher{}
	publisher.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	cfg := utils.ReconcileConfig{
		ConfirmTimeout:    50 * time.Millisecond,
		RepairBatch:       10,
		RepairMaxAttempts: 3,
	}

	return &reconcileFixture{
		store:     store,
		gw:        gw,
		confirmer: confirmer,
		publisher: publisher,
		svc:       NewReconcileService(store.repo(), gateway.NewRegistry(gw), confirmer, publisher, guard, cfg, zap.NewNop()),
	}
}

func listRequest(includeResolved bool) *request.ListInconsistenciesRequest {
	return &request.ListInconsistenciesRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 20},
		IncludeResolved:  includeResolved,
	}
}

func signal(linkID, status string) *request.PaymentWebhookRequest {
	return &request.PaymentWebhookRequest{PaymentID: "pi_" + linkID, PaymentLinkID: linkID, Status: status}
}

func TestConfirmPayment_DuplicateDelivery(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.store.putOrder(b, entity.PaymentMethodStripe, "cs_1", entity.PaymentOrderStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil).Twice()

	first, err := f.svc.ConfirmPayment(context.Background(), signal("cs_1", "paid"))
	require.NoError(t, err)
	second, err := f.svc.ConfirmPayment(context.Background(), signal("cs_1", "paid"))
	require.NoError(t, err)

	assert.Equal(t, response.OutcomeSuccess, first.Outcome)
	assert.True(t, first.BookingConfirmed)
	assert.Equal(t, response.OutcomeAlreadyProcessed, second.Outcome)

	txns, _ := f.store.txns.FindByResourceID(context.Background(), b.ResourceID)
	assert.Len(t, txns, 1, "earnings must be counted once")
	f.publisher.AssertNumberOfCalls(t, "PublishJSON", 1)
	f.confirmer.AssertExpectations(t)
}

func TestConfirmPayment_UnknownOrder(t *testing.T) {
	f := newReconcileFixture(t, nil)

	resp, err := f.svc.ConfirmPayment(context.Background(), signal("cs_missing", "paid"))
	require.NoError(t, err)

	assert.Equal(t, response.OutcomeNotFound, resp.Outcome)
	f.confirmer.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything)
}

func TestConfirmPayment_NotCompleted(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	o := f.store.putOrder(b, entity.PaymentMethodStripe, "cs_2", entity.PaymentOrderStatusPending)

	resp, err := f.svc.ConfirmPayment(context.Background(), signal("cs_2", "unpaid"))
	require.NoError(t, err)

	assert.Equal(t, response.OutcomeRejected, resp.Outcome)
	stored, _ := f.store.orders.FindByID(context.Background(), o.ID)
	assert.Equal(t, entity.PaymentOrderStatusPending, stored.Status)
	f.confirmer.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything)
}

func TestConfirmPayment_BookingConfirmFails(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	o := f.store.putOrder(b, entity.PaymentMethodStripe, "cs_3", entity.PaymentOrderStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(errors.New("booking service down")).Once()

	resp, err := f.svc.ConfirmPayment(context.Background(), signal("cs_3", "paid"))
	require.NoError(t, err)

	assert.Equal(t, response.OutcomeSuccess, resp.Outcome)
	assert.False(t, resp.BookingConfirmed)

	stored, _ := f.store.orders.FindByID(context.Background(), o.ID)
	assert.Equal(t, entity.PaymentOrderStatusSuccess, stored.Status)

	incs := f.store.inconsistencies.snapshot()
	require.Len(t, incs, 1)
	assert.Equal(t, entity.InconsistencyBookingNotConfirmed, incs[0].Kind)
	assert.Equal(t, o.ID, incs[0].PaymentOrderID)
	f.publisher.AssertCalled(t, "PublishJSON", mock.Anything, mq.KeyInconsistency, mock.Anything)
}

func TestConfirmPayment_ClosesBookingGap(t *testing.T) {
	store := newMemStore()
	gw := &mockGateway{method: entity.PaymentMethodOmise}
	bookings := NewBookingService(store.repo(), time.UTC, zap.NewNop())
	svc := NewReconcileService(store.repo(), gateway.NewRegistry(gw), NewLocalConfirmer(bookings), nil, nil,
		utils.ReconcileConfig{ConfirmTimeout: time.Second}, zap.NewNop())

	b := store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	store.putOrder(b, entity.PaymentMethodOmise, "link_gap", entity.PaymentOrderStatusPending)

	resp, err := svc.ConfirmPayment(context.Background(), signal("link_gap", "successful"))
	require.NoError(t, err)
	assert.True(t, resp.BookingConfirmed)

	stored, _ := store.bookings.FindByID(context.Background(), b.ID)
	assert.Equal(t, entity.BookingStatusConfirmed, stored.Status)
}

func TestConfirmPayment_DuplicatePaymentRecorded(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusConfirmed)
	f.store.putOrder(b, entity.PaymentMethodStripe, "cs_first", entity.PaymentOrderStatusSuccess)
	f.store.putOrder(b, entity.PaymentMethodStripe, "cs_second", entity.PaymentOrderStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil)

	resp, err := f.svc.ConfirmPayment(context.Background(), signal("cs_second", "paid"))
	require.NoError(t, err)
	assert.Equal(t, response.OutcomeSuccess, resp.Outcome)

	incs := f.store.inconsistencies.snapshot()
	require.Len(t, incs, 1)
	assert.Equal(t, entity.InconsistencyDuplicatePayment, incs[0].Kind)
}

func TestConfirmPayment_SignalGuard(t *testing.T) {
	guard := &mockGuard{}
	f := newReconcileFixture(t, guard)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.store.putOrder(b, entity.PaymentMethodStripe, "cs_g", entity.PaymentOrderStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil).Once()

	guard.On("Acquire", mock.Anything, "cs_g:pi_cs_g:paid").Return(true, nil).Once()
	guard.On("Acquire", mock.Anything, "cs_g:pi_cs_g:paid").Return(false, nil).Once()

	first, err := f.svc.ConfirmPayment(context.Background(), signal("cs_g", "paid"))
	require.NoError(t, err)
	second, err := f.svc.ConfirmPayment(context.Background(), signal("cs_g", "paid"))
	require.NoError(t, err)

	assert.Equal(t, response.OutcomeSuccess, first.Outcome)
	assert.Equal(t, response.OutcomeAlreadyProcessed, second.Outcome)
	guard.AssertExpectations(t)
	f.confirmer.AssertExpectations(t)
}

func TestConfirmPayment_RedeliveryRetriesUnconfirmedBooking(t *testing.T) {
	guard := &mockGuard{}
	f := newReconcileFixture(t, guard)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.store.putOrder(b, entity.PaymentMethodStripe, "cs_u", entity.PaymentOrderStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(errors.New("booking service unavailable")).Once()
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil).Once()

	key := "cs_u:pi_cs_u:paid"
	guard.On("Acquire", mock.Anything, key).Return(true, nil).Twice()
	guard.On("Release", mock.Anything, key).Return(nil).Once()

	first, err := f.svc.ConfirmPayment(context.Background(), signal("cs_u", "paid"))
	require.NoError(t, err)
	assert.Equal(t, response.OutcomeSuccess, first.Outcome)
	assert.False(t, first.BookingConfirmed)

	second, err := f.svc.ConfirmPayment(context.Background(), signal("cs_u", "paid"))
	require.NoError(t, err)
	assert.Equal(t, response.OutcomeAlreadyProcessed, second.Outcome)
	assert.True(t, second.BookingConfirmed)

	guard.AssertExpectations(t)
	f.confirmer.AssertExpectations(t)
}

func TestConfirmPayment_GuardDownStillProcesses(t *testing.T) {
	guard := &mockGuard{}
	f := newReconcileFixture(t, guard)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.store.putOrder(b, entity.PaymentMethodStripe, "cs_r", entity.PaymentOrderStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil).Once()
	guard.On("Acquire", mock.Anything, mock.Anything).Return(false, errors.New("redis: connection refused"))

	resp, err := f.svc.ConfirmPayment(context.Background(), signal("cs_r", "paid"))
	require.NoError(t, err)
	assert.Equal(t, response.OutcomeSuccess, resp.Outcome)
}

func TestProceedPayment(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.store.putOrder(b, entity.PaymentMethodStripe, "cs_p", entity.PaymentOrderStatusPending)
	f.gw.On("FetchStatus", mock.Anything, "pi_9", "cs_p").Return("paid", nil).Once()
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil).Once()

	resp, err := f.svc.ProceedPayment(context.Background(), &request.ProceedPaymentRequest{PaymentID: "pi_9", PaymentLinkID: "cs_p"})
	require.NoError(t, err)
	assert.Equal(t, response.OutcomeSuccess, resp.Outcome)

	txns, _ := f.store.txns.FindByResourceID(context.Background(), b.ResourceID)
	require.Len(t, txns, 1)
	assert.Equal(t, "pi_9", txns[0].ExternalPaymentID)
	f.gw.AssertExpectations(t)
}

func TestProceedPayment_Errors(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.store.putOrder(b, entity.PaymentMethodStripe, "cs_e", entity.PaymentOrderStatusPending)
	f.gw.On("FetchStatus", mock.Anything, "pi_e", "cs_e").
		Return("", &gateway.Error{Method: entity.PaymentMethodStripe, Op: "retrieve", Err: errors.New("timeout")}).Once()

	_, err := f.svc.ProceedPayment(context.Background(), &request.ProceedPaymentRequest{PaymentID: "pi_e", PaymentLinkID: "cs_e"})
	assert.ErrorIs(t, err, gateway.ErrGateway)

	_, err = f.svc.ProceedPayment(context.Background(), &request.ProceedPaymentRequest{PaymentID: "pi_x", PaymentLinkID: "cs_unknown"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func payAtSalon(b *entity.Booking, amount string) *request.PayAtSalonRequest {
	return &request.PayAtSalonRequest{
		BookingID:  b.ID.String(),
		Amount:     mustDecimal(amount),
		ResourceID: b.ResourceID.String(),
		PayerID:    b.CustomerID.String(),
	}
}

func TestPayAtSalon_ConfirmsBooking(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil).Once()

	resp, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "399"))
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentOrderStatusPendingSalonPayment, resp.Status)
	require.NotNil(t, resp.PaymentLinkID)
	assert.Equal(t, entity.PayAtSalonRef(b.ID), *resp.PaymentLinkID)
	assert.Empty(t, f.store.inconsistencies.snapshot())
	f.confirmer.AssertExpectations(t)
}

func TestPayAtSalon_ConfirmFailureStillSucceeds(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(errors.New("503 from booking service")).Once()

	resp, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "399"))
	require.NoError(t, err, "payment side is durable, the caller sees success")

	order, _ := f.store.orders.FindByLinkID(context.Background(), entity.PayAtSalonRef(b.ID))
	require.NotNil(t, order, "order must not be rolled back")
	assert.Equal(t, resp.ID, order.ID.String())

	incs := f.store.inconsistencies.snapshot()
	require.Len(t, incs, 1)
	assert.Equal(t, entity.InconsistencyBookingNotConfirmed, incs[0].Kind)
	assert.Contains(t, incs[0].Reason, "503")
}

func TestPayAtSalon_ConfirmTimeout(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded).Once()

	start := time.Now()
	_, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "399"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, f.store.inconsistencies.snapshot(), 1)
}

func TestPayAtSalon_Replay(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil).Twice()

	first, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "399"))
	require.NoError(t, err)
	second, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "399"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.store.orders.count())
}

func TestPayAtSalon_Rejections(t *testing.T) {
	f := newReconcileFixture(t, nil)

	t.Run("unknown booking", func(t *testing.T) {
		b := &entity.Booking{Base: entity.Base{ID: uuid.New()}, ResourceID: uuid.New(), CustomerID: uuid.New()}
		_, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "100"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("non positive amount", func(t *testing.T) {
		b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
		_, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "0"))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("salon mismatch", func(t *testing.T) {
		b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
		req := payAtSalon(b, "399")
		req.ResourceID = uuid.NewString()
		_, err := f.svc.PayAtSalon(context.Background(), req)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("already paid online", func(t *testing.T) {
		b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusConfirmed)
		f.store.putOrder(b, entity.PaymentMethodStripe, "cs_done", entity.PaymentOrderStatusSuccess)
		_, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "399"))
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	f.confirmer.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything)
}

func TestRepairPending(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(errors.New("down")).Twice()
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(nil).Once()

	_, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "399"))
	require.NoError(t, err)

	repaired, err := f.svc.RepairPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)

	repaired, err = f.svc.RepairPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	incs := f.store.inconsistencies.snapshot()
	require.Len(t, incs, 1)
	assert.True(t, incs[0].Resolved())
	assert.Equal(t, 2, incs[0].Attempts)

	open, err := f.svc.ListInconsistencies(context.Background(), listRequest(false))
	require.NoError(t, err)
	assert.Empty(t, open.Data)
	assert.Zero(t, open.Pagination.Total)

	all, err := f.svc.ListInconsistencies(context.Background(), listRequest(true))
	require.NoError(t, err)
	assert.Len(t, all.Data, 1)
	assert.Equal(t, int64(1), all.Pagination.Total)
	assert.Equal(t, 1, all.Pagination.TotalPages)
}

func TestRepairPending_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newReconcileFixture(t, nil)
	b := f.store.putBooking(uuid.New(), at(10, 0), time.Hour, "399", entity.BookingStatusPending)
	f.confirmer.On("ConfirmBooking", mock.Anything, b.ID).Return(errors.New("booking cancelled"))

	_, err := f.svc.PayAtSalon(context.Background(), payAtSalon(b, "399"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := f.svc.RepairPending(context.Background())
		require.NoError(t, err)
	}

	// one call from PayAtSalon, then three repair attempts
	f.confirmer.AssertNumberOfCalls(t, "ConfirmBooking", 4)
}

func TestRunRepairLoop_StopsOnCancel(t *testing.T) {
	f := newReconcileFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.RunRepairLoop(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("repair loop did not stop on context cancel")
	}
}

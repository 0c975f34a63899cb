package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// In-memory repositories with the same contracts as the pgx ones. One
// mutex per store stands in for the per-resource advisory lock.

type memBookings struct {
	mu    sync.Mutex
	items map[uuid.UUID]entity.Booking
}

func (m *memBookings) CreateAdmitted(_ context.Context, b *entity.Booking, admit repository.AdmitFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var existing []*entity.Booking
	for _, cur := range m.items {
		cur := cur
		if cur.ResourceID == b.ResourceID && cur.Status.Active() && cur.Overlaps(b.StartTime, b.EndTime) {
			existing = append(existing, &cur)
		}
	}
	if err := admit(existing); err != nil {
		return err
	}
	m.items[b.ID] = *b
	return nil
}

func (m *memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memBookings) filter(keep func(entity.Booking) bool) []*entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Booking
	for _, b := range m.items {
		b := b
		if keep(b) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (m *memBookings) FindByCustomerID(_ context.Context, id uuid.UUID) ([]*entity.Booking, error) {
	return m.filter(func(b entity.Booking) bool { return b.CustomerID == id }), nil
}

func (m *memBookings) FindByResourceID(_ context.Context, id uuid.UUID) ([]*entity.Booking, error) {
	return m.filter(func(b entity.Booking) bool { return b.ResourceID == id }), nil
}

func (m *memBookings) FindActiveByResourceBetween(_ context.Context, id uuid.UUID, from, to time.Time) ([]*entity.Booking, error) {
	return m.filter(func(b entity.Booking) bool {
		return b.ResourceID == id && b.Status.Active() && b.Overlaps(from, to)
	}), nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id uuid.UUID, from, to entity.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	m.items[id] = b
	return true, nil
}

type memOrders struct {
	mu     sync.Mutex
	items  map[uuid.UUID]entity.PaymentOrder
	txns   *memTransactions
	setErr error
}

func (m *memOrders) Create(_ context.Context, o *entity.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.PaymentLinkID != nil {
		for _, cur := range m.items {
			if cur.PaymentLinkID != nil && *cur.PaymentLinkID == *o.PaymentLinkID {
				return repository.ErrDuplicateRef
			}
		}
	}
	m.items[o.ID] = *o
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (*entity.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memOrders) FindByLinkID(_ context.Context, linkID string) (*entity.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.items {
		if o.PaymentLinkID != nil && *o.PaymentLinkID == linkID {
			return &o, nil
		}
	}
	return nil, nil
}

func (m *memOrders) filter(keep func(entity.PaymentOrder) bool) []*entity.PaymentOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.PaymentOrder
	for _, o := range m.items {
		o := o
		if keep(o) {
			out = append(out, &o)
		}
	}
	return out
}

func (m *memOrders) FindByBookingID(_ context.Context, id uuid.UUID) ([]*entity.PaymentOrder, error) {
	return m.filter(func(o entity.PaymentOrder) bool { return o.BookingID == id }), nil
}

func (m *memOrders) FindByResourceID(_ context.Context, id uuid.UUID) ([]*entity.PaymentOrder, error) {
	return m.filter(func(o entity.PaymentOrder) bool { return o.ResourceID == id }), nil
}

func (m *memOrders) SetLinkID(_ context.Context, id uuid.UUID, linkID string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.items[id]
	o.PaymentLinkID = &linkID
	m.items[id] = o
	return nil
}

func (m *memOrders) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.items[id]; ok && o.Status == entity.PaymentOrderStatusPending {
		delete(m.items, id)
	}
	return nil
}

func (m *memOrders) MarkSucceeded(_ context.Context, id uuid.UUID, txn *entity.Transaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok || o.Status != entity.PaymentOrderStatusPending {
		return false, nil
	}
	o.Status = entity.PaymentOrderStatusSuccess
	m.items[id] = o
	m.txns.add(*txn)
	return true, nil
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memTransactions struct {
	mu    sync.Mutex
	items []entity.Transaction
}

func (m *memTransactions) add(t entity.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, t)
}

func (m *memTransactions) FindByResourceID(_ context.Context, id uuid.UUID) ([]*entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Transaction
	for _, t := range m.items {
		t := t
		if t.ResourceID == id {
			out = append(out, &t)
		}
	}
	return out, nil
}

type memInconsistencies struct {
	mu    sync.Mutex
	items []*entity.Inconsistency
}

func (m *memInconsistencies) Create(_ context.Context, inc *entity.Inconsistency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inc
	m.items = append(m.items, &cp)
	return nil
}

func (m *memInconsistencies) FindOpen(_ context.Context, kind entity.InconsistencyKind, limit, maxAttempts int) ([]*entity.Inconsistency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Inconsistency
	for _, inc := range m.items {
		if !inc.Resolved() && inc.Kind == kind && inc.Attempts < maxAttempts && len(out) < limit {
			cp := *inc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memInconsistencies) List(_ context.Context, includeResolved bool, limit, offset int) ([]*entity.Inconsistency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Inconsistency
	for _, inc := range m.items {
		if includeResolved || !inc.Resolved() {
			cp := *inc
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memInconsistencies) Count(_ context.Context, includeResolved bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, inc := range m.items {
		if includeResolved || !inc.Resolved() {
			total++
		}
	}
	return total, nil
}

func (m *memInconsistencies) RecordAttempt(_ context.Context, id uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inc := range m.items {
		if inc.ID == id {
			inc.Attempts++
			inc.Reason = reason
		}
	}
	return nil
}

func (m *memInconsistencies) Resolve(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, inc := range m.items {
		if inc.ID == id && inc.ResolvedAt == nil {
			inc.Attempts++
			inc.ResolvedAt = &now
		}
	}
	return nil
}

func (m *memInconsistencies) snapshot() []entity.Inconsistency {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Inconsistency, len(m.items))
	for i, inc := range m.items {
		out[i] = *inc
	}
	return out
}

type memCatalog struct {
	resources map[uuid.UUID]*entity.Resource
	services  map[uuid.UUID]*entity.ServiceOffering
}

func (m *memCatalog) FindResource(_ context.Context, id uuid.UUID) (*entity.Resource, error) {
	return m.resources[id], nil
}

func (m *memCatalog) FindServices(_ context.Context, resourceID uuid.UUID, ids []uuid.UUID) ([]*entity.ServiceOffering, error) {
	var out []*entity.ServiceOffering
	for _, id := range ids {
		if svc, ok := m.services[id]; ok && svc.ResourceID == resourceID {
			out = append(out, svc)
		}
	}
	return out, nil
}

type memStore struct {
	bookings        *memBookings
	orders          *memOrders
	txns            *memTransactions
	inconsistencies *memInconsistencies
	catalog         *memCatalog
}

func newMemStore() *memStore {
	txns := &memTransactions{}
	return &memStore{
		bookings:        &memBookings{items: map[uuid.UUID]entity.Booking{}},
		orders:          &memOrders{items: map[uuid.UUID]entity.PaymentOrder{}, txns: txns},
		txns:            txns,
		inconsistencies: &memInconsistencies{},
		catalog: &memCatalog{
			resources: map[uuid.UUID]*entity.Resource{},
			services:  map[uuid.UUID]*entity.ServiceOffering{},
		},
	}
}

func (m *memStore) repo() *repository.Repository {
	return &repository.Repository{
		Catalog:       m.catalog,
		Booking:       m.bookings,
		PaymentOrder:  m.orders,
		Transaction:   m.txns,
		Inconsistency: m.inconsistencies,
	}
}

// putBooking stores a booking directly, bypassing admission.
func (m *memStore) putBooking(resourceID uuid.UUID, start time.Time, d time.Duration, price string, status entity.BookingStatus) *entity.Booking {
	b := entity.Booking{
		Base:       entity.Base{ID: uuid.New(), CreatedAt: start, UpdatedAt: start},
		ResourceID: resourceID,
		CustomerID: uuid.New(),
		StartTime:  start,
		EndTime:    start.Add(d),
		TotalPrice: mustDecimal(price),
		Status:     status,
	}
	m.bookings.mu.Lock()
	m.bookings.items[b.ID] = b
	m.bookings.mu.Unlock()
	return &b
}

func (m *memStore) putOrder(b *entity.Booking, method entity.PaymentMethod, linkID string, status entity.PaymentOrderStatus) *entity.PaymentOrder {
	o := entity.PaymentOrder{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Amount:        b.TotalPrice,
		Method:        method,
		PaymentLinkID: &linkID,
		BookingID:     b.ID,
		ResourceID:    b.ResourceID,
		PayerID:       b.CustomerID,
		Status:        status,
	}
	m.orders.mu.Lock()
	m.orders.items[o.ID] = o
	m.orders.mu.Unlock()
	return &o
}

type mockGateway struct {
	mock.Mock
	method entity.PaymentMethod
}

func (m *mockGateway) Method() entity.PaymentMethod { return m.method }

func (m *mockGateway) CreateLink(ctx context.Context, req gateway.LinkRequest) (*gateway.Link, error) {
	args := m.Called(ctx, req)
	link, _ := args.Get(0).(*gateway.Link)
	return link, args.Error(1)
}

func (m *mockGateway) IsCompleted(status string) bool {
	return status == "paid" || status == "successful"
}

func (m *mockGateway) FetchStatus(ctx context.Context, paymentID, linkID string) (string, error) {
	args := m.Called(ctx, paymentID, linkID)
	return args.String(0), args.Error(1)
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) error {
	return m.Called(ctx, bookingID).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	return m.Called(ctx, key, v).Error(0)
}

type mockGuard struct {
	mock.Mock
}

func (m *mockGuard) Acquire(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockGuard) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

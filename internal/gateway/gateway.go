// Package gateway abstracts the third-party payment-link providers. Each
// provider is one Gateway selected by the order's payment method.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"salon-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrGateway           = errors.New("payment gateway failure")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
)

// Error carries the provider and operation of a failed gateway call. It
// matches ErrGateway under errors.Is.
type Error struct {
	Method entity.PaymentMethod
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrGateway }

type Payer struct {
	ID    uuid.UUID
	Name  string
	Email string
}

type LinkRequest struct {
	OrderID     uuid.UUID
	BookingID   uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Description string
	Payer       Payer
	SuccessURL  string
	CancelURL   string
}

// Link is the redirect target handed to the payer. ID is the external
// reference later echoed back by the completion signal.
type Link struct {
	ID  string
	URL string
}

type Gateway interface {
	Method() entity.PaymentMethod
	CreateLink(ctx context.Context, req LinkRequest) (*Link, error)
	// IsCompleted reports whether a provider status string means the money
	// has been collected.
	IsCompleted(status string) bool
	// FetchStatus asks the provider for the authoritative status of a
	// payment. Either id may be empty when the provider does not need it.
	FetchStatus(ctx context.Context, paymentID, linkID string) (string, error)
}

type Registry struct {
	gateways map[entity.PaymentMethod]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[entity.PaymentMethod]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Method()] = g
	}
	return r
}

func (r *Registry) Get(method entity.PaymentMethod) (Gateway, error) {
	g, ok := r.gateways[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	return g, nil
}

func (r *Registry) Methods() []entity.PaymentMethod {
	methods := make([]entity.PaymentMethod, 0, len(r.gateways))
	for m := range r.gateways {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// MinorUnits converts an amount to the smallest currency unit, rounding
// half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func statusIn(status string, completed ...string) bool {
	status = strings.ToLower(strings.TrimSpace(status))
	for _, c := range completed {
		if status == c {
			return true
		}
	}
	return false
}

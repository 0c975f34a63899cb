package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/dto/request"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingConfirmer moves a booking to confirmed on behalf of the payment
// side. Implementations must be idempotent.
type BookingConfirmer interface {
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID) error
}

type localConfirmer struct {
	bookings BookingService
}

// NewLocalConfirmer confirms through the in-process booking ledger.
func NewLocalConfirmer(bookings BookingService) BookingConfirmer {
	return &localConfirmer{bookings: bookings}
}

func (c *localConfirmer) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) error {
	_, err := c.bookings.UpdateStatus(ctx, &request.UpdateBookingStatusRequest{
		BookingID: bookingID.String(),
		Status:    string(entity.BookingStatusConfirmed),
	})
	return err
}

type httpConfirmer struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPConfirmer confirms through a remote booking service's status
// endpoint. Deadlines come from the caller's context.
func NewHTTPConfirmer(baseURL string, client *http.Client, log *zap.Logger) BookingConfirmer {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpConfirmer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log.With(zap.String("confirmer", "http")),
	}
}

func (c *httpConfirmer) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) error {
	endpoint := fmt.Sprintf("%s/api/bookings/%s/status?status=%s",
		c.baseURL, url.PathEscape(bookingID.String()), entity.BookingStatusConfirmed)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build confirm request for booking %s: %w", bookingID, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("Booking confirm call failed",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("confirm booking %s: %w", bookingID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.log.Warn("Booking service rejected confirm",
		zap.Int("status_code", resp.StatusCode),
		zap.String("booking_id", bookingID.String()),
		zap.ByteString("body", body),
	)
	return fmt.Errorf("confirm booking %s: booking service returned %d", bookingID, resp.StatusCode)
}

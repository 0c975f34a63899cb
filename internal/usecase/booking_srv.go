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
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// status CAS retries before giving up with ErrStatusConflict
const maxStatusAttempts = 3

type BookingService interface {
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	GetCustomerBookings(ctx context.Context, customerID string) ([]response.BookingResponse, error)
	GetResourceBookings(ctx context.Context, resourceID string) ([]response.BookingResponse, error)

	// UpdateStatus is idempotent: asking for the current status succeeds
	// without writing.
	UpdateStatus(ctx context.Context, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)
	GetOccupiedSlots(ctx context.Context, req *request.OccupiedSlotsRequest) ([]response.SlotResponse, error)
}

type bookingService struct {
	repo *repository.Repository
	loc  *time.Location
	now  func() time.Time
	log  *zap.Logger
}

func NewBookingService(repo *repository.Repository, loc *time.Location, log *zap.Logger) BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &bookingService{
		repo: repo,
		loc:  loc,
		now:  time.Now,
		log:  log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Create booking validation failed", zap.Error(err))
		return nil, err
	}

	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, invalidField("resource_id", "Must be a valid UUID")
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, invalidField("customer_id", "Must be a valid UUID")
	}
	serviceIDs := make([]uuid.UUID, len(req.ServiceIDs))
	for i, raw := range req.ServiceIDs {
		if serviceIDs[i], err = uuid.Parse(raw); err != nil {
			return nil, invalidField("service_ids", "Must be a valid UUID")
		}
	}

	resource, err := s.repo.Catalog.FindResource(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("find salon %s: %w", resourceID, err)
	}
	if resource == nil {
		return nil, notFound("salon", resourceID.String())
	}

	offerings, err := s.repo.Catalog.FindServices(ctx, resourceID, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("find services for salon %s: %w", resourceID, err)
	}
	if missing := missingServices(serviceIDs, offerings); len(missing) > 0 {
		return nil, notFound("service", missing[0].String())
	}

	var (
		duration time.Duration
		total    = decimal.Zero
	)
	for _, o := range offerings {
		duration += o.Duration
		total = total.Add(o.Price)
	}

	start := req.StartTime.In(s.loc)
	end := start.Add(duration)

	now := s.now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ResourceID: resourceID,
		CustomerID: customerID,
		ServiceIDs: serviceIDs,
		StartTime:  start,
		EndTime:    end,
		TotalPrice: total,
		Status:     entity.BookingStatusPending,
	}

	err = s.repo.Booking.CreateAdmitted(ctx, booking, func(existing []*entity.Booking) error {
		return CheckAdmission(resource, start, end, existing)
	})
	if err != nil {
		if errors.Is(err, ErrAdmissionRejected) {
			s.log.Warn("Booking rejected",
				zap.Error(err),
				zap.String("resource_id", resourceID.String()),
				zap.Time("start", start),
				zap.Time("end", end),
			)
			return nil, err
		}
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("resource_id", resourceID.String()),
			zap.String("customer_id", customerID.String()),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("resource_id", resourceID.String()),
		zap.Time("start", start),
		zap.Duration("duration", duration),
		zap.String("total_price", total.String()),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func missingServices(requested []uuid.UUID, found []*entity.ServiceOffering) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(found))
	for _, o := range found {
		seen[o.ID] = true
	}
	var missing []uuid.UUID
	for _, id := range requested {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, invalidField("booking_id", "Must be a valid UUID")
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, notFound("booking", bookingID)
	}
	return booking, nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetCustomerBookings(ctx context.Context, customerID string) ([]response.BookingResponse, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, invalidField("customer_id", "Must be a valid UUID")
	}

	bookings, err := s.repo.Booking.FindByCustomerID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer bookings: %w", err)
	}
	return response.BookingsToResponse(bookings), nil
}

func (s *bookingService) GetResourceBookings(ctx context.Context, resourceID string) ([]response.BookingResponse, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, invalidField("resource_id", "Must be a valid UUID")
	}

	bookings, err := s.repo.Booking.FindByResourceID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get salon bookings: %w", err)
	}
	return response.BookingsToResponse(bookings), nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	target := entity.BookingStatus(req.Status)

	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		booking, err := s.findBooking(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}

		if booking.Status == target {
			resp := response.BookingToResponse(booking)
			return &resp, nil
		}
		if !booking.Status.CanTransitionTo(target) {
			s.log.Warn("Rejected booking status transition",
				zap.String("booking_id", booking.ID.String()),
				zap.String("from", string(booking.Status)),
				zap.String("to", string(target)),
			)
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
		}

		ok, err := s.repo.Booking.UpdateStatus(ctx, booking.ID, booking.Status, target)
		if err != nil {
			return nil, fmt.Errorf("update booking %s status: %w", booking.ID, err)
		}
		if ok {
			s.log.Info("Booking status updated",
				zap.String("booking_id", booking.ID.String()),
				zap.String("from", string(booking.Status)),
				zap.String("to", string(target)),
			)
			booking.Status = target
			booking.UpdatedAt = s.now()
			resp := response.BookingToResponse(booking)
			return &resp, nil
		}
		// lost the race; re-read and re-evaluate against the new status
	}

	return nil, fmt.Errorf("update booking %s status: %w", req.BookingID, ErrStatusConflict)
}

func (s *bookingService) GetOccupiedSlots(ctx context.Context, req *request.OccupiedSlotsRequest) ([]response.SlotResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, invalidField("resource_id", "Must be a valid UUID")
	}
	date, err := utils.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, invalidField("date", "Must match layout "+utils.DateLayout)
	}

	bookings, err := s.repo.Booking.FindActiveByResourceBetween(ctx, resourceID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("get occupied slots: %w", err)
	}

	windows := OccupiedWindows(bookings, date)
	slots := make([]response.SlotResponse, len(windows))
	for i, w := range windows {
		slots[i] = response.SlotResponse{Start: w[0], End: w[1]}
	}
	return slots, nil
}

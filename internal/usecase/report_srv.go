package usecase

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/response"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ReportService interface {
	BuildReport(ctx context.Context, resourceID string) (*response.ReportResponse, error)
}

type reportService struct {
	catalog  repository.CatalogRepository
	bookings repository.BookingRepository
	log      *zap.Logger
}

func NewReportService(catalog repository.CatalogRepository, bookings repository.BookingRepository, log *zap.Logger) ReportService {
	return &reportService{
		catalog:  catalog,
		bookings: bookings,
		log:      log.With(zap.String("service", "report")),
	}
}

// BuildReport folds over one read of the salon's bookings, so it sees a
// single snapshot even while writers are active.
func (s *reportService) BuildReport(ctx context.Context, resourceID string) (*response.ReportResponse, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, invalidField("resource_id", "Must be a valid UUID")
	}

	resource, err := s.catalog.FindResource(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find salon %s: %w", resourceID, err)
	}
	if resource == nil {
		return nil, notFound("salon", resourceID)
	}

	bookings, err := s.bookings.FindByResourceID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load bookings for report",
			zap.Error(err),
			zap.String("resource_id", resourceID),
		)
		return nil, fmt.Errorf("build report for salon %s: %w", resourceID, err)
	}

	report := FoldReport(bookings)
	report.ResourceID = id.String()
	report.ResourceName = resource.Name
	return &report, nil
}

// FoldReport: earnings count pending and confirmed bookings, refunds count
// cancelled ones.
func FoldReport(bookings []*entity.Booking) response.ReportResponse {
	report := response.ReportResponse{
		TotalEarnings: decimal.Zero,
		TotalRefund:   decimal.Zero,
	}

	for _, b := range bookings {
		report.TotalBookings++
		switch b.Status {
		case entity.BookingStatusPending, entity.BookingStatusConfirmed:
			report.TotalEarnings = report.TotalEarnings.Add(b.TotalPrice)
		case entity.BookingStatusCancelled:
			report.CancelBookings++
			report.TotalRefund = report.TotalRefund.Add(b.TotalPrice)
		}
	}

	return report
}

package usecase

import (
	"time"

	"salon-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// at returns 2026-03-10 hh:mm UTC.
func at(hh, mm int) time.Time {
	return time.Date(2026, time.March, 10, hh, mm, 0, 0, time.UTC)
}

func testSalon() *entity.Resource {
	return &entity.Resource{
		ID:        uuid.New(),
		Name:      "Studio One",
		OpenTime:  9 * time.Hour,
		CloseTime: 21 * time.Hour,
	}
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resource is the bookable salon as seen by this service. It is owned by
// the catalog and only read here.
type Resource struct {
	ID        uuid.UUID     `db:"id"`
	Name      string        `db:"name"`
	OpenTime  time.Duration `db:"open_time"`  // offset from midnight
	CloseTime time.Duration `db:"close_time"` // offset from midnight
}

// WorkingHours returns the [open, close) window for the calendar day of t,
// in t's location. Bounds are wall-clock times, so a DST change on that day
// does not move them.
func (r *Resource) WorkingHours(t time.Time) (time.Time, time.Time) {
	return wallClock(t, r.OpenTime), wallClock(t, r.CloseTime)
}

func wallClock(day time.Time, offset time.Duration) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		int(offset/time.Hour), int(offset%time.Hour/time.Minute), int(offset%time.Minute/time.Second),
		0, day.Location())
}

type ServiceOffering struct {
	ID         uuid.UUID       `db:"id"`
	ResourceID uuid.UUID       `db:"resource_id"`
	Name       string          `db:"name"`
	Duration   time.Duration   `db:"duration_minutes"`
	Price      decimal.Decimal `db:"price"`
}

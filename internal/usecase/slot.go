package usecase

import (
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
)

// CheckAdmission decides whether [start, end) may be booked on resource
// given the bookings already held on it. Inactive bookings are ignored.
// It has no side effects.
func CheckAdmission(resource *entity.Resource, start, end time.Time, existing []*entity.Booking) error {
	if !start.Before(end) {
		return &AdmissionError{
			Reason: ReasonInvalidWindow,
			Detail: "end time must be after start time",
		}
	}

	open, closing := resource.WorkingHours(start)
	if start.Before(open) || end.After(closing) {
		return &AdmissionError{
			Reason: ReasonOutsideWorkingHours,
			Detail: fmt.Sprintf("booking %s-%s is outside working hours %s-%s",
				start.Format("15:04"), end.Format("15:04"), open.Format("15:04"), closing.Format("15:04")),
		}
	}

	for _, b := range existing {
		if b.ResourceID != resource.ID || !b.Status.Active() {
			continue
		}
		if b.Overlaps(start, end) {
			return &AdmissionError{
				Reason: ReasonOverlap,
				Detail: fmt.Sprintf("overlaps booking %s (%s-%s)",
					b.ID, b.StartTime.Format("15:04"), b.EndTime.Format("15:04")),
			}
		}
	}

	return nil
}

// OccupiedWindows returns the [start, end) windows of active bookings that
// intersect the calendar day of date, in date's location.
func OccupiedWindows(bookings []*entity.Booking, date time.Time) [][2]time.Time {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var windows [][2]time.Time
	for _, b := range bookings {
		if b.Status.Active() && b.Overlaps(dayStart, dayEnd) {
			windows = append(windows, [2]time.Time{b.StartTime.In(date.Location()), b.EndTime.In(date.Location())})
		}
	}
	return windows
}

package usecase

import (
	"testing"
	"time"
	_ "time/tzdata"

	"salon-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func held(resourceID uuid.UUID, start, end time.Time, status entity.BookingStatus) *entity.Booking {
	return &entity.Booking{
		Base:       entity.Base{ID: uuid.New()},
		ResourceID: resourceID,
		StartTime:  start,
		EndTime:    end,
		Status:     status,
	}
}

func TestCheckAdmission(t *testing.T) {
	salon := testSalon()
	existing := []*entity.Booking{
		held(salon.ID, at(10, 0), at(10, 45), entity.BookingStatusConfirmed),
	}

	tests := []struct {
		name       string
		start, end time.Time
		existing   []*entity.Booking
		reason     AdmissionReason
	}{
		{name: "adjacent after existing is free", start: at(10, 45), end: at(11, 30), existing: existing},
		{name: "adjacent before existing is free", start: at(9, 15), end: at(10, 0), existing: existing},
		{name: "overlap with confirmed", start: at(10, 30), end: at(11, 0), existing: existing, reason: ReasonOverlap},
		{name: "contained in existing", start: at(10, 10), end: at(10, 20), existing: existing, reason: ReasonOverlap},
		{name: "covers existing", start: at(9, 30), end: at(11, 0), existing: existing, reason: ReasonOverlap},
		{name: "ends after closing", start: at(20, 45), end: at(21, 30), reason: ReasonOutsideWorkingHours},
		{name: "starts before opening", start: at(8, 30), end: at(9, 15), reason: ReasonOutsideWorkingHours},
		{name: "fills last slot exactly", start: at(20, 15), end: at(21, 0)},
		{name: "starts at opening", start: at(9, 0), end: at(9, 30)},
		{name: "empty window", start: at(12, 0), end: at(12, 0), reason: ReasonInvalidWindow},
		{
			name:     "cancelled booking frees its slot",
			start:    at(10, 0),
			end:      at(10, 45),
			existing: []*entity.Booking{held(salon.ID, at(10, 0), at(10, 45), entity.BookingStatusCancelled)},
		},
		{
			name:     "pending booking holds its slot",
			start:    at(10, 0),
			end:      at(10, 45),
			existing: []*entity.Booking{held(salon.ID, at(10, 0), at(10, 45), entity.BookingStatusPending)},
			reason:   ReasonOverlap,
		},
		{
			name:     "other salon does not conflict",
			start:    at(10, 0),
			end:      at(10, 45),
			existing: []*entity.Booking{held(uuid.New(), at(10, 0), at(10, 45), entity.BookingStatusConfirmed)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAdmission(salon, tt.start, tt.end, tt.existing)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAdmissionRejected)
			var admErr *AdmissionError
			require.ErrorAs(t, err, &admErr)
			assert.Equal(t, tt.reason, admErr.Reason)
		})
	}
}

func TestCheckAdmission_UsesStartDay(t *testing.T) {
	salon := testSalon()
	nextDay := at(10, 0).AddDate(0, 0, 1)

	assert.NoError(t, CheckAdmission(salon, nextDay, nextDay.Add(30*time.Minute), nil))
}

func TestCheckAdmission_DSTTransitionDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	salon := testSalon()

	// clocks jump from 02:00 to 03:00 on 2026-03-08
	springForward := func(hh, mm int) time.Time {
		return time.Date(2026, time.March, 8, hh, mm, 0, 0, ny)
	}

	open, closing := salon.WorkingHours(springForward(12, 0))
	assert.Equal(t, 9, open.Hour())
	assert.Equal(t, 21, closing.Hour())

	assert.NoError(t, CheckAdmission(salon, springForward(9, 0), springForward(9, 45), nil))

	err = CheckAdmission(salon, springForward(21, 0), springForward(22, 0), nil)
	var admErr *AdmissionError
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, ReasonOutsideWorkingHours, admErr.Reason)

	// and back from 02:00 to 01:00 on 2026-11-01
	fallBack := func(hh, mm int) time.Time {
		return time.Date(2026, time.November, 1, hh, mm, 0, 0, ny)
	}
	assert.NoError(t, CheckAdmission(salon, fallBack(20, 15), fallBack(21, 0), nil))
	assert.Error(t, CheckAdmission(salon, fallBack(8, 0), fallBack(9, 0), nil))
}

func TestOccupiedWindows(t *testing.T) {
	salonID := uuid.New()
	bookings := []*entity.Booking{
		held(salonID, at(10, 0), at(10, 45), entity.BookingStatusConfirmed),
		held(salonID, at(12, 0), at(12, 30), entity.BookingStatusCancelled),
		held(salonID, at(14, 0), at(15, 0), entity.BookingStatusPending),
		held(salonID, at(10, 0).AddDate(0, 0, 1), at(11, 0).AddDate(0, 0, 1), entity.BookingStatusConfirmed),
	}

	windows := OccupiedWindows(bookings, at(0, 0))

	require.Len(t, windows, 2)
	assert.Equal(t, [2]time.Time{at(10, 0), at(10, 45)}, windows[0])
	assert.Equal(t, [2]time.Time{at(14, 0), at(15, 0)}, windows[1])
}

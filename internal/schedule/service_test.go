package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusbook/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	bookings []Booking
	err      error
	from, to time.Time
}

func (s *stubSource) Bookings(_ context.Context, resourceKey string, from, to time.Time) ([]Booking, error) {
	s.from, s.to = from, to
	if s.err != nil {
		return nil, s.err
	}
	var out []Booking
	for _, b := range s.bookings {
		if b.ResourceKey == resourceKey {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestServiceCheckConflictsDefaultsDuration(t *testing.T) {
	src := &stubSource{bookings: []Booking{hallBooking(t, "b1", "2025-01-10", "14:00", 2)}}
	svc := NewService(NewDetector(nil), src, time.UTC, nil)

	result, err := svc.CheckConflicts(context.Background(), CheckConflictsRequest{
		Date:        "2025-01-10",
		Time:        "15:00",
		ResourceKey: "Hall A",
	})
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, 1.0, result.Conflicts[0].OverlapHours)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), src.from)
}

func TestServiceCheckConflictsValidatesRequest(t *testing.T) {
	svc := NewService(NewDetector(nil), &stubSource{}, time.UTC, nil)
	tooLong := 30.0

	_, err := svc.CheckConflicts(context.Background(), CheckConflictsRequest{
		Date:          "2025-01-10",
		Time:          "15:00",
		DurationHours: &tooLong,
		ResourceKey:   "Hall A",
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)

	_, err = svc.CheckConflicts(context.Background(), CheckConflictsRequest{Date: "2025-01-10", Time: "15:00"})
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}

func TestServiceCheckWrapsSourceError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(NewDetector(nil), &stubSource{err: boom}, time.UTC, nil)

	_, err := svc.Check(context.Background(), ConflictQuery{
		Window:      mustWindow(t, "2025-01-10", "15:00", 2),
		ResourceKey: "Hall A",
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestMultiSourceConcatenates(t *testing.T) {
	venue := &stubSource{bookings: []Booking{hallBooking(t, "event", "2025-01-10", "14:00", 2)}}
	gear := &stubSource{bookings: []Booking{hallBooking(t, "assignment", "2025-01-10", "18:00", 1)}}

	all, err := MultiSource{venue, gear}.Bookings(context.Background(), "Hall A", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

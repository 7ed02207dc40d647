package resources

import (
	"context"
	"time"

	"campusbook/internal/schedule"
)

type assignmentSource struct {
	repo Repository
}

// NewBookingSource exposes pending and approved assignments as resource bookings.
func NewBookingSource(repo Repository) schedule.BookingSource {
	return &assignmentSource{repo: repo}
}

func (s *assignmentSource) Bookings(ctx context.Context, resourceID string, from, to time.Time) ([]schedule.Booking, error) {
	assignments, err := s.repo.ListHolding(ctx, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	return bookingsOf(assignments), nil
}

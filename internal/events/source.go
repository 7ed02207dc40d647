package events

import (
	"context"
	"time"

	"campusbook/internal/schedule"
)

type venueSource struct {
	repo Repository
}

// NewBookingSource exposes pending and approved events as venue bookings.
func NewBookingSource(repo Repository) schedule.BookingSource {
	return &venueSource{repo: repo}
}

func (s *venueSource) Bookings(ctx context.Context, venue string, from, to time.Time) ([]schedule.Booking, error) {
	events, err := s.repo.ListByVenue(ctx, venue, from, to)
	if err != nil {
		return nil, err
	}
	bookings := make([]schedule.Booking, 0, len(events))
	for i := range events {
		bookings = append(bookings, events[i].Booking())
	}
	return bookings, nil
}

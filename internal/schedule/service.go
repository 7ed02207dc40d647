package schedule

import (
	"context"
	"fmt"
	"time"

	"campusbook/pkg/logger"
	"campusbook/pkg/validator"
)

// BookingSource supplies the current bookings of a resource. Implemented by the event store
// (venue bookings) and the resource assignment ledger.
type BookingSource interface {
	Bookings(ctx context.Context, resourceKey string, from, to time.Time) ([]Booking, error)
}

// MultiSource concatenates the bookings of several sources.
type MultiSource []BookingSource

func (m MultiSource) Bookings(ctx context.Context, resourceKey string, from, to time.Time) ([]Booking, error) {
	var all []Booking
	for _, src := range m {
		bookings, err := src.Bookings(ctx, resourceKey, from, to)
		if err != nil {
			return nil, err
		}
		all = append(all, bookings...)
	}
	return all, nil
}

// Service answers conflict queries against the live booking set.
type Service interface {
	CheckConflicts(ctx context.Context, req CheckConflictsRequest) (*ConflictResult, error)
	Check(ctx context.Context, query ConflictQuery) (*ConflictResult, error)
}

type service struct {
	detector *Detector
	source   BookingSource
	location *time.Location
	log      *logger.Logger
}

func NewService(detector *Detector, source BookingSource, location *time.Location, log *logger.Logger) Service {
	if location == nil {
		location = time.UTC
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		detector: detector,
		source:   source,
		location: location,
		log:      log,
	}
}

// CheckConflicts builds the window from venue-local date and time, then runs Check.
func (s *service) CheckConflicts(ctx context.Context, req CheckConflictsRequest) (*ConflictResult, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	duration := DefaultDurationHours
	if req.DurationHours != nil {
		duration = *req.DurationHours
	}

	window, err := NewWindow(req.Date, req.Time, duration, s.location)
	if err != nil {
		return nil, err
	}

	return s.Check(ctx, ConflictQuery{
		Window:         window,
		ResourceKey:    req.ResourceKey,
		ExcludeOwnerID: req.ExcludeOwnerID,
	})
}

func (s *service) Check(ctx context.Context, query ConflictQuery) (*ConflictResult, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	from, to := s.detector.LookaheadRange(query.Window)
	bookings, err := s.source.Bookings(ctx, query.ResourceKey, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", query.ResourceKey, err)
	}

	result, err := s.detector.Check(query, bookings)
	if err != nil {
		return nil, err
	}

	s.log.LogConflictCheck(ctx, query.ResourceKey, query.Window.String(), result.Available, len(result.Conflicts))
	return result, nil
}

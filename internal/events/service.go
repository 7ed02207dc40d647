package events

import (
	"context"
	"strings"
	"time"

	"campusbook/internal/schedule"
	"campusbook/internal/shared/apperror"
	"campusbook/pkg/cache"
	"campusbook/pkg/logger"
	"campusbook/pkg/validator"

	"github.com/google/uuid"
)

// ReasonVenueConflict is reported when a new event collides with an existing venue booking.
const ReasonVenueConflict = "resource_conflict"

type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ApproveEvent(ctx context.Context, id string) (*Event, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Event, error)
	IncreaseCapacity(ctx context.Context, id string, maxAttendees int) (*Event, error)
}

type service struct {
	repo      Repository
	conflicts schedule.Service
	location  *time.Location
	log       *logger.Logger

	cache    cache.Service
	cacheTTL time.Duration
}

type Option func(*service)

// WithCache serves GetEvent through a read-through cache. Ledger operations read the
// repository directly and never see cached rows.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(s *service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func NewService(repo Repository, conflicts schedule.Service, location *time.Location, log *logger.Logger, opts ...Option) Service {
	if location == nil {
		location = time.UTC
	}
	if log == nil {
		log = logger.GetDefault()
	}
	s := &service{repo: repo, conflicts: conflicts, location: location, log: log, cacheTTL: cache.TTLEventDetail}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent stores a pending event after checking its venue slot is free.
func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if req.IsPaid && req.Price <= 0 {
		return nil, apperror.InvalidRequest("paid events need a positive price")
	}

	duration := schedule.DefaultDurationHours
	if req.DurationHours != nil {
		duration = *req.DurationHours
	}
	window, err := schedule.NewWindow(req.Date, req.Time, duration, s.location)
	if err != nil {
		return nil, err
	}

	result, err := s.conflicts.Check(ctx, schedule.ConflictQuery{Window: window, ResourceKey: req.Venue})
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return nil, apperror.Rejected("venue is already booked for this slot", []string{ReasonVenueConflict}, result)
	}

	deadline := window.Start
	if req.RegistrationDeadline != nil {
		deadline = req.RegistrationDeadline.UTC()
	}

	roles := make([]string, 0, len(req.EligibleRoles))
	for _, r := range req.EligibleRoles {
		roles = append(roles, strings.ToUpper(r))
	}

	event := &Event{
		ID:                   req.ID,
		Title:                req.Title,
		OrganizerName:        req.OrganizerName,
		Status:               StatusPending,
		Venue:                req.Venue,
		StartsAt:             window.Start.UTC(),
		EndsAt:               window.End.UTC(),
		RegistrationDeadline: deadline,
		MaxAttendees:         req.MaxAttendees,
		EligibleRoles:        roles,
		Price:                req.Price,
		IsPaid:               req.IsPaid,
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "Event Created", "event_id", event.ID, "venue", event.Venue, "window", window.String())
	return event, nil
}

func (s *service) GetEvent(ctx context.Context, id string) (*Event, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, id)
	}

	var event Event
	err := s.cache.GetOrSet(ctx, cache.EventDetailKey(id), s.cacheTTL, func() (interface{}, error) {
		return s.repo.GetByID(ctx, id)
	}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// mutate applies fn under the event's row lock and drops the cached copy.
func (s *service) mutate(ctx context.Context, id string, fn func(event *Event) error) (*Event, error) {
	event, err := s.repo.Mutate(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.EventDetailKey(id)); err != nil {
			s.log.WarnContext(ctx, "Failed to invalidate cached event", "event_id", id, "error", err)
		}
	}
	return event, nil
}

// ApproveEvent approves a pending event. If another booking has taken the venue since the
// event was created, the event is approved but marked unavailable. The venue check runs before
// the row lock; the pending status is re-checked under it.
func (s *service) ApproveEvent(ctx context.Context, id string) (*Event, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, notPending(current)
	}

	result, err := s.conflicts.Check(ctx, schedule.ConflictQuery{
		Window:         current.Window(),
		ResourceKey:    current.Venue,
		ExcludeOwnerID: current.ID,
	})
	if err != nil {
		return nil, err
	}

	event, err := s.mutate(ctx, id, func(event *Event) error {
		if event.Status != StatusPending {
			return notPending(event)
		}
		event.Status = StatusApproved
		if !result.Available {
			event.Unavailable = true
			event.UnavailableReason = UnavailableVenueDoubleBooked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if event.Unavailable {
		s.log.WarnContext(ctx, "Event approved with venue conflict",
			"event_id", event.ID, "venue", event.Venue, "conflicts", len(result.Conflicts))
	}
	return event, nil
}

func notPending(event *Event) error {
	return apperror.InvalidRequest("event %s is %s, only pending events can be approved", event.ID, event.Status)
}

func (s *service) UpdateStatus(ctx context.Context, id string, status Status) (*Event, error) {
	if status != StatusRejected && status != StatusCancelled {
		return nil, apperror.InvalidRequest("status must be rejected or cancelled")
	}
	return s.mutate(ctx, id, func(event *Event) error {
		if event.Status == StatusCancelled || event.Status == StatusRejected {
			return apperror.InvalidRequest("event %s is already %s", id, event.Status)
		}
		event.Status = status
		return nil
	})
}

// IncreaseCapacity raises MaxAttendees. Freed seats are filled from the waitlist by the
// registration reconciler.
func (s *service) IncreaseCapacity(ctx context.Context, id string, maxAttendees int) (*Event, error) {
	return s.mutate(ctx, id, func(event *Event) error {
		if maxAttendees < event.MaxAttendees {
			return apperror.InvalidRequest("capacity can only grow: current %d, requested %d", event.MaxAttendees, maxAttendees)
		}
		event.MaxAttendees = maxAttendees
		return nil
	})
}

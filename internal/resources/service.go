package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusbook/internal/notifications"
	"campusbook/internal/schedule"
	"campusbook/internal/shared/apperror"
	"campusbook/internal/shared/locks"
	"campusbook/pkg/logger"
	"campusbook/pkg/validator"

	"github.com/google/uuid"
)

const (
	ReasonResourceConflict  = "resource_conflict"
	ReasonInvalidTransition = "invalid_transition"
)

type Service interface {
	Assign(ctx context.Context, resourceID string, window schedule.TimeWindow, eventID string) (*Assignment, error)
	AssignSlot(ctx context.Context, resourceID string, req AssignRequest) (*Assignment, error)
	Approve(ctx context.Context, assignmentID string) (*Assignment, error)
	Release(ctx context.Context, assignmentID string) (*Assignment, error)
	Get(ctx context.Context, assignmentID string) (*Assignment, error)
	ListByResource(ctx context.Context, resourceID string) ([]Assignment, error)
}

type service struct {
	repo      Repository
	detector  *schedule.Detector
	location  *time.Location
	locker    locks.Locker
	publisher notifications.Publisher
	log       *logger.Logger
	now       func() time.Time
}

type Option func(*service)

func WithLocker(l locks.Locker) Option {
	return func(s *service) { s.locker = l }
}

func WithPublisher(p notifications.Publisher) Option {
	return func(s *service) { s.publisher = p }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, detector *schedule.Detector, location *time.Location, opts ...Option) Service {
	if detector == nil {
		detector = schedule.NewDetector(nil)
	}
	if location == nil {
		location = time.UTC
	}
	s := &service{
		repo:      repo,
		detector:  detector,
		location:  location,
		locker:    locks.Noop{},
		publisher: notifications.NoopPublisher{},
		log:       logger.GetDefault(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func ledgerKey(resourceID string) string {
	return "resource:" + resourceID
}

// AssignSlot builds the window from venue-local date and time, then runs Assign.
func (s *service) AssignSlot(ctx context.Context, resourceID string, req AssignRequest) (*Assignment, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	duration := schedule.DefaultDurationHours
	if req.DurationHours != nil {
		duration = *req.DurationHours
	}
	window, err := schedule.NewWindow(req.Date, req.Time, duration, s.location)
	if err != nil {
		return nil, err
	}
	return s.Assign(ctx, resourceID, window, req.EventID)
}

// Assign records a pending claim on resourceID. It is rejected when the window overlaps any
// assignment that is not released.
func (s *service) Assign(ctx context.Context, resourceID string, window schedule.TimeWindow, eventID string) (*Assignment, error) {
	if strings.TrimSpace(resourceID) == "" || strings.TrimSpace(eventID) == "" {
		return nil, apperror.InvalidRequest("resource id and event id are required")
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	var created *Assignment
	err := s.transact(ctx, resourceID, func(tx Tx) error {
		holding, err := tx.Holding()
		if err != nil {
			return err
		}
		if err := s.ensureFree(resourceID, window, holding); err != nil {
			return err
		}

		a := &Assignment{
			ID:         uuid.NewString(),
			ResourceID: resourceID,
			EventID:    eventID,
			StartsAt:   window.Start.UTC(),
			EndsAt:     window.End.UTC(),
			Status:     StatusPending,
		}
		if err := tx.Create(a); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		if appErr := rejection(err); appErr != nil {
			s.log.LogLedgerRejection(ctx, ledgerKey(resourceID), eventID, appErr.Reasons)
		}
		return nil, err
	}

	s.committed(ctx, created, notifications.EventAssignmentRequested)
	return created, nil
}

// Approve moves a pending assignment to approved after re-checking it against the resource's
// other approved assignments.
func (s *service) Approve(ctx context.Context, assignmentID string) (*Assignment, error) {
	return s.transition(ctx, assignmentID, notifications.EventAssignmentApproved, func(tx Tx, a *Assignment, now time.Time) error {
		if a.Status != StatusPending {
			return invalidTransition(a, StatusApproved)
		}

		holding, err := tx.Holding()
		if err != nil {
			return err
		}
		approved := make([]Assignment, 0, len(holding))
		for _, h := range holding {
			if h.Status == StatusApproved && h.ID != a.ID {
				approved = append(approved, h)
			}
		}
		if err := s.ensureFree(a.ResourceID, a.Window(), approved); err != nil {
			return err
		}

		a.Status = StatusApproved
		a.ApprovedAt = &now
		return nil
	})
}

// Release frees the resource. The assignment is kept with status released.
func (s *service) Release(ctx context.Context, assignmentID string) (*Assignment, error) {
	return s.transition(ctx, assignmentID, notifications.EventAssignmentReleased, func(_ Tx, a *Assignment, now time.Time) error {
		if !a.Holds() {
			return invalidTransition(a, StatusReleased)
		}
		a.Status = StatusReleased
		a.ReleasedAt = &now
		return nil
	})
}

func (s *service) Get(ctx context.Context, assignmentID string) (*Assignment, error) {
	if strings.TrimSpace(assignmentID) == "" {
		return nil, apperror.InvalidRequest("assignment id is required")
	}
	return s.repo.GetByID(ctx, assignmentID)
}

func (s *service) ListByResource(ctx context.Context, resourceID string) ([]Assignment, error) {
	if strings.TrimSpace(resourceID) == "" {
		return nil, apperror.InvalidRequest("resource id is required")
	}
	return s.repo.ListByResource(ctx, resourceID)
}

// transition loads the assignment to find its resource, then applies change under that
// resource's lock against a fresh read.
func (s *service) transition(ctx context.Context, assignmentID string, eventType notifications.EventType, change func(tx Tx, a *Assignment, now time.Time) error) (*Assignment, error) {
	current, err := s.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	var updated *Assignment
	err = s.transact(ctx, current.ResourceID, func(tx Tx) error {
		a, err := tx.Get(assignmentID)
		if err != nil {
			return err
		}
		if err := change(tx, a, s.now().UTC()); err != nil {
			return err
		}
		if err := tx.Save(a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		if appErr := rejection(err); appErr != nil {
			s.log.LogLedgerRejection(ctx, ledgerKey(current.ResourceID), assignmentID, appErr.Reasons)
		}
		return nil, err
	}

	s.committed(ctx, updated, eventType)
	return updated, nil
}

func (s *service) transact(ctx context.Context, resourceID string, fn func(tx Tx) error) error {
	release, err := s.locker.Acquire(ctx, ledgerKey(resourceID))
	if err != nil {
		return err
	}
	defer release()
	return s.repo.Transact(ctx, resourceID, fn)
}

func (s *service) ensureFree(resourceID string, window schedule.TimeWindow, others []Assignment) error {
	result, err := s.detector.Check(schedule.ConflictQuery{Window: window, ResourceKey: resourceID}, bookingsOf(others))
	if err != nil {
		return err
	}
	if !result.Available {
		return apperror.Rejected(fmt.Sprintf("resource %s is already assigned for %s", resourceID, window.In(s.location)),
			[]string{ReasonResourceConflict}, result)
	}
	return nil
}

func (s *service) committed(ctx context.Context, a *Assignment, eventType notifications.EventType) {
	s.log.LogResourceAssignment(ctx, a.ID, a.ResourceID, string(a.Status))

	e := notifications.NewLedgerEvent(eventType, a.ResourceID, a.ID, string(a.Status))
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to publish assignment event", err, map[string]interface{}{
			"assignment_id": a.ID,
			"type":          string(eventType),
		})
	}
}

func invalidTransition(a *Assignment, to Status) error {
	return apperror.Rejected(fmt.Sprintf("assignment %s is %s and cannot become %s", a.ID, a.Status, to),
		[]string{ReasonInvalidTransition}, nil)
}

func rejection(err error) *apperror.Error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind == apperror.KindRejected {
		return appErr
	}
	return nil
}

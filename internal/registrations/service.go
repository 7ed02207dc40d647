package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusbook/internal/eligibility"
	"campusbook/internal/events"
	"campusbook/internal/notifications"
	"campusbook/internal/shared/apperror"
	"campusbook/internal/shared/locks"
	"campusbook/internal/users"
	"campusbook/pkg/logger"

	"github.com/google/uuid"
)

// PaymentVerifier tells whether a user has already paid for a paid event.
type PaymentVerifier interface {
	IsVerified(ctx context.Context, eventID, userID string) (bool, error)
}

type Service interface {
	Register(ctx context.Context, eventID, userID string) (*RegisterResult, error)
	Unregister(ctx context.Context, eventID, userID string) (*UnregisterResult, error)
	EvaluateEligibility(ctx context.Context, eventID, userID string) (*eligibility.Report, error)
	GetRegistration(ctx context.Context, eventID, userID string) (*Attendee, error)
	ListAttendees(ctx context.Context, eventID string) ([]Attendee, error)
	Reconcile(ctx context.Context, eventID string) ([]Attendee, error)
	ReconcileAll(ctx context.Context) (int, error)
}

type service struct {
	repo      Repository
	events    events.Repository
	users     users.Directory
	evaluator *eligibility.Evaluator
	locker    locks.Locker
	publisher notifications.Publisher
	payments  PaymentVerifier
	log       *logger.Logger
	now       func() time.Time
}

type Option func(*service)

// WithLocker adds a lock taken around every ledger transaction, e.g. a Redis lock shared by
// all API instances.
func WithLocker(l locks.Locker) Option {
	return func(s *service) { s.locker = l }
}

func WithPublisher(p notifications.Publisher) Option {
	return func(s *service) { s.publisher = p }
}

func WithPaymentVerifier(v PaymentVerifier) Option {
	return func(s *service) { s.payments = v }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, eventRepo events.Repository, directory users.Directory, evaluator *eligibility.Evaluator, opts ...Option) Service {
	s := &service{
		repo:      repo,
		events:    eventRepo,
		users:     directory,
		evaluator: evaluator,
		locker:    locks.Noop{},
		publisher: notifications.NoopPublisher{},
		log:       logger.GetDefault(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = eligibility.NewEvaluator(nil, eligibility.WithClock(s.now))
	}
	return s
}

func ledgerKey(eventID string) string {
	return "event:" + eventID
}

func requireIDs(eventID, userID string) error {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(userID) == "" {
		return apperror.InvalidRequest("event id and user id are required")
	}
	return nil
}

// Register admits userID to eventID, or waitlists them when the event is full. Eligibility,
// seat counts and the duplicate check are all evaluated inside the event's atomic section.
func (s *service) Register(ctx context.Context, eventID, userID string) (*RegisterResult, error) {
	if err := requireIDs(eventID, userID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, ledgerKey(eventID))
	if err != nil {
		return nil, err
	}
	defer release()

	var result *RegisterResult
	var outbox []notifications.LedgerEvent

	err = s.repo.Transact(ctx, eventID, func(tx Tx) error {
		event := tx.Event()
		attendees, err := tx.Attendees()
		if err != nil {
			return err
		}
		l := newLedger(event, attendees)

		report, err := s.evaluate(ctx, tx, l, user)
		if err != nil {
			return err
		}
		if !report.IsEligible {
			return apperror.Rejected("registration rejected: "+strings.Join(report.Reasons, ", "), report.Reasons, report)
		}

		now := s.now().UTC()
		promoted, err := s.fillFromWaitlist(ctx, tx, l, now)
		if err != nil {
			return err
		}

		attendee := Attendee{
			ID:               uuid.NewString(),
			EventID:          event.ID,
			UserID:           userID,
			Sequence:         l.nextSequence(),
			RegistrationDate: now,
			TicketID:         newTicketID(now),
		}
		if l.freeSeats() > 0 {
			attendee.Status = StatusRegistered
			if attendee.PaymentStatus, err = s.paymentStatus(ctx, event, userID); err != nil {
				return err
			}
		} else {
			pos := len(l.waitlist()) + 1
			attendee.Status = StatusWaitlisted
			attendee.WaitlistPosition = &pos
			attendee.PaymentStatus = PaymentNotRequired
		}

		if err := tx.Create(&attendee); err != nil {
			return err
		}
		l.add(attendee)

		result = &RegisterResult{Attendee: &attendee, Promoted: promoted}
		outbox = append(promotionEvents(promoted), attendeeEvent(attendee))
		return nil
	})
	if err != nil {
		if appErr := rejection(err); appErr != nil {
			s.log.LogLedgerRejection(ctx, ledgerKey(eventID), userID, appErr.Reasons)
		}
		return nil, err
	}

	s.log.LogRegistration(ctx, eventID, userID, string(result.Attendee.Status))
	s.logPromotions(ctx, eventID, result.Promoted)
	s.publish(ctx, outbox)
	return result, nil
}

// Unregister cancels the user's active registration. A freed seat goes to the head of the
// waitlist and the remaining positions are renumbered 1..N.
func (s *service) Unregister(ctx context.Context, eventID, userID string) (*UnregisterResult, error) {
	if err := requireIDs(eventID, userID); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, ledgerKey(eventID))
	if err != nil {
		return nil, err
	}
	defer release()

	var result *UnregisterResult
	var outbox []notifications.LedgerEvent

	err = s.repo.Transact(ctx, eventID, func(tx Tx) error {
		attendees, err := tx.Attendees()
		if err != nil {
			return err
		}
		l := newLedger(tx.Event(), attendees)

		current := l.activeFor(userID)
		if current == nil {
			return apperror.NotRegistered("user %s has no active registration for event %s", userID, eventID)
		}

		now := s.now().UTC()
		prior := current.Status
		current.Status = StatusCancelled
		current.CancelledAt = &now
		current.WaitlistPosition = nil
		if err := tx.Save(current); err != nil {
			return err
		}
		cancelled := cloneAttendee(*current)

		promoted := []Attendee{}
		if prior == StatusRegistered {
			if promoted, err = s.fillFromWaitlist(ctx, tx, l, now); err != nil {
				return err
			}
		}
		if err := renumber(tx, l); err != nil {
			return err
		}

		result = &UnregisterResult{Cancelled: &cancelled, Promoted: promoted}
		outbox = append([]notifications.LedgerEvent{attendeeEvent(cancelled)}, promotionEvents(promoted)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogRegistration(ctx, eventID, userID, string(StatusCancelled))
	s.logPromotions(ctx, eventID, result.Promoted)
	s.publish(ctx, outbox)
	return result, nil
}

// Reconcile promotes waitlisted attendees into seats that are free, e.g. after the event's
// capacity was raised. Only approved events are reconciled.
func (s *service) Reconcile(ctx context.Context, eventID string) ([]Attendee, error) {
	release, err := s.locker.Acquire(ctx, ledgerKey(eventID))
	if err != nil {
		return nil, err
	}
	defer release()

	promoted := []Attendee{}
	err = s.repo.Transact(ctx, eventID, func(tx Tx) error {
		if tx.Event().Status != events.StatusApproved {
			return nil
		}
		attendees, err := tx.Attendees()
		if err != nil {
			return err
		}
		promoted, err = s.fillFromWaitlist(ctx, tx, newLedger(tx.Event(), attendees), s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logPromotions(ctx, eventID, promoted)
	s.publish(ctx, promotionEvents(promoted))
	return promoted, nil
}

// ReconcileAll reconciles every event that has a waitlist and returns the number of
// promotions. A busy event is skipped until the next run.
func (s *service) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := s.repo.EventsWithWaitlist(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, id := range ids {
		promoted, err := s.Reconcile(ctx, id)
		if err != nil {
			if apperror.Retryable(err) {
				continue
			}
			return total, fmt.Errorf("failed to reconcile event %s: %w", id, err)
		}
		total += len(promoted)
	}
	return total, nil
}

// EvaluateEligibility is the advisory pre-check. It reads a snapshot without locking; Register
// re-runs the same checks atomically.
func (s *service) EvaluateEligibility(ctx context.Context, eventID, userID string) (*eligibility.Report, error) {
	if err := requireIDs(eventID, userID); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	attendees, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	l := newLedger(event, attendees)

	heldIDs, err := s.repo.RegisteredEventIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	held, err := s.heldEvents(ctx, heldIDs, eventID)
	if err != nil {
		return nil, err
	}

	return s.evaluator.Evaluate(eligibility.Input{
		Event:             event,
		User:              user,
		RegisteredCount:   l.registeredCount(),
		AlreadyRegistered: l.activeFor(userID) != nil,
		UserEvents:        held,
	})
}

func (s *service) GetRegistration(ctx context.Context, eventID, userID string) (*Attendee, error) {
	if err := requireIDs(eventID, userID); err != nil {
		return nil, err
	}
	attendees, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for i := range attendees {
		if attendees[i].UserID == userID && attendees[i].Active() {
			return &attendees[i], nil
		}
	}
	return nil, apperror.NotRegistered("user %s has no active registration for event %s", userID, eventID)
}

func (s *service) ListAttendees(ctx context.Context, eventID string) ([]Attendee, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, eventID)
}

func (s *service) evaluate(ctx context.Context, tx Tx, l *ledger, user *users.User) (*eligibility.Report, error) {
	heldIDs, err := tx.RegisteredEventIDs(user.ID)
	if err != nil {
		return nil, err
	}
	held, err := s.heldEvents(ctx, heldIDs, l.event.ID)
	if err != nil {
		return nil, err
	}

	return s.evaluator.Evaluate(eligibility.Input{
		Event:             l.event,
		User:              user,
		RegisteredCount:   l.registeredCount(),
		AlreadyRegistered: l.activeFor(user.ID) != nil,
		UserEvents:        held,
	})
}

func (s *service) heldEvents(ctx context.Context, ids []string, exclude string) ([]events.Event, error) {
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	return s.events.GetByIDs(ctx, filtered)
}

// fillFromWaitlist moves waitlisted attendees, longest waiting first, into free seats.
func (s *service) fillFromWaitlist(ctx context.Context, tx Tx, l *ledger, now time.Time) ([]Attendee, error) {
	promoted := []Attendee{}
	queue := l.waitlist()

	for len(queue) > 0 && l.freeSeats() > 0 {
		head := queue[0]
		queue = queue[1:]

		payment, err := s.paymentStatus(ctx, l.event, head.UserID)
		if err != nil {
			return nil, err
		}

		promotedAt := now
		head.Status = StatusRegistered
		head.WaitlistPosition = nil
		head.PromotedAt = &promotedAt
		head.PaymentStatus = payment
		if head.TicketID == "" {
			head.TicketID = newTicketID(now)
		}
		if err := tx.Save(head); err != nil {
			return nil, err
		}
		promoted = append(promoted, cloneAttendee(*head))
	}

	if len(promoted) > 0 {
		if err := renumber(tx, l); err != nil {
			return nil, err
		}
	}
	return promoted, nil
}

// renumber rewrites waitlist positions to 1..N in FIFO order, saving only changed records.
func renumber(tx Tx, l *ledger) error {
	for i, a := range l.waitlist() {
		want := i + 1
		if a.WaitlistPosition != nil && *a.WaitlistPosition == want {
			continue
		}
		a.WaitlistPosition = &want
		if err := tx.Save(a); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) paymentStatus(ctx context.Context, event *events.Event, userID string) (PaymentStatus, error) {
	if !event.IsPaid || event.Price == 0 {
		return PaymentCompleted, nil
	}
	if s.payments == nil {
		return PaymentPending, nil
	}
	verified, err := s.payments.IsVerified(ctx, event.ID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to verify payment: %w", err)
	}
	if verified {
		return PaymentCompleted, nil
	}
	return PaymentPending, nil
}

func (s *service) logPromotions(ctx context.Context, eventID string, promoted []Attendee) {
	for _, a := range promoted {
		s.log.LogWaitlistPromotion(ctx, eventID, a.UserID, a.TicketID)
	}
}

// publish emits events after commit. A failure is logged and never undoes the ledger change.
func (s *service) publish(ctx context.Context, outbox []notifications.LedgerEvent) {
	if len(outbox) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, outbox...); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to publish ledger events", err, map[string]interface{}{
			"count": len(outbox),
			"key":   outbox[0].Key,
		})
	}
}

func rejection(err error) *apperror.Error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind == apperror.KindRejected {
		return appErr
	}
	return nil
}

func attendeeEvent(a Attendee) notifications.LedgerEvent {
	var eventType notifications.EventType
	switch a.Status {
	case StatusRegistered:
		eventType = notifications.EventAttendeeRegistered
	case StatusWaitlisted:
		eventType = notifications.EventAttendeeWaitlisted
	default:
		eventType = notifications.EventAttendeeCancelled
	}
	e := notifications.NewLedgerEvent(eventType, a.EventID, a.UserID, string(a.Status))
	e.TicketID = a.TicketID
	e.WaitlistPosition = a.WaitlistPosition
	return e
}

func promotionEvents(promoted []Attendee) []notifications.LedgerEvent {
	out := make([]notifications.LedgerEvent, 0, len(promoted)+1)
	for _, a := range promoted {
		e := notifications.NewLedgerEvent(notifications.EventAttendeePromoted, a.EventID, a.UserID, string(a.Status))
		e.TicketID = a.TicketID
		out = append(out, e)
	}
	return out
}

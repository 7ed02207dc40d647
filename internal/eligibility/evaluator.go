package eligibility

import (
	"time"

	"campusbook/internal/events"
	"campusbook/internal/schedule"
	"campusbook/internal/shared/apperror"
	"campusbook/internal/users"
)

// Input is the state one evaluation reads. UserEvents are the events the user currently holds
// a registered seat for; the evaluated event itself is ignored if present.
type Input struct {
	Event             *events.Event
	User              *users.User
	RegisteredCount   int
	AlreadyRegistered bool
	UserEvents        []events.Event
}

type Evaluator struct {
	detector *schedule.Detector
	now      func() time.Time
}

type Option func(*Evaluator)

// WithClock replaces time.Now, for deadline checks in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

func NewEvaluator(detector *schedule.Detector, opts ...Option) *Evaluator {
	if detector == nil {
		detector = schedule.NewDetector(nil)
	}
	e := &Evaluator{detector: detector, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UserResourceKey is the resource key of a user's personal schedule.
func UserResourceKey(userID string) string {
	return "user:" + userID
}

// Evaluate runs every check independently and derives IsEligible from them. A full event does
// not make a user ineligible; the ledger waitlists them instead.
func (e *Evaluator) Evaluate(in Input) (*Report, error) {
	if in.Event == nil || in.User == nil {
		return nil, apperror.InvalidRequest("event and user are required")
	}
	event, user := in.Event, in.User
	now := e.now()

	report := &Report{
		EventID:     event.ID,
		UserID:      user.ID,
		EvaluatedAt: now.UTC(),
		Reasons:     []string{},
	}

	report.EventApproved = event.Status == events.StatusApproved
	if !report.EventApproved {
		report.Reasons = append(report.Reasons, ReasonEventNotApproved)
	}

	report.EventAvailable = AvailabilityCheck{Available: !event.Unavailable}
	if event.Unavailable {
		report.EventAvailable.Reason = event.UnavailableReason
		report.Reasons = append(report.Reasons, ReasonEventUnavailable)
	}

	report.RegistrationDeadline = DeadlineCheck{Deadline: event.RegistrationDeadline}
	if !event.RegistrationDeadline.IsZero() && now.After(event.RegistrationDeadline) {
		report.RegistrationDeadline.Passed = true
		report.Reasons = append(report.Reasons, ReasonDeadlinePassed)
	} else if !event.RegistrationDeadline.IsZero() {
		report.RegistrationDeadline.TimeRemainingSeconds = int64(event.RegistrationDeadline.Sub(now) / time.Second)
	}

	report.UserRole = RoleCheck{
		Eligible:      event.AllowsRole(string(user.Role)),
		Role:          string(user.Role),
		EligibleRoles: event.EligibleRoles,
	}
	if !report.UserRole.Eligible {
		report.Reasons = append(report.Reasons, ReasonRoleIneligible)
	}

	report.AlreadyRegistered = RegistrationCheck{Registered: in.AlreadyRegistered}
	if in.AlreadyRegistered {
		report.Reasons = append(report.Reasons, ReasonAlreadyRegistered)
	}

	conflict, err := e.timeConflict(event, user.ID, in.UserEvents)
	if err != nil {
		return nil, err
	}
	report.TimeConflict = conflict
	if conflict.HasConflict {
		report.Reasons = append(report.Reasons, ReasonTimeConflict)
	}

	report.Payment = PaymentCheck{Required: event.IsPaid, Sufficient: true}
	if event.IsPaid {
		report.Payment.Amount = event.Price
		report.Payment.UserBalance = user.Balance
		report.Payment.Sufficient = user.Balance >= event.Price
		if !report.Payment.Sufficient {
			report.Reasons = append(report.Reasons, ReasonInsufficientBalance)
		}
	}

	available := event.MaxAttendees - in.RegisteredCount
	if available < 0 {
		available = 0
	}
	report.SeatAvailability = SeatCheck{
		AvailableSeats: available,
		MaxAttendees:   event.MaxAttendees,
		Registered:     in.RegisteredCount,
	}

	report.IsEligible = len(report.Reasons) == 0
	return report, nil
}

func (e *Evaluator) timeConflict(event *events.Event, userID string, held []events.Event) (TimeConflictCheck, error) {
	check := TimeConflictCheck{ConflictingEvents: []ConflictingEvent{}}

	key := UserResourceKey(userID)
	bookings := make([]schedule.Booking, 0, len(held))
	for i := range held {
		if held[i].ID == event.ID {
			continue
		}
		b := held[i].Booking()
		b.ResourceKey = key
		bookings = append(bookings, b)
	}
	if len(bookings) == 0 {
		return check, nil
	}

	result, err := e.detector.Check(schedule.ConflictQuery{Window: event.Window(), ResourceKey: key}, bookings)
	if err != nil {
		return check, err
	}

	for _, c := range result.Conflicts {
		w := c.Booking.Window.In(event.StartsAt.Location())
		check.ConflictingEvents = append(check.ConflictingEvents, ConflictingEvent{
			EventID:  c.Booking.OwnerID,
			Title:    c.Booking.OwnerLabel,
			Date:     w.Date(),
			Time:     w.Clock() + "-" + w.End.Format(schedule.ClockLayout),
			Severity: string(c.Severity),
		})
	}
	check.HasConflict = len(check.ConflictingEvents) > 0
	return check, nil
}

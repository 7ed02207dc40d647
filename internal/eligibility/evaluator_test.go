package eligibility

import (
	"testing"
	"time"

	"campusbook/internal/events"
	"campusbook/internal/shared/apperror"
	"campusbook/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func approvedEvent(id string, start time.Time, hours int) *events.Event {
	return &events.Event{
		ID:                   id,
		Title:                "Event " + id,
		Status:               events.StatusApproved,
		Venue:                "Hall A",
		StartsAt:             start,
		EndsAt:               start.Add(time.Duration(hours) * time.Hour),
		RegistrationDeadline: start.Add(-24 * time.Hour),
		MaxAttendees:         2,
	}
}

func student() *users.User {
	return &users.User{ID: "u1", Role: users.RoleStudent, Balance: 20}
}

func TestEligibleUser(t *testing.T) {
	e := NewEvaluator(nil, WithClock(fixedClock))
	event := approvedEvent("evt-1", time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), 2)

	report, err := e.Evaluate(Input{Event: event, User: student(), RegisteredCount: 1})
	require.NoError(t, err)

	assert.True(t, report.IsEligible)
	assert.Empty(t, report.Reasons)
	assert.True(t, report.EventApproved)
	assert.True(t, report.EventAvailable.Available)
	assert.False(t, report.RegistrationDeadline.Passed)
	assert.Equal(t, int64(11*24*3600+3600), report.RegistrationDeadline.TimeRemainingSeconds)
	assert.False(t, report.Payment.Required)
	assert.Equal(t, 1, report.SeatAvailability.AvailableSeats)
}

func TestPersonalScheduleClash(t *testing.T) {
	e := NewEvaluator(nil, WithClock(fixedClock))
	held := approvedEvent("evt-held", time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), 2)
	candidate := approvedEvent("evt-new", time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC), 2)

	report, err := e.Evaluate(Input{Event: candidate, User: student(), UserEvents: []events.Event{*held}})
	require.NoError(t, err)

	assert.True(t, report.TimeConflict.HasConflict)
	assert.False(t, report.IsEligible)
	assert.Equal(t, []string{ReasonTimeConflict}, report.Reasons)
	require.Len(t, report.TimeConflict.ConflictingEvents, 1)
	assert.Equal(t, ConflictingEvent{
		EventID:  "evt-held",
		Title:    "Event evt-held",
		Date:     "2025-02-01",
		Time:     "10:00-12:00",
		Severity: "high",
	}, report.TimeConflict.ConflictingEvents[0])
}

func TestOwnEventIsNotAClash(t *testing.T) {
	e := NewEvaluator(nil, WithClock(fixedClock))
	event := approvedEvent("evt-1", time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), 2)

	report, err := e.Evaluate(Input{Event: event, User: student(), UserEvents: []events.Event{*event}})
	require.NoError(t, err)
	assert.False(t, report.TimeConflict.HasConflict)
}

func TestEveryFailingCheckIsReported(t *testing.T) {
	e := NewEvaluator(nil, WithClock(fixedClock))
	event := approvedEvent("evt-1", time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC), 2)
	event.Status = events.StatusPending
	event.Unavailable = true
	event.UnavailableReason = events.UnavailableVenueDoubleBooked
	event.EligibleRoles = []string{"FACULTY"}
	event.IsPaid = true
	event.Price = 50
	held := approvedEvent("evt-0", time.Date(2025, 1, 20, 11, 0, 0, 0, time.UTC), 1)

	report, err := e.Evaluate(Input{
		Event:             event,
		User:              student(),
		RegisteredCount:   2,
		AlreadyRegistered: true,
		UserEvents:        []events.Event{*held},
	})
	require.NoError(t, err)

	assert.False(t, report.IsEligible)
	assert.Equal(t, []string{
		ReasonEventNotApproved,
		ReasonEventUnavailable,
		ReasonDeadlinePassed,
		ReasonRoleIneligible,
		ReasonAlreadyRegistered,
		ReasonTimeConflict,
		ReasonInsufficientBalance,
	}, report.Reasons)
	assert.Equal(t, events.UnavailableVenueDoubleBooked, report.EventAvailable.Reason)
	assert.Equal(t, 50.0, report.Payment.Amount)
	assert.Equal(t, 20.0, report.Payment.UserBalance)
	assert.Zero(t, report.RegistrationDeadline.TimeRemainingSeconds)
}

func TestFullEventIsStillEligible(t *testing.T) {
	e := NewEvaluator(nil, WithClock(fixedClock))
	event := approvedEvent("evt-1", time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), 2)

	report, err := e.Evaluate(Input{Event: event, User: student(), RegisteredCount: 2})
	require.NoError(t, err)
	assert.True(t, report.IsEligible)
	assert.Zero(t, report.SeatAvailability.AvailableSeats)
}

func TestSufficientBalance(t *testing.T) {
	e := NewEvaluator(nil, WithClock(fixedClock))
	event := approvedEvent("evt-1", time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), 2)
	event.IsPaid = true
	event.Price = 20

	report, err := e.Evaluate(Input{Event: event, User: student()})
	require.NoError(t, err)
	assert.True(t, report.Payment.Required)
	assert.True(t, report.Payment.Sufficient)
	assert.True(t, report.IsEligible)
}

func TestEvaluateRequiresEventAndUser(t *testing.T) {
	_, err := NewEvaluator(nil).Evaluate(Input{User: student()})
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}

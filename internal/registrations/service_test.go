package registrations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"campusbook/internal/eligibility"
	"campusbook/internal/events"
	"campusbook/internal/notifications"
	"campusbook/internal/shared/apperror"
	"campusbook/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testNow    = time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	eventStart = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
)

func testClock() time.Time { return testNow }

type fixture struct {
	svc    Service
	repo   Repository
	events events.Repository
	users  users.Repository
}

func testEvent(id string, start time.Time, maxAttendees int) events.Event {
	return events.Event{
		ID:                   id,
		Title:                "Event " + id,
		Status:               events.StatusApproved,
		Venue:                "Hall A",
		StartsAt:             start,
		EndsAt:               start.Add(2 * time.Hour),
		RegistrationDeadline: start.Add(-24 * time.Hour),
		MaxAttendees:         maxAttendees,
	}
}

func newFixture(t *testing.T, seed []events.Event, opts ...Option) *fixture {
	t.Helper()

	eventRepo := events.NewMemoryRepository(seed...)
	var people []users.User
	for i := 1; i <= 200; i++ {
		people = append(people, users.User{ID: userID(i), DisplayName: userID(i), Role: users.RoleStudent, Balance: 100})
	}
	userRepo := users.NewMemoryRepository(people...)
	repo := NewMemoryRepository(eventRepo)

	evaluator := eligibility.NewEvaluator(nil, eligibility.WithClock(testClock))
	svc := NewService(repo, eventRepo, userRepo, evaluator, append([]Option{WithClock(testClock)}, opts...)...)
	return &fixture{svc: svc, repo: repo, events: eventRepo, users: userRepo}
}

func userID(i int) string {
	return fmt.Sprintf("u%d", i)
}

func (f *fixture) register(t *testing.T, eventID string, user int) *Attendee {
	t.Helper()
	result, err := f.svc.Register(context.Background(), eventID, userID(user))
	require.NoError(t, err)
	return result.Attendee
}

func (f *fixture) attendees(t *testing.T, eventID string) []Attendee {
	t.Helper()
	list, err := f.repo.ListByEvent(context.Background(), eventID)
	require.NoError(t, err)
	return list
}

// assertLedgerInvariants checks capacity, single active registration per user, and a
// contiguous FIFO-ordered waitlist.
func assertLedgerInvariants(t *testing.T, attendees []Attendee, maxAttendees int) {
	t.Helper()

	registered := 0
	active := map[string]int{}
	var waitlisted []Attendee
	for _, a := range attendees {
		if a.Active() {
			active[a.UserID]++
		}
		switch a.Status {
		case StatusRegistered:
			registered++
			assert.Nil(t, a.WaitlistPosition)
		case StatusWaitlisted:
			waitlisted = append(waitlisted, a)
		}
	}

	assert.LessOrEqual(t, registered, maxAttendees, "overbooked")
	for user, n := range active {
		assert.Equal(t, 1, n, "user %s has %d active registrations", user, n)
	}

	seen := map[int]bool{}
	for _, a := range waitlisted {
		require.NotNil(t, a.WaitlistPosition)
		seen[*a.WaitlistPosition] = true
	}
	for pos := 1; pos <= len(waitlisted); pos++ {
		assert.True(t, seen[pos], "missing waitlist position %d", pos)
	}
	for i := 1; i < len(waitlisted); i++ {
		prev, cur := waitlisted[i-1], waitlisted[i]
		assert.Equal(t, prev.Sequence < cur.Sequence, *prev.WaitlistPosition < *cur.WaitlistPosition,
			"waitlist positions must follow arrival order")
	}
}

func statusOf(attendees []Attendee, user int) (Status, *int) {
	var status Status
	var pos *int
	for _, a := range attendees {
		if a.UserID == userID(user) && (a.Active() || status == "") {
			status, pos = a.Status, a.WaitlistPosition
		}
	}
	return status, pos
}

func TestRegisterWaitlistAndPromote(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 2)})
	ctx := context.Background()

	a1 := f.register(t, "evt-1", 1)
	a2 := f.register(t, "evt-1", 2)
	a3 := f.register(t, "evt-1", 3)

	assert.Equal(t, StatusRegistered, a1.Status)
	assert.Equal(t, StatusRegistered, a2.Status)
	assert.Equal(t, StatusWaitlisted, a3.Status)
	require.NotNil(t, a3.WaitlistPosition)
	assert.Equal(t, 1, *a3.WaitlistPosition)
	assert.NotEmpty(t, a3.TicketID)
	assert.Equal(t, PaymentNotRequired, a3.PaymentStatus)
	assert.Equal(t, PaymentCompleted, a1.PaymentStatus)

	result, err := f.svc.Unregister(ctx, "evt-1", userID(1))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, result.Cancelled.Status)
	require.Len(t, result.Promoted, 1)
	assert.Equal(t, userID(3), result.Promoted[0].UserID)
	assert.Equal(t, a3.TicketID, result.Promoted[0].TicketID)

	list := f.attendees(t, "evt-1")
	status, pos := statusOf(list, 3)
	assert.Equal(t, StatusRegistered, status)
	assert.Nil(t, pos)
	assert.Len(t, list, 3, "cancelled record is retained")
	assertLedgerInvariants(t, list, 2)
}

func TestConcurrentRegistrationForLastSeat(t *testing.T) {
	for run := 0; run < 20; run++ {
		f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 2)})
		f.register(t, "evt-1", 1)

		var wg sync.WaitGroup
		results := make([]*RegisterResult, 2)
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = f.svc.Register(context.Background(), "evt-1", userID(i+2))
			}(i)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		statuses := []Status{results[0].Attendee.Status, results[1].Attendee.Status}
		assert.ElementsMatch(t, []Status{StatusRegistered, StatusWaitlisted}, statuses)
		assertLedgerInvariants(t, f.attendees(t, "evt-1"), 2)
	}
}

func TestNoOverbookingUnderLoad(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 10)})

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Register(context.Background(), "evt-1", userID(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list := f.attendees(t, "evt-1")
	require.Len(t, list, 100)
	assertLedgerInvariants(t, list, 10)

	registered := 0
	for _, a := range list {
		if a.Status == StatusRegistered {
			registered++
		}
	}
	assert.Equal(t, 10, registered)

	// cancel a mix of registered and waitlisted users concurrently
	for i := 1; i <= 100; i += 3 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Unregister(context.Background(), "evt-1", userID(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assertLedgerInvariants(t, f.attendees(t, "evt-1"), 10)
}

func TestSameUserRegistersOnce(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 5)})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(context.Background(), "evt-1", userID(1))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if assert.ErrorIs(t, err, apperror.ErrRejected) {
				var appErr *apperror.Error
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, []string{eligibility.ReasonAlreadyRegistered}, appErr.Reasons)
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, rejected)
}

func TestWaitlistRenumbering(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 1)})
	ctx := context.Background()

	f.register(t, "evt-1", 1)
	for _, u := range []int{2, 3, 4, 5} {
		assert.Equal(t, StatusWaitlisted, f.register(t, "evt-1", u).Status)
	}

	result, err := f.svc.Unregister(ctx, "evt-1", userID(3))
	require.NoError(t, err)
	assert.Empty(t, result.Promoted, "leaving the waitlist frees no seat")

	list := f.attendees(t, "evt-1")
	assertLedgerInvariants(t, list, 1)
	for user, want := range map[int]int{2: 1, 4: 2, 5: 3} {
		_, pos := statusOf(list, user)
		require.NotNil(t, pos)
		assert.Equal(t, want, *pos, "user %d", user)
	}

	result, err = f.svc.Unregister(ctx, "evt-1", userID(1))
	require.NoError(t, err)
	require.Len(t, result.Promoted, 1)
	assert.Equal(t, userID(2), result.Promoted[0].UserID)

	list = f.attendees(t, "evt-1")
	assertLedgerInvariants(t, list, 1)
	for user, want := range map[int]int{4: 1, 5: 2} {
		_, pos := statusOf(list, user)
		require.NotNil(t, pos)
		assert.Equal(t, want, *pos, "user %d", user)
	}
}

func TestReRegisterAfterCancel(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 3)})
	ctx := context.Background()

	first := f.register(t, "evt-1", 1)
	_, err := f.svc.Unregister(ctx, "evt-1", userID(1))
	require.NoError(t, err)

	second := f.register(t, "evt-1", 1)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.TicketID, second.TicketID)
	assert.Len(t, f.attendees(t, "evt-1"), 2)

	current, err := f.svc.GetRegistration(ctx, "evt-1", userID(1))
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
}

func TestUnregisterWithoutRegistration(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 3)})

	_, err := f.svc.Unregister(context.Background(), "evt-1", userID(1))
	assert.ErrorIs(t, err, apperror.ErrNotRegistered)
	assert.False(t, apperror.Retryable(err))

	_, err = f.svc.GetRegistration(context.Background(), "evt-1", userID(1))
	assert.ErrorIs(t, err, apperror.ErrNotRegistered)
}

func TestUnknownEventOrUser(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 3)})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "missing", userID(1))
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.Register(ctx, "evt-1", "nobody")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.Register(ctx, "", userID(1))
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}

func TestRegisterRejectsWithEveryReason(t *testing.T) {
	event := testEvent("evt-1", eventStart, 3)
	event.Status = events.StatusPending
	event.RegistrationDeadline = testNow.Add(-time.Hour)
	event.EligibleRoles = []string{string(users.RoleFaculty)}
	f := newFixture(t, []events.Event{event})

	_, err := f.svc.Register(context.Background(), "evt-1", userID(1))
	require.ErrorIs(t, err, apperror.ErrRejected)
	assert.False(t, apperror.Retryable(err))

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{
		eligibility.ReasonEventNotApproved,
		eligibility.ReasonDeadlinePassed,
		eligibility.ReasonRoleIneligible,
	}, appErr.Reasons)
	report, ok := appErr.Details.(*eligibility.Report)
	require.True(t, ok)
	assert.False(t, report.IsEligible)
	assert.Empty(t, f.attendees(t, "evt-1"))
}

func TestRegisterRejectsPersonalScheduleClash(t *testing.T) {
	f := newFixture(t, []events.Event{
		testEvent("morning", eventStart, 5),
		testEvent("overlap", eventStart.Add(time.Hour), 5),
		testEvent("later", eventStart.Add(2*time.Hour), 5),
	})
	ctx := context.Background()

	f.register(t, "morning", 1)

	report, err := f.svc.EvaluateEligibility(ctx, "overlap", userID(1))
	require.NoError(t, err)
	assert.True(t, report.TimeConflict.HasConflict)
	assert.False(t, report.IsEligible)

	_, err = f.svc.Register(ctx, "overlap", userID(1))
	require.ErrorIs(t, err, apperror.ErrRejected)
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{eligibility.ReasonTimeConflict}, appErr.Reasons)

	assert.Equal(t, StatusRegistered, f.register(t, "later", 1).Status)
}

type mockPaymentVerifier struct {
	mock.Mock
}

func (m *mockPaymentVerifier) IsVerified(ctx context.Context, eventID, userID string) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

func TestPaidEventPaymentStatus(t *testing.T) {
	event := testEvent("paid", eventStart, 2)
	event.IsPaid = true
	event.Price = 40

	verifier := &mockPaymentVerifier{}
	verifier.On("IsVerified", mock.Anything, "paid", userID(1)).Return(true, nil)
	verifier.On("IsVerified", mock.Anything, "paid", userID(2)).Return(false, nil)

	f := newFixture(t, []events.Event{event}, WithPaymentVerifier(verifier))
	require.NoError(t, f.users.UpdateBalance(context.Background(), userID(4), 10))

	assert.Equal(t, PaymentCompleted, f.register(t, "paid", 1).PaymentStatus)
	assert.Equal(t, PaymentPending, f.register(t, "paid", 2).PaymentStatus)
	assert.Equal(t, PaymentNotRequired, f.register(t, "paid", 3).PaymentStatus)

	_, err := f.svc.Register(context.Background(), "paid", userID(4))
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{eligibility.ReasonInsufficientBalance}, appErr.Reasons)

	verifier.AssertExpectations(t)
}

func TestFreedSeatGoesToWaitlistBeforeNewcomer(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 1)})
	ctx := context.Background()

	f.register(t, "evt-1", 1)
	f.register(t, "evt-1", 2)

	_, err := f.events.Mutate(ctx, "evt-1", func(e *events.Event) error {
		e.MaxAttendees = 2
		return nil
	})
	require.NoError(t, err)

	result, err := f.svc.Register(ctx, "evt-1", userID(3))
	require.NoError(t, err)
	require.Len(t, result.Promoted, 1)
	assert.Equal(t, userID(2), result.Promoted[0].UserID)
	assert.Equal(t, StatusWaitlisted, result.Attendee.Status)
	assert.Equal(t, 1, *result.Attendee.WaitlistPosition)
	assertLedgerInvariants(t, f.attendees(t, "evt-1"), 2)
}

func TestReconcileAfterCapacityIncrease(t *testing.T) {
	f := newFixture(t, []events.Event{
		testEvent("evt-1", eventStart, 1),
		testEvent("evt-2", eventStart.Add(48*time.Hour), 1),
	})
	ctx := context.Background()

	for _, u := range []int{1, 2, 3, 4} {
		f.register(t, "evt-1", u)
	}
	f.register(t, "evt-2", 5)
	f.register(t, "evt-2", 6)

	_, err := f.events.Mutate(ctx, "evt-1", func(e *events.Event) error {
		e.MaxAttendees = 3
		return nil
	})
	require.NoError(t, err)

	ids, err := f.repo.EventsWithWaitlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"evt-1", "evt-2"}, ids)

	promoted, err := f.svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, promoted)

	list := f.attendees(t, "evt-1")
	assertLedgerInvariants(t, list, 3)
	status, pos := statusOf(list, 4)
	assert.Equal(t, StatusWaitlisted, status)
	assert.Equal(t, 1, *pos)

	again, err := f.svc.Reconcile(ctx, "evt-1")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestListAttendees(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 1)})
	f.register(t, "evt-1", 1)
	f.register(t, "evt-1", 2)

	list, err := f.svc.ListAttendees(context.Background(), "evt-1")
	require.NoError(t, err)
	resp := newAttendeeListResponse("evt-1", list)
	assert.Equal(t, 1, resp.Registered)
	assert.Equal(t, 1, resp.Waitlisted)

	_, err = f.svc.ListAttendees(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, events ...notifications.LedgerEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *mockPublisher) Close() error { return nil }

func eventTypes(evts []notifications.LedgerEvent) []notifications.EventType {
	out := make([]notifications.EventType, 0, len(evts))
	for _, e := range evts {
		out = append(out, e.Type)
	}
	return out
}

func TestLedgerEventsPublishedAfterCommit(t *testing.T) {
	pub := &mockPublisher{}
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 1)}, WithPublisher(pub))
	ctx := context.Background()

	expect := func(types ...notifications.EventType) {
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(evts []notifications.LedgerEvent) bool {
			return assert.ObjectsAreEqual(types, eventTypes(evts))
		})).Return(nil).Once()
	}
	expect(notifications.EventAttendeeRegistered)
	expect(notifications.EventAttendeeWaitlisted)
	expect(notifications.EventAttendeeCancelled, notifications.EventAttendeePromoted)

	f.register(t, "evt-1", 1)
	f.register(t, "evt-1", 2)
	_, err := f.svc.Unregister(ctx, "evt-1", userID(1))
	require.NoError(t, err)

	pub.AssertExpectations(t)
}

func TestPublishFailureKeepsCommittedRegistration(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka down"))
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 1)}, WithPublisher(pub))

	a := f.register(t, "evt-1", 1)
	assert.Equal(t, StatusRegistered, a.Status)
	assert.Len(t, f.attendees(t, "evt-1"), 1)
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, apperror.Conflict("resource is busy, retry", errors.New("held"))
}

func TestLockContentionIsRetryable(t *testing.T) {
	f := newFixture(t, []events.Event{testEvent("evt-1", eventStart, 1)}, WithLocker(busyLocker{}))

	_, err := f.svc.Register(context.Background(), "evt-1", userID(1))
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.True(t, apperror.Retryable(err))
	assert.Empty(t, f.attendees(t, "evt-1"))
}

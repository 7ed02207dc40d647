package registrations

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"campusbook/internal/events"
	"campusbook/internal/shared/locks"
)

// memoryRepository keeps ledgers in memory. Transact holds a per-event mutex and stages
// writes on a copy that replaces the stored list on success.
type memoryRepository struct {
	events events.Repository
	locks  *locks.KeyedMutex

	mu        sync.RWMutex
	attendees map[string][]Attendee
}

func NewMemoryRepository(eventRepo events.Repository) Repository {
	return &memoryRepository{
		events:    eventRepo,
		locks:     locks.NewKeyedMutex(),
		attendees: make(map[string][]Attendee),
	}
}

func (r *memoryRepository) Transact(ctx context.Context, eventID string, fn func(tx Tx) error) error {
	release, err := r.locks.Acquire(ctx, eventID)
	if err != nil {
		return err
	}
	defer release()

	event, err := r.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	tx := &memoryTx{repo: r, event: event, staged: r.snapshot(eventID)}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	r.attendees[eventID] = tx.staged
	r.mu.Unlock()
	return nil
}

func (r *memoryRepository) snapshot(eventID string) []Attendee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.attendees[eventID]
	out := make([]Attendee, len(src))
	for i := range src {
		out[i] = cloneAttendee(src[i])
	}
	return out
}

func (r *memoryRepository) ListByEvent(_ context.Context, eventID string) ([]Attendee, error) {
	return r.snapshot(eventID), nil
}

func (r *memoryRepository) RegisteredEventIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registeredEventIDsLocked(userID, "", nil), nil
}

// registeredEventIDsLocked scans committed ledgers, substituting staged for the ledger of
// stagedEvent. Caller holds r.mu.
func (r *memoryRepository) registeredEventIDsLocked(userID, stagedEvent string, staged []Attendee) []string {
	var ids []string
	collect := func(eventID string, list []Attendee) {
		for _, a := range list {
			if a.UserID == userID && a.Status == StatusRegistered {
				ids = append(ids, eventID)
				return
			}
		}
	}
	for eventID, list := range r.attendees {
		if eventID == stagedEvent {
			continue
		}
		collect(eventID, list)
	}
	if stagedEvent != "" {
		collect(stagedEvent, staged)
	}
	sort.Strings(ids)
	return ids
}

func (r *memoryRepository) EventsWithWaitlist(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for eventID, list := range r.attendees {
		for _, a := range list {
			if a.Status == StatusWaitlisted {
				ids = append(ids, eventID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memoryTx struct {
	repo   *memoryRepository
	event  *events.Event
	staged []Attendee
}

func (t *memoryTx) Event() *events.Event {
	return t.event
}

func (t *memoryTx) Attendees() ([]Attendee, error) {
	out := make([]Attendee, len(t.staged))
	for i := range t.staged {
		out[i] = cloneAttendee(t.staged[i])
	}
	return out, nil
}

func (t *memoryTx) RegisteredEventIDs(userID string) ([]string, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	return t.repo.registeredEventIDsLocked(userID, t.event.ID, t.staged), nil
}

func (t *memoryTx) Create(attendee *Attendee) error {
	for i := range t.staged {
		if t.staged[i].ID == attendee.ID {
			return fmt.Errorf("attendee %s already exists", attendee.ID)
		}
	}
	t.staged = append(t.staged, cloneAttendee(*attendee))
	return nil
}

func (t *memoryTx) Save(attendee *Attendee) error {
	for i := range t.staged {
		if t.staged[i].ID == attendee.ID {
			t.staged[i] = cloneAttendee(*attendee)
			return nil
		}
	}
	return fmt.Errorf("attendee %s not found", attendee.ID)
}

func cloneAttendee(a Attendee) Attendee {
	if a.WaitlistPosition != nil {
		p := *a.WaitlistPosition
		a.WaitlistPosition = &p
	}
	if a.PromotedAt != nil {
		t := *a.PromotedAt
		a.PromotedAt = &t
	}
	if a.CancelledAt != nil {
		t := *a.CancelledAt
		a.CancelledAt = &t
	}
	return a
}

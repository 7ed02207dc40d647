package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"campusbook/internal/shared/apperror"
	"campusbook/internal/shared/database/pgerr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByIDs(ctx context.Context, ids []string) ([]Event, error)
	// Mutate applies fn to the current row and saves it as one atomic step. Concurrent
	// mutations of the same event serialize; an error from fn leaves the row unchanged.
	// fn must not call back into the repository.
	Mutate(ctx context.Context, id string, fn func(event *Event) error) (*Event, error)
	// ListByVenue returns events holding venue whose window intersects [from, to).
	ListByVenue(ctx context.Context, venue string, from, to time.Time) ([]Event, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("event %s not found", id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]Event, error) {
	var events []Event
	if len(ids) == 0 {
		return events, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("starts_at ASC").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}

// Mutate locks the row with SELECT ... FOR UPDATE, the same lock the registration ledger takes,
// so lifecycle changes and registrations on one event never interleave.
func (r *repository) Mutate(ctx context.Context, id string, fn func(event *Event) error) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&event).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("event %s not found", id)
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}

		if err := fn(&event); err != nil {
			return err
		}
		if err := tx.Save(&event).Error; err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pgerr.Translate("event is being modified, retry", err)
	}
	return &event, nil
}

func (r *repository) ListByVenue(ctx context.Context, venue string, from, to time.Time) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("venue = ?", venue).
		Where("status IN ?", []Status{StatusPending, StatusApproved}).
		Where("starts_at < ? AND ends_at > ?", to, from).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for venue %s: %w", venue, err)
	}
	return events, nil
}

type memoryRepository struct {
	mu     sync.RWMutex
	events map[string]Event
}

// NewMemoryRepository returns a map-backed Repository for tests and single-node runs.
func NewMemoryRepository(seed ...Event) Repository {
	r := &memoryRepository{events: make(map[string]Event, len(seed))}
	for _, e := range seed {
		r.events[e.ID] = e
	}
	return r
}

func (r *memoryRepository) Create(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return fmt.Errorf("event %s already exists", event.ID)
	}
	now := time.Now().UTC()
	event.CreatedAt, event.UpdatedAt = now, now
	r.events[event.ID] = *event
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, apperror.NotFound("event %s not found", id)
	}
	return &e, nil
}

func (r *memoryRepository) GetByIDs(_ context.Context, ids []string) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.events[id]; ok {
			out = append(out, e)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *memoryRepository) Mutate(_ context.Context, id string, fn func(event *Event) error) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.events[id]
	if !ok {
		return nil, apperror.NotFound("event %s not found", id)
	}
	event := current
	event.EligibleRoles = append([]string(nil), current.EligibleRoles...)
	if err := fn(&event); err != nil {
		return nil, err
	}
	event.ID = id
	event.UpdatedAt = time.Now().UTC()
	r.events[id] = event

	out := event
	return &out, nil
}

func (r *memoryRepository) ListByVenue(_ context.Context, venue string, from, to time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Event
	for _, e := range r.events {
		if e.Venue != venue || !e.Status.HoldsVenue() {
			continue
		}
		if e.StartsAt.Before(to) && e.EndsAt.After(from) {
			out = append(out, e)
		}
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartsAt.Equal(events[j].StartsAt) {
			return events[i].StartsAt.Before(events[j].StartsAt)
		}
		return events[i].ID < events[j].ID
	})
}

package resources

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"campusbook/internal/shared/apperror"
	"campusbook/internal/shared/locks"
)

// memoryRepository keeps assignments in memory, one list per resource. Writes are staged and
// replace the stored list only when the transaction callback succeeds.
type memoryRepository struct {
	locks *locks.KeyedMutex

	mu          sync.RWMutex
	assignments map[string][]Assignment
	owner       map[string]string // assignment id -> resource id
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		locks:       locks.NewKeyedMutex(),
		assignments: make(map[string][]Assignment),
		owner:       make(map[string]string),
	}
}

func (r *memoryRepository) Transact(ctx context.Context, resourceID string, fn func(tx Tx) error) error {
	release, err := r.locks.Acquire(ctx, resourceID)
	if err != nil {
		return err
	}
	defer release()

	tx := &memoryTx{resourceID: resourceID, staged: r.snapshot(resourceID)}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[resourceID] = tx.staged
	for _, a := range tx.staged {
		r.owner[a.ID] = resourceID
	}
	return nil
}

func (r *memoryRepository) snapshot(resourceID string) []Assignment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.assignments[resourceID]
	out := make([]Assignment, len(src))
	for i := range src {
		out[i] = cloneAssignment(src[i])
	}
	return out
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.assignments[r.owner[id]] {
		if a.ID == id {
			found := cloneAssignment(a)
			return &found, nil
		}
	}
	return nil, apperror.NotFound("assignment %s not found", id)
}

func (r *memoryRepository) ListByResource(_ context.Context, resourceID string) ([]Assignment, error) {
	out := r.snapshot(resourceID)
	sortByStart(out)
	return out, nil
}

func (r *memoryRepository) ListHolding(_ context.Context, resourceID string, from, to time.Time) ([]Assignment, error) {
	var out []Assignment
	for _, a := range r.snapshot(resourceID) {
		if a.Holds() && a.StartsAt.Before(to) && a.EndsAt.After(from) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

type memoryTx struct {
	resourceID string
	staged     []Assignment
}

func (t *memoryTx) Holding() ([]Assignment, error) {
	var out []Assignment
	for _, a := range t.staged {
		if a.Holds() {
			out = append(out, cloneAssignment(a))
		}
	}
	sortByStart(out)
	return out, nil
}

func (t *memoryTx) Get(id string) (*Assignment, error) {
	for _, a := range t.staged {
		if a.ID == id {
			found := cloneAssignment(a)
			return &found, nil
		}
	}
	return nil, apperror.NotFound("assignment %s not found", id)
}

func (t *memoryTx) Create(a *Assignment) error {
	if a.ResourceID != t.resourceID {
		return fmt.Errorf("assignment %s belongs to resource %s, not %s", a.ID, a.ResourceID, t.resourceID)
	}
	for i := range t.staged {
		if t.staged[i].ID == a.ID {
			return fmt.Errorf("assignment %s already exists", a.ID)
		}
	}
	t.staged = append(t.staged, cloneAssignment(*a))
	return nil
}

func (t *memoryTx) Save(a *Assignment) error {
	for i := range t.staged {
		if t.staged[i].ID == a.ID {
			t.staged[i] = cloneAssignment(*a)
			return nil
		}
	}
	return fmt.Errorf("assignment %s not found", a.ID)
}

func sortByStart(assignments []Assignment) {
	sort.Slice(assignments, func(i, j int) bool {
		if !assignments[i].StartsAt.Equal(assignments[j].StartsAt) {
			return assignments[i].StartsAt.Before(assignments[j].StartsAt)
		}
		return assignments[i].ID < assignments[j].ID
	})
}

func cloneAssignment(a Assignment) Assignment {
	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		a.ApprovedAt = &t
	}
	if a.ReleasedAt != nil {
		t := *a.ReleasedAt
		a.ReleasedAt = &t
	}
	return a
}

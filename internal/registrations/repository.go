package registrations

import (
	"context"
	"errors"
	"fmt"

	"campusbook/internal/events"
	"campusbook/internal/shared/apperror"
	"campusbook/internal/shared/database/pgerr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tx is one event's ledger inside an atomic section. Writes become visible to other callers
// only if the Transact callback returns nil.
type Tx interface {
	Event() *events.Event
	Attendees() ([]Attendee, error)
	// RegisteredEventIDs lists events where userID currently holds a registered seat.
	RegisteredEventIDs(userID string) ([]string, error)
	Create(attendee *Attendee) error
	Save(attendee *Attendee) error
}

type Repository interface {
	// Transact runs fn atomically with respect to every other Transact on eventID.
	// Transactions on different events do not block each other.
	Transact(ctx context.Context, eventID string, fn func(tx Tx) error) error

	ListByEvent(ctx context.Context, eventID string) ([]Attendee, error)
	RegisteredEventIDs(ctx context.Context, userID string) ([]string, error)
	EventsWithWaitlist(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns the PostgreSQL ledger. Transact locks the event row with
// SELECT ... FOR UPDATE, which serializes every writer of that event.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transact(ctx context.Context, eventID string, fn func(tx Tx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event events.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", eventID).
			First(&event).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("event %s not found", eventID)
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}

		return fn(&gormTx{db: tx, event: &event})
	})
	return pgerr.Translate("registration ledger busy, retry", err)
}

func (r *repository) ListByEvent(ctx context.Context, eventID string) ([]Attendee, error) {
	var attendees []Attendee
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("sequence ASC").
		Find(&attendees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	return attendees, nil
}

func (r *repository) RegisteredEventIDs(ctx context.Context, userID string) ([]string, error) {
	return registeredEventIDs(r.db.WithContext(ctx), userID)
}

func (r *repository) EventsWithWaitlist(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&Attendee{}).
		Where("status = ?", StatusWaitlisted).
		Distinct().
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlisted events: %w", err)
	}
	return ids, nil
}

func registeredEventIDs(db *gorm.DB, userID string) ([]string, error) {
	var ids []string
	err := db.Model(&Attendee{}).
		Where("user_id = ? AND status = ?", userID, StatusRegistered).
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations of user %s: %w", userID, err)
	}
	return ids, nil
}

type gormTx struct {
	db    *gorm.DB
	event *events.Event
}

func (t *gormTx) Event() *events.Event {
	return t.event
}

func (t *gormTx) Attendees() ([]Attendee, error) {
	var attendees []Attendee
	err := t.db.Where("event_id = ?", t.event.ID).Order("sequence ASC").Find(&attendees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load attendees: %w", err)
	}
	return attendees, nil
}

func (t *gormTx) RegisteredEventIDs(userID string) ([]string, error) {
	return registeredEventIDs(t.db, userID)
}

func (t *gormTx) Create(attendee *Attendee) error {
	if err := t.db.Create(attendee).Error; err != nil {
		return fmt.Errorf("failed to create attendee: %w", err)
	}
	return nil
}

func (t *gormTx) Save(attendee *Attendee) error {
	if err := t.db.Save(attendee).Error; err != nil {
		return fmt.Errorf("failed to save attendee: %w", err)
	}
	return nil
}

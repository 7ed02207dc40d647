package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusbook/internal/shared/apperror"
	"campusbook/internal/shared/database/pgerr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tx is one resource's assignment ledger inside an atomic section.
type Tx interface {
	// Holding returns the resource's pending and approved assignments.
	Holding() ([]Assignment, error)
	Get(id string) (*Assignment, error)
	Create(a *Assignment) error
	Save(a *Assignment) error
}

type Repository interface {
	// Transact runs fn atomically with respect to every other Transact on resourceID.
	Transact(ctx context.Context, resourceID string, fn func(tx Tx) error) error

	GetByID(ctx context.Context, id string) (*Assignment, error)
	ListByResource(ctx context.Context, resourceID string) ([]Assignment, error)
	// ListHolding returns pending and approved assignments on resourceID intersecting [from, to).
	ListHolding(ctx context.Context, resourceID string, from, to time.Time) ([]Assignment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns the PostgreSQL assignment ledger. The resource row is created on
// first use and locked FOR UPDATE for the length of each transaction.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transact(ctx context.Context, resourceID string, fn func(tx Tx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Resource{ID: resourceID}).Error
		if err != nil {
			return fmt.Errorf("failed to register resource: %w", err)
		}

		var res Resource
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", resourceID).
			First(&res).Error
		if err != nil {
			return fmt.Errorf("failed to lock resource: %w", err)
		}

		return fn(&gormTx{db: tx, resourceID: resourceID})
	})
	return pgerr.Translate("resource ledger busy, retry", err)
}

func (r *repository) GetByID(ctx context.Context, id string) (*Assignment, error) {
	return getAssignment(r.db.WithContext(ctx), id)
}

func (r *repository) ListByResource(ctx context.Context, resourceID string) ([]Assignment, error) {
	var assignments []Assignment
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("starts_at ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (r *repository) ListHolding(ctx context.Context, resourceID string, from, to time.Time) ([]Assignment, error) {
	var assignments []Assignment
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Where("status IN ?", []Status{StatusPending, StatusApproved}).
		Where("starts_at < ? AND ends_at > ?", to, from).
		Order("starts_at ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func getAssignment(db *gorm.DB, id string) (*Assignment, error) {
	var a Assignment
	if err := db.Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("assignment %s not found", id)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

type gormTx struct {
	db         *gorm.DB
	resourceID string
}

func (t *gormTx) Holding() ([]Assignment, error) {
	var assignments []Assignment
	err := t.db.
		Where("resource_id = ? AND status IN ?", t.resourceID, []Status{StatusPending, StatusApproved}).
		Order("starts_at ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	return assignments, nil
}

func (t *gormTx) Get(id string) (*Assignment, error) {
	return getAssignment(t.db, id)
}

func (t *gormTx) Create(a *Assignment) error {
	if err := t.db.Create(a).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (t *gormTx) Save(a *Assignment) error {
	if err := t.db.Save(a).Error; err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

package resources

import (
	"time"

	"campusbook/internal/schedule"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusReleased Status = "released"
)

// Resource is a piece of equipment or room fixture that can be assigned to one event at a
// time. Its row is the lock taken by every assignment write for that resource.
type Resource struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"size:255"`
	Kind      string    `json:"kind" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Resource) TableName() string {
	return "resources"
}

// Assignment is an exclusive claim on a resource for a time window. Released assignments
// are kept for history and never block new claims.
type Assignment struct {
	ID         string     `json:"id" gorm:"primaryKey;size:64"`
	ResourceID string     `json:"resource_id" gorm:"not null;size:64;index:idx_assignments_resource_start,priority:1"`
	EventID    string     `json:"event_id" gorm:"not null;size:64;index"`
	StartsAt   time.Time  `json:"starts_at" gorm:"not null;index:idx_assignments_resource_start,priority:2"`
	EndsAt     time.Time  `json:"ends_at" gorm:"not null"`
	Status     Status     `json:"status" gorm:"type:varchar(20);not null;index"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Assignment) TableName() string {
	return "resource_assignments"
}

func (a *Assignment) Window() schedule.TimeWindow {
	return schedule.TimeWindow{Start: a.StartsAt, End: a.EndsAt}
}

// Holds reports whether the assignment still claims its window.
func (a *Assignment) Holds() bool {
	return a.Status == StatusPending || a.Status == StatusApproved
}

func (a *Assignment) Booking() schedule.Booking {
	return schedule.Booking{
		ID:          "assignment:" + a.ID,
		ResourceKey: a.ResourceID,
		Window:      a.Window(),
		OwnerID:     a.EventID,
		OwnerLabel:  "event " + a.EventID,
	}
}

func bookingsOf(assignments []Assignment) []schedule.Booking {
	out := make([]schedule.Booking, 0, len(assignments))
	for i := range assignments {
		out = append(out, assignments[i].Booking())
	}
	return out
}

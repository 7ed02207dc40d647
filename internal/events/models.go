package events

import (
	"strings"
	"time"

	"campusbook/internal/schedule"
)

// Event carries the fields the scheduling engine reads. Everything else about an event lives
// in the content service.
type Event struct {
	ID                   string    `json:"id" gorm:"primaryKey;size:64"`
	Title                string    `json:"title" gorm:"not null;size:255"`
	OrganizerName        string    `json:"organizer_name" gorm:"size:255"`
	Status               Status    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Venue                string    `json:"venue" gorm:"not null;size:255;index:idx_events_venue_start"`
	StartsAt             time.Time `json:"starts_at" gorm:"not null;index:idx_events_venue_start"`
	EndsAt               time.Time `json:"ends_at" gorm:"not null"`
	RegistrationDeadline time.Time `json:"registration_deadline" gorm:"not null"`
	MaxAttendees         int       `json:"max_attendees" gorm:"not null;check:max_attendees > 0"`
	EligibleRoles        []string  `json:"eligible_roles" gorm:"serializer:json"`
	Price                float64   `json:"price" gorm:"not null;default:0;check:price >= 0"`
	IsPaid               bool      `json:"is_paid" gorm:"not null;default:false"`
	Unavailable          bool      `json:"unavailable" gorm:"not null;default:false"`
	UnavailableReason    string    `json:"unavailable_reason,omitempty" gorm:"size:64"`
	CreatedAt            time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) Window() schedule.TimeWindow {
	return schedule.TimeWindow{Start: e.StartsAt, End: e.EndsAt}
}

// Booking is the venue claim this event makes.
func (e *Event) Booking() schedule.Booking {
	return schedule.Booking{
		ID:          "event:" + e.ID,
		ResourceKey: e.Venue,
		Window:      e.Window(),
		OwnerID:     e.ID,
		OwnerLabel:  e.Title,
		OwnerName:   e.OrganizerName,
	}
}

// AllowsRole is true when the event has no role restriction or lists role.
func (e *Event) AllowsRole(role string) bool {
	if len(e.EligibleRoles) == 0 {
		return true
	}
	for _, r := range e.EligibleRoles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

package registrations

import (
	"time"
)

type Status string

const (
	StatusRegistered Status = "registered"
	StatusWaitlisted Status = "waitlisted"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentCompleted   PaymentStatus = "completed"
)

// Attendee is one registration instance of a user for an event. Cancelled records are kept
// for history and never counted.
type Attendee struct {
	ID               string        `json:"id" gorm:"primaryKey;size:64"`
	EventID          string        `json:"event_id" gorm:"not null;size:64;index:idx_attendees_event_seq,priority:1"`
	UserID           string        `json:"user_id" gorm:"not null;size:64;index"`
	Status           Status        `json:"status" gorm:"type:varchar(20);not null;index"`
	Sequence         int64         `json:"sequence" gorm:"not null;index:idx_attendees_event_seq,priority:2"`
	RegistrationDate time.Time     `json:"registration_date" gorm:"not null"`
	TicketID         string        `json:"ticket_id" gorm:"size:64;uniqueIndex"`
	WaitlistPosition *int          `json:"waitlist_position,omitempty"`
	PaymentStatus    PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null"`
	PromotedAt       *time.Time    `json:"promoted_at,omitempty"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Attendee) TableName() string {
	return "attendees"
}

// Active is true for registered and waitlisted records.
func (a *Attendee) Active() bool {
	return a.Status == StatusRegistered || a.Status == StatusWaitlisted
}

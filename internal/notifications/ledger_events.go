package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAttendeeRegistered  EventType = "attendee.registered"
	EventAttendeeWaitlisted  EventType = "attendee.waitlisted"
	EventAttendeePromoted    EventType = "attendee.promoted"
	EventAttendeeCancelled   EventType = "attendee.cancelled"
	EventAssignmentRequested EventType = "assignment.requested"
	EventAssignmentApproved  EventType = "assignment.approved"
	EventAssignmentReleased  EventType = "assignment.released"
)

// LedgerEvent describes one committed ledger transition. The notification service consumes
// these to email attendees and organizers.
type LedgerEvent struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	Key              string    `json:"key"`
	SubjectID        string    `json:"subject_id"`
	Status           string    `json:"status"`
	TicketID         string    `json:"ticket_id,omitempty"`
	WaitlistPosition *int      `json:"waitlist_position,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewLedgerEvent stamps an id and time on a transition. key is the event or resource id,
// subjectID the user or assignment id.
func NewLedgerEvent(eventType EventType, key, subjectID, status string) LedgerEvent {
	return LedgerEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		SubjectID:  subjectID,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

package events

import "time"

type CreateEventRequest struct {
	ID                   string     `json:"id" binding:"omitempty,max=64"`
	Title                string     `json:"title" binding:"required,min=3,max=255"`
	OrganizerName        string     `json:"organizer_name" binding:"max=255"`
	Venue                string     `json:"venue" binding:"required,max=255"`
	Date                 string     `json:"date" binding:"required,datetime=2006-01-02"`
	Time                 string     `json:"time" binding:"required,datetime=15:04"`
	DurationHours        *float64   `json:"duration_hours" binding:"omitempty,gte=1,lte=24"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	MaxAttendees         int        `json:"max_attendees" binding:"required,min=1,max=100000"`
	EligibleRoles        []string   `json:"eligible_roles" binding:"omitempty,dive,oneof=STUDENT FACULTY STAFF ORGANIZER ADMIN"`
	Price                float64    `json:"price" binding:"min=0"`
	IsPaid               bool       `json:"is_paid"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=rejected cancelled"`
}

type UpdateCapacityRequest struct {
	MaxAttendees int `json:"max_attendees" binding:"required,min=1,max=100000"`
}

package eligibility

import "time"

// Reason codes are the stable vocabulary clients render; do not rename.
const (
	ReasonEventNotApproved    = "event_not_approved"
	ReasonEventUnavailable    = "event_unavailable"
	ReasonDeadlinePassed      = "deadline_passed"
	ReasonRoleIneligible      = "role_ineligible"
	ReasonAlreadyRegistered   = "already_registered"
	ReasonTimeConflict        = "time_conflict"
	ReasonInsufficientBalance = "insufficient_balance"
)

type AvailabilityCheck struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type DeadlineCheck struct {
	Passed               bool      `json:"passed"`
	Deadline             time.Time `json:"deadline"`
	TimeRemainingSeconds int64     `json:"time_remaining_seconds,omitempty"`
}

type RoleCheck struct {
	Eligible      bool     `json:"eligible"`
	Role          string   `json:"role"`
	EligibleRoles []string `json:"eligible_roles,omitempty"`
}

type RegistrationCheck struct {
	Registered bool `json:"registered"`
}

type ConflictingEvent struct {
	EventID  string `json:"event_id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Severity string `json:"severity"`
}

type TimeConflictCheck struct {
	HasConflict       bool               `json:"has_conflict"`
	ConflictingEvents []ConflictingEvent `json:"conflicting_events"`
}

type PaymentCheck struct {
	Required    bool    `json:"required"`
	Amount      float64 `json:"amount,omitempty"`
	UserBalance float64 `json:"user_balance,omitempty"`
	Sufficient  bool    `json:"sufficient"`
}

type SeatCheck struct {
	AvailableSeats int `json:"available_seats"`
	MaxAttendees   int `json:"max_attendees"`
	Registered     int `json:"registered"`
}

// Report lists the outcome of every eligibility check. All checks are always filled in, so a
// caller sees every failing reason at once.
type Report struct {
	EventID              string            `json:"event_id"`
	UserID               string            `json:"user_id"`
	EventApproved        bool              `json:"event_approved"`
	EventAvailable       AvailabilityCheck `json:"event_available"`
	RegistrationDeadline DeadlineCheck     `json:"registration_deadline"`
	UserRole             RoleCheck         `json:"user_role"`
	AlreadyRegistered    RegistrationCheck `json:"already_registered"`
	TimeConflict         TimeConflictCheck `json:"time_conflict"`
	Payment              PaymentCheck      `json:"payment"`
	SeatAvailability     SeatCheck         `json:"seat_availability"`
	IsEligible           bool              `json:"is_eligible"`
	Reasons              []string          `json:"reasons"`
	EvaluatedAt          time.Time         `json:"evaluated_at"`
}

package events

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// HoldsVenue reports whether an event in this status occupies its venue slot.
func (s Status) HoldsVenue() bool {
	return s == StatusPending || s == StatusApproved
}

func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// Reasons an approved event can be marked unavailable
const (
	UnavailableVenueDoubleBooked = "venue_double_booked"
)

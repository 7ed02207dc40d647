package registrations

type RegisterResult struct {
	Attendee *Attendee `json:"attendee"`
	// Promoted lists waitlisted attendees moved into free seats before this registrant.
	Promoted []Attendee `json:"promoted,omitempty"`
}

type UnregisterResult struct {
	Cancelled *Attendee  `json:"cancelled"`
	Promoted  []Attendee `json:"promoted"`
}

type AttendeeListResponse struct {
	EventID    string     `json:"event_id"`
	Registered int        `json:"registered"`
	Waitlisted int        `json:"waitlisted"`
	Attendees  []Attendee `json:"attendees"`
}

func newAttendeeListResponse(eventID string, attendees []Attendee) AttendeeListResponse {
	resp := AttendeeListResponse{EventID: eventID, Attendees: attendees}
	for _, a := range attendees {
		switch a.Status {
		case StatusRegistered:
			resp.Registered++
		case StatusWaitlisted:
			resp.Waitlisted++
		}
	}
	if resp.Attendees == nil {
		resp.Attendees = []Attendee{}
	}
	return resp
}

package registrations

import (
	"sort"

	"campusbook/internal/events"
)

// ledger is one event's attendee list as read inside an atomic section. Pointers returned by
// its methods point into attendees, so edits are visible to later calls.
type ledger struct {
	event     *events.Event
	attendees []Attendee
}

func newLedger(event *events.Event, attendees []Attendee) *ledger {
	sort.SliceStable(attendees, func(i, j int) bool {
		return attendees[i].Sequence < attendees[j].Sequence
	})
	return &ledger{event: event, attendees: attendees}
}

func (l *ledger) registeredCount() int {
	n := 0
	for i := range l.attendees {
		if l.attendees[i].Status == StatusRegistered {
			n++
		}
	}
	return n
}

func (l *ledger) freeSeats() int {
	free := l.event.MaxAttendees - l.registeredCount()
	if free < 0 {
		return 0
	}
	return free
}

func (l *ledger) activeFor(userID string) *Attendee {
	for i := range l.attendees {
		if l.attendees[i].UserID == userID && l.attendees[i].Active() {
			return &l.attendees[i]
		}
	}
	return nil
}

// waitlist returns waitlisted attendees in FIFO order.
func (l *ledger) waitlist() []*Attendee {
	var queue []*Attendee
	for i := range l.attendees {
		if l.attendees[i].Status == StatusWaitlisted {
			queue = append(queue, &l.attendees[i])
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		pi, pj := position(queue[i]), position(queue[j])
		if pi != pj {
			return pi < pj
		}
		return queue[i].Sequence < queue[j].Sequence
	})
	return queue
}

func (l *ledger) nextSequence() int64 {
	var max int64
	for i := range l.attendees {
		if l.attendees[i].Sequence > max {
			max = l.attendees[i].Sequence
		}
	}
	return max + 1
}

func (l *ledger) add(a Attendee) *Attendee {
	l.attendees = append(l.attendees, a)
	return &l.attendees[len(l.attendees)-1]
}

func position(a *Attendee) int {
	if a.WaitlistPosition == nil {
		return int(^uint(0) >> 1)
	}
	return *a.WaitlistPosition
}

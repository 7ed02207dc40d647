// Package seed loads a small campus dataset: users of every role, a few approved events and
// resource assignments. Used by cmd/seed and by the in-memory store at startup.
package seed

import (
	"context"
	"fmt"
	"time"

	"campusbook/internal/events"
	"campusbook/internal/resources"
	"campusbook/internal/users"
	"campusbook/pkg/logger"
)

type Seeder struct {
	users     users.Repository
	events    events.Service
	resources resources.Service
	location  *time.Location
	log       *logger.Logger
}

func New(userRepo users.Repository, eventService events.Service, resourceService resources.Service, location *time.Location) *Seeder {
	if location == nil {
		location = time.UTC
	}
	return &Seeder{
		users:     userRepo,
		events:    eventService,
		resources: resourceService,
		location:  location,
		log:       logger.GetDefault(),
	}
}

// Summary reports what SeedAll created
type Summary struct {
	Users       int
	Events      []string
	Assignments int
}

// SeedAll creates the dataset with events scheduled relative to now.
func (s *Seeder) SeedAll(ctx context.Context, now time.Time) (*Summary, error) {
	summary := &Summary{}

	n, err := s.SeedUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	summary.Users = n

	eventIDs, err := s.SeedEvents(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to seed events: %w", err)
	}
	summary.Events = eventIDs

	n, err = s.SeedAssignments(ctx, now, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to seed assignments: %w", err)
	}
	summary.Assignments = n

	s.log.Info("Seed data loaded", "users", summary.Users, "events", len(summary.Events), "assignments", summary.Assignments)
	return summary, nil
}

func (s *Seeder) SeedUsers(ctx context.Context) (int, error) {
	people := []users.User{
		{ID: "admin", DisplayName: "Campus Admin", Email: "admin@campus.edu", Role: users.RoleAdmin, Balance: 0},
		{ID: "org-ana", DisplayName: "Ana Organizer", Email: "ana@campus.edu", Role: users.RoleOrganizer, Balance: 50},
		{ID: "fac-lee", DisplayName: "Dr. Lee", Email: "lee@campus.edu", Role: users.RoleFaculty, Balance: 200},
		{ID: "staff-raj", DisplayName: "Raj Staff", Email: "raj@campus.edu", Role: users.RoleStaff, Balance: 80},
	}
	for i := 1; i <= 6; i++ {
		people = append(people, users.User{
			ID:          fmt.Sprintf("stu-%02d", i),
			DisplayName: fmt.Sprintf("Student %d", i),
			Email:       fmt.Sprintf("student%d@campus.edu", i),
			Role:        users.RoleStudent,
			Balance:     float64(10 * i),
		})
	}

	for i := range people {
		if err := s.users.Create(ctx, &people[i]); err != nil {
			return 0, fmt.Errorf("failed to create user %s: %w", people[i].ID, err)
		}
	}
	return len(people), nil
}

func (s *Seeder) SeedEvents(ctx context.Context, now time.Time) ([]string, error) {
	day := func(offset int) string {
		return now.In(s.location).AddDate(0, 0, offset).Format("2006-01-02")
	}
	hours := func(h float64) *float64 { return &h }

	requests := []events.CreateEventRequest{
		{ID: "evt-orientation", Title: "Freshers Orientation", OrganizerName: "Ana Organizer", Venue: "Main Auditorium",
			Date: day(7), Time: "10:00", DurationHours: hours(3), MaxAttendees: 5},
		{ID: "evt-ml-seminar", Title: "ML Research Seminar", OrganizerName: "Dr. Lee", Venue: "Seminar Hall B",
			Date: day(7), Time: "11:00", DurationHours: hours(2), MaxAttendees: 3,
			EligibleRoles: []string{"FACULTY", "STUDENT"}},
		{ID: "evt-staff-briefing", Title: "Staff Briefing", OrganizerName: "Campus Admin", Venue: "Seminar Hall B",
			Date: day(8), Time: "09:00", DurationHours: hours(1), MaxAttendees: 20,
			EligibleRoles: []string{"STAFF", "ADMIN"}},
		{ID: "evt-hackathon", Title: "Weekend Hackathon", OrganizerName: "Ana Organizer", Venue: "Innovation Lab",
			Date: day(10), Time: "09:00", DurationHours: hours(12), MaxAttendees: 4, IsPaid: true, Price: 25},
	}

	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		event, err := s.events.CreateEvent(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to create event %s: %w", req.Title, err)
		}
		if _, err := s.events.ApproveEvent(ctx, event.ID); err != nil {
			return nil, fmt.Errorf("failed to approve event %s: %w", req.Title, err)
		}
		ids = append(ids, event.ID)
	}
	return ids, nil
}

func (s *Seeder) SeedAssignments(ctx context.Context, now time.Time, eventIDs []string) (int, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	date := now.In(s.location).AddDate(0, 0, 7).Format("2006-01-02")
	hours := 3.0

	claims := []struct {
		resource string
		time     string
		approve  bool
	}{
		{"projector-aud-1", "10:00", true},
		{"wireless-mic-set", "10:00", true},
		{"projector-aud-1", "14:00", false},
	}

	for _, claim := range claims {
		a, err := s.resources.AssignSlot(ctx, claim.resource, resources.AssignRequest{
			Date: date, Time: claim.time, DurationHours: &hours, EventID: eventIDs[0],
		})
		if err != nil {
			return 0, fmt.Errorf("failed to assign %s: %w", claim.resource, err)
		}
		if claim.approve {
			if _, err := s.resources.Approve(ctx, a.ID); err != nil {
				return 0, fmt.Errorf("failed to approve assignment %s: %w", a.ID, err)
			}
		}
	}
	return len(claims), nil
}

package schedule

import (
	"sort"
	"strings"
	"time"

	"campusbook/internal/shared/apperror"
)

// Severity grades how badly a candidate window collides with an existing booking.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Booking is an exclusive time-window claim on a venue or resource.
type Booking struct {
	ID          string     `json:"id"`
	ResourceKey string     `json:"resource_key"`
	Window      TimeWindow `json:"window"`
	OwnerID     string     `json:"owner_id"`
	OwnerLabel  string     `json:"owner_label"`
	OwnerName   string     `json:"owner_name,omitempty"`
}

type ConflictQuery struct {
	Window         TimeWindow `json:"window"`
	ResourceKey    string     `json:"resource_key"`
	ExcludeOwnerID string     `json:"exclude_owner_id,omitempty"`
}

type ConflictEntry struct {
	Booking      Booking  `json:"booking"`
	Severity     Severity `json:"severity"`
	OverlapHours float64  `json:"overlap_hours"`
}

type ConflictResult struct {
	Available        bool            `json:"available"`
	Conflicts        []ConflictEntry `json:"conflicts"`
	SuggestedSlots   []TimeWindow    `json:"suggested_slots"`
	AlternativeDates []string        `json:"alternative_dates"`
}

// Thresholds are the overlap lengths at which a conflict becomes medium or high.
type Thresholds struct {
	High   time.Duration
	Medium time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{High: time.Hour, Medium: 30 * time.Minute}
}

func (t Thresholds) Classify(overlap time.Duration) Severity {
	switch {
	case overlap >= t.High:
		return SeverityHigh
	case overlap >= t.Medium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// DetectorConfig contains the tunables of the conflict detector
type DetectorConfig struct {
	Thresholds        Thresholds
	BusinessStartHour int
	BusinessEndHour   int
	SlotStep          time.Duration
	MaxSuggestions    int
	AlternativeDays   int
	MaxAlternatives   int
}

func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		Thresholds:        DefaultThresholds(),
		BusinessStartHour: 8,
		BusinessEndHour:   22,
		SlotStep:          time.Hour,
		MaxSuggestions:    5,
		AlternativeDays:   14,
		MaxAlternatives:   10,
	}
}

// Detector finds overlapping bookings for a resource. It holds no state besides its
// configuration and is safe for concurrent use.
type Detector struct {
	config *DetectorConfig
}

func NewDetector(config *DetectorConfig) *Detector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &Detector{config: config}
}

func (d *Detector) Config() DetectorConfig {
	return *d.config
}

// Check reports every booking on query.ResourceKey that overlaps query.Window. When the window is
// free it also suggests other free slots that day; when it is taken it lists upcoming dates where
// the same slot is free.
func (d *Detector) Check(query ConflictQuery, existing []Booking) (*ConflictResult, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	relevant := d.relevantBookings(query, existing)
	conflicts := d.conflictsWith(query.Window, relevant)

	result := &ConflictResult{
		Available:        len(conflicts) == 0,
		Conflicts:        conflicts,
		SuggestedSlots:   []TimeWindow{},
		AlternativeDates: []string{},
	}

	if result.Available {
		result.SuggestedSlots = d.suggestSlots(query.Window, relevant)
	} else {
		result.AlternativeDates = d.alternativeDates(query.Window, relevant)
	}

	return result, nil
}

func validateQuery(query ConflictQuery) error {
	if strings.TrimSpace(query.ResourceKey) == "" {
		return apperror.InvalidRequest("resource key is required")
	}
	return query.Window.Validate()
}

// relevantBookings keeps bookings on the same resource, minus the one being edited.
func (d *Detector) relevantBookings(query ConflictQuery, existing []Booking) []Booking {
	relevant := make([]Booking, 0, len(existing))
	for _, b := range existing {
		if b.ResourceKey != query.ResourceKey {
			continue
		}
		if query.ExcludeOwnerID != "" && b.OwnerID == query.ExcludeOwnerID {
			continue
		}
		relevant = append(relevant, b)
	}
	return relevant
}

func (d *Detector) conflictsWith(window TimeWindow, bookings []Booking) []ConflictEntry {
	conflicts := []ConflictEntry{}
	for _, b := range bookings {
		overlap := window.OverlapDuration(b.Window)
		if overlap <= 0 {
			continue
		}
		conflicts = append(conflicts, ConflictEntry{
			Booking:      b,
			Severity:     d.config.Thresholds.Classify(overlap),
			OverlapHours: overlap.Hours(),
		})
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i].Booking, conflicts[j].Booking
		if !a.Window.Start.Equal(b.Window.Start) {
			return a.Window.Start.Before(b.Window.Start)
		}
		return a.ID < b.ID
	})
	return conflicts
}

func isFree(window TimeWindow, bookings []Booking) bool {
	for _, b := range bookings {
		if window.Overlaps(b.Window) {
			return false
		}
	}
	return true
}

func (d *Detector) suggestSlots(window TimeWindow, bookings []Booking) []TimeWindow {
	slots := []TimeWindow{}
	if d.config.MaxSuggestions <= 0 || d.config.SlotStep <= 0 {
		return slots
	}

	start := window.Start
	loc := start.Location()
	dayOpen := time.Date(start.Year(), start.Month(), start.Day(), d.config.BusinessStartHour, 0, 0, 0, loc)
	dayClose := time.Date(start.Year(), start.Month(), start.Day(), d.config.BusinessEndHour, 0, 0, 0, loc)
	length := window.Duration()

	for candidate := dayOpen; !candidate.Add(length).After(dayClose); candidate = candidate.Add(d.config.SlotStep) {
		if candidate.Equal(window.Start) {
			continue
		}
		slot := WindowFrom(candidate, length)
		if isFree(slot, bookings) {
			slots = append(slots, slot)
			if len(slots) == d.config.MaxSuggestions {
				break
			}
		}
	}
	return slots
}

func (d *Detector) alternativeDates(window TimeWindow, bookings []Booking) []string {
	dates := []string{}
	for day := 1; day <= d.config.AlternativeDays && len(dates) < d.config.MaxAlternatives; day++ {
		shifted := window.ShiftDays(day)
		if isFree(shifted, bookings) {
			dates = append(dates, shifted.Date())
		}
	}
	return dates
}

// LookaheadRange is the span of bookings Check needs to see for window: the whole calendar day of
// the window through the last alternative date.
func (d *Detector) LookaheadRange(window TimeWindow) (from, to time.Time) {
	start := window.Start
	from = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	to = window.ShiftDays(d.config.AlternativeDays).End
	dayEnd := from.AddDate(0, 0, 1)
	if to.Before(dayEnd) {
		to = dayEnd
	}
	return from, to
}

package schedule

import (
	"fmt"
	"math"
	"time"

	"campusbook/internal/shared/apperror"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	// DefaultDurationHours applies when a request omits the duration
	DefaultDurationHours = 2.0

	MinDuration = 1 * time.Hour
	MaxDuration = 24 * time.Hour
)

// TimeWindow is a half-open [Start, End) interval of absolute instants.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow converts a venue-local date, HH:MM start time and duration into a TimeWindow.
func NewWindow(date, clock string, durationHours float64, loc *time.Location) (TimeWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	if durationHours <= 0 || math.IsNaN(durationHours) || math.IsInf(durationHours, 0) {
		return TimeWindow{}, apperror.InvalidRequest("duration_hours must be positive, got %v", durationHours)
	}

	start, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
	if err != nil {
		return TimeWindow{}, apperror.InvalidRequest("invalid date/time %q %q: expected YYYY-MM-DD and HH:MM", date, clock)
	}

	return WindowFrom(start, hoursToDuration(durationHours)), nil
}

// WindowFrom builds a window of the given length starting at start.
func WindowFrom(start time.Time, d time.Duration) TimeWindow {
	return TimeWindow{Start: start, End: start.Add(d)}
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(math.Round(hours * float64(time.Hour)))
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w TimeWindow) DurationHours() float64 {
	return w.Duration().Hours()
}

// Validate checks that the window is well formed and its length lies within [MinDuration, MaxDuration].
func (w TimeWindow) Validate() error {
	if w.Start.IsZero() || !w.End.After(w.Start) {
		return apperror.InvalidRequest("window end must be after start")
	}
	if d := w.Duration(); d < MinDuration || d > MaxDuration {
		return apperror.InvalidRequest("duration must be between %v and %v hours, got %.2f",
			MinDuration.Hours(), MaxDuration.Hours(), d.Hours())
	}
	return nil
}

// Overlaps reports whether the two half-open windows intersect.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// OverlapDuration returns the length of the intersection, zero when disjoint.
func (w TimeWindow) OverlapDuration(o TimeWindow) time.Duration {
	if !w.Overlaps(o) {
		return 0
	}
	start := w.Start
	if o.Start.After(start) {
		start = o.Start
	}
	end := w.End
	if o.End.Before(end) {
		end = o.End
	}
	return end.Sub(start)
}

// ShiftDays moves the window by whole calendar days in the start's location, keeping the
// wall-clock start time and the duration.
func (w TimeWindow) ShiftDays(days int) TimeWindow {
	return WindowFrom(w.Start.AddDate(0, 0, days), w.Duration())
}

// Date returns the calendar date of Start in its own location.
func (w TimeWindow) Date() string {
	return w.Start.Format(DateLayout)
}

// Clock returns the HH:MM start time in the window's location.
func (w TimeWindow) Clock() string {
	return w.Start.Format(ClockLayout)
}

func (w TimeWindow) In(loc *time.Location) TimeWindow {
	return TimeWindow{Start: w.Start.In(loc), End: w.End.In(loc)}
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s %s-%s", w.Date(), w.Clock(), w.End.Format(ClockLayout))
}

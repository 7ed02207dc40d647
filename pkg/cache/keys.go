package cache

import (
	"fmt"
	"time"
)

// Keys follow campusbook:{module}:{operation}:{identifier}

const (
	// TTLEventDetail bounds staleness of cached event reads. Writes through the event
	// service invalidate the key, so this only matters for writes made elsewhere.
	TTLEventDetail = 2 * time.Minute
)

func EventDetailKey(eventID string) string {
	return fmt.Sprintf("campusbook:events:detail:%s", eventID)
}

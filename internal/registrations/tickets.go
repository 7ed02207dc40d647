package registrations

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newTicketID returns an id like TKT-20250110-9F1C2A7B4E0D.
func newTicketID(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TKT-%s-%s", now.UTC().Format("20060102"), random[:12])
}

package database

import (
	"fmt"

	"gorm.io/gorm"
)

// ledgerConstraints back the ledger invariants at the storage level. The services already
// enforce them under the row lock; a violation here surfaces as a retryable conflict.
var ledgerConstraints = []struct {
	name string
	sql  string
}{
	{
		name: "one active registration per user and event",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS ux_attendees_active_user
			ON attendees (event_id, user_id)
			WHERE status <> 'cancelled'`,
	},
	{
		name: "btree_gist extension",
		sql:  `CREATE EXTENSION IF NOT EXISTS btree_gist`,
	},
	{
		name: "no overlapping approved assignments",
		sql: `DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ex_assignments_approved_overlap') THEN
					ALTER TABLE resource_assignments
						ADD CONSTRAINT ex_assignments_approved_overlap
						EXCLUDE USING gist (resource_id WITH =, tstzrange(starts_at, ends_at, '[)') WITH &&)
						WHERE (status = 'approved');
				END IF;
			END $$`,
	},
	{
		name: "waitlisted attendees lookup",
		sql: `CREATE INDEX IF NOT EXISTS idx_attendees_waitlisted
			ON attendees (event_id, sequence)
			WHERE status = 'waitlisted'`,
	},
}

// MigrateConstraints adds the constraints AutoMigrate cannot express.
func MigrateConstraints(db *gorm.DB) error {
	for _, c := range ledgerConstraints {
		if err := db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

package database

import (
	"campusbook/internal/events"
	"campusbook/internal/registrations"
	"campusbook/internal/resources"
	"campusbook/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&events.Event{},
		&registrations.Attendee{},
		&resources.Resource{},
		&resources.Assignment{},
	)
}

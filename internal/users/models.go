package users

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleFaculty   Role = "FACULTY"
	RoleStaff     Role = "STAFF"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

// User is the identity record the engine reads: role for eligibility, balance for paid events.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;size:64"`
	DisplayName string    `json:"display_name" gorm:"not null;size:255"`
	Email       string    `json:"email" gorm:"uniqueIndex;size:255"`
	Role        Role      `json:"role" gorm:"type:varchar(20);not null;default:'STUDENT'"`
	Balance     float64   `json:"balance" gorm:"not null;default:0;check:balance >= 0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func IsValidRole(role string) bool {
	switch Role(strings.ToUpper(role)) {
	case RoleStudent, RoleFaculty, RoleStaff, RoleOrganizer, RoleAdmin:
		return true
	default:
		return false
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

var (
	// RoleAdmin can moderate users and postings
	RoleAdmin = "admin"
	// RoleHR posts vacancies on behalf of a company
	RoleHR = "hr"
	// RoleUniversity posts internships on behalf of a university
	RoleUniversity = "university"
	// RoleApplicant applies to published postings
	RoleApplicant = "applicant"
)

// SelfRegisterRoles are the roles a caller may pick at registration.
// Admin accounts are created from the CLI or seeded at startup, never self-registered.
var SelfRegisterRoles = []string{RoleHR, RoleUniversity, RoleApplicant}

// User is gorm model for store user account data in DB.
// HR and university accounts start inactive and stay that way until an admin
// approves them; applicant accounts are active immediately. A set rejection
// reason implies the account stays inactive.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`

	Email    string `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Password string `gorm:"type:text;not null" json:"-"`
	Role     string `gorm:"type:text;not null" json:"role"`

	IsActive        bool    `gorm:"default:false" json:"is_active"`
	RejectionReason *string `gorm:"type:text" json:"rejection_reason,omitempty"`
}

// PublicUser is the part of User echoed back in token responses.
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// Public strips everything a login response should not carry.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Role: u.Role}
}

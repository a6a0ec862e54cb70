package model

import (
	"time"

	"github.com/google/uuid"
)

// EditableInternshipInfo is the part of an internship the owner can edit.
// WorkLocation is the site (campus or plant), WorkSchedule doubles as the
// specialty track the internship belongs to.
type EditableInternshipInfo struct {
	Title            string   `gorm:"type:text;not null" json:"title"`
	CompanyName      string   `gorm:"type:text" json:"company_name"`
	WorkLocation     string   `gorm:"type:text" json:"work_location"`
	WorkSchedule     string   `gorm:"type:text" json:"work_schedule"`
	Responsibilities string   `gorm:"type:text" json:"responsibilities"`
	Requirements     string   `gorm:"type:text" json:"requirements"`
	SalaryMin        *float64 `json:"salary_min"`
	SalaryMax        *float64 `json:"salary_max"`
	SalaryCurrency   string   `gorm:"type:text;default:'RUB'" json:"salary_currency"`
}

// Internship is gorm model for store internship data in DB
type Internship struct {
	ID      uint      `gorm:"primaryKey;autoIncrement;->" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"owner_id"`
	Owner   User      `gorm:"foreignKey:OwnerID;references:ID" json:"-"`
	EditableInternshipInfo
	Moderated
	PostedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"posted_at"`

	Applications []Application `gorm:"foreignKey:InternshipID;constraint:OnDelete:CASCADE" json:"-"`
}

// PostingID implements Posting
func (i *Internship) PostingID() uint { return i.ID }

// OwnerUserID implements Posting
func (i *Internship) OwnerUserID() uuid.UUID { return i.OwnerID }

// Moderation implements Posting
func (i *Internship) Moderation() *Moderated { return &i.Moderated }

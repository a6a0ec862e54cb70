package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EditableVacancyInfo is the part of a vacancy the owner can edit
type EditableVacancyInfo struct {
	Title            string         `gorm:"type:text;not null" json:"title"`
	CompanyName      string         `gorm:"type:text" json:"company_name"`
	Responsibilities string         `gorm:"type:text" json:"responsibilities"`
	Requirements     string         `gorm:"type:text" json:"requirements"`
	Conditions       string         `gorm:"type:text" json:"conditions"`
	SalaryMin        *float64       `json:"salary_min"`
	SalaryMax        *float64       `json:"salary_max"`
	SalaryCurrency   string         `gorm:"type:text;default:'RUB'" json:"salary_currency"`
	WorkLocation     string         `gorm:"type:text" json:"work_location"`
	WorkSchedule     string         `gorm:"type:text" json:"work_schedule"`
	AdditionalInfo   string         `gorm:"type:text" json:"additional_info"`
	Tags             pq.StringArray `gorm:"type:text[]" json:"tags"`
}

// Vacancy is gorm model for store vacancy data in DB
type Vacancy struct {
	ID      uint      `gorm:"primaryKey;autoIncrement;->" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"owner_id"`
	Owner   User      `gorm:"foreignKey:OwnerID;references:ID" json:"-"`
	EditableVacancyInfo
	Moderated
	PostedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"posted_at"`

	Applications []Application `gorm:"foreignKey:VacancyID;constraint:OnDelete:CASCADE" json:"-"`
}

// PostingID implements Posting
func (v *Vacancy) PostingID() uint { return v.ID }

// OwnerUserID implements Posting
func (v *Vacancy) OwnerUserID() uuid.UUID { return v.OwnerID }

// Moderation implements Posting
func (v *Vacancy) Moderation() *Moderated { return &v.Moderated }

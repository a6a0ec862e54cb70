package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResumeData is the structured resume form an applicant can submit instead of
// (or alongside) a file. Values are restricted to strings, numbers, booleans,
// null and nested mappings; it is stored as canonical JSON text.
type ResumeData map[string]interface{}

// Validate rejects value kinds outside the allowed set.
func (d ResumeData) Validate() error {
	for key, value := range d {
		if err := validateResumeValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

func validateResumeValue(key string, value interface{}) error {
	switch v := value.(type) {
	case nil, string, bool, float64, int, int64:
		return nil
	case map[string]interface{}:
		return ResumeData(v).Validate()
	case ResumeData:
		return v.Validate()
	default:
		return fmt.Errorf("resume field %q has unsupported type %T", key, v)
	}
}

// Value implements driver.Valuer, serializing to canonical JSON.
func (d ResumeData) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. A malformed stored payload scans to an absent
// value instead of failing the whole read.
func (d *ResumeData) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		*d = nil
		return nil
	}

	var parsed ResumeData
	if err := json.Unmarshal(raw, &parsed); err != nil {
		*d = nil
		return nil
	}
	*d = parsed
	return nil
}

// Application is gorm model for store job application data in DB.
// Exactly one of VacancyID and InternshipID is set. The composite unique
// indexes back up the duplicate check in the handler, so two concurrent
// applies cannot both land.
type Application struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`

	ApplicantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_applicant_vacancy;uniqueIndex:idx_applicant_internship" json:"applicant_id"`
	Applicant   User      `gorm:"foreignKey:ApplicantID;references:ID" json:"-"`

	VacancyID *uint    `gorm:"uniqueIndex:idx_applicant_vacancy" json:"vacancy_id,omitempty"`
	Vacancy   *Vacancy `gorm:"foreignKey:VacancyID;references:ID" json:"-"`

	InternshipID *uint       `gorm:"uniqueIndex:idx_applicant_internship" json:"internship_id,omitempty"`
	Internship   *Internship `gorm:"foreignKey:InternshipID;references:ID" json:"-"`

	ResumeFilePath *string    `gorm:"type:text" json:"resume_file_path,omitempty"`
	ResumeData     ResumeData `gorm:"type:text" json:"resume_data,omitempty"`
}

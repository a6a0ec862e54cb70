package model

import "github.com/google/uuid"

// Moderated holds the publication state shared by every posting kind.
// A posting starts unpublished, an admin either publishes it or rejects it
// with a reason. Publishing clears any previous rejection.
type Moderated struct {
	IsPublished     bool    `gorm:"default:false" json:"is_published"`
	RejectionReason *string `gorm:"type:text" json:"rejection_reason,omitempty"`
}

// Publish marks the posting publicly visible and clears the rejection reason.
// Publishing an already published posting is a no-op.
func (m *Moderated) Publish() {
	m.IsPublished = true
	m.RejectionReason = nil
}

// Reject hides the posting and records why.
func (m *Moderated) Reject(reason string) {
	m.IsPublished = false
	m.RejectionReason = &reason
}

// Unpublish takes the posting off the public listing without rejecting it.
func (m *Moderated) Unpublish() {
	m.IsPublished = false
}

// Resubmit returns an edited posting to the moderation queue.
func (m *Moderated) Resubmit() {
	m.RejectionReason = nil
}

// Posting is implemented by Vacancy and Internship so the moderation layer
// runs one state machine for both kinds.
type Posting interface {
	PostingID() uint
	OwnerUserID() uuid.UUID
	Moderation() *Moderated
}

// PostingKind describes the role policy and storage hooks of one posting kind.
// Role policy is data here on purpose: who may produce or apply to a kind
// differs between kinds and must not be hardcoded in handlers.
type PostingKind struct {
	Name           string
	ProducerRole   string
	ApplicantRoles []string
	New            func() Posting
	NewList        func() interface{}
}

// PostingKinds maps the URL kind segment to its descriptor.
var PostingKinds = map[string]PostingKind{
	"vacancy": {
		Name:           "vacancy",
		ProducerRole:   RoleHR,
		ApplicantRoles: []string{RoleApplicant},
		New:            func() Posting { return &Vacancy{} },
		NewList:        func() interface{} { return &[]Vacancy{} },
	},
	"internship": {
		Name:           "internship",
		ProducerRole:   RoleUniversity,
		ApplicantRoles: []string{RoleApplicant},
		New:            func() Posting { return &Internship{} },
		NewList:        func() interface{} { return &[]Internship{} },
	},
}

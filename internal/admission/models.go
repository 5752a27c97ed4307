package admission

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrNotFound       = errors.New("application not found")
	ErrForbidden      = errors.New("application belongs to another parent")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidRequest = errors.New("invalid application")
)

// ApplicationStatus is where an application stands in the admission process.
// Any valid status may be recorded; there are no transition rules.
type ApplicationStatus string

const (
	StatusDraft              ApplicationStatus = "draft"
	StatusDocumentsPending   ApplicationStatus = "documents_pending"
	StatusUnderReview        ApplicationStatus = "under_review"
	StatusShortlisted        ApplicationStatus = "shortlisted"
	StatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	StatusAccepted           ApplicationStatus = "accepted"
	StatusRejected           ApplicationStatus = "rejected"
	StatusWaitlisted         ApplicationStatus = "waitlisted"
)

var applicationStatuses = []ApplicationStatus{
	StatusDraft, StatusDocumentsPending, StatusUnderReview, StatusShortlisted,
	StatusInterviewScheduled, StatusAccepted, StatusRejected, StatusWaitlisted,
}

func (s ApplicationStatus) Valid() bool { return slices.Contains(applicationStatuses, s) }

// DocumentStatus is the verification state of one uploaded document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
	DocumentMismatch DocumentStatus = "mismatch"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentPending, DocumentVerified, DocumentRejected, DocumentMismatch:
		return true
	}
	return false
}

// DocumentType names what an uploaded file is meant to prove.
type DocumentType string

const (
	DocBirthCertificate    DocumentType = "birth_certificate"
	DocAddressProof        DocumentType = "address_proof"
	DocPhoto               DocumentType = "photo"
	DocReportCard          DocumentType = "report_card"
	DocTransferCertificate DocumentType = "transfer_certificate"
	DocOther               DocumentType = "other"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocBirthCertificate, DocAddressProof, DocPhoto, DocReportCard, DocTransferCertificate, DocOther:
		return true
	}
	return false
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

func (r ChatRole) Valid() bool { return r == RoleUser || r == RoleAssistant || r == RoleSystem }

// ChildProfile describes the child an application is made for.
type ChildProfile struct {
	FirstName        string   `json:"firstName" bson:"firstName"`
	LastName         string   `json:"lastName" bson:"lastName"`
	DateOfBirth      string   `json:"dateOfBirth" bson:"dateOfBirth"` // YYYY-MM-DD
	Gender           string   `json:"gender,omitempty" bson:"gender,omitempty"`
	CurrentClass     string   `json:"currentClass,omitempty" bson:"currentClass,omitempty"`
	ApplyingForClass string   `json:"applyingForClass" bson:"applyingForClass"`
	PreviousSchool   string   `json:"previousSchool,omitempty" bson:"previousSchool,omitempty"`
	SpecialNeeds     string   `json:"specialNeeds,omitempty" bson:"specialNeeds,omitempty"`
	Interests        []string `json:"interests,omitempty" bson:"interests,omitempty"`
}

// DocumentUpload is one file attached to an application. URL is a short-lived
// download link filled on read and never stored.
type DocumentUpload struct {
	ID          string         `json:"id" bson:"id"`
	Type        DocumentType   `json:"type" bson:"type"`
	FileName    string         `json:"fileName" bson:"fileName"`
	ContentType string         `json:"contentType" bson:"contentType"`
	Size        int64          `json:"size" bson:"size"`
	Key         string         `json:"-" bson:"key"`
	Status      DocumentStatus `json:"status" bson:"status"`
	UploadedAt  time.Time      `json:"uploadedAt" bson:"uploadedAt"`
	URL         string         `json:"url,omitempty" bson:"-"`
}

// SchoolMatch is a school suggested during the guided flow, with a 0-100 score.
type SchoolMatch struct {
	SchoolSlug string   `json:"schoolSlug" bson:"schoolSlug"`
	Score      float64  `json:"score" bson:"score"`
	Reasons    []string `json:"reasons,omitempty" bson:"reasons,omitempty"`
}

type ChatMessage struct {
	ID        string    `json:"id" bson:"id"`
	Role      ChatRole  `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// ApplicationData is one admission application made by a parent.
type ApplicationData struct {
	ID         string            `json:"id" bson:"_id"`
	ParentID   string            `json:"parentId" bson:"parentId"`
	SchoolSlug string            `json:"schoolSlug,omitempty" bson:"schoolSlug,omitempty"`
	Child      ChildProfile      `json:"child" bson:"child"`
	Status     ApplicationStatus `json:"status" bson:"status"`
	Documents  []DocumentUpload  `json:"documents" bson:"documents"`
	Matches    []SchoolMatch     `json:"matches" bson:"matches"`
	Messages   []ChatMessage     `json:"messages" bson:"messages"`
	CreatedAt  time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy.
func (a ApplicationData) Clone() ApplicationData {
	c := a
	c.Child.Interests = slices.Clone(a.Child.Interests)
	c.Documents = slices.Clone(a.Documents)
	c.Messages = slices.Clone(a.Messages)
	if a.Matches != nil {
		c.Matches = make([]SchoolMatch, len(a.Matches))
		for i, m := range a.Matches {
			m.Reasons = slices.Clone(m.Reasons)
			c.Matches[i] = m
		}
	}
	return c
}

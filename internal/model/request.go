package model

import "time"

// NoAttachment is stored as the attachment reference when a submission
// carries no uploaded file.
const NoAttachment = "none"

// Request represents a citizen's application for a civil-status document.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Request struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	BirthDate      string    `json:"birthDate"`
	DocumentType   string    `json:"documentType"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Message        string    `json:"message"`
	Consent        string    `json:"consent"`
	Attachment     string    `json:"attachment"`
	TrackingNumber string    `json:"trackingNumber"`
	SubmittedAt    time.Time `json:"submittedAt"`
	Status         Status    `json:"status"`
	Comment        string    `json:"comment"`
}

// HasAttachment reports whether the request references a stored file.
func (r *Request) HasAttachment() bool {
	return r.Attachment != "" && r.Attachment != NoAttachment
}

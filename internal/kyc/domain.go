// Package kyc tracks identity documents and the verification request built
// on them.
package kyc

import (
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
)

// Collection names.
const (
	DocumentsCollection    = "kyc.documents"
	VerificationCollection = "kyc.verification"
)

// DocType is the kind of document uploaded.
type DocType string

const (
	DocPassport       DocType = "passport"
	DocNationalID     DocType = "national_id"
	DocDriversLicense DocType = "drivers_license"
	DocProofOfAddress DocType = "proof_of_address"
	DocTaxForm        DocType = "tax_form"
)

// IsValid reports whether t is accepted for upload.
func (t DocType) IsValid() bool {
	switch t {
	case DocPassport, DocNationalID, DocDriversLicense, DocProofOfAddress, DocTaxForm:
		return true
	}
	return false
}

// DocStatus is the review state of one document.
type DocStatus string

const (
	DocPending  DocStatus = "pending"
	DocVerified DocStatus = "verified"
	DocRejected DocStatus = "rejected"
)

// DocTransitions is the document review allow-list.
var DocTransitions = collection.Transitions{
	string(DocPending):  {string(DocVerified), string(DocRejected)},
	string(DocVerified): {string(DocRejected)},
	string(DocRejected): {string(DocVerified)},
}

// Doc is one uploaded document.
type Doc struct {
	ID          string    `json:"id" yaml:"id"`
	Type        DocType   `json:"type" yaml:"type"`
	FileName    string    `json:"file_name" yaml:"file_name"`
	ContentType string    `json:"content_type" yaml:"content_type"`
	Status      DocStatus `json:"status" yaml:"status"`
	UploadedAt  time.Time `json:"uploaded_at" yaml:"uploaded_at"`
	Note        string    `json:"note" yaml:"note"`
	Pages       int       `json:"pages" yaml:"pages"`
	SizeBytes   int64     `json:"size_bytes" yaml:"size_bytes"`
}

// VerificationStatus is the state of the overall verification request.
type VerificationStatus string

const (
	VerificationNotStarted VerificationStatus = "not_started"
	VerificationPending    VerificationStatus = "pending"
	VerificationApproved   VerificationStatus = "approved"
	VerificationRejected   VerificationStatus = "rejected"
)

// VerificationTransitions is the request allow-list. Approved is terminal.
var VerificationTransitions = collection.Transitions{
	string(VerificationNotStarted): {string(VerificationPending)},
	string(VerificationRejected):   {string(VerificationPending)},
	string(VerificationPending):    {string(VerificationApproved), string(VerificationRejected)},
}

// VerificationID is the id of the single verification record.
const VerificationID = "verification"

// Verification is the mentor's verification request.
type Verification struct {
	ID          string             `json:"id" yaml:"id"`
	Status      VerificationStatus `json:"status" yaml:"status"`
	SubmittedAt *time.Time         `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
	DecidedAt   *time.Time         `json:"decided_at,omitempty" yaml:"decided_at,omitempty"`
	Reason      string             `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Schema is how the query engine reads documents. Category is the type.
var Schema = query.Schema[Doc]{
	ID:       func(d Doc) string { return d.ID },
	Time:     func(d Doc) time.Time { return d.UploadedAt },
	Status:   func(d Doc) string { return string(d.Status) },
	Category: func(d Doc) []string { return []string{string(d.Type)} },
	Text:     func(d Doc) []string { return []string{d.FileName, string(d.Type), d.Note} },
	Number:   func(d Doc) float64 { return float64(d.SizeBytes) },
	Flags: map[string]func(Doc) bool{
		"pdf":      func(d Doc) bool { return d.ContentType == "application/pdf" },
		"has_note": func(d Doc) bool { return d.Note != "" },
	},
}

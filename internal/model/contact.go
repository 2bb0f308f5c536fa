package model

import "time"

// SubjectStatus is the terminal outcome shown for a subject in the UI.
type SubjectStatus string

const (
	StatusFound     SubjectStatus = "found"
	StatusNone      SubjectStatus = "none"
	StatusError     SubjectStatus = "error"
	StatusChallenge SubjectStatus = "challenge"
)

// ContactRecord is one stored row per subject, keyed by the exact subject name.
// Empty strings mean the field is absent.
type ContactRecord struct {
	ID              int64     `json:"id,omitempty"`
	SubjectName     string    `json:"subject_name"`
	Phone           string    `json:"phone,omitempty"`
	Website         string    `json:"website,omitempty"`
	SocialLink      string    `json:"social_link,omitempty"`
	Email           string    `json:"email,omitempty"`
	MessagingNumber string    `json:"messaging_number,omitempty"`
	ExtractedAt     time.Time `json:"extracted_at,omitempty"`
}

// HasData reports whether any contact field is present.
func (r ContactRecord) HasData() bool {
	return r.Phone != "" || r.Website != "" || r.SocialLink != "" ||
		r.Email != "" || r.MessagingNumber != ""
}

// HasURI reports whether the record carries a website or a social link.
func (r ContactRecord) HasURI() bool {
	return r.Website != "" || r.SocialLink != ""
}

// Merge applies incoming over existing. Only present incoming fields overwrite;
// the identity, ID and first-seen timestamp of existing are kept.
func Merge(existing, incoming ContactRecord) ContactRecord {
	out := existing
	overwrite(&out.Phone, incoming.Phone)
	overwrite(&out.Website, incoming.Website)
	overwrite(&out.SocialLink, incoming.SocialLink)
	overwrite(&out.Email, incoming.Email)
	overwrite(&out.MessagingNumber, incoming.MessagingNumber)
	return out
}

func overwrite(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// SearchFields are the fields read from the search-engine business panel.
type SearchFields struct {
	Phone      string `json:"phone,omitempty"`
	Website    string `json:"website,omitempty"`
	SocialLink string `json:"social_link,omitempty"`
}

// ProfileContact holds the fields read from a social profile page.
type ProfileContact struct {
	Email           string `json:"email,omitempty"`
	MessagingNumber string `json:"messaging_number,omitempty"`
}

// Empty reports whether neither field was found.
func (p ProfileContact) Empty() bool {
	return p.Email == "" && p.MessagingNumber == ""
}

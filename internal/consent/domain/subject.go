package domain

import (
	"strings"
	"time"
)

// Subject is a record owner that a requester can link to.
type Subject struct {
	ID             string
	ShortCode      string // empty when the record was never independently registered
	Email          string
	Phone          string
	OwnerAccountID string
	CreatedAt      time.Time
}

// Linkable reports whether the subject can be claimed by a third party.
func (s Subject) Linkable() bool {
	return s.ShortCode != ""
}

// SubjectLookup identifies a subject by exactly one external handle.
// The first non-empty field, in declaration order, is used.
type SubjectLookup struct {
	ShortCode string
	Email     string
	Phone     string
}

// LookupKind names the handle a lookup resolves by.
type LookupKind string

const (
	LookupNone      LookupKind = ""
	LookupShortCode LookupKind = "short_code"
	LookupEmail     LookupKind = "email"
	LookupPhone     LookupKind = "phone"
)

// Normalize trims surrounding whitespace. Matching stays exact.
func (l SubjectLookup) Normalize() SubjectLookup {
	return SubjectLookup{
		ShortCode: strings.TrimSpace(l.ShortCode),
		Email:     strings.TrimSpace(l.Email),
		Phone:     strings.TrimSpace(l.Phone),
	}
}

// Key returns the lookup kind and value that will be matched.
func (l SubjectLookup) Key() (LookupKind, string) {
	switch {
	case l.ShortCode != "":
		return LookupShortCode, l.ShortCode
	case l.Email != "":
		return LookupEmail, l.Email
	case l.Phone != "":
		return LookupPhone, l.Phone
	}
	return LookupNone, ""
}

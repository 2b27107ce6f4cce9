package consentsdk

import "time"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency (only for /readyz).
type HealthChecks struct {
	Database string `json:"database"`
}

// ============================================================================
// Link Types
// ============================================================================

// Link statuses.
const (
	StatusChallengeIssued = "challenge_issued"
	StatusLinked          = "linked"
)

// RequestLinkRequest identifies the subject by exactly one handle. When
// several are set the first non-empty of short_code, email, phone is used.
type RequestLinkRequest struct {
	ShortCode string `json:"short_code,omitempty" example:"PT-7Q2K"`
	Email     string `json:"email,omitempty" example:"jane@example.com"`
	Phone     string `json:"phone,omitempty" example:"+61400000001"`
}

// RequestLinkResponse is returned with 202 when a code was sent, or 200 when
// the subject was linked directly.
type RequestLinkResponse struct {
	Status      string     `json:"status" example:"challenge_issued"`
	SubjectID   string     `json:"subject_id"`
	ChallengeID string     `json:"challenge_id,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`

	// Destination is the masked address the code went to.
	Destination string `json:"destination,omitempty" example:"j***@example.com"`
}

// ConfirmLinkRequest carries the code the subject read back.
type ConfirmLinkRequest struct {
	SubjectID string `json:"subject_id"`
	Code      string `json:"code" example:"482913"`
}

// LinkStatusResponse is returned by a successful confirm.
type LinkStatusResponse struct {
	Status string `json:"status" example:"linked"`
}

// LinkInfo is one active consent link.
type LinkInfo struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	ConsentedAt time.Time `json:"consented_at"`
}

// ListLinksResponse lists the caller's active links, newest first.
type ListLinksResponse struct {
	Links []LinkInfo `json:"links"`
}

// ============================================================================
// Grant Types
// ============================================================================

// GrantInfo is an access grant as seen by its grantee.
type GrantInfo struct {
	GrantID              string    `json:"grant_id"`
	SubjectID            string    `json:"subject_id"`
	ExpiresAt            time.Time `json:"expires_at"`
	IsRevoked            bool      `json:"is_revoked"`
	TimeRemainingSeconds int64     `json:"time_remaining_seconds"`
	ExpiringSoon         bool      `json:"expiring_soon"`
}

// ListGrantsResponse lists valid grants, soonest expiry first.
type ListGrantsResponse struct {
	Grants []GrantInfo `json:"grants"`
}

// IssueGrantRequest gives a doctor access to a subject for ttl_seconds.
type IssueGrantRequest struct {
	SubjectID  string `json:"subject_id"`
	GranteeID  string `json:"grantee_id"`
	TTLSeconds int64  `json:"ttl_seconds" example:"10800"`
}

// IssueGrantResponse is returned with 201.
type IssueGrantResponse struct {
	GrantID   string    `json:"grant_id"`
	SubjectID string    `json:"subject_id"`
	GranteeID string    `json:"grantee_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

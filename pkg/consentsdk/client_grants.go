package consentsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ListGrants returns the caller's valid grants, soonest expiry first.
func (c *Client) ListGrants(ctx context.Context) ([]GrantInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/grants", nil, true)
	if err != nil {
		return nil, err
	}

	var out ListGrantsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Grants, nil
}

// CanViewRecords returns nil when the caller holds a valid grant on subjectID.
func (c *Client) CanViewRecords(ctx context.Context, subjectID string) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/grants/subjects/"+url.PathEscape(subjectID), nil, true)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// IssueGrant gives a doctor time-limited access to a subject.
func (c *Client) IssueGrant(ctx context.Context, req IssueGrantRequest) (*IssueGrantResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/grants", req, true)
	if err != nil {
		return nil, err
	}

	var out IssueGrantResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeGrant revokes a grant. Revoking twice succeeds.
func (c *Client) RevokeGrant(ctx context.Context, grantID string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/grants/"+url.PathEscape(grantID)+"/revoke", nil, true)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

package consentsdk

import (
	"context"
	"net/http"
	"net/url"
)

// RequestLink asks to link the caller to a subject. Status is either
// StatusChallengeIssued or StatusLinked.
func (c *Client) RequestLink(ctx context.Context, req RequestLinkRequest) (*RequestLinkResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/links/request", req, true)
	if err != nil {
		return nil, err
	}

	var out RequestLinkResponse
	if err := decodeJSON(resp, &out, http.StatusOK, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmLink submits the code the subject received.
func (c *Client) ConfirmLink(ctx context.Context, subjectID, code string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/links/confirm",
		ConfirmLinkRequest{SubjectID: subjectID, Code: code}, true)
	if err != nil {
		return err
	}

	var out LinkStatusResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// ListLinks returns the caller's active links.
func (c *Client) ListLinks(ctx context.Context) ([]LinkInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/links", nil, true)
	if err != nil {
		return nil, err
	}

	var out ListLinksResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Links, nil
}

// Authorize returns nil when the caller holds an active link to subjectID.
func (c *Client) Authorize(ctx context.Context, subjectID string) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/links/"+url.PathEscape(subjectID), nil, true)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Unlink withdraws the caller's consent link. It succeeds when no link exists.
func (c *Client) Unlink(ctx context.Context, subjectID string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/v1/links/"+url.PathEscape(subjectID), nil, true)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

package consentsdk

import (
	"net/http"
	"strings"
	"time"
)

// Client talks to the consent service on behalf of one signed-in user.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token is the identity provider access token sent as a bearer
	// credential. Unauthenticated calls (health checks) ignore it.
	Token string
}

// NewClient returns a client with a 10s request timeout.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Token: token,
	}
}

// WithToken returns a copy of c that authenticates as a different user.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

package consent_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/carelink/pkg/consentsdk"
)

func TestAuthenticationRequired(t *testing.T) {
	svc := setupConsentContainer(t, nil)

	anonymous := consentsdk.NewClient(svc.baseURL, "")
	_, err := anonymous.ListLinks(t.Context())
	requireAPIError(t, err, http.StatusUnauthorized, consentsdk.ErrorCodeInvalidToken)

	forged := consentsdk.NewClient(svc.baseURL, "eyJhbGciOiJIUzI1NiJ9.e30.c2lnbmF0dXJl")
	_, err = forged.ListGrants(t.Context())
	requireAPIError(t, err, http.StatusUnauthorized, consentsdk.ErrorCodeInvalidToken)
}

func TestRoleEnforcement(t *testing.T) {
	svc := setupConsentContainer(t, nil)

	_, noRoles := svc.user(t)
	_, err := noRoles.ListLinks(t.Context())
	requireAPIError(t, err, http.StatusForbidden, consentsdk.ErrorCodeForbidden)

	_, doctor := svc.user(t, "doctor")
	_, err = doctor.RequestLink(t.Context(), consentsdk.RequestLinkRequest{ShortCode: "PT-ANY"})
	requireAPIError(t, err, http.StatusForbidden, consentsdk.ErrorCodeForbidden)

	_, partner := svc.partner(t)
	_, err = partner.ListGrants(t.Context())
	requireAPIError(t, err, http.StatusForbidden, consentsdk.ErrorCodeForbidden)
}

package consent_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/pkg/consentsdk"
	"github.com/stretchr/testify/require"
)

func TestGrantLifecycle(t *testing.T) {
	svc := setupConsentContainer(t, nil)

	doctorID, doctor := svc.user(t, "doctor")
	patientID, patient := svc.user(t, "patient")
	subjectID := svc.subject(t, "PT-GRANT", "grant@example.com", patientID)

	requireAPIError(t, doctor.CanViewRecords(t.Context(), subjectID), http.StatusForbidden, consentsdk.ErrorCodeForbidden)

	issued, err := patient.IssueGrant(t.Context(), consentsdk.IssueGrantRequest{
		SubjectID:  subjectID,
		GranteeID:  doctorID,
		TTLSeconds: int64((3 * time.Hour).Seconds()),
	})
	require.NoError(t, err)
	require.NotEmpty(t, issued.GrantID)

	grants, err := doctor.ListGrants(t.Context())
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, subjectID, grants[0].SubjectID)
	require.False(t, grants[0].IsRevoked)
	require.False(t, grants[0].ExpiringSoon)
	require.InDelta(t, (3 * time.Hour).Seconds(), float64(grants[0].TimeRemainingSeconds), 120)

	require.NoError(t, doctor.CanViewRecords(t.Context(), subjectID))

	require.NoError(t, patient.RevokeGrant(t.Context(), issued.GrantID))
	require.NoError(t, patient.RevokeGrant(t.Context(), issued.GrantID))

	grants, err = doctor.ListGrants(t.Context())
	require.NoError(t, err)
	require.Empty(t, grants)
	requireAPIError(t, doctor.CanViewRecords(t.Context(), subjectID), http.StatusForbidden, consentsdk.ErrorCodeForbidden)
}

func TestGrantIssueRejections(t *testing.T) {
	svc := setupConsentContainer(t, nil)

	doctorID, doctor := svc.user(t, "doctor")
	_, stranger := svc.user(t, "patient")
	ownerID, owner := svc.user(t, "patient")
	subjectID := svc.subject(t, "PT-OWNED", "owned@example.com", ownerID)

	_, err := stranger.IssueGrant(t.Context(), consentsdk.IssueGrantRequest{
		SubjectID: subjectID, GranteeID: doctorID, TTLSeconds: 3600,
	})
	requireAPIError(t, err, http.StatusForbidden, consentsdk.ErrorCodeForbidden)

	_, err = owner.IssueGrant(t.Context(), consentsdk.IssueGrantRequest{
		SubjectID: subjectID, GranteeID: doctorID, TTLSeconds: 0,
	})
	requireAPIError(t, err, http.StatusBadRequest, consentsdk.ErrorCodeInvalidRequest)

	_, err = doctor.IssueGrant(t.Context(), consentsdk.IssueGrantRequest{
		SubjectID: subjectID, GranteeID: doctorID, TTLSeconds: 3600,
	})
	requireAPIError(t, err, http.StatusForbidden, consentsdk.ErrorCodeForbidden)
}

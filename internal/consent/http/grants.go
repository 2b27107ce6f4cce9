package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/service"
	"github.com/aussiebroadwan/carelink/pkg/consentsdk"
	"github.com/aussiebroadwan/carelink/pkg/httpx"
)

// GrantsHandler serves access grant endpoints.
type GrantsHandler struct {
	GrantService *service.GrantService
}

// HandleList handles GET /v1/grants
//
//	@Summary		List Access Grants
//	@Description	Returns the calling doctor's currently valid grants, soonest expiry first.
//	@Description	Validity is recomputed on every call; expiring_soon is advisory.
//	@Tags			Grants
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	consentsdk.ListGrantsResponse
//	@Failure		403	{object}	consentsdk.ErrorResponse	"forbidden"
//	@Failure		503	{object}	consentsdk.ErrorResponse	"unavailable"
//	@Router			/v1/grants [get].
func (h *GrantsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	views, err := h.GrantService.ListValidGrantsFor(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := consentsdk.ListGrantsResponse{Grants: make([]consentsdk.GrantInfo, len(views))}
	for i, v := range views {
		out.Grants[i] = consentsdk.GrantInfo{
			GrantID:              v.Grant.ID,
			SubjectID:            v.Grant.SubjectID,
			ExpiresAt:            v.Grant.ExpiresAt,
			IsRevoked:            v.Grant.IsRevoked,
			TimeRemainingSeconds: int64(v.TimeRemaining / time.Second),
			ExpiringSoon:         v.ExpiringSoon,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCanView handles GET /v1/grants/subjects/{subject_id}
//
//	@Summary		Check Record Access
//	@Description	204 when the calling doctor holds a valid grant on the subject, 403 otherwise.
//	@Tags			Grants
//	@Security		BearerAuth
//	@Param			subject_id	path	string	true	"Subject id"
//	@Success		204
//	@Failure		403	{object}	consentsdk.ErrorResponse	"forbidden"
//	@Router			/v1/grants/subjects/{subject_id} [get].
func (h *GrantsHandler) HandleCanView(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	can, err := h.GrantService.CanViewRecords(r.Context(), p.UserID, r.PathValue("subject_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !can {
		errForbidden.WithDescription("no valid access grant for this subject").WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleIssue handles POST /v1/grants
//
//	@Summary		Issue an Access Grant
//	@Description	The subject's owning patient account (or a super admin) gives a doctor time-limited access.
//	@Tags			Grants
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		consentsdk.IssueGrantRequest	true	"Grant details"
//	@Success		201		{object}	consentsdk.IssueGrantResponse
//	@Failure		400		{object}	consentsdk.ErrorResponse	"invalid_request"
//	@Failure		403		{object}	consentsdk.ErrorResponse	"forbidden"
//	@Failure		404		{object}	consentsdk.ErrorResponse	"not_found"
//	@Router			/v1/grants [post].
func (h *GrantsHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	var req consentsdk.IssueGrantRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrBadRequest.WithDescription("invalid JSON in request body").WriteError(w)
		return
	}
	if strings.TrimSpace(req.SubjectID) == "" || strings.TrimSpace(req.GranteeID) == "" {
		httpx.ErrBadRequest.WithDescription("subject_id and grantee_id are required").WriteError(w)
		return
	}

	g, err := h.GrantService.IssueGrant(r.Context(), p, req.SubjectID, req.GranteeID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, consentsdk.IssueGrantResponse{
		GrantID:   g.ID,
		SubjectID: g.SubjectID,
		GranteeID: g.GranteeID,
		IssuedAt:  g.IssuedAt,
		ExpiresAt: g.ExpiresAt,
	})
}

// HandleRevoke handles POST /v1/grants/{id}/revoke
//
//	@Summary		Revoke an Access Grant
//	@Description	Revocation is permanent. Revoking an already revoked grant returns 204.
//	@Tags			Grants
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Grant id"
//	@Success		204
//	@Failure		403	{object}	consentsdk.ErrorResponse	"forbidden"
//	@Failure		404	{object}	consentsdk.ErrorResponse	"not_found"
//	@Router			/v1/grants/{id}/revoke [post].
func (h *GrantsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	if err := h.GrantService.RevokeGrant(r.Context(), p, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

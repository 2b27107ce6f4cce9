package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/service"
	"github.com/aussiebroadwan/carelink/pkg/consentsdk"
	"github.com/aussiebroadwan/carelink/pkg/httpx"
)

// LinksHandler serves the partner-facing linking endpoints. The caller's
// user id is the requester id.
type LinksHandler struct {
	LinkService *service.LinkService
}

// HandleRequest handles POST /v1/links/request
//
//	@Summary		Request a Consent Link
//	@Description	Looks up a subject by short code, email or phone. Subjects owned by the caller's account are
//	@Description	linked immediately (200). Otherwise a one-time code is emailed to the subject (202).
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		consentsdk.RequestLinkRequest	true	"Exactly one subject handle"
//	@Success		200		{object}	consentsdk.RequestLinkResponse	"linked"
//	@Success		202		{object}	consentsdk.RequestLinkResponse	"challenge_issued"
//	@Failure		400		{object}	consentsdk.ErrorResponse		"invalid_request"
//	@Failure		404		{object}	consentsdk.ErrorResponse		"not_found"
//	@Failure		409		{object}	consentsdk.ErrorResponse		"already_linked"
//	@Failure		422		{object}	consentsdk.ErrorResponse		"not_linkable, no_delivery_channel"
//	@Failure		429		{object}	consentsdk.ErrorResponse		"rate_limited"
//	@Failure		503		{object}	consentsdk.ErrorResponse		"unavailable"
//	@Router			/v1/links/request [post].
func (h *LinksHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	var req consentsdk.RequestLinkRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrBadRequest.WithDescription("invalid JSON in request body").WriteError(w)
		return
	}

	res, err := h.LinkService.RequestLink(r.Context(), p.UserID, domain.SubjectLookup{
		ShortCode: req.ShortCode,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := consentsdk.RequestLinkResponse{
		Status:    string(res.Status),
		SubjectID: res.SubjectID,
	}
	status := http.StatusOK
	if c := res.Challenge; c != nil {
		expires := c.ExpiresAt
		out.ChallengeID = c.ID
		out.ExpiresAt = &expires
		out.Destination = c.Destination
		status = http.StatusAccepted
	}

	httpx.WriteJSON(w, status, out)
}

// HandleConfirm handles POST /v1/links/confirm
//
//	@Summary		Confirm a Consent Link
//	@Description	Submits the code the subject received. Wrong, expired and reused codes are indistinguishable.
//	@Description	Repeating a successful confirm returns 200 without creating a second link.
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		consentsdk.ConfirmLinkRequest	true	"Subject id and code"
//	@Success		200		{object}	consentsdk.LinkStatusResponse	"linked"
//	@Failure		400		{object}	consentsdk.ErrorResponse		"invalid_request, invalid_code"
//	@Failure		429		{object}	consentsdk.ErrorResponse		"rate_limited"
//	@Failure		503		{object}	consentsdk.ErrorResponse		"unavailable"
//	@Router			/v1/links/confirm [post].
func (h *LinksHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	var req consentsdk.ConfirmLinkRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrBadRequest.WithDescription("invalid JSON in request body").WriteError(w)
		return
	}
	if strings.TrimSpace(req.SubjectID) == "" {
		httpx.ErrBadRequest.WithDescription("subject_id is required").WriteError(w)
		return
	}

	status, err := h.LinkService.ConfirmLink(r.Context(), p.UserID, req.SubjectID, strings.TrimSpace(req.Code))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, consentsdk.LinkStatusResponse{Status: string(status)})
}

// HandleList handles GET /v1/links
//
//	@Summary		List Consent Links
//	@Description	Returns the caller's active links, newest first.
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	consentsdk.ListLinksResponse
//	@Failure		503	{object}	consentsdk.ErrorResponse	"unavailable"
//	@Router			/v1/links [get].
func (h *LinksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	links, err := h.LinkService.ListLinks(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := consentsdk.ListLinksResponse{Links: make([]consentsdk.LinkInfo, len(links))}
	for i, l := range links {
		out.Links[i] = consentsdk.LinkInfo{
			ID:          l.ID,
			SubjectID:   l.SubjectID,
			ConsentedAt: l.ConsentedAt,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleAuthorize handles GET /v1/links/{subject_id}
//
//	@Summary		Check a Consent Link
//	@Description	204 when the caller holds an active link to the subject, 404 otherwise.
//	@Tags			Links
//	@Security		BearerAuth
//	@Param			subject_id	path	string	true	"Subject id"
//	@Success		204
//	@Failure		404	{object}	consentsdk.ErrorResponse	"not_found"
//	@Router			/v1/links/{subject_id} [get].
func (h *LinksHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	if err := h.LinkService.Authorize(r.Context(), p.UserID, r.PathValue("subject_id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnlink handles DELETE /v1/links/{subject_id}
//
//	@Summary		Withdraw a Consent Link
//	@Description	Idempotent. Unlinking a pair that was never linked also returns 204.
//	@Tags			Links
//	@Security		BearerAuth
//	@Param			subject_id	path	string	true	"Subject id"
//	@Success		204
//	@Failure		503	{object}	consentsdk.ErrorResponse	"unavailable"
//	@Router			/v1/links/{subject_id} [delete].
func (h *LinksHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.ErrInternal.WriteError(w)
		return
	}

	if err := h.LinkService.Unlink(r.Context(), p.UserID, r.PathValue("subject_id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

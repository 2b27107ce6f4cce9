/*
Package consentsdk is a Go client for the CareLink consent service.

# Overview

Partners use the service to link themselves to a subject's records. Linking
is confirmed by a one-time code sent to the subject. Doctors use it to list
the time-boxed access grants a patient has issued to them.

Every call needs a bearer token issued by the identity provider:

	client := consentsdk.NewClient("https://consent.example.com", token)

	// Ask to link by short code; the subject receives a code.
	res, err := client.RequestLink(ctx, consentsdk.RequestLinkRequest{ShortCode: "PT-7Q2K"})

	// Confirm with the code the subject reads back.
	err = client.ConfirmLink(ctx, res.SubjectID, "482913")

# Errors

Non-2xx responses are returned as *Error. The Code field carries the stable
machine-readable code (for example "rate_limited" or "invalid_code"):

	var apiErr *consentsdk.Error
	if errors.As(err, &apiErr) && apiErr.Code == consentsdk.ErrorCodeRateLimited {
		time.Sleep(apiErr.RetryAfter)
	}
*/
package consentsdk

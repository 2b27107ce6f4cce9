package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

var codeTemplate = template.Must(template.New("code").Parse(
	`Your verification code is {{.Code}}.

{{.Requester}} asked to link to your health record. Share this code with them
only if you agree. It expires in {{.TTLMinutes}} minutes.

If you did not expect this, ignore this message and no link will be made.
`))

// CodeMessage is the data rendered into a verification email.
type CodeMessage struct {
	Code      string
	Requester string
	TTL       time.Duration
}

const codeSubject = "Your verification code"

// Render returns the subject line and plain-text body.
func (m CodeMessage) Render() (subject, body string, err error) {
	var buf bytes.Buffer
	err = codeTemplate.Execute(&buf, struct {
		Code       string
		Requester  string
		TTLMinutes int
	}{
		Code:       m.Code,
		Requester:  requesterLabel(m.Requester),
		TTLMinutes: int(m.TTL.Round(time.Minute) / time.Minute),
	})
	if err != nil {
		return "", "", fmt.Errorf("render code message: %w", err)
	}
	return codeSubject, buf.String(), nil
}

func requesterLabel(s string) string {
	if s == "" {
		return "A healthcare partner"
	}
	return s
}

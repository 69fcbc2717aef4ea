package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"text/template"
)

const (
	FromName                 = "LegalTenderPay"
	VerificationCodeTemplate = "verification_code.tmpl"
)

//go:embed "templates"
var FS embed.FS

// ErrMisconfigured means the selected provider is missing credentials.
// Distinct from ProviderError so operators can tell "bad config" apart from
// "provider rejected the message".
var ErrMisconfigured = errors.New("mailer: missing credentials for selected provider")

// ProviderError wraps a delivery rejection from the upstream provider. The
// status and body are meant for logs, never for client responses.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: delivery failed: http=%d body=%s", e.Provider, e.StatusCode, e.Body)
}

// Client is the uniform send capability all provider variants implement.
// It returns the provider status code for logging.
type Client interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) (int, error)
}

// Message is a rendered email ready for dispatch.
type Message struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// Render executes the named embedded template. Templates define "subject",
// "plainBody" and "htmlBody" blocks.
func Render(templateFile string, data any) (Message, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return Message{}, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	var msg Message
	for name, dst := range map[string]*string{
		"subject":   &msg.Subject,
		"plainBody": &msg.TextBody,
		"htmlBody":  &msg.HTMLBody,
	} {
		buf := new(bytes.Buffer)
		if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
			return Message{}, fmt.Errorf("execute %s block of %s: %w", name, templateFile, err)
		}
		*dst = buf.String()
	}

	return msg, nil
}

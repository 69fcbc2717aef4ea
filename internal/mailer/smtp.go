package mailer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	mail "gopkg.in/mail.v2"
)

// SMTPClient delivers mail through an authenticated SMTP relay.
type SMTPClient struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
}

func NewSMTPClient(host string, port int, username, password, fromEmail, fromName string) *SMTPClient {
	if fromName == "" {
		fromName = FromName
	}
	return &SMTPClient{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (c *SMTPClient) Send(ctx context.Context, to, subject, textBody, htmlBody string) (int, error) {
	if c.host == "" || c.username == "" || c.password == "" || c.fromEmail == "" {
		return 0, ErrMisconfigured
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", c.fromEmail, c.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	d := mail.NewDialer(c.host, c.port, c.username, c.password)
	d.Timeout = 10 * time.Second

	// auth, connection and relay rejections all surface the same way
	if err := d.DialAndSend(m); err != nil {
		return 0, &ProviderError{
			Provider: "smtp",
			Body:     fmt.Sprintf("%s:%d: %v", c.host, c.port, err),
		}
	}

	return http.StatusOK, nil
}

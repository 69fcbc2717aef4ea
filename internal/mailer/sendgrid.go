package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridClient delivers mail through the SendGrid v3 REST API.
type SendGridClient struct {
	apiKey    string
	fromEmail string
	fromName  string
	endpoint  string
	client    *http.Client
}

func NewSendGridClient(apiKey, fromEmail, fromName string) *SendGridClient {
	if fromName == "" {
		fromName = FromName
	}
	return &SendGridClient{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		endpoint:  sendGridEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *SendGridClient) Send(ctx context.Context, to, subject, textBody, htmlBody string) (int, error) {
	if c.apiKey == "" || c.fromEmail == "" {
		return 0, ErrMisconfigured
	}

	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": to}}},
		},
		"from": map[string]string{
			"email": c.fromEmail,
			"name":  c.fromName,
		},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": textBody},
			{"type": "text/html", "value": htmlBody},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("sendgrid: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return 0, fmt.Errorf("sendgrid: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sendgrid: send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(res.Body)
		return res.StatusCode, &ProviderError{
			Provider:   "sendgrid",
			StatusCode: res.StatusCode,
			Body:       string(raw),
		}
	}

	return res.StatusCode, nil
}

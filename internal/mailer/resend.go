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

const resendEndpoint = "https://api.resend.com/emails"

// ResendClient delivers mail through the Resend REST API.
type ResendClient struct {
	apiKey    string
	fromEmail string
	fromName  string
	endpoint  string
	client    *http.Client
}

func NewResendClient(apiKey, fromEmail, fromName string) *ResendClient {
	if fromName == "" {
		fromName = FromName
	}
	return &ResendClient{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		endpoint:  resendEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *ResendClient) Send(ctx context.Context, to, subject, textBody, htmlBody string) (int, error) {
	if c.apiKey == "" || c.fromEmail == "" {
		return 0, ErrMisconfigured
	}

	payload := map[string]any{
		"from":    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		"to":      []string{to},
		"subject": subject,
		"text":    textBody,
		"html":    htmlBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("resend: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return 0, fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("resend: send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(res.Body)
		return res.StatusCode, &ProviderError{
			Provider:   "resend",
			StatusCode: res.StatusCode,
			Body:       string(raw),
		}
	}

	return res.StatusCode, nil
}

package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const flutterwaveBaseURL = "https://api.flutterwave.com"

// FlutterwaveAdapter creates hosted payment links and looks transactions up
// by reference through the Flutterwave v3 API.
type FlutterwaveAdapter struct {
	SecretKey   string
	RedirectURL string
	baseURL     string
	httpClient  *http.Client
}

func NewFlutterwaveAdapter(secret, redirectURL string) *FlutterwaveAdapter {
	return &FlutterwaveAdapter{
		SecretKey:   secret,
		RedirectURL: redirectURL,
		baseURL:     flutterwaveBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *FlutterwaveAdapter) Initiate(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	payload := map[string]any{
		"tx_ref":       req.TxRef,
		"amount":       fmt.Sprintf("%.2f", req.Amount),
		"currency":     req.Currency,
		"redirect_url": f.RedirectURL,
		"customer": map[string]string{
			"email":       req.CustomerEmail,
			"name":        req.CustomerName,
			"phonenumber": req.CustomerPhone,
		},
		"customizations": map[string]string{
			"title": "LegalTenderPay",
		},
	}

	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v3/payments", bytes.NewBuffer(body))
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("flutterwave initiate build: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+f.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("flutterwave initiate request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return PaymentResponse{}, fmt.Errorf("flutterwave initiate failed: http=%d body=%s", resp.StatusCode, string(raw))
	}

	var res struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return PaymentResponse{}, fmt.Errorf("flutterwave initiate decode: %w body=%s", err, string(raw))
	}

	if !strings.EqualFold(res.Status, "success") || res.Data.Link == "" {
		return PaymentResponse{}, fmt.Errorf("flutterwave initiate rejected: status=%s message=%s", res.Status, res.Message)
	}

	return PaymentResponse{
		PaymentLink: res.Data.Link,
		ProviderRef: req.TxRef,
	}, nil
}

func (f *FlutterwaveAdapter) Verify(ctx context.Context, txRef string) (VerifyResponse, error) {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return VerifyResponse{}, fmt.Errorf("flutterwave verify requires tx_ref")
	}

	endpoint := f.baseURL + "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VerifyResponse{}, fmt.Errorf("flutterwave verify build: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+f.SecretKey)

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return VerifyResponse{}, fmt.Errorf("flutterwave verify request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	// Flutterwave answers 200 with an error envelope for unknown refs, so
	// decode before judging the HTTP status.
	var res struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			TxRef    string  `json:"tx_ref"`
			Status   string  `json:"status"` // successful | pending | failed | cancelled
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return VerifyResponse{}, fmt.Errorf("flutterwave verify decode: http=%d err=%w body=%s", resp.StatusCode, err, string(raw))
	}

	if !strings.EqualFold(res.Status, "success") {
		return VerifyResponse{}, fmt.Errorf("flutterwave verify rejected: http=%d status=%s message=%s", resp.StatusCode, res.Status, res.Message)
	}

	state := strings.ToLower(strings.TrimSpace(res.Data.Status))

	return VerifyResponse{
		Success:  state == "successful",
		Status:   state,
		Amount:   res.Data.Amount,
		Currency: res.Data.Currency,
		TxRef:    res.Data.TxRef,
	}, nil
}

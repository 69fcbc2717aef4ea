package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"legaltenderpay/internal/payments"
)

type CreatePaymentPayload struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3,uppercase"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Name     string  `json:"name" validate:"required,max=100"`
	Phone    string  `json:"phone" validate:"omitempty,max=20"`
}

type CreatePaymentResponse struct {
	Success bool    `json:"success"`
	TxRef   string  `json:"tx_ref"`
	Link    string  `json:"link"`
	Amount  float64 `json:"amount"`
}

type VerifyPaymentResponse struct {
	Success  bool    `json:"success"`
	TxRef    string  `json:"tx_ref"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// createPaymentHandler opens a transaction with the configured gateway and
// returns the hosted payment link.
func (app *application) createPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreatePaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	currency := payload.Currency
	if currency == "" {
		currency = "NGN"
	}

	txRef := "ltp-" + uuid.New().String()

	res, err := app.payments.Initiate(r.Context(), app.config.payment.provider, payments.PaymentRequest{
		TxRef:         txRef,
		Amount:        payload.Amount,
		Currency:      currency,
		CustomerName:  payload.Name,
		CustomerEmail: payload.Email,
		CustomerPhone: payload.Phone,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.txs.Put(&payments.Transaction{
		TxRef:       txRef,
		Amount:      payload.Amount,
		Currency:    currency,
		Email:       payload.Email,
		Name:        payload.Name,
		Status:      "pending",
		PaymentLink: res.PaymentLink,
		CreatedAt:   time.Now(),
	})

	writeJSON(w, http.StatusOK, CreatePaymentResponse{
		Success: true,
		TxRef:   txRef,
		Link:    res.PaymentLink,
		Amount:  payload.Amount,
	})
}

// verifyPaymentHandler re-checks a transaction with the gateway and updates
// the in-memory bookkeeping.
func (app *application) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	txRef := chi.URLParam(r, "txRef")

	if _, err := app.txs.Get(txRef); err != nil {
		if errors.Is(err, payments.ErrTxNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	res, err := app.payments.Verify(r.Context(), app.config.payment.provider, txRef)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.txs.SetStatus(txRef, res.Status); err != nil {
		app.logger.Warnw("transaction vanished during verify", "tx_ref", txRef, "error", err)
	}

	writeJSON(w, http.StatusOK, VerifyPaymentResponse{
		Success:  res.Success,
		TxRef:    txRef,
		Status:   res.Status,
		Amount:   res.Amount,
		Currency: res.Currency,
	})
}

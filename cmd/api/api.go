package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"legaltenderpay/internal/payments"
)

type application struct {
	config   config
	logger   *zap.SugaredLogger
	verifier verifierService
	payments paymentInitiator
	txs      *payments.TxStore
}

// verifierService is what the handlers need from the verification service.
// The concrete implementation is *verification.Service; tests inject a stub.
type verifierService interface {
	SendCode(ctx context.Context, email string) error
	VerifyCode(email, code string) error
}

// paymentInitiator is the payments.Manager surface the handlers use.
type paymentInitiator interface {
	Initiate(ctx context.Context, provider string, req payments.PaymentRequest) (payments.PaymentResponse, error)
	Verify(ctx context.Context, provider, txRef string) (payments.VerifyResponse, error)
}

type config struct {
	addr         string
	env          string
	auth         authConfig
	mail         mailConfig
	verification verificationConfig
	payment      paymentConfig
}

type authConfig struct {
	basic basicConfig
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	provider  string // "sendgrid" | "resend" | "smtp"
	fromEmail string
	fromName  string
	sendgrid  sendGridConfig
	resend    resendConfig
	smtp      smtpConfig
}

type sendGridConfig struct {
	apiKey string
}

type resendConfig struct {
	apiKey string
}

type smtpConfig struct {
	host string
	port int
	user string
	pass string
}

type verificationConfig struct {
	codeTTL        time.Duration
	ratePerHour    int
	reaperInterval time.Duration
}

type paymentConfig struct {
	provider    string
	secretKey   string
	redirectURL string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", app.pingHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Post("/send-code", app.sendCodeHandler)
		r.Post("/verify-code", app.verifyCodeHandler)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", app.createPaymentHandler)
			r.Get("/{txRef}/verify", app.verifyPaymentHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

package main

import (
	"expvar"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"legaltenderpay/internal/mailer"
	"legaltenderpay/internal/payments"
	"legaltenderpay/internal/ratelimiter"
	"legaltenderpay/internal/verification"
)

var version = "1.0.0"

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

func envString(key, fallback string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
		log.Printf("invalid %s, defaulting to %d", key, fallback)
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from environment")
	}

	cfg := config{
		addr: ":" + envString("PORT", "3000"),
		env:  envString("ENV", "development"),
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
		},
		mail: mailConfig{
			provider:  envString("EMAIL_PROVIDER", "smtp"),
			fromEmail: os.Getenv("FROM_EMAIL"),
			fromName:  envString("FROM_NAME", mailer.FromName),
			sendgrid: sendGridConfig{
				apiKey: os.Getenv("SENDGRID_API_KEY"),
			},
			resend: resendConfig{
				apiKey: os.Getenv("RESEND_API_KEY"),
			},
			smtp: smtpConfig{
				host: os.Getenv("SMTP_HOST"),
				port: envInt("SMTP_PORT", 587),
				user: os.Getenv("SMTP_USER"),
				pass: os.Getenv("SMTP_PASS"),
			},
		},
		verification: verificationConfig{
			codeTTL:        time.Duration(envInt("CODE_TTL_MINUTES", 15)) * time.Minute,
			ratePerHour:    envInt("RATE_LIMIT_PER_HOUR", 3),
			reaperInterval: time.Minute,
		},
		payment: paymentConfig{
			provider:    "flutterwave",
			secretKey:   os.Getenv("FLW_SECRET_KEY"),
			redirectURL: os.Getenv("FLW_REDIRECT_URL"),
		},
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	// Notification dispatcher, selected once at startup
	var mailClient mailer.Client
	switch cfg.mail.provider {
	case "sendgrid":
		mailClient = mailer.NewSendGridClient(cfg.mail.sendgrid.apiKey, cfg.mail.fromEmail, cfg.mail.fromName)
	case "resend":
		mailClient = mailer.NewResendClient(cfg.mail.resend.apiKey, cfg.mail.fromEmail, cfg.mail.fromName)
	case "smtp":
		mailClient = mailer.NewSMTPClient(cfg.mail.smtp.host, cfg.mail.smtp.port, cfg.mail.smtp.user, cfg.mail.smtp.pass, cfg.mail.fromEmail, cfg.mail.fromName)
	default:
		logger.Fatalw("unknown EMAIL_PROVIDER", "provider", cfg.mail.provider)
	}
	logger.Infow("email provider selected", "provider", cfg.mail.provider)

	// Verification service
	codes := verification.NewStore(cfg.verification.codeTTL)
	limiter := ratelimiter.NewSlidingWindowLimiter(cfg.verification.ratePerHour, time.Hour)
	verifier := verification.NewService(codes, limiter, mailClient, logger, cfg.verification.codeTTL, cfg.mail.fromName)

	verifier.StartReaper(cfg.verification.reaperInterval)
	defer verifier.StopReaper()

	// Payments
	txs := payments.NewTxStore()
	manager := payments.NewManager()
	manager.Register("flutterwave", payments.NewFlutterwaveAdapter(cfg.payment.secretKey, cfg.payment.redirectURL))

	app := &application{
		config:   cfg,
		logger:   logger,
		verifier: verifier,
		payments: manager,
		txs:      txs,
	}

	// Metrics collected at /api/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("verification_entries", expvar.Func(func() any {
		return codes.Len()
	}))
	expvar.Publish("rate_limit_records", expvar.Func(func() any {
		return limiter.Len()
	}))
	expvar.Publish("pending_transactions", expvar.Func(func() any {
		return txs.Len()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}

package verification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"legaltenderpay/internal/mailer"
	"legaltenderpay/internal/ratelimiter"
)

// RateLimitedError carries how long the caller should wait before the next
// send attempt can succeed.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many codes requested, retry in about %s", e.RetryAfter.Round(time.Minute))
}

// Service orchestrates code issuance: rate-limit gate, dispatch, then commit.
// A failed dispatch leaves both the store and the limiter untouched so a
// retry is neither locked out nor left holding a phantom code.
type Service struct {
	codes    *Store
	limiter  *ratelimiter.SlidingWindowLimiter
	mail     mailer.Client
	logger   *zap.SugaredLogger
	ttl      time.Duration
	fromName string

	generate func() (string, error)
	stop     chan struct{}
	done     chan struct{}
}

func NewService(codes *Store, limiter *ratelimiter.SlidingWindowLimiter, mail mailer.Client, logger *zap.SugaredLogger, ttl time.Duration, fromName string) *Service {
	if fromName == "" {
		fromName = mailer.FromName
	}
	return &Service{
		codes:    codes,
		limiter:  limiter,
		mail:     mail,
		logger:   logger,
		ttl:      ttl,
		fromName: fromName,
		generate: GenerateCode,
	}
}

type templateData struct {
	FromName   string
	Code       string
	TTLMinutes int
}

// SendCode issues a fresh code for email and dispatches it. The code value
// is never returned and never logged.
func (s *Service) SendCode(ctx context.Context, email string) error {
	ok, retryAfter := s.limiter.Allow(email)
	if !ok {
		return &RateLimitedError{RetryAfter: retryAfter}
	}

	code, err := s.generate()
	if err != nil {
		return err
	}

	msg, err := mailer.Render(mailer.VerificationCodeTemplate, templateData{
		FromName:   s.fromName,
		Code:       code,
		TTLMinutes: int(s.ttl.Minutes()),
	})
	if err != nil {
		return err
	}

	status, err := s.mail.Send(ctx, email, msg.Subject, msg.TextBody, msg.HTMLBody)
	if err != nil {
		return fmt.Errorf("dispatch verification code: %w", err)
	}

	s.codes.Set(email, code)
	s.limiter.Record(email)

	s.logger.Infow("verification code sent", "email", email, "provider_status", status)
	return nil
}

// VerifyCode consumes the pending code for email on a match.
func (s *Service) VerifyCode(email, code string) error {
	return s.codes.Verify(email, code)
}

// StartReaper begins the periodic sweep of expired codes and stale
// rate-limit records. Call StopReaper on shutdown.
func (s *Service) StartReaper(interval time.Duration) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.codes.Sweep()
				s.limiter.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// StopReaper terminates the sweep goroutine and waits for it to exit.
func (s *Service) StopReaper() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
}

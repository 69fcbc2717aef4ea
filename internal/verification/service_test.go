package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"legaltenderpay/internal/mailer"
	"legaltenderpay/internal/ratelimiter"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) (int, error) {
	args := m.Called(ctx, to, subject, textBody, htmlBody)
	return args.Int(0), args.Error(1)
}

// newTestService wires a service with a controllable clock shared by the
// store and the limiter, and a fixed code generator.
func newTestService(ml mailer.Client, limit int) (*Service, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	codes := NewStore(15 * time.Minute)
	codes.now = clock
	limiter := ratelimiter.NewSlidingWindowLimiter(limit, time.Hour)
	limiter.SetClock(clock)

	svc := NewService(codes, limiter, ml, zap.NewNop().Sugar(), 15*time.Minute, "")
	svc.generate = func() (string, error) { return "482913", nil }
	return svc, &now
}

func TestSendCodeDispatchesAndStores(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, "a@b.com", mock.Anything, mock.Anything, mock.Anything).
		Return(202, nil)

	svc, _ := newTestService(ml, 3)
	require.NoError(t, svc.SendCode(context.Background(), "a@b.com"))

	ml.AssertExpectations(t)

	// the dispatched body carries the code, the stored entry matches it
	textBody := ml.Calls[0].Arguments.String(3)
	assert.Contains(t, textBody, "482913")
	assert.NoError(t, svc.VerifyCode("a@b.com", "482913"))
}

func TestVerifyIsSingleUseThroughService(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(202, nil)

	svc, _ := newTestService(ml, 3)
	require.NoError(t, svc.SendCode(context.Background(), "a@b.com"))

	require.NoError(t, svc.VerifyCode("a@b.com", "482913"))
	assert.ErrorIs(t, svc.VerifyCode("a@b.com", "482913"), ErrCodeNotFound)
}

func TestVerifyAfterTTL(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(202, nil)

	svc, now := newTestService(ml, 3)
	require.NoError(t, svc.SendCode(context.Background(), "a@b.com"))

	*now = now.Add(time.Minute)
	require.NoError(t, svc.VerifyCode("a@b.com", "482913"))

	require.NoError(t, svc.SendCode(context.Background(), "a@b.com"))
	*now = now.Add(16 * time.Minute)
	assert.ErrorIs(t, svc.VerifyCode("a@b.com", "482913"), ErrCodeExpired)
}

func TestRateLimitRejectsFourthSend(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(202, nil)

	svc, _ := newTestService(ml, 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.SendCode(context.Background(), "a@b.com"))
	}

	err := svc.SendCode(context.Background(), "a@b.com")
	var rle *RateLimitedError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, time.Hour, rle.RetryAfter)

	// only three dispatches went out
	ml.AssertNumberOfCalls(t, "Send", 3)
}

func TestRateLimitLeavesPendingCodeIntact(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(202, nil)

	svc, _ := newTestService(ml, 1)
	require.NoError(t, svc.SendCode(context.Background(), "a@b.com"))

	err := svc.SendCode(context.Background(), "a@b.com")
	var rle *RateLimitedError
	require.True(t, errors.As(err, &rle))

	// the earlier code still verifies
	assert.NoError(t, svc.VerifyCode("a@b.com", "482913"))
}

func TestFailedDispatchConsumesNoBudget(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(500, &mailer.ProviderError{Provider: "sendgrid", StatusCode: 500, Body: "boom"}).Once()
	ml.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(202, nil)

	svc, _ := newTestService(ml, 1)

	err := svc.SendCode(context.Background(), "a@b.com")
	var pe *mailer.ProviderError
	require.True(t, errors.As(err, &pe))

	// nothing pending after the failure
	require.ErrorIs(t, svc.VerifyCode("a@b.com", "482913"), ErrCodeNotFound)

	// and the limiter still has budget for the retry, even at limit 1
	assert.NoError(t, svc.SendCode(context.Background(), "a@b.com"))
}

func TestMisconfiguredProviderSurfacesDistinctly(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(0, mailer.ErrMisconfigured)

	svc, _ := newTestService(ml, 3)
	err := svc.SendCode(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, mailer.ErrMisconfigured)
}

func TestReaperSweepsStoreAndLimiter(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(202, nil)

	svc, now := newTestService(ml, 3)
	require.NoError(t, svc.SendCode(context.Background(), "a@b.com"))
	require.Equal(t, 1, svc.codes.Len())

	*now = now.Add(2 * time.Hour)
	svc.StartReaper(time.Millisecond)
	defer svc.StopReaper()

	require.Eventually(t, func() bool {
		return svc.codes.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

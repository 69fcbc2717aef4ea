package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(ttl time.Duration) (*Store, *time.Time) {
	s := NewStore(ttl)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestVerifyIsSingleUse(t *testing.T) {
	s, _ := newTestStore(15 * time.Minute)

	s.Set("a@b.com", "482913")
	require.NoError(t, s.Verify("a@b.com", "482913"))

	// the code was consumed, a replay must not succeed
	assert.ErrorIs(t, s.Verify("a@b.com", "482913"), ErrCodeNotFound)
}

func TestVerifyTrimsWhitespace(t *testing.T) {
	s, _ := newTestStore(15 * time.Minute)

	s.Set("a@b.com", "482913")
	assert.NoError(t, s.Verify("a@b.com", "  482913\n"))
}

func TestWrongCodeKeepsEntry(t *testing.T) {
	s, _ := newTestStore(15 * time.Minute)

	s.Set("a@b.com", "482913")
	require.ErrorIs(t, s.Verify("a@b.com", "000000"), ErrInvalidCode)

	// a wrong guess must not invalidate the real code
	assert.NoError(t, s.Verify("a@b.com", "482913"))
}

func TestVerifyExpiredCode(t *testing.T) {
	s, now := newTestStore(15 * time.Minute)

	s.Set("a@b.com", "482913")

	*now = now.Add(time.Minute)
	require.NoError(t, s.Verify("a@b.com", "482913"))

	s.Set("a@b.com", "482913")
	*now = now.Add(16 * time.Minute)
	require.ErrorIs(t, s.Verify("a@b.com", "482913"), ErrCodeExpired)

	// the expiry check consumed the entry
	assert.ErrorIs(t, s.Verify("a@b.com", "482913"), ErrCodeNotFound)
}

func TestExpiryBoundaryIsInclusive(t *testing.T) {
	s, now := newTestStore(15 * time.Minute)

	s.Set("a@b.com", "482913")
	*now = now.Add(15 * time.Minute)

	assert.ErrorIs(t, s.Verify("a@b.com", "482913"), ErrCodeExpired)
}

func TestReissueInvalidatesOldCode(t *testing.T) {
	s, _ := newTestStore(15 * time.Minute)

	s.Set("a@b.com", "111111")
	s.Set("a@b.com", "222222")

	require.ErrorIs(t, s.Verify("a@b.com", "111111"), ErrInvalidCode)
	assert.NoError(t, s.Verify("a@b.com", "222222"))
}

func TestAttemptCap(t *testing.T) {
	s, _ := newTestStore(15 * time.Minute)

	s.Set("a@b.com", "482913")
	for i := 0; i < maxAttempts-1; i++ {
		require.ErrorIs(t, s.Verify("a@b.com", "000000"), ErrInvalidCode)
	}
	require.ErrorIs(t, s.Verify("a@b.com", "000000"), ErrTooManyAttempts)

	// the entry was dropped, even the correct code no longer verifies
	assert.ErrorIs(t, s.Verify("a@b.com", "482913"), ErrCodeNotFound)
}

func TestReissueResetsAttempts(t *testing.T) {
	s, _ := newTestStore(15 * time.Minute)

	s.Set("a@b.com", "111111")
	for i := 0; i < maxAttempts-1; i++ {
		require.ErrorIs(t, s.Verify("a@b.com", "000000"), ErrInvalidCode)
	}

	s.Set("a@b.com", "222222")
	require.ErrorIs(t, s.Verify("a@b.com", "000000"), ErrInvalidCode)
	assert.NoError(t, s.Verify("a@b.com", "222222"))
}

func TestSweepRemovesExpiredOnly(t *testing.T) {
	s, now := newTestStore(15 * time.Minute)

	s.Set("old@b.com", "111111")
	*now = now.Add(10 * time.Minute)
	s.Set("fresh@b.com", "222222")

	*now = now.Add(6 * time.Minute)
	s.Sweep()

	assert.Equal(t, 1, s.Len())
	assert.NoError(t, s.Verify("fresh@b.com", "222222"))
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.GreaterOrEqual(t, code, "100000")
		require.LessOrEqual(t, code, "999999")
	}
}

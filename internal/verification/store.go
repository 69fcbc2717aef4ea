package verification

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// maxAttempts bounds wrong guesses per issued code. A 6-digit space with
// unlimited attempts is guessable within the TTL, so after maxAttempts
// failures the entry is dropped and the caller must request a fresh code.
const maxAttempts = 5

var (
	ErrCodeNotFound    = errors.New("no verification code found for this email")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many failed attempts, request a new code")
)

type entry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// Store holds at most one live code per email. Entries expire lazily on
// Verify and are additionally swept by the reaper.
type Store struct {
	sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GenerateCode returns a uniformly random six-digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Set stores code for email with a fresh TTL, overwriting any prior entry.
// The previous code for that email stops verifying immediately.
func (s *Store) Set(email, code string) {
	s.Lock()
	defer s.Unlock()

	s.entries[email] = &entry{
		code:      code,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Verify checks submitted against the stored code for email. On success the
// entry is consumed (single use). Expired entries are deleted as part of the
// check, so correctness does not depend on the reaper.
func (s *Store) Verify(email, submitted string) error {
	s.Lock()
	defer s.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return ErrCodeNotFound
	}

	if !s.now().Before(e.expiresAt) {
		delete(s.entries, email)
		return ErrCodeExpired
	}

	if strings.TrimSpace(submitted) != e.code {
		e.attempts++
		if e.attempts >= maxAttempts {
			delete(s.entries, email)
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}

	delete(s.entries, email)
	return nil
}

// Sweep removes expired entries. Housekeeping only; Verify already enforces
// expiry on read.
func (s *Store) Sweep() {
	s.Lock()
	defer s.Unlock()

	now := s.now()
	for email, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, email)
		}
	}
}

// Len returns the number of live entries, for expvar.
func (s *Store) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.entries)
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bryceheller922-ship-it/Archaleon/internal/auth"
)

func TestCodeOf(t *testing.T) {
	err := NewError(CodeWrongCredential, errors.New("nope"))
	assert.Equal(t, CodeWrongCredential, CodeOf(err))
	assert.Equal(t, CodeWrongCredential, CodeOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validateEmail("buyer@fund.com"))
	assert.Error(t, validateEmail("not-an-email"))
	assert.Error(t, validateEmail("@fund.com"))
	assert.Error(t, validateEmail("buyer@nodot"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "buyer@fund.com", normalizeEmail("  Buyer@Fund.COM "))
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	p := &mongoProvider{
		listeners: make(map[int]func(*Subject)),
		attempts:  make(map[string]*attemptState),
	}

	for i := 0; i < maxFailedAttempts; i++ {
		assert.NoError(t, p.checkLockout("buyer@fund.com"))
		p.recordFailure("buyer@fund.com")
	}

	err := p.checkLockout("buyer@fund.com")
	assert.Error(t, err)
	assert.Equal(t, CodeTooManyAttempts, CodeOf(err))

	// Other accounts are unaffected.
	assert.NoError(t, p.checkLockout("other@fund.com"))

	// An expired lockout clears.
	p.attempts["buyer@fund.com"].lockedUntil = time.Now().Add(-time.Second)
	assert.NoError(t, p.checkLockout("buyer@fund.com"))
}

func TestCompletePasswordResetTokenChecks(t *testing.T) {
	p := &mongoProvider{
		jwtSecret:  "secret",
		sessionTTL: time.Hour,
		listeners:  make(map[int]func(*Subject)),
		attempts:   make(map[string]*attemptState),
	}

	err := p.CompletePasswordReset(context.Background(), "not-a-jwt", "newsecret")
	assert.Equal(t, CodeInvalidToken, CodeOf(err))

	// A session token must not pass as a reset token.
	session, err := auth.GenerateJWT("A1B2C3D4E5", "", "secret", time.Hour)
	assert.NoError(t, err)
	err = p.CompletePasswordReset(context.Background(), session, "newsecret")
	assert.Equal(t, CodeInvalidToken, CodeOf(err))

	expired, err := auth.GenerateJWT("A1B2C3D4E5", resetTokenRole, "secret", -time.Minute)
	assert.NoError(t, err)
	err = p.CompletePasswordReset(context.Background(), expired, "newsecret")
	assert.Equal(t, CodeInvalidToken, CodeOf(err))

	valid, err := auth.GenerateJWT("A1B2C3D4E5", resetTokenRole, "secret", time.Minute)
	assert.NoError(t, err)
	err = p.CompletePasswordReset(context.Background(), valid, "short")
	assert.Equal(t, CodeWeakCredential, CodeOf(err))
}

func TestSessionChangeListeners(t *testing.T) {
	p := &mongoProvider{
		jwtSecret:  "secret",
		sessionTTL: time.Hour,
		listeners:  make(map[int]func(*Subject)),
		attempts:   make(map[string]*attemptState),
	}

	var seen []*Subject
	unsubscribe := p.OnSessionChange(func(s *Subject) { seen = append(seen, s) })

	// Immediate fire with no session.
	assert.Len(t, seen, 1)
	assert.Nil(t, seen[0])

	subject, err := p.startSession(account{ID: "A1B2C3D4E5", Email: "buyer@fund.com"})
	assert.NoError(t, err)
	assert.NotEmpty(t, subject.Token)
	assert.Len(t, seen, 2)
	assert.Equal(t, "A1B2C3D4E5", seen[1].UserID)

	unsubscribe()
	_ = p.EndSession(context.Background())
	assert.Len(t, seen, 2)
}

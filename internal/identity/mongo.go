package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bryceheller922-ship-it/Archaleon/internal/auth"
	"github.com/bryceheller922-ship-it/Archaleon/internal/db"
	"github.com/bryceheller922-ship-it/Archaleon/internal/utils"
)

const accountsCollection = "accounts"

// resetTokenRole marks a JWT as a password-reset token so a session token
// can never be replayed against the reset endpoint.
const resetTokenRole = "password_reset"

const (
	minPasswordLength = 6
	maxFailedAttempts = 5
	lockoutWindow     = 15 * time.Minute
)

// account is the identity record stored in MongoDB. The id doubles as the
// user profile id everywhere else in the system.
type account struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type attemptState struct {
	failures    int
	lockedUntil time.Time
}

// mongoProvider is a hosted-style identity provider over a MongoDB accounts
// collection with bcrypt hashes and JWT session tokens.
type mongoProvider struct {
	db         *mongo.Database
	mailer     ResetMailer
	jwtSecret  string
	sessionTTL time.Duration

	mu        sync.Mutex
	current   *Subject
	listeners map[int]func(*Subject)
	nextID    int
	attempts  map[string]*attemptState
}

// NewMongoProvider creates a Provider backed by the given MongoDB database.
func NewMongoProvider(database *mongo.Database, mailer ResetMailer, jwtSecret string, sessionTTL time.Duration) Provider {
	return &mongoProvider{
		db:         database,
		mailer:     mailer,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		listeners:  make(map[int]func(*Subject)),
		attempts:   make(map[string]*attemptState),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || !strings.Contains(email[at:], ".") {
		return NewError(CodeInvalidIdentity, fmt.Errorf("malformed email %q", email))
	}
	return nil
}

func (p *mongoProvider) CreateAccount(ctx context.Context, email, password string) (*Subject, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, NewError(CodeWeakCredential, fmt.Errorf("password shorter than %d characters", minPasswordLength))
	}

	coll := p.db.Collection(accountsCollection)
	err := coll.FindOne(ctx, bson.M{"email": email}).Err()
	if err == nil {
		return nil, NewError(CodeDuplicateIdentity, fmt.Errorf("email %s already registered", email))
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, NewError(CodeUnknown, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, NewError(CodeUnknown, err)
	}

	acc := account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	// Regenerate the id on duplicate key.
	operation := func() error {
		acc.ID = utils.NewID()
		_, insertErr := coll.InsertOne(ctx, acc)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			// A unique email index fired, not an id collision.
			return nil, NewError(CodeDuplicateIdentity, err)
		}
		return nil, NewError(CodeUnknown, err)
	}

	return p.startSession(acc)
}

func (p *mongoProvider) VerifyCredentials(ctx context.Context, email, password string) (*Subject, error) {
	email = normalizeEmail(email)
	if err := p.checkLockout(email); err != nil {
		return nil, err
	}

	var acc account
	err := p.db.Collection(accountsCollection).FindOne(ctx, bson.M{"email": email}).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewError(CodeNotFound, fmt.Errorf("no account for %s", email))
		}
		return nil, NewError(CodeUnknown, err)
	}

	if !auth.CheckPasswordHash(password, acc.PasswordHash) {
		p.recordFailure(email)
		return nil, NewError(CodeWrongCredential, fmt.Errorf("password mismatch for %s", email))
	}

	p.clearFailures(email)
	return p.startSession(acc)
}

func (p *mongoProvider) EndSession(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	listeners := p.snapshotListenersLocked()
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
	return nil
}

func (p *mongoProvider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	var acc account
	err := p.db.Collection(accountsCollection).FindOne(ctx, bson.M{"email": email}).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return NewError(CodeNotFound, fmt.Errorf("no account for %s", email))
		}
		return NewError(CodeUnknown, err)
	}

	// Short-lived token the reset form presents back.
	token, err := auth.GenerateJWT(acc.ID, resetTokenRole, p.jwtSecret, 15*time.Minute)
	if err != nil {
		return NewError(CodeUnknown, err)
	}

	if err := p.mailer.DeliverPasswordReset(ctx, email, token); err != nil {
		return NewError(CodeUnknown, err)
	}
	return nil
}

func (p *mongoProvider) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := auth.ValidateJWT(token, p.jwtSecret)
	if err != nil {
		return NewError(CodeInvalidToken, err)
	}
	if claims.Role != resetTokenRole {
		return NewError(CodeInvalidToken, errors.New("token is not a password-reset token"))
	}
	if len(newPassword) < minPasswordLength {
		return NewError(CodeWeakCredential, fmt.Errorf("password shorter than %d characters", minPasswordLength))
	}

	var acc account
	err = p.db.Collection(accountsCollection).FindOne(ctx, bson.M{"_id": claims.UserID}).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return NewError(CodeNotFound, fmt.Errorf("no account %s", claims.UserID))
		}
		return NewError(CodeUnknown, err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return NewError(CodeUnknown, err)
	}
	_, err = p.db.Collection(accountsCollection).UpdateOne(ctx,
		bson.M{"_id": acc.ID},
		bson.M{"$set": bson.M{"password_hash": hash}},
	)
	if err != nil {
		return NewError(CodeUnknown, err)
	}

	// A completed reset also lifts any lockout on the account.
	p.clearFailures(acc.Email)
	log.Printf("[Identity] Password reset completed for %s", acc.Email)
	return nil
}

func (p *mongoProvider) OnSessionChange(fn func(subject *Subject)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.current
	p.mu.Unlock()

	// Late subscribers observe the session that is already in place.
	fn(current)

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *mongoProvider) startSession(acc account) (*Subject, error) {
	token, err := auth.GenerateJWT(acc.ID, "", p.jwtSecret, p.sessionTTL)
	if err != nil {
		return nil, NewError(CodeUnknown, err)
	}
	subject := &Subject{UserID: acc.ID, Email: acc.Email, Token: token}

	p.mu.Lock()
	p.current = subject
	listeners := p.snapshotListenersLocked()
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(subject)
	}
	return subject, nil
}

// snapshotListenersLocked copies the listener set in registration order.
// Callers must hold p.mu.
func (p *mongoProvider) snapshotListenersLocked() []func(*Subject) {
	out := make([]func(*Subject), 0, len(p.listeners))
	for id := 0; id < p.nextID; id++ {
		if fn, ok := p.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (p *mongoProvider) checkLockout(email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.attempts[email]
	if !ok {
		return nil
	}
	if time.Now().Before(state.lockedUntil) {
		return NewError(CodeTooManyAttempts, fmt.Errorf("account %s locked until %s", email, state.lockedUntil.Format(time.RFC3339)))
	}
	return nil
}

func (p *mongoProvider) recordFailure(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.attempts[email]
	if !ok {
		state = &attemptState{}
		p.attempts[email] = state
	}
	state.failures++
	if state.failures >= maxFailedAttempts {
		state.lockedUntil = time.Now().Add(lockoutWindow)
		state.failures = 0
		log.Printf("[Identity] Too many failed attempts for %s, locked for %v", email, lockoutWindow)
	}
}

func (p *mongoProvider) clearFailures(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, email)
}

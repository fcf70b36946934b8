package store

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/bryceheller922-ship-it/Archaleon/internal/identity"
	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
)

// AuthError is an identity failure translated for the user. Reason is the
// provider's stable code; Message is safe to show verbatim.
type AuthError struct {
	Reason  string
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func mapAuthError(err error) *AuthError {
	code := identity.CodeOf(err)
	message := "Something went wrong. Please try again."
	switch code {
	case identity.CodeDuplicateIdentity:
		message = "This email is already registered. Try signing in instead."
	case identity.CodeWeakCredential:
		message = "Password should be at least 6 characters."
	case identity.CodeInvalidIdentity:
		message = "Please enter a valid email address."
	case identity.CodeTooManyAttempts:
		message = "Too many attempts. Please try again later."
	case identity.CodeNotFound:
		message = "No account found with this email."
	case identity.CodeWrongCredential:
		message = "Incorrect email or password."
	case identity.CodeInvalidToken:
		message = "This reset link is invalid or has expired."
	}
	return &AuthError{Reason: string(code), Message: message}
}

// SignUp registers a new account and signs it in. The seed profile supplies
// the name, role, and role-specific fields; identity, avatar, timestamps,
// and the free subscription are stamped here.
func (s *Store) SignUp(ctx context.Context, email, password string, seed models.UserProfile) (*models.UserProfile, string, error) {
	if s.provider == nil {
		return nil, "", errors.New("identity provider not configured")
	}

	subject, err := s.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, "", mapAuthError(err)
	}

	profile := seed
	profile.UID = subject.UserID
	profile.Email = subject.Email
	profile.CreatedAt = time.Now().UTC()
	profile.Subscription = models.DefaultSubscription()
	if profile.Avatar == "" {
		profile.Avatar = models.DefaultAvatar(profile.Role)
	}

	err = s.file.Transact(func(snap *Snapshot) error {
		snap.User = &profile
		upsertUser(snap, profile)
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionUsers, profile.UID, &profile)
	return &profile, subject.Token, nil
}

// SignIn authenticates an existing account and resolves its profile: remote
// first, then the local user directory, then a fabricated minimal company
// profile so a fresh device is never left without one.
func (s *Store) SignIn(ctx context.Context, email, password string) (*models.UserProfile, string, error) {
	if s.provider == nil {
		return nil, "", errors.New("identity provider not configured")
	}

	subject, err := s.provider.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", mapAuthError(err)
	}

	profile, found := s.resolveProfile(ctx, subject)
	if !found {
		profile = fabricateProfile(subject)
	}

	err = s.file.Transact(func(snap *Snapshot) error {
		snap.User = &profile
		upsertUser(snap, profile)
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if refreshErr := s.RefreshListings(ctx); refreshErr != nil {
		log.Printf("[Auth] Listing refresh after sign-in failed: %v", refreshErr)
	}

	s.bus.Notify()
	s.enqueueCreate(ctx, remote.CollectionUsers, profile.UID, &profile)
	return &profile, subject.Token, nil
}

// SignOut ends the session. A provider failure is logged only; the local
// sign-out always proceeds.
func (s *Store) SignOut(ctx context.Context) error {
	if s.provider != nil {
		if err := s.provider.EndSession(ctx); err != nil {
			log.Printf("[Auth] Provider sign-out failed, clearing local session anyway: %v", err)
		}
	}

	err := s.file.Transact(func(snap *Snapshot) error {
		snap.User = nil
		return nil
	})
	if err != nil {
		return err
	}
	s.bus.Notify()
	return nil
}

// ResetPassword asks the provider to send a reset message. No local state
// changes.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	if s.provider == nil {
		return errors.New("identity provider not configured")
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return mapAuthError(err)
	}
	return nil
}

// CompletePasswordReset consumes an emailed reset token and sets the new
// password. No session starts; the user signs in afterwards.
func (s *Store) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if s.provider == nil {
		return errors.New("identity provider not configured")
	}
	if err := s.provider.CompletePasswordReset(ctx, token, newPassword); err != nil {
		return mapAuthError(err)
	}
	return nil
}

// reconcileSession aligns the local session user with the provider's
// session. A live session with no local user triggers the restore path;
// unlike sign-in it never fabricates a profile, it gives up silently when
// the profile cannot be found.
func (s *Store) reconcileSession(ctx context.Context, subject *identity.Subject) {
	snap := s.file.Load()

	if subject == nil {
		if snap.User == nil {
			return
		}
		err := s.file.Transact(func(snap *Snapshot) error {
			snap.User = nil
			return nil
		})
		if err != nil {
			log.Printf("[Auth] Failed to clear local session: %v", err)
			return
		}
		s.bus.Notify()
		return
	}

	if snap.User != nil && snap.User.UID == subject.UserID {
		return
	}

	profile, found := s.resolveProfile(ctx, subject)
	if !found {
		log.Printf("[Auth] No profile found for restored session %s", subject.UserID)
		return
	}

	err := s.file.Transact(func(snap *Snapshot) error {
		snap.User = &profile
		upsertUser(snap, profile)
		return nil
	})
	if err != nil {
		log.Printf("[Auth] Failed to persist restored session: %v", err)
		return
	}
	s.bus.Notify()
}

// resolveProfile looks a subject's profile up remotely, then in the local
// user directory by id or email.
func (s *Store) resolveProfile(ctx context.Context, subject *identity.Subject) (models.UserProfile, bool) {
	if s.remote != nil {
		var profile models.UserProfile
		err := s.remote.Read(ctx, remote.CollectionUsers, subject.UserID, &profile)
		if err == nil {
			return profile, true
		}
		if !errors.Is(err, remote.ErrNotFound) {
			log.Printf("[Auth] Remote profile lookup for %s failed: %v", subject.UserID, err)
		}
	}

	snap := s.file.Load()
	for _, u := range snap.UsersDB {
		if u.UID == subject.UserID || strings.EqualFold(u.Email, subject.Email) {
			return u, true
		}
	}
	return models.UserProfile{}, false
}

// fabricateProfile builds the minimal profile used when sign-in cannot
// resolve one: company role, free tier, name from the email local part.
func fabricateProfile(subject *identity.Subject) models.UserProfile {
	name := subject.Email
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}
	return models.UserProfile{
		UID:          subject.UserID,
		Name:         name,
		Role:         models.RoleCompany,
		Avatar:       models.DefaultAvatar(models.RoleCompany),
		Email:        subject.Email,
		CreatedAt:    time.Now().UTC(),
		Subscription: models.DefaultSubscription(),
	}
}

// upsertUser inserts or replaces the profile in the user directory.
func upsertUser(snap *Snapshot, profile models.UserProfile) {
	for i := range snap.UsersDB {
		if snap.UsersDB[i].UID == profile.UID {
			snap.UsersDB[i] = profile
			return
		}
	}
	snap.UsersDB = append(snap.UsersDB, profile)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/platform/obs"
	"courier-backoffice-service/internal/ports"

	"github.com/google/uuid"
)

const DefaultSessionTTL = 12 * time.Hour

// Authenticator verifies credentials and manages the sessions issued for
// them. Tokens are random UUIDs; the session store owns expiry.
type Authenticator struct {
	Credentials ports.CredentialStore
	Sessions    ports.SessionStore
	TTL         time.Duration
	Now         func() time.Time
}

func NewAuthenticator(creds ports.CredentialStore, sessions ports.SessionStore, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Authenticator{Credentials: creds, Sessions: sessions, TTL: ttl, Now: time.Now}
}

func (a *Authenticator) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

// Authenticate checks username and secret. Both must match exactly;
// usernames are case-sensitive and surrounding spaces are not ignored.
func (a *Authenticator) Authenticate(ctx context.Context, username, secret string) (domain.Principal, error) {
	if strings.TrimSpace(username) == "" || secret == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return a.Credentials.Verify(ctx, username, secret)
}

// Login authenticates and issues a new session.
func (a *Authenticator) Login(ctx context.Context, username, secret string) (domain.Session, error) {
	p, err := a.Authenticate(ctx, username, secret)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			obs.LoginAttempts.WithLabelValues("rejected").Inc()
			slog.InfoContext(ctx, "login rejected", "user", username)
		} else {
			obs.LoginAttempts.WithLabelValues("error").Inc()
		}
		return domain.Session{}, err
	}

	s := domain.Session{
		Token:     uuid.NewString(),
		Principal: p,
		ExpiresAt: a.now().Add(a.TTL),
	}
	if err := a.Sessions.Save(ctx, s, a.TTL); err != nil {
		obs.LoginAttempts.WithLabelValues("error").Inc()
		return domain.Session{}, fmt.Errorf("login: save session: %w", err)
	}

	obs.LoginAttempts.WithLabelValues("accepted").Inc()
	slog.InfoContext(ctx, "login accepted", "user", p.Username, "role", p.Role)
	return s, nil
}

// Resolve returns the live session for token, or domain.ErrUnauthorized.
func (a *Authenticator) Resolve(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}
	s, err := a.Sessions.Get(ctx, token)
	if err != nil {
		return domain.Session{}, err
	}
	if s.Expired(a.now()) {
		_ = a.Sessions.Delete(ctx, token)
		return domain.Session{}, domain.ErrUnauthorized
	}
	return s, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := a.Sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

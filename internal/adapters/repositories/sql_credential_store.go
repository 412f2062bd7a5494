package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/platform/db"
)

// SQL-backed implementation of the CredentialStore port. Passwords are
// kept as bcrypt hashes in the users table.
type SQLCredentialStore struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLCredentialStore(conn *sql.DB, dialect db.Dialect) *SQLCredentialStore {
	return &SQLCredentialStore{DB: conn, Dialect: dialect}
}

func (s *SQLCredentialStore) Verify(ctx context.Context, username, secret string) (domain.Principal, error) {
	if s.DB == nil {
		return domain.Principal{}, errors.New("sql credential store: DB is nil")
	}

	var hash, role, perms string
	q := s.Dialect.Rebind(`SELECT password_hash, role, permissions FROM users WHERE username = ?;`)
	err := s.DB.QueryRowContext(ctx, q, username).Scan(&hash, &role, &perms)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Principal{}, fmt.Errorf("verify credentials: query users table: %w", err)
	}

	ok, err := checkPassword(hash, secret)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	p := domain.Principal{Username: username, Role: domain.Role(role)}
	if err := json.Unmarshal([]byte(perms), &p.Permissions); err != nil {
		return domain.Principal{}, fmt.Errorf("verify credentials: decode permissions for %q: %w", username, err)
	}

	return p, nil
}

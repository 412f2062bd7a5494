package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"courier-backoffice-service/internal/adapters/repositories"
	"courier-backoffice-service/internal/config"
	"courier-backoffice-service/internal/platform/db"
	"courier-backoffice-service/internal/ports"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store is the persistence backend selected by STORE_DRIVER, exposed
// through the ports the services depend on.
type Store struct {
	Clients     ports.ClientRepository
	Orders      ports.OrderRepository
	Credentials ports.CredentialStore

	conn    *sql.DB
	dialect db.Dialect
	memory  *repositories.MemoryStore
}

// OpenStore connects to the configured backend. SQL backends are not
// migrated here; call Migrate.
func OpenStore(cfg config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		m := repositories.NewMemoryStore()
		return &Store{Clients: m, Orders: m, Credentials: m, memory: m}, nil

	case config.DriverPostgres:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return newSQLStore(conn, db.Postgres), nil

	default:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open store: create %q: %w", dir, err)
			}
		}
		conn, err := db.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return newSQLStore(conn, db.SQLite), nil
	}
}

func newSQLStore(conn *sql.DB, dialect db.Dialect) *Store {
	return &Store{
		Clients:     repositories.NewSQLClientRepository(conn, dialect),
		Orders:      repositories.NewSQLOrderRepository(conn, dialect),
		Credentials: repositories.NewSQLCredentialStore(conn, dialect),
		conn:        conn,
		dialect:     dialect,
	}
}

// Migrate creates the schema. The memory store needs none.
func (s *Store) Migrate(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	slog.Info("initializing database schema", "dialect", s.dialect.String())
	if err := repositories.InitSchema(ctx, s.conn, s.dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SeedFrom loads the seed file at path into the store. A missing file is
// not an error: the store simply starts empty.
func (s *Store) SeedFrom(ctx context.Context, path string, now time.Time) error {
	seed, err := repositories.LoadSeed(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("seed file not found, skipping", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	slog.Info("seeding store", "path", path, "users", len(seed.Users), "clients", len(seed.Clients), "orders", len(seed.Orders))
	if s.memory != nil {
		return s.memory.Seed(seed, now)
	}
	if err := repositories.SeedSQL(ctx, s.conn, s.dialect, seed, now); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

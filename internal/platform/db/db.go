package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"courier-backoffice-service/internal/platform/textfold"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects the SQL flavor a repository speaks.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// Open connects to Postgres through the pgx database/sql driver.
// The caller must import github.com/jackc/pgx/v5/stdlib.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}

// OpenSQLite opens (or creates) the SQLite database at path. Foreign keys
// are enforced and a single connection is used, which also keeps
// ":memory:" databases alive for the lifetime of the pool.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := registerSearchFold(); err != nil {
		return nil, fmt.Errorf("openDB: register %s: %w", SearchFold, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", path, err)
	}

	return db, nil
}

// SearchFold names the SQL function repositories wrap searchable columns
// in. SQLite gets it from registerSearchFold, Postgres from the schema.
const SearchFold = "search_fold"

var (
	foldOnce sync.Once
	foldErr  error
)

// registerSearchFold installs search_fold for every SQLite connection
// opened afterwards. SQLite's own LOWER only folds ASCII.
func registerSearchFold() error {
	foldOnce.Do(func() {
		foldErr = sqlite.RegisterDeterministicScalarFunction(SearchFold, 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case string:
					return textfold.Fold(v), nil
				case []byte:
					return textfold.Fold(string(v)), nil
				default:
					return v, nil
				}
			})
	})
	return foldErr
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns a user query into a LIKE pattern for a substring
// match against search_fold output. Use it with ESCAPE '\'.
func ContainsPattern(q string) string {
	return "%" + likeEscaper.Replace(textfold.Fold(q)) + "%"
}

// Rebind rewrites "?" placeholders into the dialect's native form.
// Queries are expected to carry no literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsUniqueViolation reports whether err is a unique-constraint failure
// from either supported driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}

// IsForeignKeyViolation reports whether err is a foreign-key failure
// from either supported driver.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}

	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}

	return false
}

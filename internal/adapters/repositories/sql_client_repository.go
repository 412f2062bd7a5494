package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/platform/db"
	"courier-backoffice-service/internal/platform/obs"
)

// SQL-backed implementation of the ClientRepository port.
type SQLClientRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLClientRepository(conn *sql.DB, dialect db.Dialect) *SQLClientRepository {
	return &SQLClientRepository{DB: conn, Dialect: dialect}
}

const clientColumns = `
	id, ruc_dni, razon_social, nombre_contacto, email, celular,
	telefono_fijo, direccion, ciudad, codigo_postal, fecha_registro
`

const insertClientQuery = `
	INSERT INTO clients (
		ruc_dni, razon_social, nombre_contacto, email, celular,
		telefono_fijo, direccion, ciudad, codigo_postal, fecha_registro
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
`

func clientArgs(c *domain.Client) []any {
	return []any{
		c.TaxID, c.BusinessName, c.ContactName, c.Email, c.Mobile,
		c.Phone, c.Address, c.City, c.PostalCode, formatTime(c.RegisteredAt),
	}
}

// Insert a client and assign its store-generated ID.
func (s *SQLClientRepository) CreateClient(ctx context.Context, c *domain.Client) (err error) {
	defer obs.Time(ctx, "clients.CreateClient")(&err)

	if s.DB == nil {
		return errors.New("sql client repository: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx, s.Dialect.Rebind(insertClientQuery), clientArgs(c)...)
	if err := row.Scan(&c.ID); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("create client ruc_dni=%s: %w", c.TaxID, domain.ErrUniquenessViolation)
		}
		return fmt.Errorf("create client: insert: %w", err)
	}

	return nil
}

// Insert many clients in one transaction.
func (s *SQLClientRepository) CreateClients(ctx context.Context, cs []*domain.Client) (err error) {
	defer obs.Time(ctx, "clients.CreateClients")(&err)

	if s.DB == nil {
		return errors.New("sql client repository: DB is nil")
	}
	if len(cs) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create clients: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(insertClientQuery))
	if err != nil {
		return fmt.Errorf("create clients: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cs {
		if err := stmt.QueryRowContext(ctx, clientArgs(c)...).Scan(&c.ID); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("create clients ruc_dni=%s: %w", c.TaxID, domain.ErrUniquenessViolation)
			}
			return fmt.Errorf("create clients ruc_dni=%s: %w", c.TaxID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create clients: commit tx: %w", err)
	}

	return nil
}

func (s *SQLClientRepository) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?;`
	return s.getOne(ctx, q, id)
}

func (s *SQLClientRepository) GetClientByTaxID(ctx context.Context, taxID string) (*domain.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM clients WHERE ruc_dni = ?;`
	return s.getOne(ctx, q, strings.TrimSpace(taxID))
}

func (s *SQLClientRepository) getOne(ctx context.Context, q string, arg any) (*domain.Client, error) {
	if s.DB == nil {
		return nil, errors.New("sql client repository: DB is nil")
	}

	c, err := scanClient(s.DB.QueryRowContext(ctx, s.Dialect.Rebind(q), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get client %v: %w", arg, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get client %v: %w", arg, err)
	}
	return c, nil
}

// Return clients matching the filter, ordered by id.
func (s *SQLClientRepository) ListClients(ctx context.Context, f domain.ClientFilter) (_ []*domain.Client, err error) {
	defer obs.Time(ctx, "clients.ListClients")(&err)

	if s.DB == nil {
		return nil, errors.New("sql client repository: DB is nil")
	}

	var conds []string
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		like := db.ContainsPattern(q)
		conds = append(conds, `(
			search_fold(razon_social) LIKE ? ESCAPE '\' OR
			search_fold(nombre_contacto) LIKE ? ESCAPE '\' OR
			ruc_dni LIKE ? ESCAPE '\'
		)`)
		args = append(args, like, like, like)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		conds = append(conds, "LOWER(ciudad) = ?")
		args = append(args, strings.ToLower(city))
	}
	if f.RegisteredFrom != nil {
		conds = append(conds, "fecha_registro >= ?")
		args = append(args, formatTime(*f.RegisteredFrom))
	}
	if f.RegisteredTo != nil {
		conds = append(conds, "fecha_registro < ?")
		args = append(args, formatTime(*f.RegisteredTo))
	}

	q := `SELECT ` + clientColumns + ` FROM clients`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id;"

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: query clients table: %w", err)
	}
	defer rows.Close()

	clients := make([]*domain.Client, 0, 32)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("list clients: scan row: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clients: row iteration: %w", err)
	}

	return clients, nil
}

// Delete a client and, in the same transaction, every order referencing it.
func (s *SQLClientRepository) DeleteClient(ctx context.Context, id int64) (_ int, err error) {
	defer obs.Time(ctx, "clients.DeleteClient")(&err)

	if s.DB == nil {
		return 0, errors.New("sql client repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete client: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.Dialect.Rebind(`
	DELETE FROM orders
	WHERE remitente_id = ? OR destinatario_id = ?;
	`), id, id)
	if err != nil {
		return 0, fmt.Errorf("delete client id=%d: delete orders: %w", id, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete client id=%d: orders rows affected: %w", id, err)
	}

	res, err = tx.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM clients WHERE id = ?;`), id)
	if err != nil {
		return 0, fmt.Errorf("delete client id=%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete client id=%d: rows affected: %w", id, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("delete client id=%d: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete client id=%d: commit tx: %w", id, err)
	}

	return int(removed), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(r rowScanner) (*domain.Client, error) {
	var c domain.Client
	var registered string
	err := r.Scan(
		&c.ID, &c.TaxID, &c.BusinessName, &c.ContactName, &c.Email, &c.Mobile,
		&c.Phone, &c.Address, &c.City, &c.PostalCode, &registered,
	)
	if err != nil {
		return nil, err
	}

	c.RegisteredAt, err = parseTime(registered)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

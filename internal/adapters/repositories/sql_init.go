package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"courier-backoffice-service/internal/platform/db"
)

var sqliteSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ruc_dni TEXT NOT NULL UNIQUE,
		razon_social TEXT NOT NULL,
		nombre_contacto TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		celular TEXT NOT NULL DEFAULT '',
		telefono_fijo TEXT NOT NULL DEFAULT '',
		direccion TEXT NOT NULL DEFAULT '',
		ciudad TEXT NOT NULL DEFAULT '',
		codigo_postal TEXT NOT NULL DEFAULT '',
		fecha_registro TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		remitente_id INTEGER NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		destinatario_id INTEGER REFERENCES clients(id) ON DELETE CASCADE,
		lugar_origen TEXT NOT NULL DEFAULT '',
		lugar_destino TEXT NOT NULL DEFAULT '',
		detalle_carga TEXT NOT NULL DEFAULT '',
		importe_total TEXT NOT NULL DEFAULT '0.00',
		forma_pago TEXT NOT NULL DEFAULT '',
		facturado INTEGER NOT NULL DEFAULT 0,
		estado TEXT NOT NULL DEFAULT 'Pendiente',
		estado_pago TEXT NOT NULL DEFAULT 'Pendiente',
		trabajador_asignado TEXT NOT NULL DEFAULT '',
		notas TEXT NOT NULL DEFAULT '',
		fecha_creacion TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		permissions TEXT NOT NULL DEFAULT '[]'
	);
	`,
}

var postgresSchema = []string{
	`
	CREATE OR REPLACE FUNCTION search_fold(t TEXT) RETURNS TEXT
	LANGUAGE sql IMMUTABLE STRICT AS $$
		SELECT lower(translate(t,
			'ÁÀÂÄÃÉÈÊËÍÌÎÏÓÒÔÖÕÚÙÛÜÑÇáàâäãéèêëíìîïóòôöõúùûüñç',
			'AAAAAEEEEIIIIOOOOOUUUUNCaaaaaeeeeiiiiooooouuuunc'))
	$$;
	`,
	`
	CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		ruc_dni TEXT NOT NULL UNIQUE,
		razon_social TEXT NOT NULL,
		nombre_contacto TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		celular TEXT NOT NULL DEFAULT '',
		telefono_fijo TEXT NOT NULL DEFAULT '',
		direccion TEXT NOT NULL DEFAULT '',
		ciudad TEXT NOT NULL DEFAULT '',
		codigo_postal TEXT NOT NULL DEFAULT '',
		fecha_registro TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		remitente_id BIGINT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		destinatario_id BIGINT REFERENCES clients(id) ON DELETE CASCADE,
		lugar_origen TEXT NOT NULL DEFAULT '',
		lugar_destino TEXT NOT NULL DEFAULT '',
		detalle_carga TEXT NOT NULL DEFAULT '',
		importe_total NUMERIC(12, 2) NOT NULL DEFAULT 0,
		forma_pago TEXT NOT NULL DEFAULT '',
		facturado BOOLEAN NOT NULL DEFAULT FALSE,
		estado TEXT NOT NULL DEFAULT 'Pendiente',
		estado_pago TEXT NOT NULL DEFAULT 'Pendiente',
		trabajador_asignado TEXT NOT NULL DEFAULT '',
		notas TEXT NOT NULL DEFAULT '',
		fecha_creacion TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		permissions TEXT NOT NULL DEFAULT '[]'
	);
	`,
}

var sharedIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_orders_remitente ON orders(remitente_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_destinatario ON orders(destinatario_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_estado ON orders(estado);`,
	`CREATE INDEX IF NOT EXISTS idx_clients_ciudad ON clients(ciudad);`,
}

// Initialize the database schema for the given dialect.
func InitSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	statements := sqliteSchema
	if dialect == db.Postgres {
		statements = postgresSchema
	}
	statements = append(append([]string{}, statements...), sharedIndexes...)

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

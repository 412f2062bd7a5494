package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/platform/db"

	"github.com/shopspring/decimal"
)

// Seed is the bootstrap data set loaded on first start. User passwords
// are hashed before they reach any store.
type Seed struct {
	Users   []UserSeed   `json:"users"`
	Clients []ClientSeed `json:"clients"`
	Orders  []OrderSeed  `json:"orders"`
}

type UserSeed struct {
	Username    string   `json:"usuario"`
	Password    string   `json:"contrasena"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type ClientSeed struct {
	TaxID        string `json:"ruc_dni"`
	BusinessName string `json:"razon_social"`
	ContactName  string `json:"nombre_contacto"`
	Email        string `json:"email"`
	Mobile       string `json:"celular"`
	Phone        string `json:"telefono_fijo"`
	Address      string `json:"direccion"`
	City         string `json:"ciudad"`
	PostalCode   string `json:"codigo_postal"`
}

type OrderSeed struct {
	SenderTaxID    string `json:"remitente_ruc_dni"`
	RecipientTaxID string `json:"destinatario_ruc_dni"`
	Origin         string `json:"lugar_origen"`
	Destination    string `json:"lugar_destino"`
	CargoDetail    string `json:"detalle_carga"`
	PaymentMethod  string `json:"forma_pago"`
	Total          string `json:"importe_total"`
	AssignedWorker string `json:"trabajador_asignado"`
	Notes          string `json:"notas"`
}

// Read and validate a seed file.
func LoadSeed(path string) (*Seed, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", path, err)
	}

	var s Seed
	if err := json.Unmarshal(bytes, &s); err != nil {
		return nil, fmt.Errorf("load seed: parse json: %w", err)
	}

	for i, u := range s.Users {
		if strings.TrimSpace(u.Username) == "" || u.Password == "" {
			return nil, fmt.Errorf("load seed: user at index %d: usuario and contrasena are required", i+1)
		}
		switch domain.Role(u.Role) {
		case domain.RoleAdmin, domain.RoleWorker:
		default:
			return nil, fmt.Errorf("load seed: user %q: unknown role %q", u.Username, u.Role)
		}
	}

	taxIDs := make(map[string]struct{}, len(s.Clients))
	for i, c := range s.Clients {
		if strings.TrimSpace(c.TaxID) == "" || strings.TrimSpace(c.BusinessName) == "" {
			return nil, fmt.Errorf("load seed: client at index %d: ruc_dni and razon_social are required", i+1)
		}
		taxIDs[c.TaxID] = struct{}{}
	}

	for i, o := range s.Orders {
		if _, ok := taxIDs[o.SenderTaxID]; !ok {
			return nil, fmt.Errorf("load seed: order at index %d: sender %q is not a seeded client", i+1, o.SenderTaxID)
		}
		if o.RecipientTaxID != "" {
			if _, ok := taxIDs[o.RecipientTaxID]; !ok {
				return nil, fmt.Errorf("load seed: order at index %d: recipient %q is not a seeded client", i+1, o.RecipientTaxID)
			}
		}
		if _, err := o.total(); err != nil {
			return nil, fmt.Errorf("load seed: order at index %d: %w", i+1, err)
		}
	}

	return &s, nil
}

func (o OrderSeed) total() (decimal.Decimal, error) {
	if strings.TrimSpace(o.Total) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(o.Total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("importe_total %q: %w", o.Total, err)
	}
	return d.Round(2), nil
}

// Populate a SQL database with the seed. Existing users and clients are
// kept; orders are only seeded into an empty orders table.
func SeedSQL(ctx context.Context, conn *sql.DB, dialect db.Dialect, s *Seed, now time.Time) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range s.Users {
		hash, err := HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("seed: hash password for %q: %w", u.Username, err)
		}
		perms, err := json.Marshal(u.Permissions)
		if err != nil {
			return fmt.Errorf("seed: encode permissions for %q: %w", u.Username, err)
		}

		q := dialect.Rebind(`
		INSERT INTO users (username, password_hash, role, permissions)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING;
		`)
		if _, err := tx.ExecContext(ctx, q, u.Username, hash, u.Role, string(perms)); err != nil {
			return fmt.Errorf("seed: insert user %q: %w", u.Username, err)
		}
	}

	for _, c := range s.Clients {
		q := dialect.Rebind(`
		INSERT INTO clients (
			ruc_dni, razon_social, nombre_contacto, email, celular,
			telefono_fijo, direccion, ciudad, codigo_postal, fecha_registro
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ruc_dni) DO NOTHING;
		`)
		if _, err := tx.ExecContext(ctx, q,
			c.TaxID, c.BusinessName, c.ContactName, c.Email, c.Mobile,
			c.Phone, c.Address, c.City, c.PostalCode, formatTime(now),
		); err != nil {
			return fmt.Errorf("seed: insert client ruc_dni=%s: %w", c.TaxID, err)
		}
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders;`).Scan(&existing); err != nil {
		return fmt.Errorf("seed: count orders: %w", err)
	}

	if existing == 0 {
		for i, o := range s.Orders {
			senderID, err := lookupClientID(ctx, tx, dialect, o.SenderTaxID)
			if err != nil {
				return fmt.Errorf("seed: order #%d sender: %w", i+1, err)
			}

			var recipientID sql.NullInt64
			if o.RecipientTaxID != "" {
				id, err := lookupClientID(ctx, tx, dialect, o.RecipientTaxID)
				if err != nil {
					return fmt.Errorf("seed: order #%d recipient: %w", i+1, err)
				}
				recipientID = sql.NullInt64{Int64: id, Valid: true}
			}

			total, _ := o.total()
			q := dialect.Rebind(`
			INSERT INTO orders (
				remitente_id, destinatario_id, lugar_origen, lugar_destino, detalle_carga,
				importe_total, forma_pago, facturado, estado, estado_pago,
				trabajador_asignado, notas, fecha_creacion
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
			`)
			if _, err := tx.ExecContext(ctx, q,
				senderID, recipientID, o.Origin, o.Destination, o.CargoDetail,
				total.StringFixed(2), o.PaymentMethod, false, string(domain.StatusPending), string(domain.PaymentPending),
				o.AssignedWorker, o.Notes, formatTime(now),
			); err != nil {
				return fmt.Errorf("seed: insert order #%d: %w", i+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

func lookupClientID(ctx context.Context, tx *sql.Tx, dialect db.Dialect, taxID string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, dialect.Rebind(`SELECT id FROM clients WHERE ruc_dni = ?;`), taxID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("ruc_dni=%s: %w", taxID, domain.ErrReferenceNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("ruc_dni=%s: %w", taxID, err)
	}
	return id, nil
}

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

// SQL-backed implementation of the OrderRepository port.
// Party names are joined from the clients table on every read.
type SQLOrderRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLOrderRepository(conn *sql.DB, dialect db.Dialect) *SQLOrderRepository {
	return &SQLOrderRepository{DB: conn, Dialect: dialect}
}

const orderSelect = `
	SELECT
		o.id,
		o.remitente_id,
		s.razon_social,
		o.destinatario_id,
		COALESCE(r.razon_social, ''),
		o.lugar_origen,
		o.lugar_destino,
		o.detalle_carga,
		o.importe_total,
		o.forma_pago,
		o.facturado,
		o.estado,
		o.estado_pago,
		o.trabajador_asignado,
		o.notas,
		o.fecha_creacion
	FROM orders o
	JOIN clients s ON s.id = o.remitente_id
	LEFT JOIN clients r ON r.id = o.destinatario_id
`

const insertOrderQuery = `
	INSERT INTO orders (
		remitente_id, destinatario_id, lugar_origen, lugar_destino, detalle_carga,
		importe_total, forma_pago, facturado, estado, estado_pago,
		trabajador_asignado, notas, fecha_creacion
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
`

func orderArgs(o *domain.Order) []any {
	var recipient sql.NullInt64
	if o.RecipientID != nil {
		recipient = sql.NullInt64{Int64: *o.RecipientID, Valid: true}
	}
	return []any{
		o.SenderID, recipient, o.Origin, o.Destination, o.CargoDetail,
		o.Total.StringFixed(2), o.PaymentMethod, o.Billed, string(o.Status), string(o.PaymentStatus),
		o.AssignedWorker, o.Notes, formatTime(o.CreatedAt),
	}
}

// Insert an order and assign its store-generated ID.
func (s *SQLOrderRepository) CreateOrder(ctx context.Context, o *domain.Order) (err error) {
	defer obs.Time(ctx, "orders.CreateOrder")(&err)

	if s.DB == nil {
		return errors.New("sql order repository: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx, s.Dialect.Rebind(insertOrderQuery), orderArgs(o)...)
	if err := row.Scan(&o.ID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("create order remitente_id=%d: %w", o.SenderID, domain.ErrReferenceNotFound)
		}
		return fmt.Errorf("create order: insert: %w", err)
	}

	return nil
}

// Insert many orders in one transaction.
func (s *SQLOrderRepository) CreateOrders(ctx context.Context, os []*domain.Order) (err error) {
	defer obs.Time(ctx, "orders.CreateOrders")(&err)

	if s.DB == nil {
		return errors.New("sql order repository: DB is nil")
	}
	if len(os) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(insertOrderQuery))
	if err != nil {
		return fmt.Errorf("create orders: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range os {
		if err := stmt.QueryRowContext(ctx, orderArgs(o)...).Scan(&o.ID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return fmt.Errorf("create orders #%d remitente_id=%d: %w", i+1, o.SenderID, domain.ErrReferenceNotFound)
			}
			return fmt.Errorf("create orders #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create orders: commit tx: %w", err)
	}

	return nil
}

func (s *SQLOrderRepository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("sql order repository: DB is nil")
	}

	q := s.Dialect.Rebind(orderSelect + ` WHERE o.id = ?;`)
	o, err := scanOrder(s.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order id=%d: %w", id, err)
	}
	return o, nil
}

// Return orders matching the filter, ordered by id.
func (s *SQLOrderRepository) ListOrders(ctx context.Context, f domain.OrderFilter) (_ []*domain.Order, err error) {
	defer obs.Time(ctx, "orders.ListOrders")(&err)

	if s.DB == nil {
		return nil, errors.New("sql order repository: DB is nil")
	}

	var conds []string
	var args []any

	if f.Status != "" {
		conds = append(conds, "o.estado = ?")
		args = append(args, string(f.Status))
	}
	if f.PaymentStatus != "" {
		conds = append(conds, "o.estado_pago = ?")
		args = append(args, string(f.PaymentStatus))
	}
	if pm := strings.TrimSpace(f.PaymentMethod); pm != "" {
		conds = append(conds, "LOWER(o.forma_pago) = ?")
		args = append(args, strings.ToLower(pm))
	}
	if f.Billed != nil {
		conds = append(conds, "o.facturado = ?")
		args = append(args, *f.Billed)
	}
	if f.ClientID > 0 {
		conds = append(conds, "(o.remitente_id = ? OR o.destinatario_id = ?)")
		args = append(args, f.ClientID, f.ClientID)
	}
	if w := strings.TrimSpace(f.AssignedWorker); w != "" {
		conds = append(conds, "o.trabajador_asignado = ?")
		args = append(args, w)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := db.ContainsPattern(q)
		conds = append(conds, `(
			search_fold(o.detalle_carga) LIKE ? ESCAPE '\' OR
			search_fold(o.lugar_origen) LIKE ? ESCAPE '\' OR
			search_fold(o.lugar_destino) LIKE ? ESCAPE '\' OR
			search_fold(s.razon_social) LIKE ? ESCAPE '\' OR
			search_fold(COALESCE(r.razon_social, '')) LIKE ? ESCAPE '\'
		)`)
		args = append(args, like, like, like, like, like)
	}

	q := orderSelect
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY o.id;"

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 64)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list orders: scan row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: row iteration: %w", err)
	}

	return orders, nil
}

// Persist the mutable fields of an order, provided its stored status is
// still from. Party references and the creation date are never rewritten.
func (s *SQLOrderRepository) UpdateOrder(ctx context.Context, o *domain.Order, from domain.OrderStatus) (err error) {
	defer obs.Time(ctx, "orders.UpdateOrder")(&err)

	if s.DB == nil {
		return errors.New("sql order repository: DB is nil")
	}

	q := s.Dialect.Rebind(`
	UPDATE orders
	SET estado = ?,
		estado_pago = ?,
		facturado = ?,
		forma_pago = ?,
		trabajador_asignado = ?,
		notas = ?
	WHERE id = ? AND estado = ?;
	`)
	res, err := s.DB.ExecContext(ctx, q,
		string(o.Status), string(o.PaymentStatus), o.Billed, o.PaymentMethod,
		o.AssignedWorker, o.Notes, o.ID, string(from),
	)
	if err != nil {
		return fmt.Errorf("update order id=%d: %w", o.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order id=%d: rows affected: %w", o.ID, err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: either the order is gone or its status moved on.
	var current string
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`SELECT estado FROM orders WHERE id = ?;`), o.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update order id=%d: %w", o.ID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update order id=%d: reload status: %w", o.ID, err)
	}
	return fmt.Errorf("update order id=%d: status is %q, not %q: %w", o.ID, current, from, domain.ErrInvalidTransition)
}

func (s *SQLOrderRepository) DeleteOrder(ctx context.Context, id int64) (err error) {
	defer obs.Time(ctx, "orders.DeleteOrder")(&err)

	if s.DB == nil {
		return errors.New("sql order repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM orders WHERE id = ?;`), id)
	if err != nil {
		return fmt.Errorf("delete order id=%d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order id=%d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete order id=%d: %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanOrder(r rowScanner) (*domain.Order, error) {
	var o domain.Order
	var recipient sql.NullInt64
	var status, paymentStatus, created string

	err := r.Scan(
		&o.ID,
		&o.SenderID,
		&o.SenderName,
		&recipient,
		&o.RecipientName,
		&o.Origin,
		&o.Destination,
		&o.CargoDetail,
		&o.Total,
		&o.PaymentMethod,
		&o.Billed,
		&status,
		&paymentStatus,
		&o.AssignedWorker,
		&o.Notes,
		&created,
	)
	if err != nil {
		return nil, err
	}

	if recipient.Valid {
		id := recipient.Int64
		o.RecipientID = &id
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)

	o.CreatedAt, err = parseTime(created)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

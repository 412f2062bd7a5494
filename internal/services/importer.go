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
)

// Labels used in skip reports.
const (
	ClientsFile = "clientes"
	OrdersFile  = "ordenes"
)

// Date layouts accepted in the order spreadsheet's date column.
var importDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// Importer loads spreadsheet rows into the registry and the ledger. Bad
// rows are skipped and reported; each entity is inserted in one batch.
type Importer struct {
	Clients ports.ClientRepository
	Orders  ports.OrderRepository
	Now     func() time.Time
}

func NewImporter(clients ports.ClientRepository, orders ports.OrderRepository) *Importer {
	return &Importer{Clients: clients, Orders: orders, Now: time.Now}
}

func (im *Importer) now() time.Time {
	if im.Now == nil {
		return time.Now().UTC()
	}
	return im.Now().UTC()
}

// Import stages and inserts clients first, then orders, so order rows may
// reference clients from the same run. A failing bulk insert aborts the
// run and leaves nothing of that batch behind.
func (im *Importer) Import(ctx context.Context, clientRows []domain.ClientImportRow, orderRows []domain.OrderImportRow) (report domain.ImportReport, err error) {
	defer obs.Time(ctx, "import")(&err)

	staged, err := im.stageClients(ctx, clientRows, &report)
	if err != nil {
		return report, err
	}
	if len(staged) > 0 {
		if err := im.Clients.CreateClients(ctx, staged); err != nil {
			return report, fmt.Errorf("import clients: %w", err)
		}
		report.ClientsInserted = len(staged)
		obs.ImportRows.WithLabelValues("client", "inserted").Add(float64(len(staged)))
	}

	orders, err := im.stageOrders(ctx, orderRows, staged, &report)
	if err != nil {
		return report, err
	}
	if len(orders) > 0 {
		if err := im.Orders.CreateOrders(ctx, orders); err != nil {
			return report, fmt.Errorf("import orders: %w", err)
		}
		report.OrdersInserted = len(orders)
		obs.ImportRows.WithLabelValues("order", "inserted").Add(float64(len(orders)))
	}

	slog.InfoContext(ctx, "import finished",
		"clients", report.ClientsInserted,
		"orders", report.OrdersInserted,
		"skipped", len(report.Skipped))
	return report, nil
}

func (im *Importer) stageClients(ctx context.Context, rows []domain.ClientImportRow, report *domain.ImportReport) ([]*domain.Client, error) {
	staged := make([]*domain.Client, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	now := im.now()

	for _, row := range rows {
		in := trimClient(domain.NewClient{
			TaxID:        normalizeTaxID(row.TaxID),
			BusinessName: row.Name,
			Address:      row.Address,
			Phone:        row.Phone,
			Email:        row.Email,
		})

		if err := validateStruct(in); err != nil {
			skip(report, ClientsFile, row.Line, "client", err.Error())
			continue
		}
		if _, dup := seen[in.TaxID]; dup {
			skip(report, ClientsFile, row.Line, "client", fmt.Sprintf("ruc_dni %s repeated in file", in.TaxID))
			continue
		}

		_, err := im.Clients.GetClientByTaxID(ctx, in.TaxID)
		if err == nil {
			skip(report, ClientsFile, row.Line, "client", fmt.Sprintf("ruc_dni %s: %v", in.TaxID, domain.ErrUniquenessViolation))
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("import clients: line %d: %w", row.Line, err)
		}

		seen[in.TaxID] = struct{}{}
		staged = append(staged, &domain.Client{
			TaxID:        in.TaxID,
			BusinessName: in.BusinessName,
			Email:        in.Email,
			Phone:        in.Phone,
			Address:      in.Address,
			RegisteredAt: now,
		})
	}

	return staged, nil
}

func (im *Importer) stageOrders(ctx context.Context, rows []domain.OrderImportRow, inserted []*domain.Client, report *domain.ImportReport) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0, len(rows))
	known := make(map[string]int64, len(inserted))
	for _, c := range inserted {
		known[c.TaxID] = c.ID
	}

	for _, row := range rows {
		tax := normalizeTaxID(row.ClientTaxID)

		id, ok := known[tax]
		if !ok {
			c, err := im.Clients.GetClientByTaxID(ctx, tax)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				slog.WarnContext(ctx, "import order skipped", "line", row.Line, "ruc_dni", tax, "err", domain.ErrReferenceNotFound)
				skip(report, OrdersFile, row.Line, "order", fmt.Sprintf("ruc_dni %q: %v", tax, domain.ErrReferenceNotFound))
				continue
			case err != nil:
				return nil, fmt.Errorf("import orders: line %d: %w", row.Line, err)
			}
			id = c.ID
			known[tax] = id
		}

		created, err := parseImportDate(row.Date, im.now())
		if err != nil {
			skip(report, OrdersFile, row.Line, "order", err.Error())
			continue
		}

		status := domain.StatusPending
		if s := strings.TrimSpace(row.Status); s != "" {
			st, err := domain.ParseOrderStatus(s)
			if err != nil {
				skip(report, OrdersFile, row.Line, "order", err.Error())
				continue
			}
			status = st
		}

		in := trimOrder(domain.NewOrder{SenderID: id, CargoDetail: row.Description})
		if err := validateStruct(in); err != nil {
			skip(report, OrdersFile, row.Line, "order", err.Error())
			continue
		}

		out = append(out, &domain.Order{
			SenderID:      id,
			CargoDetail:   in.CargoDetail,
			Status:        status,
			PaymentStatus: domain.PaymentPending,
			CreatedAt:     created,
		})
	}

	return out, nil
}

func skip(report *domain.ImportReport, file string, line int, entity, reason string) {
	report.Skipped = append(report.Skipped, domain.SkippedRow{File: file, Line: line, Reason: reason})
	obs.ImportRows.WithLabelValues(entity, "skipped").Inc()
}

// normalizeTaxID undoes spreadsheet damage to identifiers: numeric cells
// come back as "12345678.0" or lose their leading zeros.
func normalizeTaxID(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, ".0")
	if v == "" || len(v) >= 8 {
		return v
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return v
		}
	}
	return strings.Repeat("0", 8-len(v)) + v
}

// parseImportDate returns midnight UTC of the given day. An empty cell
// means the import date.
func parseImportDate(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return now, nil
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

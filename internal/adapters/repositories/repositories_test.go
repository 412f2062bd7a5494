package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/platform/db"
	"courier-backoffice-service/internal/ports"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

type store struct {
	clients ports.ClientRepository
	orders  ports.OrderRepository
}

func newSQLiteStore(t *testing.T) store {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := InitSchema(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	return store{
		clients: NewSQLClientRepository(conn, db.SQLite),
		orders:  NewSQLOrderRepository(conn, db.SQLite),
	}
}

func newMemoryStore(t *testing.T) store {
	m := NewMemoryStore()
	return store{clients: m, orders: m}
}

var backends = map[string]func(t *testing.T) store{
	"sqlite": newSQLiteStore,
	"memory": newMemoryStore,
}

func mustClient(t *testing.T, s store, taxID, name, city string, at time.Time) *domain.Client {
	t.Helper()
	c := &domain.Client{TaxID: taxID, BusinessName: name, City: city, RegisteredAt: at}
	if err := s.clients.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("create client %s: %v", taxID, err)
	}
	return c
}

func mustOrder(t *testing.T, s store, o *domain.Order) *domain.Order {
	t.Helper()
	if o.Status == "" {
		o.Status = domain.StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = domain.PaymentPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Date(2025, 5, 26, 10, 0, 0, 0, time.UTC)
	}
	if err := s.orders.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func TestClientRepositoryCreateAndGet(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			at := time.Date(2025, 5, 26, 9, 30, 0, 123, time.UTC)

			a := mustClient(t, s, "12345678901", "Empresa Ejemplo", "Lima", at)
			b := mustClient(t, s, "87654321", "Transportes Sur", "Arequipa", at)

			if a.ID <= 0 || b.ID <= a.ID {
				t.Fatalf("ids not strictly increasing: %d, %d", a.ID, b.ID)
			}

			got, err := s.clients.GetClient(ctx, b.ID)
			if err != nil {
				t.Fatalf("get client: %v", err)
			}
			if got.TaxID != "87654321" || got.BusinessName != "Transportes Sur" {
				t.Fatalf("unexpected client: %+v", got)
			}
			if !got.RegisteredAt.Equal(at) {
				t.Fatalf("registered at = %v, want %v", got.RegisteredAt, at)
			}

			byTax, err := s.clients.GetClientByTaxID(ctx, "12345678901")
			if err != nil {
				t.Fatalf("get by tax id: %v", err)
			}
			if byTax.ID != a.ID {
				t.Fatalf("get by tax id returned id %d, want %d", byTax.ID, a.ID)
			}

			if _, err := s.clients.GetClient(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestClientRepositoryRejectsDuplicateTaxID(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			at := time.Now().UTC()
			mustClient(t, s, "12345678", "Primero", "", at)

			err := s.clients.CreateClient(context.Background(), &domain.Client{TaxID: "12345678", BusinessName: "Segundo", RegisteredAt: at})
			if !errors.Is(err, domain.ErrUniquenessViolation) {
				t.Fatalf("expected ErrUniquenessViolation, got %v", err)
			}
		})
	}
}

func TestClientRepositoryBulkCreateIsAtomic(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			at := time.Now().UTC()
			mustClient(t, s, "11111111", "Existente", "", at)

			batch := []*domain.Client{
				{TaxID: "22222222", BusinessName: "Nuevo", RegisteredAt: at},
				{TaxID: "11111111", BusinessName: "Duplicado", RegisteredAt: at},
			}
			if err := s.clients.CreateClients(ctx, batch); !errors.Is(err, domain.ErrUniquenessViolation) {
				t.Fatalf("expected ErrUniquenessViolation, got %v", err)
			}

			all, err := s.clients.ListClients(ctx, domain.ClientFilter{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(all) != 1 {
				t.Fatalf("bulk insert was not rolled back: %d clients", len(all))
			}

			ok := []*domain.Client{
				{TaxID: "22222222", BusinessName: "Nuevo", RegisteredAt: at},
				{TaxID: "33333333", BusinessName: "Otro", RegisteredAt: at},
			}
			if err := s.clients.CreateClients(ctx, ok); err != nil {
				t.Fatalf("bulk create: %v", err)
			}
			if ok[0].ID == 0 || ok[1].ID <= ok[0].ID {
				t.Fatalf("bulk ids not assigned in order: %d, %d", ok[0].ID, ok[1].ID)
			}
		})
	}
}

func TestClientRepositoryListFilters(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			day1 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
			day2 := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

			mustClient(t, s, "12345678901", "Empresa Ejemplo", "Lima", day1)
			mustClient(t, s, "87654321", "Transportes Sur", "Arequipa", day2)
			mustClient(t, s, "11223344", "Ejemplo Norte", "lima", day2)
			mustClient(t, s, "55667788", "TRANSPORTES ÑANDÚ", "Puno", day2)

			got, err := s.clients.ListClients(ctx, domain.ClientFilter{Query: "ejemplo"})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("query filter returned %d clients, want 2", len(got))
			}

			for _, q := range []string{"ñandú", "nandu", "Ñandu"} {
				got, _ = s.clients.ListClients(ctx, domain.ClientFilter{Query: q})
				if len(got) != 1 || got[0].TaxID != "55667788" {
					t.Fatalf("query %q returned %+v", q, got)
				}
			}

			for _, q := range []string{"_", "%", `\`} {
				got, _ = s.clients.ListClients(ctx, domain.ClientFilter{Query: q})
				if len(got) != 0 {
					t.Fatalf("query %q matched %d clients literally absent from the data", q, len(got))
				}
			}

			got, _ = s.clients.ListClients(ctx, domain.ClientFilter{Query: "8765"})
			if len(got) != 1 || got[0].TaxID != "87654321" {
				t.Fatalf("tax id search returned %+v", got)
			}

			got, _ = s.clients.ListClients(ctx, domain.ClientFilter{City: "LIMA"})
			if len(got) != 2 {
				t.Fatalf("city filter returned %d clients, want 2", len(got))
			}

			from := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
			got, _ = s.clients.ListClients(ctx, domain.ClientFilter{RegisteredFrom: &from})
			if len(got) != 3 {
				t.Fatalf("registered-from filter returned %d clients, want 3", len(got))
			}
			if got[0].ID >= got[1].ID {
				t.Fatalf("clients not ordered by id")
			}
		})
	}
}

func TestDeleteClientCascadesToOrders(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			at := time.Now().UTC()

			a := mustClient(t, s, "12345678", "Remitente", "", at)
			b := mustClient(t, s, "87654321", "Destinatario", "", at)
			c := mustClient(t, s, "11223344", "Otro", "", at)

			bID := b.ID
			mustOrder(t, s, &domain.Order{SenderID: a.ID})
			mustOrder(t, s, &domain.Order{SenderID: c.ID, RecipientID: &bID})
			keep := mustOrder(t, s, &domain.Order{SenderID: c.ID})
			mustOrder(t, s, &domain.Order{SenderID: a.ID, RecipientID: &bID})

			removed, err := s.clients.DeleteClient(ctx, b.ID)
			if err != nil {
				t.Fatalf("delete client: %v", err)
			}
			if removed != 2 {
				t.Fatalf("removed %d orders, want 2", removed)
			}

			removed, err = s.clients.DeleteClient(ctx, a.ID)
			if err != nil {
				t.Fatalf("delete client: %v", err)
			}
			if removed != 1 {
				t.Fatalf("removed %d orders, want 1", removed)
			}

			left, err := s.orders.ListOrders(ctx, domain.OrderFilter{})
			if err != nil {
				t.Fatalf("list orders: %v", err)
			}
			if len(left) != 1 || left[0].ID != keep.ID {
				t.Fatalf("unexpected remaining orders: %+v", left)
			}

			if _, err := s.clients.DeleteClient(ctx, a.ID); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestOrderRepositoryRoundTrip(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			at := time.Now().UTC()

			sender := mustClient(t, s, "12345678901", "Empresa Ejemplo", "Lima", at)
			rcpt := mustClient(t, s, "87654321", "Cliente Destino", "Arequipa", at)
			rcptID := rcpt.ID

			created := mustOrder(t, s, &domain.Order{
				SenderID:       sender.ID,
				RecipientID:    &rcptID,
				Origin:         "Lima",
				Destination:    "Arequipa",
				CargoDetail:    "Cajas",
				Total:          decimal.RequireFromString("100.50"),
				PaymentMethod:  "Efectivo",
				AssignedWorker: "Karen",
			})

			got, err := s.orders.GetOrder(ctx, created.ID)
			if err != nil {
				t.Fatalf("get order: %v", err)
			}
			if got.SenderName != "Empresa Ejemplo" || got.RecipientName != "Cliente Destino" {
				t.Fatalf("party names not resolved: %q / %q", got.SenderName, got.RecipientName)
			}
			if got.RecipientID == nil || *got.RecipientID != rcptID {
				t.Fatalf("recipient id = %v, want %d", got.RecipientID, rcptID)
			}
			if !got.Total.Equal(decimal.RequireFromString("100.50")) {
				t.Fatalf("total = %s, want 100.50", got.Total)
			}
			if got.Status != domain.StatusPending || got.PaymentStatus != domain.PaymentPending {
				t.Fatalf("unexpected statuses: %q / %q", got.Status, got.PaymentStatus)
			}
			if !got.CreatedAt.Equal(created.CreatedAt) {
				t.Fatalf("created at = %v, want %v", got.CreatedAt, created.CreatedAt)
			}

			got.Status = domain.StatusInTransit
			got.PaymentStatus = domain.PaymentPaid
			got.Billed = true
			got.Notes = "fragil"
			if err := s.orders.UpdateOrder(ctx, got, domain.StatusPending); err != nil {
				t.Fatalf("update order: %v", err)
			}

			again, err := s.orders.GetOrder(ctx, created.ID)
			if err != nil {
				t.Fatalf("get order: %v", err)
			}
			if again.Status != domain.StatusInTransit || !again.Billed || again.Notes != "fragil" || again.PaymentStatus != domain.PaymentPaid {
				t.Fatalf("update not persisted: %+v", again)
			}

			if err := s.orders.DeleteOrder(ctx, created.ID); err != nil {
				t.Fatalf("delete order: %v", err)
			}
			if _, err := s.orders.GetOrder(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := s.orders.DeleteOrder(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestOrderRepositoryUpdateRequiresExpectedStatus(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			c := mustClient(t, s, "12345678", "Empresa Ejemplo", "", time.Now().UTC())
			o := mustOrder(t, s, &domain.Order{SenderID: c.ID, Status: domain.StatusInTransit})

			done := *o
			done.Status = domain.StatusCompleted
			if err := s.orders.UpdateOrder(ctx, &done, domain.StatusInTransit); err != nil {
				t.Fatalf("complete: %v", err)
			}

			// A second writer that read the order before it was completed.
			cancelled := *o
			cancelled.Status = domain.StatusCancelled
			if err := s.orders.UpdateOrder(ctx, &cancelled, domain.StatusInTransit); !errors.Is(err, domain.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition for stale status, got %v", err)
			}

			got, err := s.orders.GetOrder(ctx, o.ID)
			if err != nil {
				t.Fatalf("get order: %v", err)
			}
			if got.Status != domain.StatusCompleted {
				t.Fatalf("status = %q, want %q", got.Status, domain.StatusCompleted)
			}

			missing := *o
			missing.ID = 999
			if err := s.orders.UpdateOrder(ctx, &missing, domain.StatusInTransit); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
			}
		})
	}
}

func TestOrderRepositoryRejectsUnknownClient(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			o := &domain.Order{
				SenderID:      42,
				Status:        domain.StatusPending,
				PaymentStatus: domain.PaymentPending,
				CreatedAt:     time.Now().UTC(),
			}
			if err := s.orders.CreateOrder(context.Background(), o); !errors.Is(err, domain.ErrReferenceNotFound) {
				t.Fatalf("expected ErrReferenceNotFound, got %v", err)
			}
		})
	}
}

func TestOrderRepositoryListFilters(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			at := time.Now().UTC()

			a := mustClient(t, s, "12345678", "Empresa Ejemplo", "", at)
			b := mustClient(t, s, "87654321", "Comercial Andina", "", at)

			mustOrder(t, s, &domain.Order{SenderID: a.ID, PaymentMethod: "Efectivo", CargoDetail: "Cajas"})
			mustOrder(t, s, &domain.Order{SenderID: a.ID, PaymentMethod: "Transferencia", Billed: true, Status: domain.StatusInTransit})
			mustOrder(t, s, &domain.Order{SenderID: b.ID, PaymentMethod: "efectivo", AssignedWorker: "Karen", Destination: "Cusco"})
			mustOrder(t, s, &domain.Order{SenderID: b.ID, PaymentMethod: "Yape", CargoDetail: "Muebles 100% madera", Origin: "Ñaña"})

			billed := true
			cases := []struct {
				name string
				f    domain.OrderFilter
				want int
			}{
				{"all", domain.OrderFilter{}, 4},
				{"status", domain.OrderFilter{Status: domain.StatusPending}, 3},
				{"payment method", domain.OrderFilter{PaymentMethod: "EFECTIVO"}, 2},
				{"billed", domain.OrderFilter{Billed: &billed}, 1},
				{"client", domain.OrderFilter{ClientID: b.ID}, 2},
				{"worker", domain.OrderFilter{AssignedWorker: "Karen"}, 1},
				{"query cargo", domain.OrderFilter{Query: "caja"}, 1},
				{"query party", domain.OrderFilter{Query: "andina"}, 2},
				{"query destination", domain.OrderFilter{Query: "cusco"}, 1},
				{"query accented origin", domain.OrderFilter{Query: "ÑAÑA"}, 1},
				{"query unaccented origin", domain.OrderFilter{Query: "nana"}, 1},
				{"query literal percent", domain.OrderFilter{Query: "100%"}, 1},
				{"query underscore", domain.OrderFilter{Query: "_"}, 0},
				{"query percent only", domain.OrderFilter{Query: "%"}, 1},
			}

			for _, c := range cases {
				got, err := s.orders.ListOrders(ctx, c.f)
				if err != nil {
					t.Fatalf("%s: list: %v", c.name, err)
				}
				if len(got) != c.want {
					t.Errorf("%s: got %d orders, want %d", c.name, len(got), c.want)
				}
			}
		})
	}
}

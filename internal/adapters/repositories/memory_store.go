package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/platform/textfold"
)

// MemoryStore is a process-local implementation of the ClientRepository,
// OrderRepository and CredentialStore ports. Nothing survives a restart.
// ID assignment happens under the store lock, so concurrent creates never
// share an ID.
type MemoryStore struct {
	mu           sync.RWMutex
	clients      []*domain.Client
	orders       []*domain.Order
	users        map[string]memoryUser
	nextClientID int64
	nextOrderID  int64
}

type memoryUser struct {
	hash      string
	principal domain.Principal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        map[string]memoryUser{},
		nextClientID: 1,
		nextOrderID:  1,
	}
}

// Load the seed into the store. Existing tax ids and usernames are skipped;
// orders are only seeded into an empty ledger.
func (m *MemoryStore) Seed(s *Seed, now time.Time) error {
	for _, u := range s.Users {
		if err := m.AddUser(u.Username, u.Password, domain.Role(u.Role), u.Permissions); err != nil {
			return fmt.Errorf("memory seed: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cs := range s.Clients {
		if m.clientByTaxIDLocked(cs.TaxID) != nil {
			continue
		}
		m.insertClientLocked(&domain.Client{
			TaxID:        cs.TaxID,
			BusinessName: cs.BusinessName,
			ContactName:  cs.ContactName,
			Email:        cs.Email,
			Mobile:       cs.Mobile,
			Phone:        cs.Phone,
			Address:      cs.Address,
			City:         cs.City,
			PostalCode:   cs.PostalCode,
			RegisteredAt: now,
		})
	}

	if len(m.orders) > 0 {
		return nil
	}
	for i, os := range s.Orders {
		sender := m.clientByTaxIDLocked(os.SenderTaxID)
		if sender == nil {
			return fmt.Errorf("memory seed: order #%d sender ruc_dni=%s: %w", i+1, os.SenderTaxID, domain.ErrReferenceNotFound)
		}
		o := &domain.Order{
			SenderID:       sender.ID,
			Origin:         os.Origin,
			Destination:    os.Destination,
			CargoDetail:    os.CargoDetail,
			PaymentMethod:  os.PaymentMethod,
			Status:         domain.StatusPending,
			PaymentStatus:  domain.PaymentPending,
			AssignedWorker: os.AssignedWorker,
			Notes:          os.Notes,
			CreatedAt:      now,
		}
		if os.RecipientTaxID != "" {
			rcpt := m.clientByTaxIDLocked(os.RecipientTaxID)
			if rcpt == nil {
				return fmt.Errorf("memory seed: order #%d recipient ruc_dni=%s: %w", i+1, os.RecipientTaxID, domain.ErrReferenceNotFound)
			}
			id := rcpt.ID
			o.RecipientID = &id
		}
		o.Total, _ = os.total()
		m.insertOrderLocked(o)
	}

	return nil
}

// AddUser registers a user with a freshly hashed password.
func (m *MemoryStore) AddUser(username, password string, role domain.Role, perms []string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[username]; ok {
		return nil
	}
	m.users[username] = memoryUser{
		hash: hash,
		principal: domain.Principal{
			Username:    username,
			Role:        role,
			Permissions: append([]string(nil), perms...),
		},
	}
	return nil
}

func (m *MemoryStore) Verify(ctx context.Context, username, secret string) (domain.Principal, error) {
	m.mu.RLock()
	u, found := m.users[username]
	m.mu.RUnlock()

	ok, err := checkPassword(u.hash, secret)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("verify credentials: %w", err)
	}
	if !found || !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	p := u.principal
	p.Permissions = append([]string(nil), p.Permissions...)
	return p, nil
}

func (m *MemoryStore) CreateClient(ctx context.Context, c *domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clientByTaxIDLocked(c.TaxID) != nil {
		return fmt.Errorf("create client ruc_dni=%s: %w", c.TaxID, domain.ErrUniquenessViolation)
	}
	m.insertClientLocked(c)
	return nil
}

func (m *MemoryStore) CreateClients(ctx context.Context, cs []*domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		if _, dup := seen[c.TaxID]; dup || m.clientByTaxIDLocked(c.TaxID) != nil {
			return fmt.Errorf("create clients ruc_dni=%s: %w", c.TaxID, domain.ErrUniquenessViolation)
		}
		seen[c.TaxID] = struct{}{}
	}
	for _, c := range cs {
		m.insertClientLocked(c)
	}
	return nil
}

func (m *MemoryStore) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.clientByIDLocked(id)
	if c == nil {
		return nil, fmt.Errorf("get client %d: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) GetClientByTaxID(ctx context.Context, taxID string) (*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.clientByTaxIDLocked(strings.TrimSpace(taxID))
	if c == nil {
		return nil, fmt.Errorf("get client %s: %w", taxID, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) ListClients(ctx context.Context, f domain.ClientFilter) ([]*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw := strings.TrimSpace(f.Query)
	q := textfold.Fold(raw)
	city := strings.TrimSpace(f.City)

	out := make([]*domain.Client, 0, len(m.clients))
	for _, c := range m.clients {
		if q != "" &&
			!strings.Contains(textfold.Fold(c.BusinessName), q) &&
			!strings.Contains(textfold.Fold(c.ContactName), q) &&
			!strings.Contains(c.TaxID, raw) {
			continue
		}
		if city != "" && !strings.EqualFold(c.City, city) {
			continue
		}
		if f.RegisteredFrom != nil && c.RegisteredAt.Before(*f.RegisteredFrom) {
			continue
		}
		if f.RegisteredTo != nil && !c.RegisteredAt.Before(*f.RegisteredTo) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) DeleteClient(ctx context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, c := range m.clients {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("delete client id=%d: %w", id, domain.ErrNotFound)
	}

	kept := m.orders[:0]
	removed := 0
	for _, o := range m.orders {
		if o.References(id) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	m.orders = kept
	m.clients = append(m.clients[:idx], m.clients[idx+1:]...)

	return removed, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkReferencesLocked(o); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	m.insertOrderLocked(o)
	return nil
}

func (m *MemoryStore) CreateOrders(ctx context.Context, os []*domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, o := range os {
		if err := m.checkReferencesLocked(o); err != nil {
			return fmt.Errorf("create orders #%d: %w", i+1, err)
		}
	}
	for _, o := range os {
		m.insertOrderLocked(o)
	}
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.ID == id {
			return m.resolveLocked(o), nil
		}
	}
	return nil, fmt.Errorf("get order id=%d: %w", id, domain.ErrNotFound)
}

func (m *MemoryStore) ListOrders(ctx context.Context, f domain.OrderFilter) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := textfold.Fold(strings.TrimSpace(f.Query))
	pm := strings.TrimSpace(f.PaymentMethod)
	worker := strings.TrimSpace(f.AssignedWorker)

	out := make([]*domain.Order, 0, len(m.orders))
	for _, stored := range m.orders {
		o := m.resolveLocked(stored)

		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if pm != "" && !strings.EqualFold(o.PaymentMethod, pm) {
			continue
		}
		if f.Billed != nil && o.Billed != *f.Billed {
			continue
		}
		if f.ClientID > 0 && !o.References(f.ClientID) {
			continue
		}
		if worker != "" && o.AssignedWorker != worker {
			continue
		}
		if q != "" && !orderMatches(o, q) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func orderMatches(o *domain.Order, q string) bool {
	for _, field := range []string{o.CargoDetail, o.Origin, o.Destination, o.SenderName, o.RecipientName} {
		if strings.Contains(textfold.Fold(field), q) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) UpdateOrder(ctx context.Context, o *domain.Order, from domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, stored := range m.orders {
		if stored.ID != o.ID {
			continue
		}
		if stored.Status != from {
			return fmt.Errorf("update order id=%d: status is %q, not %q: %w", o.ID, stored.Status, from, domain.ErrInvalidTransition)
		}
		stored.Status = o.Status
		stored.PaymentStatus = o.PaymentStatus
		stored.Billed = o.Billed
		stored.PaymentMethod = o.PaymentMethod
		stored.AssignedWorker = o.AssignedWorker
		stored.Notes = o.Notes
		return nil
	}
	return fmt.Errorf("update order id=%d: %w", o.ID, domain.ErrNotFound)
}

func (m *MemoryStore) DeleteOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, o := range m.orders {
		if o.ID == id {
			m.orders = append(m.orders[:i], m.orders[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete order id=%d: %w", id, domain.ErrNotFound)
}

func (m *MemoryStore) insertClientLocked(c *domain.Client) {
	c.ID = m.nextClientID
	m.nextClientID++
	cp := *c
	m.clients = append(m.clients, &cp)
}

func (m *MemoryStore) insertOrderLocked(o *domain.Order) {
	o.ID = m.nextOrderID
	m.nextOrderID++
	cp := *o
	if o.RecipientID != nil {
		id := *o.RecipientID
		cp.RecipientID = &id
	}
	cp.SenderName, cp.RecipientName = "", ""
	m.orders = append(m.orders, &cp)
}

func (m *MemoryStore) checkReferencesLocked(o *domain.Order) error {
	if m.clientByIDLocked(o.SenderID) == nil {
		return fmt.Errorf("remitente_id=%d: %w", o.SenderID, domain.ErrReferenceNotFound)
	}
	if o.RecipientID != nil && m.clientByIDLocked(*o.RecipientID) == nil {
		return fmt.Errorf("destinatario_id=%d: %w", *o.RecipientID, domain.ErrReferenceNotFound)
	}
	return nil
}

// resolveLocked returns a copy of o with party names filled in.
func (m *MemoryStore) resolveLocked(o *domain.Order) *domain.Order {
	cp := *o
	if o.RecipientID != nil {
		id := *o.RecipientID
		cp.RecipientID = &id
		if c := m.clientByIDLocked(id); c != nil {
			cp.RecipientName = c.BusinessName
		}
	}
	if c := m.clientByIDLocked(o.SenderID); c != nil {
		cp.SenderName = c.BusinessName
	}
	return &cp
}

func (m *MemoryStore) clientByIDLocked(id int64) *domain.Client {
	for _, c := range m.clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *MemoryStore) clientByTaxIDLocked(taxID string) *domain.Client {
	for _, c := range m.clients {
		if c.TaxID == taxID {
			return c
		}
	}
	return nil
}

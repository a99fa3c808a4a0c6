// Package testutil provides shared fakes for orderhub tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/ports"
)

// MemStore is an in-memory data layer implementing ports.OrderStore,
// ports.EstablishmentStore and ports.UserStore. Seed it by writing to the
// exported maps before handing it to the code under test.
type MemStore struct {
	mu     sync.Mutex
	orders []domain.Order
	nextID int

	Establishments map[string]domain.Establishment
	Beverages      map[string]domain.Beverage
	Users          map[string]domain.User
	Subscriptions  map[string]bool

	// CreateDelay injects latency into CreateOrder to widen race windows.
	CreateDelay time.Duration
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		Establishments: make(map[string]domain.Establishment),
		Beverages:      make(map[string]domain.Beverage),
		Users:          make(map[string]domain.User),
		Subscriptions:  make(map[string]bool),
	}
}

// AddOrder seeds an order directly, bypassing CreateOrder.
func (m *MemStore) AddOrder(order domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
}

// SetStatus rewrites the status of a seeded order.
func (m *MemStore) SetStatus(orderID string, status domain.OrderStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			m.orders[i].Status = status
		}
	}
}

// Orders returns a copy of all stored orders.
func (m *MemStore) Orders() []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

// FindOrders returns the orders matching the filter, oldest first.
func (m *MemStore) FindOrders(_ context.Context, filter ports.OrderFilter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Order
	for _, o := range m.orders {
		if filter.ClientID != "" && o.ClientID != filter.ClientID {
			continue
		}
		if filter.EstablishmentID != "" && o.EstablishmentID != filter.EstablishmentID {
			continue
		}
		if !filter.Since.IsZero() && o.OrderDate.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !o.OrderDate.Before(filter.Until) {
			continue
		}
		excluded := false
		for _, s := range filter.ExcludeStatuses {
			if o.Status == s {
				excluded = true
			}
		}
		if excluded {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// CreateOrder persists a new pending order with a deterministic ID
// ("order-1", "order-2", ...).
func (m *MemStore) CreateOrder(_ context.Context, clientID, establishmentID, beverageID string, orderDate time.Time) (domain.Order, error) {
	if m.CreateDelay > 0 {
		time.Sleep(m.CreateDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order := domain.Order{
		ID:              fmt.Sprintf("order-%d", m.nextID),
		ClientID:        clientID,
		EstablishmentID: establishmentID,
		BeverageID:      beverageID,
		OrderDate:       orderDate,
		Status:          domain.StatusPending,
	}
	m.orders = append(m.orders, order)
	return order, nil
}

// UpdateOrderStatus sets the status of an existing order.
func (m *MemStore) UpdateOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			m.orders[i].Status = status
			return m.orders[i], nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// GetOrder returns one order by ID.
func (m *MemStore) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// GetEstablishment returns one establishment by ID.
func (m *MemStore) GetEstablishment(_ context.Context, id string) (domain.Establishment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	est, ok := m.Establishments[id]
	if !ok {
		return domain.Establishment{}, domain.ErrEstablishmentNotFound
	}
	return est, nil
}

// ControlledEstablishments returns the IDs of establishments owned by ownerID.
func (m *MemStore) ControlledEstablishments(_ context.Context, ownerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, est := range m.Establishments {
		if est.OwnerID == ownerID {
			out = append(out, est.ID)
		}
	}
	return out, nil
}

// OwnsEstablishment reports whether the user owns the establishment.
func (m *MemStore) OwnsEstablishment(_ context.Context, ownerID, establishmentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	est, ok := m.Establishments[establishmentID]
	return ok && est.OwnerID == ownerID, nil
}

// GetBeverage returns one beverage by ID.
func (m *MemStore) GetBeverage(_ context.Context, id string) (domain.Beverage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bev, ok := m.Beverages[id]
	if !ok {
		return domain.Beverage{}, domain.ErrBeverageNotFound
	}
	return bev, nil
}

// GetUser returns one user by ID.
func (m *MemStore) GetUser(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

// GetUserByEmail returns one user by email address.
func (m *MemStore) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// HasActiveSubscription reports the seeded subscription flag.
func (m *MemStore) HasActiveSubscription(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Subscriptions[userID], nil
}

// StaticAuth is an authenticator backed by a fixed credential table.
type StaticAuth struct {
	Principals map[string]domain.Principal
}

// Authenticate resolves the credential against the table.
func (a *StaticAuth) Authenticate(_ context.Context, credential string) (domain.Principal, error) {
	p, ok := a.Principals[credential]
	if !ok {
		return domain.Principal{}, domain.ErrUserNotFound
	}
	return p, nil
}

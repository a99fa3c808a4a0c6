// Package ports defines the contracts between the order core and its
// collaborators: the data layer, the authenticator, and the fanout hub.
package ports

import (
	"context"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
)

// OrderFilter narrows an order history query. Zero fields are ignored; a
// query with neither ClientID nor EstablishmentID matches every order.
type OrderFilter struct {
	ClientID        string
	EstablishmentID string
	Since           time.Time
	Until           time.Time
	ExcludeStatuses []domain.OrderStatus
}

// OrderStore is the persistence contract for orders.
type OrderStore interface {
	// FindOrders returns the orders matching the filter, oldest first.
	FindOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error)

	// CreateOrder persists a new pending order and returns it with its
	// assigned identifier.
	CreateOrder(ctx context.Context, clientID, establishmentID, beverageID string, orderDate time.Time) (domain.Order, error)

	// UpdateOrderStatus sets the status of an existing order and returns the
	// updated order. Returns domain.ErrOrderNotFound if no such order exists.
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)

	// GetOrder returns one order by ID.
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}

// EstablishmentStore resolves establishments, ownership and menu items.
type EstablishmentStore interface {
	// GetEstablishment returns one establishment by ID.
	GetEstablishment(ctx context.Context, id string) (domain.Establishment, error)

	// ControlledEstablishments returns the IDs of the establishments owned
	// by the given user.
	ControlledEstablishments(ctx context.Context, ownerID string) ([]string, error)

	// OwnsEstablishment reports whether the user owns the establishment.
	OwnsEstablishment(ctx context.Context, ownerID, establishmentID string) (bool, error)

	// GetBeverage returns one beverage by ID.
	GetBeverage(ctx context.Context, id string) (domain.Beverage, error)
}

// UserStore resolves accounts and subscription state.
type UserStore interface {
	// GetUser returns one user by ID.
	GetUser(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail returns one user by email address.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// HasActiveSubscription reports whether the user holds an active
	// subscription.
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
}

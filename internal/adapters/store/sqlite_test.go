package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/ports"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	seed := []func() error{
		func() error {
			return s.UpsertUser(ctx, domain.User{ID: "client-1", Email: "c@example.com", Name: "Client", Role: domain.RoleClient})
		},
		func() error {
			return s.UpsertUser(ctx, domain.User{ID: "partner-1", Email: "p@example.com", Name: "Partner", Role: domain.RolePartner})
		},
		func() error {
			return s.UpsertEstablishment(ctx, domain.Establishment{
				ID: "est-1", Name: "Corner Bar", OwnerID: "partner-1",
				HappyHoursStart: 9 * 60, HappyHoursEnd: 17 * 60,
			})
		},
		func() error {
			return s.UpsertBeverage(ctx, domain.Beverage{ID: "bev-1", Name: "House Lager", EstablishmentID: "est-1"})
		},
	}
	for _, fn := range seed {
		if err := fn(); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}

func TestSQLiteStore_CreateAndGetOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	when := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	order, err := s.CreateOrder(ctx, "client-1", "est-1", "bev-1", when)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != domain.StatusPending {
		t.Errorf("expected pending, got %s", order.Status)
	}

	got, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !got.OrderDate.Equal(when) {
		t.Errorf("order date round trip: got %v, want %v", got.OrderDate, when)
	}
	if got.ClientID != "client-1" || got.EstablishmentID != "est-1" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestSQLiteStore_UpdateOrderStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	order, _ := s.CreateOrder(ctx, "client-1", "est-1", "bev-1", time.Now())

	updated, err := s.UpdateOrderStatus(ctx, order.ID, domain.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}

	if _, err := s.UpdateOrderStatus(ctx, "missing", domain.StatusCompleted); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestSQLiteStore_FindOrdersFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	early, _ := s.CreateOrder(ctx, "client-1", "est-1", "bev-1", base.Add(-2*time.Hour))
	recent, _ := s.CreateOrder(ctx, "client-1", "est-1", "bev-1", base.Add(-30*time.Minute))
	if _, err := s.UpdateOrderStatus(ctx, early.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Window filter.
	found, err := s.FindOrders(ctx, ports.OrderFilter{
		ClientID: "client-1",
		Since:    base.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("FindOrders: %v", err)
	}
	if len(found) != 1 || found[0].ID != recent.ID {
		t.Errorf("expected only the recent order, got %+v", found)
	}

	// Status exclusion.
	found, err = s.FindOrders(ctx, ports.OrderFilter{
		ClientID:        "client-1",
		ExcludeStatuses: []domain.OrderStatus{domain.StatusCancelled},
	})
	if err != nil {
		t.Fatalf("FindOrders: %v", err)
	}
	if len(found) != 1 || found[0].ID != recent.ID {
		t.Errorf("cancelled order must be excluded, got %+v", found)
	}

	// Ordering: oldest first.
	found, _ = s.FindOrders(ctx, ports.OrderFilter{ClientID: "client-1"})
	if len(found) != 2 || found[0].ID != early.ID {
		t.Errorf("expected oldest first, got %+v", found)
	}
}

func TestSQLiteStore_Ownership(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	owns, err := s.OwnsEstablishment(ctx, "partner-1", "est-1")
	if err != nil {
		t.Fatalf("OwnsEstablishment: %v", err)
	}
	if !owns {
		t.Error("expected partner-1 to own est-1")
	}

	owns, _ = s.OwnsEstablishment(ctx, "client-1", "est-1")
	if owns {
		t.Error("client-1 must not own est-1")
	}

	ids, err := s.ControlledEstablishments(ctx, "partner-1")
	if err != nil {
		t.Fatalf("ControlledEstablishments: %v", err)
	}
	if len(ids) != 1 || ids[0] != "est-1" {
		t.Errorf("expected [est-1], got %v", ids)
	}
}

func TestSQLiteStore_Subscriptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	active, err := s.HasActiveSubscription(ctx, "client-1")
	if err != nil {
		t.Fatalf("HasActiveSubscription: %v", err)
	}
	if active {
		t.Error("expected no subscription initially")
	}

	if err := s.SetSubscription(ctx, "client-1", true); err != nil {
		t.Fatalf("SetSubscription: %v", err)
	}
	active, _ = s.HasActiveSubscription(ctx, "client-1")
	if !active {
		t.Error("expected active subscription after set")
	}

	if err := s.SetSubscription(ctx, "client-1", false); err != nil {
		t.Fatalf("SetSubscription: %v", err)
	}
	active, _ = s.HasActiveSubscription(ctx, "client-1")
	if active {
		t.Error("expected inactive subscription after unset")
	}
}

func TestSQLiteStore_Lookups(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := s.GetBeverage(ctx, "nothing"); !errors.Is(err, domain.ErrBeverageNotFound) {
		t.Errorf("expected ErrBeverageNotFound, got %v", err)
	}
	if _, err := s.GetEstablishment(ctx, "nowhere"); !errors.Is(err, domain.ErrEstablishmentNotFound) {
		t.Errorf("expected ErrEstablishmentNotFound, got %v", err)
	}

	u, err := s.GetUserByEmail(ctx, "p@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u.ID != "partner-1" || u.Role != domain.RolePartner {
		t.Errorf("unexpected user: %+v", u)
	}

	bev, err := s.GetBeverage(ctx, "bev-1")
	if err != nil {
		t.Fatalf("GetBeverage: %v", err)
	}
	if bev.EstablishmentID != "est-1" {
		t.Errorf("unexpected beverage: %+v", bev)
	}
}

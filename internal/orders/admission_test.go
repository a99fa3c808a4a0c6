package orders

import (
	"context"
	"testing"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/testutil"
)

// newAdmissionFixture returns an admission service over a store seeded with
// one establishment open 09:00-17:00.
func newAdmissionFixture() (*Admission, *testutil.MemStore) {
	store := testutil.NewMemStore()
	store.Establishments["est-1"] = domain.Establishment{
		ID: "est-1", Name: "Corner Bar", OwnerID: "partner-1",
		HappyHoursStart: 9 * 60, HappyHoursEnd: 17 * 60,
	}
	store.Establishments["est-2"] = domain.Establishment{
		ID: "est-2", Name: "Rooftop", OwnerID: "partner-1",
		HappyHoursStart: 9 * 60, HappyHoursEnd: 17 * 60,
	}
	return NewAdmission(NewChecker(store), store), store
}

func TestAdmission_OutsideWindow(t *testing.T) {
	admission, _ := newAdmissionFixture()

	decision, err := admission.Admit(context.Background(), "client-1", "est-1", at(8, 59))
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if decision.Accepted || decision.Reason != domain.RejectionHappyHoursClosed {
		t.Errorf("expected happy_hours_closed at 08:59, got %+v", decision)
	}
}

func TestAdmission_WindowOpensAtStart(t *testing.T) {
	admission, _ := newAdmissionFixture()

	decision, err := admission.Admit(context.Background(), "client-1", "est-1", at(9, 0))
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if !decision.Accepted {
		t.Errorf("expected acceptance at 09:00 with clean history, got %+v", decision)
	}
}

func TestAdmission_HourlyLimit(t *testing.T) {
	admission, store := newAdmissionFixture()
	now := at(12, 0)

	store.AddOrder(domain.Order{
		ID: "o-1", ClientID: "client-1", EstablishmentID: "est-2",
		OrderDate: now.Add(-30 * time.Minute), Status: domain.StatusPending,
	})

	decision, err := admission.Admit(context.Background(), "client-1", "est-1", now)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if decision.Accepted || decision.Reason != domain.RejectionHourlyLimit {
		t.Errorf("expected hourly_limit_exceeded, got %+v", decision)
	}

	// A cancelled prior order frees the allowance.
	store.SetStatus("o-1", domain.StatusCancelled)
	decision, _ = admission.Admit(context.Background(), "client-1", "est-1", now)
	if !decision.Accepted {
		t.Errorf("cancelled order must not block admission, got %+v", decision)
	}
}

func TestAdmission_DailyLimit(t *testing.T) {
	admission, store := newAdmissionFixture()
	now := at(15, 0)

	// Earlier the same day, same establishment, outside the hourly window.
	store.AddOrder(domain.Order{
		ID: "o-1", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: at(10, 0), Status: domain.StatusCompleted,
	})

	decision, err := admission.Admit(context.Background(), "client-1", "est-1", now)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if decision.Accepted || decision.Reason != domain.RejectionDailyLimit {
		t.Errorf("expected daily_limit_exceeded, got %+v", decision)
	}

	// Same day at a different establishment passes.
	decision, _ = admission.Admit(context.Background(), "client-1", "est-2", now)
	if !decision.Accepted {
		t.Errorf("different establishment same day must pass, got %+v", decision)
	}
}

func TestAdmission_ChecksShortCircuitInOrder(t *testing.T) {
	admission, store := newAdmissionFixture()

	// History that violates both frequency rules; outside the window the
	// window rejection must win.
	store.AddOrder(domain.Order{
		ID: "o-1", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: at(20, 30), Status: domain.StatusPending,
	})

	decision, err := admission.Admit(context.Background(), "client-1", "est-1", at(21, 0))
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if decision.Reason != domain.RejectionHappyHoursClosed {
		t.Errorf("expected window check to win, got %s", decision.Reason)
	}
}

func TestAdmission_UnknownEstablishment(t *testing.T) {
	admission, _ := newAdmissionFixture()

	_, err := admission.Admit(context.Background(), "client-1", "est-missing", at(12, 0))
	if err == nil {
		t.Fatal("expected error for unknown establishment")
	}
}

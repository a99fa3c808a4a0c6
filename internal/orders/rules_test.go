package orders

import (
	"context"
	"testing"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/testutil"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 30, hour, minute, 0, 0, time.Local)
}

func TestWithinWindow(t *testing.T) {
	tests := []struct {
		name  string
		start int // minutes of day
		end   int
		now   time.Time
		want  bool
	}{
		{"before open", 9 * 60, 17 * 60, at(8, 59), false},
		{"start inclusive", 9 * 60, 17 * 60, at(9, 0), true},
		{"inside", 9 * 60, 17 * 60, at(12, 30), true},
		{"end exclusive", 9 * 60, 17 * 60, at(17, 0), false},
		{"after close", 9 * 60, 17 * 60, at(20, 0), false},

		{"overnight before midnight", 22 * 60, 2 * 60, at(23, 30), true},
		{"overnight after midnight", 22 * 60, 2 * 60, at(1, 59), true},
		{"overnight start inclusive", 22 * 60, 2 * 60, at(22, 0), true},
		{"overnight end exclusive", 22 * 60, 2 * 60, at(2, 0), false},
		{"overnight daytime", 22 * 60, 2 * 60, at(12, 0), false},

		{"degenerate window admits nothing", 10 * 60, 10 * 60, at(10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinWindow(tt.start, tt.end, tt.now); got != tt.want {
				t.Errorf("WithinWindow(%d, %d, %s) = %v, want %v",
					tt.start, tt.end, tt.now.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestChecker_HasRecentOrder(t *testing.T) {
	now := at(12, 0)
	store := testutil.NewMemStore()
	checker := NewChecker(store)

	got, err := checker.HasRecentOrder(context.Background(), "client-1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("HasRecentOrder: %v", err)
	}
	if got {
		t.Error("expected no recent order for empty history")
	}

	store.AddOrder(domain.Order{
		ID: "o-1", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: now.Add(-30 * time.Minute), Status: domain.StatusPending,
	})

	got, err = checker.HasRecentOrder(context.Background(), "client-1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("HasRecentOrder: %v", err)
	}
	if !got {
		t.Error("expected recent order at now-30m to be found")
	}

	// Cancelled orders never count against the limits.
	store.SetStatus("o-1", domain.StatusCancelled)
	got, _ = checker.HasRecentOrder(context.Background(), "client-1", now.Add(-time.Hour))
	if got {
		t.Error("cancelled order must not count as recent")
	}

	// Orders outside the window don't count either.
	store.AddOrder(domain.Order{
		ID: "o-2", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: now.Add(-2 * time.Hour), Status: domain.StatusCompleted,
	})
	got, _ = checker.HasRecentOrder(context.Background(), "client-1", now.Add(-time.Hour))
	if got {
		t.Error("order older than one hour must not count as recent")
	}
}

func TestChecker_HasOrderToday(t *testing.T) {
	now := at(15, 0)
	store := testutil.NewMemStore()
	checker := NewChecker(store)

	store.AddOrder(domain.Order{
		ID: "o-1", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: at(10, 0), Status: domain.StatusCompleted,
	})

	got, err := checker.HasOrderToday(context.Background(), "client-1", "est-1", now)
	if err != nil {
		t.Fatalf("HasOrderToday: %v", err)
	}
	if !got {
		t.Error("expected same-day order at same establishment to be found")
	}

	// Different establishment, same day: does not count.
	got, _ = checker.HasOrderToday(context.Background(), "client-1", "est-2", now)
	if got {
		t.Error("order at a different establishment must not count")
	}

	// Previous calendar day: does not count.
	store2 := testutil.NewMemStore()
	store2.AddOrder(domain.Order{
		ID: "o-2", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: at(10, 0).AddDate(0, 0, -1), Status: domain.StatusCompleted,
	})
	got, _ = NewChecker(store2).HasOrderToday(context.Background(), "client-1", "est-1", now)
	if got {
		t.Error("yesterday's order must not count toward today's limit")
	}
}

// Package orders implements order admission and the order lifecycle service.
package orders

import (
	"context"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/ports"
)

// limitExcludedStatuses lists statuses that never count against the rate
// limits. A cancelled order does not consume the client's allowance.
var limitExcludedStatuses = []domain.OrderStatus{domain.StatusCancelled}

// WithinWindow reports whether now's local time-of-day falls inside the happy
// hours window [start, end), both expressed as minutes of day.
//
// The start is inclusive and the end exclusive. When start > end the window
// wraps midnight: [22:00, 02:00) admits 23:30 and 01:59 but not 02:00. A
// window with start == end is degenerate and admits nothing.
func WithinWindow(startMin, endMin int, now time.Time) bool {
	minute := now.Hour()*60 + now.Minute()

	if startMin == endMin {
		return false
	}
	if startMin < endMin {
		return minute >= startMin && minute < endMin
	}
	// Overnight window wrapping midnight.
	return minute >= startMin || minute < endMin
}

// Checker evaluates the frequency rules against order history. All methods
// are read-only; the caller decides what to do with the answers.
type Checker struct {
	store ports.OrderStore
}

// NewChecker creates a rule checker over the given order store.
func NewChecker(store ports.OrderStore) *Checker {
	return &Checker{store: store}
}

// HasRecentOrder reports whether the client placed any non-cancelled order,
// at any establishment, at or after since.
func (c *Checker) HasRecentOrder(ctx context.Context, clientID string, since time.Time) (bool, error) {
	found, err := c.store.FindOrders(ctx, ports.OrderFilter{
		ClientID:        clientID,
		Since:           since,
		ExcludeStatuses: limitExcludedStatuses,
	})
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

// HasOrderToday reports whether the client placed any non-cancelled order at
// the establishment within the local calendar day containing now.
func (c *Checker) HasOrderToday(ctx context.Context, clientID, establishmentID string, now time.Time) (bool, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	found, err := c.store.FindOrders(ctx, ports.OrderFilter{
		ClientID:        clientID,
		EstablishmentID: establishmentID,
		Since:           dayStart,
		Until:           dayEnd,
		ExcludeStatuses: limitExcludedStatuses,
	})
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

package orders

import (
	"context"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/ports"
)

// hourlyWindow is how far back the one-order-per-hour rule looks.
const hourlyWindow = time.Hour

// Admission decides whether a prospective order may be created. It only
// decides; persisting the admitted order is the caller's job.
type Admission struct {
	checker        *Checker
	establishments ports.EstablishmentStore
}

// NewAdmission creates the admission service.
func NewAdmission(checker *Checker, establishments ports.EstablishmentStore) *Admission {
	return &Admission{
		checker:        checker,
		establishments: establishments,
	}
}

// Admit runs the business rules in fixed order, first failing check wins:
//
//  1. now must fall inside the establishment's happy hours window
//  2. the client must not have ordered anywhere within the last hour
//  3. the client must not have ordered at this establishment today
//
// A rejection is a value, not an error; the error return carries only
// collaborator failures (store lookups).
func (a *Admission) Admit(ctx context.Context, clientID, establishmentID string, now time.Time) (domain.AdmissionDecision, error) {
	est, err := a.establishments.GetEstablishment(ctx, establishmentID)
	if err != nil {
		return domain.AdmissionDecision{}, err
	}

	if !WithinWindow(est.HappyHoursStart, est.HappyHoursEnd, now) {
		return domain.Reject(domain.RejectionHappyHoursClosed), nil
	}

	recent, err := a.checker.HasRecentOrder(ctx, clientID, now.Add(-hourlyWindow))
	if err != nil {
		return domain.AdmissionDecision{}, err
	}
	if recent {
		return domain.Reject(domain.RejectionHourlyLimit), nil
	}

	today, err := a.checker.HasOrderToday(ctx, clientID, establishmentID, now)
	if err != nil {
		return domain.AdmissionDecision{}, err
	}
	if today {
		return domain.Reject(domain.RejectionDailyLimit), nil
	}

	return domain.Accept(), nil
}

package orders

import (
	"context"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/ports"
	"github.com/rs/zerolog/log"
)

// Publisher receives confirmed order mutations for fanout. Implementations
// must be fire-and-forget: a delivery problem never fails the mutation.
type Publisher interface {
	OrderCreated(order domain.Order)
	OrderUpdated(order domain.Order)
}

// Service orchestrates order placement and status updates: admission,
// persistence, then notification, in that order. Events are published only
// after the mutation is confirmed by the store.
type Service struct {
	admission      *Admission
	store          ports.OrderStore
	establishments ports.EstablishmentStore
	users          ports.UserStore
	publisher      Publisher
	locks          *clientLocks
}

// NewService creates the order service.
func NewService(
	admission *Admission,
	store ports.OrderStore,
	establishments ports.EstablishmentStore,
	users ports.UserStore,
	publisher Publisher,
) *Service {
	return &Service{
		admission:      admission,
		store:          store,
		establishments: establishments,
		users:          users,
		publisher:      publisher,
		locks:          newClientLocks(),
	}
}

// PlaceOrder places an order for the client's own account. The client must
// hold an active subscription. The establishment is derived from the
// beverage. Returns the rejection decision when admission fails; the error
// return is reserved for collaborator failures.
func (s *Service) PlaceOrder(ctx context.Context, clientID, beverageID string, now time.Time) (domain.Order, domain.AdmissionDecision, error) {
	active, err := s.users.HasActiveSubscription(ctx, clientID)
	if err != nil {
		return domain.Order{}, domain.AdmissionDecision{}, err
	}
	if !active {
		return domain.Order{}, domain.AdmissionDecision{}, domain.ErrNoActiveSubscription
	}

	return s.placeOrder(ctx, clientID, beverageID, now)
}

// PlaceOrderForClient places an order on behalf of a client identified by
// email. Only the owner of the beverage's establishment may do this.
func (s *Service) PlaceOrderForClient(ctx context.Context, partner domain.Principal, clientEmail, beverageID string, now time.Time) (domain.Order, domain.AdmissionDecision, error) {
	client, err := s.users.GetUserByEmail(ctx, clientEmail)
	if err != nil {
		return domain.Order{}, domain.AdmissionDecision{}, err
	}

	beverage, err := s.establishments.GetBeverage(ctx, beverageID)
	if err != nil {
		return domain.Order{}, domain.AdmissionDecision{}, err
	}
	owns, err := s.establishments.OwnsEstablishment(ctx, partner.UserID, beverage.EstablishmentID)
	if err != nil {
		return domain.Order{}, domain.AdmissionDecision{}, err
	}
	if !owns {
		return domain.Order{}, domain.AdmissionDecision{}, domain.ErrNotOwner
	}

	return s.placeOrder(ctx, client.ID, beverageID, now)
}

// placeOrder runs admit+create under the client's lock so two concurrent
// attempts by one client cannot both pass the frequency checks.
func (s *Service) placeOrder(ctx context.Context, clientID, beverageID string, now time.Time) (domain.Order, domain.AdmissionDecision, error) {
	beverage, err := s.establishments.GetBeverage(ctx, beverageID)
	if err != nil {
		return domain.Order{}, domain.AdmissionDecision{}, err
	}

	s.locks.acquire(clientID)
	defer s.locks.release(clientID)

	decision, err := s.admission.Admit(ctx, clientID, beverage.EstablishmentID, now)
	if err != nil {
		return domain.Order{}, domain.AdmissionDecision{}, err
	}
	if !decision.Accepted {
		log.Debug().
			Str("client_id", clientID).
			Str("establishment_id", beverage.EstablishmentID).
			Str("reason", string(decision.Reason)).
			Msg("order rejected")
		return domain.Order{}, decision, nil
	}

	order, err := s.store.CreateOrder(ctx, clientID, beverage.EstablishmentID, beverageID, now)
	if err != nil {
		return domain.Order{}, domain.AdmissionDecision{}, err
	}

	log.Info().
		Str("order_id", order.ID).
		Str("client_id", clientID).
		Str("establishment_id", order.EstablishmentID).
		Msg("order created")

	s.publisher.OrderCreated(order)
	return order, decision, nil
}

// UpdateStatus sets a new status on an order. The principal must own the
// order's establishment; ownership is checked at request time, never cached.
func (s *Service) UpdateStatus(ctx context.Context, principal domain.Principal, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if !domain.ValidStatus(status) {
		return domain.Order{}, domain.ErrInvalidStatus
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	owns, err := s.establishments.OwnsEstablishment(ctx, principal.UserID, order.EstablishmentID)
	if err != nil {
		return domain.Order{}, err
	}
	if !owns {
		return domain.Order{}, domain.ErrNotOwner
	}

	updated, err := s.store.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return domain.Order{}, err
	}

	log.Info().
		Str("order_id", updated.ID).
		Str("status", string(updated.Status)).
		Msg("order status updated")

	s.publisher.OrderUpdated(updated)
	return updated, nil
}

// ClientHistory returns the client's own orders, oldest first.
func (s *Service) ClientHistory(ctx context.Context, clientID string) ([]domain.Order, error) {
	return s.store.FindOrders(ctx, ports.OrderFilter{ClientID: clientID})
}

// IncomingOrders returns the orders of every establishment the partner owns.
func (s *Service) IncomingOrders(ctx context.Context, partnerID string) ([]domain.Order, error) {
	estIDs, err := s.establishments.ControlledEstablishments(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	var all []domain.Order
	for _, id := range estIDs {
		found, err := s.store.FindOrders(ctx, ports.OrderFilter{EstablishmentID: id})
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/happyhours/orderhub/internal/domain"
)

// handlePlaceOrder places an order for the authenticated client.
// @Summary Place an order
// @Accept json
// @Produce json
// @Param request body PlaceOrderRequest true "Beverage to order"
// @Success 201 {object} OrderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/orders [post]
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "invalid request body")
		return
	}
	if req.BeverageID == "" {
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "beverage_id is required")
		return
	}

	principal := principalFrom(r)
	order, decision, err := s.orders.PlaceOrder(r.Context(), principal.UserID, req.BeverageID, time.Now())
	if err != nil {
		s.writeOrderError(w, err)
		return
	}
	if !decision.Accepted {
		writeError(w, http.StatusBadRequest, domain.ErrCodeOrderRejected, decision.Message())
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// handlePartnerPlaceOrder places an order on behalf of a client.
// @Summary Place an order for a client (partner only)
// @Accept json
// @Produce json
// @Param request body PartnerPlaceOrderRequest true "Beverage and client email"
// @Success 201 {object} OrderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/partner/orders [post]
func (s *Server) handlePartnerPlaceOrder(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	if !principal.IsPartner() {
		writeError(w, http.StatusForbidden, domain.ErrCodeUnauthorized, "partner role required")
		return
	}

	var req PartnerPlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "invalid request body")
		return
	}
	if req.BeverageID == "" || req.ClientEmail == "" {
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "beverage_id and client_email are required")
		return
	}

	order, decision, err := s.orders.PlaceOrderForClient(r.Context(), principal, req.ClientEmail, req.BeverageID, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "no user found with this email address")
			return
		}
		s.writeOrderError(w, err)
		return
	}
	if !decision.Accepted {
		writeError(w, http.StatusBadRequest, domain.ErrCodeOrderRejected, decision.Message())
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// handleListOrders returns the caller's order history: their own orders for
// clients, incoming orders across owned establishments for partners.
// @Summary List orders
// @Produce json
// @Success 200 {array} OrderResponse
// @Router /api/v1/orders [get]
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	var (
		found []domain.Order
		err   error
	)
	if principal.IsPartner() {
		found, err = s.orders.IncomingOrders(r.Context(), principal.UserID)
	} else {
		found, err = s.orders.ClientHistory(r.Context(), principal.UserID)
	}
	if err != nil {
		s.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(found))
}

// handleUpdateStatus changes an order's status.
// @Summary Update order status (establishment owner only)
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/orders/{id}/status [patch]
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "invalid request body")
		return
	}

	orderID := mux.Vars(r)["id"]
	principal := principalFrom(r)

	order, err := s.orders.UpdateStatus(r.Context(), principal, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		s.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// writeOrderError maps service errors to HTTP responses.
func (s *Server) writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, domain.ErrCodeOrderNotFound, "order not found")
	case errors.Is(err, domain.ErrBeverageNotFound):
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "beverage not found")
	case errors.Is(err, domain.ErrNotOwner):
		writeError(w, http.StatusForbidden, domain.ErrCodeNotOwner, "you do not own this establishment")
	case errors.Is(err, domain.ErrNoActiveSubscription):
		writeError(w, http.StatusForbidden, domain.ErrCodeNoSubscription, "you need an active subscription to place an order")
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "invalid order status")
	default:
		log.Error().Err(err).Msg("order operation failed")
		writeError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal error")
	}
}

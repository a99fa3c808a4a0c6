package http

import (
	"time"

	"github.com/happyhours/orderhub/internal/domain"
)

// PlaceOrderRequest is the body for placing an order. The establishment is
// derived from the beverage server-side.
type PlaceOrderRequest struct {
	BeverageID string `json:"beverage_id"`
}

// PartnerPlaceOrderRequest is the body for a partner placing an order on a
// client's behalf.
type PartnerPlaceOrderRequest struct {
	BeverageID  string `json:"beverage_id"`
	ClientEmail string `json:"client_email"`
}

// UpdateStatusRequest is the body for an order status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// OrderResponse is the representation of an order in API responses.
type OrderResponse struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	EstablishmentID string    `json:"establishment_id"`
	BeverageID      string    `json:"beverage_id"`
	OrderDate       time.Time `json:"order_date"`
	Status          string    `json:"status"`
}

// ErrorResponse is the error body for all non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func toOrderResponse(order domain.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID,
		ClientID:        order.ClientID,
		EstablishmentID: order.EstablishmentID,
		BeverageID:      order.BeverageID,
		OrderDate:       order.OrderDate,
		Status:          string(order.Status),
	}
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

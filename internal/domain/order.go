// Package domain contains the core types and errors shared across orderhub.
package domain

import (
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending       OrderStatus = "pending"
	StatusInPreparation OrderStatus = "in_preparation"
	StatusCompleted     OrderStatus = "completed"
	StatusCancelled     OrderStatus = "cancelled"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusInPreparation, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order is a placed beverage order.
type Order struct {
	ID              string      `json:"id"`
	ClientID        string      `json:"client_id"`
	EstablishmentID string      `json:"establishment_id"`
	BeverageID      string      `json:"beverage_id"`
	OrderDate       time.Time   `json:"order_date"`
	Status          OrderStatus `json:"status"`
}

// Role is the role of an authenticated user.
type Role string

const (
	RoleClient  Role = "client"
	RolePartner Role = "partner"
)

// User is a registered account. Partners own establishments; clients place
// orders against them.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Principal is the identity resolved from a validated credential.
type Principal struct {
	UserID string
	Role   Role
}

// IsPartner reports whether the principal has the partner role.
func (p Principal) IsPartner() bool {
	return p.Role == RolePartner
}

// Establishment is a venue owned by a partner. HappyHoursStart and
// HappyHoursEnd are minutes-of-day in the establishment's local time.
type Establishment struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	OwnerID         string `json:"owner_id"`
	HappyHoursStart int    `json:"happyhours_start"`
	HappyHoursEnd   int    `json:"happyhours_end"`
}

// Beverage is a menu item offered by an establishment.
type Beverage struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	EstablishmentID string  `json:"establishment_id"`
	Price           float64 `json:"price"`
}

// AdmissionReason identifies why an order admission attempt was rejected,
// or RejectionNone when it was accepted.
type AdmissionReason string

const (
	RejectionNone             AdmissionReason = "ok"
	RejectionHappyHoursClosed AdmissionReason = "happy_hours_closed"
	RejectionHourlyLimit      AdmissionReason = "hourly_limit_exceeded"
	RejectionDailyLimit       AdmissionReason = "daily_limit_exceeded"
)

// AdmissionDecision is the immutable result of one admission attempt.
type AdmissionDecision struct {
	Accepted bool
	Reason   AdmissionReason
}

// Accept returns an accepting decision.
func Accept() AdmissionDecision {
	return AdmissionDecision{Accepted: true, Reason: RejectionNone}
}

// Reject returns a rejecting decision with the given reason.
func Reject(reason AdmissionReason) AdmissionDecision {
	return AdmissionDecision{Accepted: false, Reason: reason}
}

// Message returns the user-facing text for a rejection reason.
func (d AdmissionDecision) Message() string {
	switch d.Reason {
	case RejectionHappyHoursClosed:
		return "Order can only be placed during happy hours."
	case RejectionHourlyLimit:
		return "You can only place one order per hour."
	case RejectionDailyLimit:
		return "You can only place one order per establishment per day."
	}
	return ""
}

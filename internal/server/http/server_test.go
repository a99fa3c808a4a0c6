package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/hub"
	"github.com/happyhours/orderhub/internal/notify"
	"github.com/happyhours/orderhub/internal/orders"
	"github.com/happyhours/orderhub/internal/testutil"
)

func newAPIFixture(t *testing.T) (*Server, *testutil.MemStore) {
	t.Helper()

	store := testutil.NewMemStore()
	store.Users["client-1"] = domain.User{ID: "client-1", Email: "client@example.com", Role: domain.RoleClient}
	store.Users["partner-1"] = domain.User{ID: "partner-1", Email: "partner@example.com", Role: domain.RolePartner}
	store.Establishments["est-1"] = domain.Establishment{
		ID: "est-1", Name: "Corner Bar", OwnerID: "partner-1",
		HappyHoursStart: 0, HappyHoursEnd: 24*60 - 1,
	}
	store.Beverages["bev-1"] = domain.Beverage{ID: "bev-1", Name: "House Lager", EstablishmentID: "est-1"}
	store.Subscriptions["client-1"] = true

	auth := &testutil.StaticAuth{Principals: map[string]domain.Principal{
		"token-client":  {UserID: "client-1", Role: domain.RoleClient},
		"token-partner": {UserID: "partner-1", Role: domain.RolePartner},
	}}

	h := hub.New()
	t.Cleanup(h.Close)
	service := orders.NewService(
		orders.NewAdmission(orders.NewChecker(store), store),
		store, store, store, notify.NewPublisher(h),
	)

	srv := New("127.0.0.1", 0, auth, service, nil)
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestAPI_Health(t *testing.T) {
	srv, _ := newAPIFixture(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestAPI_RequiresAuth(t *testing.T) {
	srv, _ := newAPIFixture(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/orders", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/orders", "bogus", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestAPI_PlaceOrder(t *testing.T) {
	srv, _ := newAPIFixture(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/orders", "token-client",
		PlaceOrderRequest{BeverageID: "bev-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var order OrderResponse
	decodeJSON(t, rec, &order)
	if order.EstablishmentID != "est-1" {
		t.Errorf("establishment not derived from beverage: %s", order.EstablishmentID)
	}
	if order.Status != string(domain.StatusPending) {
		t.Errorf("expected pending, got %s", order.Status)
	}
}

func TestAPI_PlaceOrderRejected(t *testing.T) {
	srv, store := newAPIFixture(t)
	store.AddOrder(domain.Order{
		ID: "o-prior", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: time.Now().Add(-10 * time.Minute), Status: domain.StatusPending,
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/orders", "token-client",
		PlaceOrderRequest{BeverageID: "bev-1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Error != "You can only place one order per hour." {
		t.Errorf("unexpected rejection message: %q", resp.Error)
	}
}

func TestAPI_PlaceOrderRequiresSubscription(t *testing.T) {
	srv, store := newAPIFixture(t)
	store.Subscriptions["client-1"] = false

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/orders", "token-client",
		PlaceOrderRequest{BeverageID: "bev-1"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without subscription, got %d", rec.Code)
	}
}

func TestAPI_PlaceOrderValidation(t *testing.T) {
	srv, _ := newAPIFixture(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/orders", "token-client",
		PlaceOrderRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing beverage_id, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/orders", "token-client",
		PlaceOrderRequest{BeverageID: "bev-missing"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown beverage, got %d", rec.Code)
	}
}

func TestAPI_PartnerPlaceOrder(t *testing.T) {
	srv, _ := newAPIFixture(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/partner/orders", "token-partner",
		PartnerPlaceOrderRequest{BeverageID: "bev-1", ClientEmail: "client@example.com"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var order OrderResponse
	decodeJSON(t, rec, &order)
	if order.ClientID != "client-1" {
		t.Errorf("order must be attributed to the resolved client, got %s", order.ClientID)
	}
}

func TestAPI_PartnerPlaceOrderErrors(t *testing.T) {
	srv, _ := newAPIFixture(t)

	// Clients cannot use the partner surface.
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/partner/orders", "token-client",
		PartnerPlaceOrderRequest{BeverageID: "bev-1", ClientEmail: "client@example.com"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client role, got %d", rec.Code)
	}

	// Unknown email maps to a validation error, not a 500.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/partner/orders", "token-partner",
		PartnerPlaceOrderRequest{BeverageID: "bev-1", ClientEmail: "nobody@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown email, got %d", rec.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Error != "no user found with this email address" {
		t.Errorf("unexpected message: %q", resp.Error)
	}
}

func TestAPI_ListOrders(t *testing.T) {
	srv, store := newAPIFixture(t)
	store.AddOrder(domain.Order{
		ID: "o-1", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: time.Now().Add(-2 * time.Hour), Status: domain.StatusCompleted,
	})
	store.AddOrder(domain.Order{
		ID: "o-2", ClientID: "client-2", EstablishmentID: "est-1",
		OrderDate: time.Now().Add(-time.Hour), Status: domain.StatusPending,
	})

	// Clients see only their own history.
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/orders", "token-client", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var mine []OrderResponse
	decodeJSON(t, rec, &mine)
	if len(mine) != 1 || mine[0].ID != "o-1" {
		t.Errorf("unexpected client history: %+v", mine)
	}

	// Partners see incoming orders across owned establishments.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/orders", "token-partner", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var incoming []OrderResponse
	decodeJSON(t, rec, &incoming)
	if len(incoming) != 2 {
		t.Errorf("expected both establishment orders, got %+v", incoming)
	}
}

func TestAPI_UpdateStatus(t *testing.T) {
	srv, store := newAPIFixture(t)
	store.AddOrder(domain.Order{
		ID: "o-1", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: time.Now(), Status: domain.StatusPending,
	})

	rec := doRequest(t, srv, http.MethodPatch, "/api/v1/orders/o-1/status", "token-partner",
		UpdateStatusRequest{Status: "in_preparation"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var order OrderResponse
	decodeJSON(t, rec, &order)
	if order.Status != "in_preparation" {
		t.Errorf("status not applied: %s", order.Status)
	}
}

func TestAPI_UpdateStatusErrors(t *testing.T) {
	srv, store := newAPIFixture(t)
	store.AddOrder(domain.Order{
		ID: "o-1", ClientID: "client-1", EstablishmentID: "est-1",
		OrderDate: time.Now(), Status: domain.StatusPending,
	})

	// Non-owner update is refused.
	rec := doRequest(t, srv, http.MethodPatch, "/api/v1/orders/o-1/status", "token-client",
		UpdateStatusRequest{Status: "completed"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}

	// Unknown order is a 404.
	rec = doRequest(t, srv, http.MethodPatch, "/api/v1/orders/o-missing/status", "token-partner",
		UpdateStatusRequest{Status: "completed"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", rec.Code)
	}

	// Unknown status values are rejected.
	rec = doRequest(t, srv, http.MethodPatch, "/api/v1/orders/o-1/status", "token-partner",
		UpdateStatusRequest{Status: "shipped"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", rec.Code)
	}
}

package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderdesk/internal/deadline"
	"orderdesk/internal/orders"
	"orderdesk/internal/recordapi"
	"orderdesk/internal/session"
)

// fakeRecordBackend is an in-memory stand-in for the record backend service.
type fakeRecordBackend struct {
	order orders.Order
}

func (f *fakeRecordBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != f.order.ID {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(f.order)
	})
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var d orders.Draft
		_ = json.NewDecoder(r.Body).Decode(&d)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(orders.Order{
			ID:           "ord-new",
			ClientID:     d.ClientID,
			Status:       orders.StatusPending,
			Deadline:     d.Deadline,
			Quantity:     d.Quantity,
			PricePerUnit: d.PricePerUnit,
			TotalPrice:   d.TotalPrice,
			CreatedAt:    time.Now(),
		})
	})
	confirm := func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(recordapi.MutationResult{ModifiedCount: 1})
	}
	mux.HandleFunc("POST /orders/{id}/transitions", confirm)
	mux.HandleFunc("POST /orders/{id}/deadline", confirm)
	mux.HandleFunc("POST /orders/{id}/checkpoint", confirm)
	return mux
}

func setup(t *testing.T, o orders.Order) (*httptest.Server, *session.Manager) {
	t.Helper()

	backendSrv := httptest.NewServer((&fakeRecordBackend{order: o}).handler())
	t.Cleanup(backendSrv.Close)

	logger := zap.NewNop().Sugar()
	client := recordapi.NewClient(backendSrv.URL, 2*time.Second, logger)
	sessions := session.NewManager(session.Options{
		Backend: client,
		Logger:  logger,
	})
	t.Cleanup(sessions.Close)

	router := NewRouter()
	h := &OrdersHandler{
		Sessions: sessions,
		Backend:  client,
		Logger:   logger,
		Service:  "gateway-test",
	}
	h.Register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, sessions
}

func pendingOrder(dl time.Time) orders.Order {
	return orders.Order{
		ID:           "ord-1",
		ClientID:     "client-1",
		Status:       orders.StatusPending,
		Deadline:     deadline.Capture(dl),
		Quantity:     3,
		PricePerUnit: decimal.NewFromInt(5),
		TotalPrice:   decimal.NewFromInt(15),
	}
}

func TestGetOrder(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(time.Hour)))

	resp, err := http.Get(srv.URL + "/orders/ord-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view OrderView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "ord-1", view.ID)
	assert.Equal(t, orders.StatusPending, view.Status)
	assert.False(t, view.Locked)
	assert.Equal(t, "0d 0h 0m 0s", view.ElapsedDisplay)
	assert.NotNil(t, view.Remaining)
}

func TestGetOrderNotFound(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(time.Hour)))

	resp, err := http.Get(srv.URL + "/orders/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransitionEndpoint(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(time.Hour)))

	resp, err := http.Post(srv.URL+"/orders/ord-1/transitions/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Applied bool      `json:"applied"`
		Order   OrderView `json:"order"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Applied)
	assert.Equal(t, orders.StatusInProgress, out.Order.Status)
}

func TestTransitionEndpointInvalidActionIsNoOp(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(time.Hour)))

	resp, err := http.Post(srv.URL+"/orders/ord-1/transitions/complete", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Applied bool      `json:"applied"`
		Order   OrderView `json:"order"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Applied)
	assert.Equal(t, orders.StatusPending, out.Order.Status)
}

func TestTransitionEndpointLockedByLapsedDeadline(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(-time.Minute)))

	resp, err := http.Post(srv.URL+"/orders/ord-1/transitions/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Applied bool `json:"applied"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Applied)
}

func TestExtendDeadlineEndpoint(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(-time.Minute)))

	body, _ := json.Marshal(ExtendDeadlineReq{
		Deadline: time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	resp, err := http.Post(srv.URL+"/orders/ord-1/deadline", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Applied bool      `json:"applied"`
		Order   OrderView `json:"order"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Applied)
	assert.False(t, out.Order.Locked, "extension must clear the lock")
}

func TestExtendDeadlinePastPick(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(time.Hour)))

	body, _ := json.Marshal(ExtendDeadlineReq{
		Deadline: time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	resp, err := http.Post(srv.URL+"/orders/ord-1/deadline", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrder(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(time.Hour)))

	body, _ := json.Marshal(CreateOrderReq{
		ClientID:     "client-7",
		Quantity:     4,
		PricePerUnit: "2.50",
		Deadline:     time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view OrderView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "ord-new", view.ID)
	assert.Equal(t, orders.StatusPending, view.Status)
	assert.Equal(t, "10.00", view.TotalPrice)
}

func TestCreateOrderValidation(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(time.Hour)))

	tests := []struct {
		name string
		req  CreateOrderReq
	}{
		{"past deadline", CreateOrderReq{ClientID: "c", Quantity: 1, PricePerUnit: "1", Deadline: time.Now().Add(-time.Hour).Format(time.RFC3339)}},
		{"zero quantity", CreateOrderReq{ClientID: "c", Quantity: 0, PricePerUnit: "1", Deadline: time.Now().Add(time.Hour).Format(time.RFC3339)}},
		{"bad price", CreateOrderReq{ClientID: "c", Quantity: 1, PricePerUnit: "cheap", Deadline: time.Now().Add(time.Hour).Format(time.RFC3339)}},
		{"missing client", CreateOrderReq{Quantity: 1, PricePerUnit: "1", Deadline: time.Now().Add(time.Hour).Format(time.RFC3339)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.req)
			resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateOrderBadJSON(t *testing.T) {
	srv, _ := setup(t, pendingOrder(time.Now().Add(time.Hour)))

	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

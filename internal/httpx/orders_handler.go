package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderdesk/internal/deadline"
	kafkax "orderdesk/internal/kafka"
	"orderdesk/internal/orders"
	"orderdesk/internal/recordapi"
	"orderdesk/internal/redisx"
	"orderdesk/internal/session"
	"orderdesk/internal/tracker"
)

// OrdersHandler is the UI-facing surface of the gateway: order creation plus
// the session operations (status, elapsed time, countdown, transition
// attempts, deadline extension).
type OrdersHandler struct {
	Sessions *session.Manager
	Backend  *recordapi.Client
	Cache    *redisx.StatusCache
	Producer *kafkax.Producer
	Logger   *zap.SugaredLogger
	Service  string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Post("/orders/{id}/transitions/{action}", h.attemptTransition)
	r.Post("/orders/{id}/deadline", h.extendDeadline)
	r.Delete("/orders/{id}/session", h.dropSession)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type CreateOrderReq struct {
	ClientID     string `json:"client_id"`
	Quantity     int    `json:"quantity"`
	PricePerUnit string `json:"price_per_unit"`
	Instructions string `json:"instructions"`
	Deadline     string `json:"deadline"` // picked local date-time, RFC3339 with offset
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	picked, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid deadline"})
		return
	}
	price, err := decimal.NewFromString(req.PricePerUnit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	draft := orders.Draft{
		ClientID:     req.ClientID,
		Instructions: req.Instructions,
		Deadline:     deadline.Capture(picked),
	}
	draft.SetPricePerUnit(price)
	draft.SetQuantity(req.Quantity)
	if err := draft.Validate(time.Now()); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Backend.CreateOrder(ctx, draft)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Put(ctx, o); err != nil {
			h.Logger.Warnw("status cache update failed", "order_id", o.ID, "error", err)
		}
	}
	h.publishCreated(r, o)

	writeJSON(w, http.StatusCreated, h.orderView(o, nil))
}

func (h *OrdersHandler) publishCreated(r *http.Request, o orders.Order) {
	if h.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    o.ID,
			ClientID:   o.ClientID,
			Quantity:   o.Quantity,
			TotalPrice: o.TotalPrice.String(),
			Deadline:   o.Deadline.InstantUTC,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// OrderView is what the dashboard renders for one order.
type OrderView struct {
	ID               string              `json:"id"`
	Status           orders.Status       `json:"status"`
	Locked           bool                `json:"locked"`
	Deadline         deadline.Captured   `json:"deadline"`
	Remaining        *deadline.Countdown `json:"remaining,omitempty"`
	RemainingDisplay string              `json:"remaining_display,omitempty"`
	ElapsedSeconds   int64               `json:"elapsed_seconds"`
	ElapsedDisplay   string              `json:"elapsed_display"`
	Quantity         int                 `json:"quantity"`
	PricePerUnit     string              `json:"price_per_unit"`
	TotalPrice       string              `json:"total_price"`
	Instructions     string              `json:"instructions,omitempty"`
}

func (h *OrdersHandler) orderView(o orders.Order, s *session.Session) OrderView {
	v := OrderView{
		ID:             o.ID,
		Status:         o.Status,
		Deadline:       o.Deadline,
		ElapsedSeconds: o.AccumulatedSeconds,
		Quantity:       o.Quantity,
		PricePerUnit:   o.PricePerUnit.String(),
		TotalPrice:     o.TotalPrice.String(),
		Instructions:   o.Instructions,
	}
	if s != nil {
		v.Locked = s.Locked()
		v.ElapsedSeconds = s.DisplaySeconds()
		if rem, err := s.RemainingToDeadline(); err == nil {
			v.Remaining = &rem
			v.RemainingDisplay = rem.String()
		}
	}
	v.ElapsedDisplay = tracker.Format(v.ElapsedSeconds)
	return v
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, recordapi.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h.orderView(s.Order(), s))
}

// getStatus is the cheap polling endpoint: Redis first, live session second.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Cache != nil {
		if cached, ok, err := h.Cache.Get(ctx, id); err == nil && ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	s, err := h.Sessions.Get(ctx, id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	o := s.Order()
	cached := redisx.CachedStatus{
		Status:             o.Status,
		IsLocked:           s.Locked(),
		Deadline:           o.Deadline,
		AccumulatedSeconds: s.DisplaySeconds(),
	}
	if h.Cache != nil {
		if err := h.Cache.Put(ctx, o); err != nil {
			h.Logger.Warnw("status cache update failed", "order_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, cached)
}

func (h *OrdersHandler) attemptTransition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := orders.Action(chi.URLParam(r, "action"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.Get(ctx, id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	applied, err := s.AttemptTransition(ctx, action)
	switch {
	case errors.Is(err, session.ErrRejected):
		writeJSON(w, http.StatusConflict, map[string]any{"applied": false, "error": "rejected"})
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, map[string]any{"applied": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"order":   h.orderView(s.Order(), s),
	})
}

type ExtendDeadlineReq struct {
	Deadline string `json:"deadline"` // picked local date-time, RFC3339 with offset
}

func (h *OrdersHandler) extendDeadline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ExtendDeadlineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	picked, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid deadline"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.Get(ctx, id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	applied, err := s.AttemptExtendDeadline(ctx, picked)
	switch {
	case errors.Is(err, session.ErrDeadlineNotSelectable):
		writeJSON(w, http.StatusBadRequest, map[string]any{"applied": false, "error": err.Error()})
		return
	case errors.Is(err, session.ErrRejected):
		writeJSON(w, http.StatusConflict, map[string]any{"applied": false, "error": "rejected"})
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, map[string]any{"applied": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"order":   h.orderView(s.Order(), s),
	})
}

func (h *OrdersHandler) dropSession(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Drop(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

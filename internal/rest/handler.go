// Package rest exposes the order lifecycle and account operations over JSON/HTTP.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"bookheaven-be/internal/apperr"
	"bookheaven-be/internal/metrics"
	"bookheaven-be/internal/order"
	"bookheaven-be/internal/user"

	"github.com/google/uuid"
)

var (
	errInvalidID   = apperr.New(apperr.InvalidInput, "Invalid order id")
	errInvalidBody = apperr.New(apperr.InvalidInput, "Invalid request body")
)

type Handler struct {
	orders   order.Service
	users    user.Service
	metrics  *metrics.OrderMetrics
	tokenTTL time.Duration
}

func NewHandler(orders order.Service, users user.Service, m *metrics.OrderMetrics, tokenTTL time.Duration) *Handler {
	return &Handler{orders: orders, users: users, metrics: m, tokenTTL: tokenTTL}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /metrics", h.handleMetrics)

	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("GET /api/users/me/library", h.handleGetLibrary)

	mux.HandleFunc("POST /api/orders", h.handlePlaceOrder)
	mux.HandleFunc("GET /api/orders", h.handleListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.handleGetOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/cancel", h.handleCancelOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("PATCH /api/orders/{id}/payment", h.handleUpdatePayment)
	mux.HandleFunc("DELETE /api/orders/{id}", h.handleDeleteOrder)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "OK"})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "", envelope{"metrics": h.metrics.Snapshot()})
}

func orderID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.InvalidInput, errInvalidBody.Message, err)
	}
	return nil
}

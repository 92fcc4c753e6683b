package rest

import (
	"net/http"

	"bookheaven-be/internal/order"
)

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in order.PlaceOrderInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusCreated, "Order placed successfully. Please complete payment.", envelope{"order": o})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, "", envelope{"orders": orders})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, "", envelope{"order": o})
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.CancelOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, "Order canceled successfully", envelope{"order": o})
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, "Order status updated successfully", envelope{"order": o})
}

type paymentRequest struct {
	Payment order.PaymentStatus `json:"payment"`
}

func (h *Handler) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.UpdatePayment(r.Context(), id, req.Payment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, "Payment status updated", envelope{"order": o})
}

func (h *Handler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, "Order deleted successfully", nil)
}

package handlers

import (
	"net/http"

	"procurement/internal/procurement"

	"github.com/go-chi/chi/v5"
)

// CreatePurchaseOrderHandler создает заказ из подтвержденной котировки
func (h *Handler) CreatePurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req procurement.CreatePurchaseOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	po, err := h.svc.CreatePurchaseOrder(r.Context(), actor, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, po)
}

// ListPurchaseOrdersHandler: фильтр по status из query
func (h *Handler) ListPurchaseOrdersHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.ListPurchaseOrders(r.Context(), actor, chi.URLParam(r, "orgId"), r.URL.Query().Get("status"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetPurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	po, err := h.svc.GetPurchaseOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (h *Handler) SendPurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	po, err := h.svc.SendPurchaseOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (h *Handler) DeletePurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePurchaseOrder(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"procurement/internal/procurement"

	"github.com/go-chi/chi/v5"
)

type statusRequest struct {
	Status string `json:"status"`
}

// CreateSupplierHandler обрабатывает POST /api/suppliers
func (h *Handler) CreateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req procurement.CreateSupplierRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	supplier, err := h.svc.CreateSupplier(r.Context(), actor, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, supplier)
}

// ListSuppliersHandler обрабатывает GET /api/suppliers/org/{orgId}
func (h *Handler) ListSuppliersHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	suppliers, err := h.svc.ListSuppliers(r.Context(), actor, chi.URLParam(r, "orgId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

// UpdateSupplierStatusHandler обрабатывает PUT /api/suppliers/{id}/status
func (h *Handler) UpdateSupplierStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	supplier, err := h.svc.UpdateSupplierStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier)
}

// DeleteSupplierHandler обрабатывает DELETE /api/suppliers/{id}
func (h *Handler) DeleteSupplierHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSupplier(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"context"
	"net/http"

	"procurement/internal/procurement"
	"procurement/models"

	"github.com/go-chi/chi/v5"
)

// CreateRFQHandler обрабатывает POST /api/rfq
func (h *Handler) CreateRFQHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req procurement.CreateRFQRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	rfq, err := h.svc.CreateRFQ(r.Context(), actor, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rfq)
}

// ListRFQsHandler возвращает RFQ организации, новые первыми
func (h *Handler) ListRFQsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	params := parsePaginationParams(r)
	rfqs, err := h.svc.ListRFQs(r.Context(), actor, chi.URLParam(r, "orgId"), params.Limit, params.Offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfqs)
}

// GetRFQHandler возвращает RFQ с позициями, поставщиками и котировками
func (h *Handler) GetRFQHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	rfq, err := h.svc.GetRFQ(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfq)
}

func (h *Handler) SendRFQHandler(w http.ResponseWriter, r *http.Request) {
	h.changeRFQ(w, r, h.svc.SendRFQ)
}

func (h *Handler) CloseRFQHandler(w http.ResponseWriter, r *http.Request) {
	h.changeRFQ(w, r, h.svc.CloseRFQ)
}

type rfqAction func(ctx context.Context, actor models.Actor, id string) (*models.RFQ, error)

func (h *Handler) changeRFQ(w http.ResponseWriter, r *http.Request, action rfqAction) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	rfq, err := action(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfq)
}

// DeleteRFQHandler удаляет черновик
func (h *Handler) DeleteRFQHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteRFQ(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordQuoteHandler обрабатывает POST /api/rfq/{id}/quote
func (h *Handler) RecordQuoteHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req procurement.RecordQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	quote, err := h.svc.RecordQuote(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quote)
}

// UpdateQuoteStatusHandler обрабатывает POST /api/rfq/quote/{quoteId}/status
func (h *Handler) UpdateQuoteStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	quote, err := h.svc.UpdateQuoteStatus(r.Context(), actor, chi.URLParam(r, "quoteId"), req.Status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

package handlers

import (
	"net/http"

	"procurement/internal/procurement"

	"github.com/go-chi/chi/v5"
)

// ListPendingApprovalsHandler обрабатывает GET /api/approvals/pending/{orgId}
func (h *Handler) ListPendingApprovalsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	pending, err := h.svc.ListPendingApprovals(r.Context(), actor, chi.URLParam(r, "orgId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *Handler) CountPendingApprovalsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	count, err := h.svc.CountPendingApprovals(r.Context(), actor, chi.URLParam(r, "orgId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

func (h *Handler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, procurement.DecisionApprove)
}

func (h *Handler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, procurement.DecisionReject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision procurement.Decision) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	po, err := h.svc.Decide(r.Context(), actor, chi.URLParam(r, "id"), decision)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (h *Handler) ListApprovalRulesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	rules, err := h.svc.ListApprovalRules(r.Context(), actor, chi.URLParam(r, "orgId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// CreateApprovalRuleHandler: только владелец и администратор
func (h *Handler) CreateApprovalRuleHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req procurement.CreateApprovalRuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	rule, err := h.svc.CreateApprovalRule(r.Context(), actor, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *Handler) DeleteApprovalRuleHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteApprovalRule(r.Context(), actor, chi.URLParam(r, "ruleId")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

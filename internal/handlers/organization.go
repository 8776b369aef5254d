package handlers

import (
	"net/http"
	"strconv"

	"procurement/internal/apperr"
	"procurement/internal/auth"
	"procurement/internal/procurement"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListMembersHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	members, err := h.svc.ListMembers(r.Context(), actor)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// CreateInvitationHandler обрабатывает POST /api/organization/invitations
func (h *Handler) CreateInvitationHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req procurement.CreateInvitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	inv, err := h.svc.CreateInvitation(r.Context(), actor, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// VerifyInvitationHandler доступен без членства в организации
func (h *Handler) VerifyInvitationHandler(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.VerifyInvitation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// AcceptInvitationHandler: email из токена должен совпасть с приглашением
func (h *Handler) AcceptInvitationHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := auth.IdentityFrom(r.Context())
	if !ok {
		WriteError(w, r, apperr.New(apperr.KindUnauthorized, "missing caller identity"))
		return
	}
	member, err := h.svc.AcceptInvitation(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// ListNotificationsHandler: уведомления вызывающего, новые первыми
func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	limit := 0
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	notifications, err := h.svc.ListNotifications(r.Context(), actor, limit)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	n, err := h.svc.MarkNotificationRead(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

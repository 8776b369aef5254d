package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"procurement/internal/apperr"
	"procurement/internal/auth"
	"procurement/models"

	"github.com/rs/zerolog/hlog"
)

// Ограничение размера тела запроса
const maxBodySize = 1 << 20

// Handler оборачивает сервис закупок
type Handler struct {
	svc Service
}

// NewHandler создает новый Handler
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type errorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError отдает ошибку в формате {"message","kind"}; детали внутренних ошибок только в лог
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Message: apperr.PublicMessage(err), Kind: string(apperr.KindOf(err))})
}

// decodeJSON читает тело в dst; ошибки разбора: ValidationError
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, models.ErrInvalidAmount) {
			return apperr.Validation("amount", "must be a non-negative decimal with at most two fractional digits")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("body", "request body too large")
		}
		return apperr.Validation("body", "invalid JSON format")
	}
	return nil
}

// actorFrom достает участника, положенного auth.RequireMember
func actorFrom(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		WriteError(w, r, apperr.New(apperr.KindUnauthorized, "missing caller identity"))
	}
	return actor, ok
}

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 20 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

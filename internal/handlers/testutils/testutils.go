package testutils

import (
	"context"
	"net/http"

	"procurement/internal/auth"
	"procurement/models"

	"github.com/go-chi/chi/v5"
)

// WithChiURLParams подставляет параметры пути в контекст chi запроса для тестов.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

// WithActor кладет участника в контекст так же, как auth.RequireMember.
func WithActor(req *http.Request, actor models.Actor) *http.Request {
	ctx := auth.WithIdentity(req.Context(), models.Identity{UserID: actor.UserID, OrgID: actor.OrgID, Email: actor.Email})
	return req.WithContext(auth.WithActor(ctx, actor))
}

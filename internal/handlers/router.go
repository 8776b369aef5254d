package handlers

import (
	"net/http"
	"time"

	"procurement/internal/auth"
	"procurement/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type RouterConfig struct {
	Log            zerolog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
}

// NewRouter собирает все маршруты /api
func NewRouter(h *Handler, authn *auth.Authenticator, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(cfg.Log))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cfg.Metrics.Middleware)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)

			// приглашенный еще не состоит в организации
			r.Get("/organization/verify-invitation/{id}", h.VerifyInvitationHandler)
			r.Post("/organization/invitations/{id}/accept", h.AcceptInvitationHandler)

			r.Group(func(r chi.Router) {
				r.Use(authn.RequireMember)

				// поставщики
				r.Post("/suppliers", h.CreateSupplierHandler)
				r.Get("/suppliers/org/{orgId}", h.ListSuppliersHandler)
				r.Put("/suppliers/{id}/status", h.UpdateSupplierStatusHandler)
				r.Delete("/suppliers/{id}", h.DeleteSupplierHandler)

				// запросы котировок и котировки
				r.Post("/rfq", h.CreateRFQHandler)
				r.Get("/rfq/org/{orgId}", h.ListRFQsHandler)
				r.Get("/rfq/{id}", h.GetRFQHandler)
				r.Post("/rfq/{id}/send", h.SendRFQHandler)
				r.Post("/rfq/{id}/close", h.CloseRFQHandler)
				r.Delete("/rfq/{id}", h.DeleteRFQHandler)
				r.Post("/rfq/{id}/quote", h.RecordQuoteHandler)
				r.Post("/rfq/quote/{quoteId}/status", h.UpdateQuoteStatusHandler)

				// заказы
				r.Post("/purchase-orders", h.CreatePurchaseOrderHandler)
				r.Get("/purchase-orders/org/{orgId}", h.ListPurchaseOrdersHandler)
				r.Get("/purchase-orders/{id}", h.GetPurchaseOrderHandler)
				r.Post("/purchase-orders/{id}/send", h.SendPurchaseOrderHandler)
				r.Delete("/purchase-orders/{id}", h.DeletePurchaseOrderHandler)

				// согласования
				r.Get("/approvals/pending/{orgId}", h.ListPendingApprovalsHandler)
				r.Get("/approvals/pending/{orgId}/count", h.CountPendingApprovalsHandler)
				r.Post("/approvals/{id}/approve", h.ApproveHandler)
				r.Post("/approvals/{id}/reject", h.RejectHandler)
				r.Get("/approvals/rules/{orgId}", h.ListApprovalRulesHandler)
				r.Post("/approvals/rules", h.CreateApprovalRuleHandler)
				r.Delete("/approvals/rules/{ruleId}", h.DeleteApprovalRuleHandler)

				// организация
				r.Get("/organization/members", h.ListMembersHandler)
				r.Post("/organization/invitations", h.CreateInvitationHandler)
				r.Get("/organization/notifications", h.ListNotificationsHandler)
				r.Post("/organization/notifications/{id}/read", h.MarkNotificationReadHandler)
			})
		})
	})
	return r
}

// requestIDLogger добавляет id запроса chi в логгер запроса и в ответ
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

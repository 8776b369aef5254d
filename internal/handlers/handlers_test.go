package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"procurement/internal/apperr"
	"procurement/internal/auth"
	"procurement/internal/handlers"
	"procurement/internal/handlers/testutils"
	"procurement/internal/metrics"
	"procurement/internal/procurement"
	"procurement/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// MockService реализует handlers.Service; не заданные методы паникуют
type MockService struct {
	handlers.Service

	CreateRFQFunc           func(ctx context.Context, actor models.Actor, req procurement.CreateRFQRequest) (*models.RFQ, error)
	ListRFQsFunc            func(ctx context.Context, actor models.Actor, orgID string, limit, offset int) ([]models.RFQ, error)
	CloseRFQFunc            func(ctx context.Context, actor models.Actor, id string) (*models.RFQ, error)
	RecordQuoteFunc         func(ctx context.Context, actor models.Actor, rfqID string, req procurement.RecordQuoteRequest) (*models.Quote, error)
	CreatePurchaseOrderFunc func(ctx context.Context, actor models.Actor, req procurement.CreatePurchaseOrderRequest) (*models.PurchaseOrder, error)
	DecideFunc              func(ctx context.Context, actor models.Actor, requestID string, decision procurement.Decision) (*models.PurchaseOrder, error)
	CountPendingFunc        func(ctx context.Context, actor models.Actor, orgID string) (procurement.CountResponse, error)
	DeleteSupplierFunc      func(ctx context.Context, actor models.Actor, id string) error
	AcceptInvitationFunc    func(ctx context.Context, who models.Identity, id string) (*models.Member, error)
	ListSuppliersFunc       func(ctx context.Context, actor models.Actor, orgID string) ([]models.Supplier, error)
}

func (m *MockService) CreateRFQ(ctx context.Context, actor models.Actor, req procurement.CreateRFQRequest) (*models.RFQ, error) {
	return m.CreateRFQFunc(ctx, actor, req)
}

func (m *MockService) ListRFQs(ctx context.Context, actor models.Actor, orgID string, limit, offset int) ([]models.RFQ, error) {
	return m.ListRFQsFunc(ctx, actor, orgID, limit, offset)
}

func (m *MockService) CloseRFQ(ctx context.Context, actor models.Actor, id string) (*models.RFQ, error) {
	return m.CloseRFQFunc(ctx, actor, id)
}

func (m *MockService) RecordQuote(ctx context.Context, actor models.Actor, rfqID string, req procurement.RecordQuoteRequest) (*models.Quote, error) {
	return m.RecordQuoteFunc(ctx, actor, rfqID, req)
}

func (m *MockService) CreatePurchaseOrder(ctx context.Context, actor models.Actor, req procurement.CreatePurchaseOrderRequest) (*models.PurchaseOrder, error) {
	return m.CreatePurchaseOrderFunc(ctx, actor, req)
}

func (m *MockService) Decide(ctx context.Context, actor models.Actor, requestID string, decision procurement.Decision) (*models.PurchaseOrder, error) {
	return m.DecideFunc(ctx, actor, requestID, decision)
}

func (m *MockService) CountPendingApprovals(ctx context.Context, actor models.Actor, orgID string) (procurement.CountResponse, error) {
	return m.CountPendingFunc(ctx, actor, orgID)
}

func (m *MockService) DeleteSupplier(ctx context.Context, actor models.Actor, id string) error {
	return m.DeleteSupplierFunc(ctx, actor, id)
}

func (m *MockService) AcceptInvitation(ctx context.Context, who models.Identity, id string) (*models.Member, error) {
	return m.AcceptInvitationFunc(ctx, who, id)
}

func (m *MockService) ListSuppliers(ctx context.Context, actor models.Actor, orgID string) ([]models.Supplier, error) {
	return m.ListSuppliersFunc(ctx, actor, orgID)
}

var buyer = models.Actor{UserID: "u-buyer", OrgID: "org-1", Role: models.RoleProcurement, Email: "buyer@acme.test"}

func decodeError(t *testing.T, body io.Reader) map[string]string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestPingHandler(t *testing.T) {
	handler := handlers.NewHandler(&MockService{})

	req := httptest.NewRequest("GET", "/api/ping", nil)
	w := httptest.NewRecorder()

	handler.PingHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestCreateRFQHandler(t *testing.T) {
	var got procurement.CreateRFQRequest
	mock := &MockService{
		CreateRFQFunc: func(ctx context.Context, actor models.Actor, req procurement.CreateRFQRequest) (*models.RFQ, error) {
			require.Equal(t, buyer, actor)
			got = req
			return &models.RFQ{ID: "rfq-1", Title: req.Title, Status: models.RFQDraft}, nil
		},
	}
	handler := handlers.NewHandler(mock)

	body := `{"title":"Paper","dueDate":"2026-11-01","items":[{"name":"A4","quantity":10}],"supplierIds":["s1"]}`
	req := testutils.WithActor(httptest.NewRequest("POST", "/api/rfq", strings.NewReader(body)), buyer)
	w := httptest.NewRecorder()

	handler.CreateRFQHandler(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "Paper", got.Title)
	require.Equal(t, []string{"s1"}, got.SupplierIDs)
	require.Contains(t, w.Body.String(), `"status":"DRAFT"`)
}

func TestCreateRFQHandlerInvalidJSON(t *testing.T) {
	handler := handlers.NewHandler(&MockService{})

	req := testutils.WithActor(httptest.NewRequest("POST", "/api/rfq", strings.NewReader("{")), buyer)
	w := httptest.NewRecorder()

	handler.CreateRFQHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, string(apperr.KindValidation), decodeError(t, w.Body)["kind"])
}

func TestHandlerWithoutActor(t *testing.T) {
	handler := handlers.NewHandler(&MockService{})

	req := httptest.NewRequest("POST", "/api/rfq", strings.NewReader("{}"))
	w := httptest.NewRecorder()

	handler.CreateRFQHandler(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListRFQsHandlerPagination(t *testing.T) {
	cases := []struct {
		query          string
		limit, offset int
	}{
		{"", 20, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=1000&offset=-1", 20, 0},
		{"?limit=abc", 20, 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			mock := &MockService{
				ListRFQsFunc: func(ctx context.Context, actor models.Actor, orgID string, limit, offset int) ([]models.RFQ, error) {
					require.Equal(t, "org-1", orgID)
					require.Equal(t, tc.limit, limit)
					require.Equal(t, tc.offset, offset)
					return []models.RFQ{}, nil
				},
			}
			handler := handlers.NewHandler(mock)

			req := httptest.NewRequest("GET", "/api/rfq/org/org-1"+tc.query, nil)
			req = testutils.WithChiURLParams(testutils.WithActor(req, buyer), map[string]string{"orgId": "org-1"})
			w := httptest.NewRecorder()

			handler.ListRFQsHandler(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.JSONEq(t, "[]", w.Body.String())
		})
	}
}

func TestCloseRFQHandlerInvalidTransition(t *testing.T) {
	mock := &MockService{
		CloseRFQFunc: func(ctx context.Context, actor models.Actor, id string) (*models.RFQ, error) {
			require.Equal(t, "rfq-1", id)
			return nil, apperr.InvalidTransition("rfq", "DRAFT", "close")
		},
	}
	handler := handlers.NewHandler(mock)

	req := httptest.NewRequest("POST", "/api/rfq/rfq-1/close", nil)
	req = testutils.WithChiURLParams(testutils.WithActor(req, buyer), map[string]string{"id": "rfq-1"})
	w := httptest.NewRecorder()

	handler.CloseRFQHandler(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeError(t, w.Body)
	require.Equal(t, "InvalidTransition", resp["kind"])
	require.Equal(t, "rfq in status DRAFT cannot close", resp["message"])
}

func TestRecordQuoteHandlerAmount(t *testing.T) {
	mock := &MockService{
		RecordQuoteFunc: func(ctx context.Context, actor models.Actor, rfqID string, req procurement.RecordQuoteRequest) (*models.Quote, error) {
			return &models.Quote{ID: "q1", RFQID: rfqID, TotalAmount: req.TotalAmount, Currency: "USD", Status: models.QuoteReceived}, nil
		},
	}
	handler := handlers.NewHandler(mock)

	req := httptest.NewRequest("POST", "/api/rfq/rfq-1/quote", strings.NewReader(`{"supplierId":"s1","totalAmount":"1500.5"}`))
	req = testutils.WithChiURLParams(testutils.WithActor(req, buyer), map[string]string{"id": "rfq-1"})
	w := httptest.NewRecorder()

	handler.RecordQuoteHandler(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"totalAmount":1500.50`)

	req = httptest.NewRequest("POST", "/api/rfq/rfq-1/quote", strings.NewReader(`{"supplierId":"s1","totalAmount":"1500.555"}`))
	req = testutils.WithChiURLParams(testutils.WithActor(req, buyer), map[string]string{"id": "rfq-1"})
	w = httptest.NewRecorder()

	handler.RecordQuoteHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePurchaseOrderHandlerConflict(t *testing.T) {
	mock := &MockService{
		CreatePurchaseOrderFunc: func(ctx context.Context, actor models.Actor, req procurement.CreatePurchaseOrderRequest) (*models.PurchaseOrder, error) {
			require.Equal(t, "q1", req.QuoteID)
			return nil, apperr.Conflict("quote already has a purchase order")
		},
	}
	handler := handlers.NewHandler(mock)

	req := testutils.WithActor(httptest.NewRequest("POST", "/api/purchase-orders", strings.NewReader(`{"quoteId":"q1"}`)), buyer)
	w := httptest.NewRecorder()

	handler.CreatePurchaseOrderHandler(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "Conflict", decodeError(t, w.Body)["kind"])
}

func TestDecideHandlers(t *testing.T) {
	var decisions []procurement.Decision
	mock := &MockService{
		DecideFunc: func(ctx context.Context, actor models.Actor, requestID string, decision procurement.Decision) (*models.PurchaseOrder, error) {
			require.Equal(t, "ar-1", requestID)
			decisions = append(decisions, decision)
			if decision == procurement.DecisionReject {
				return nil, apperr.Forbidden("role procurement cannot decide")
			}
			return &models.PurchaseOrder{ID: "po-1", Status: models.POApproved}, nil
		},
	}
	handler := handlers.NewHandler(mock)

	req := httptest.NewRequest("POST", "/api/approvals/ar-1/approve", nil)
	req = testutils.WithChiURLParams(testutils.WithActor(req, buyer), map[string]string{"id": "ar-1"})
	w := httptest.NewRecorder()
	handler.ApproveHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"APPROVED"`)

	req = httptest.NewRequest("POST", "/api/approvals/ar-1/reject", nil)
	req = testutils.WithChiURLParams(testutils.WithActor(req, buyer), map[string]string{"id": "ar-1"})
	w = httptest.NewRecorder()
	handler.RejectHandler(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	require.Equal(t, []procurement.Decision{procurement.DecisionApprove, procurement.DecisionReject}, decisions)
}

func TestDeleteSupplierHandler(t *testing.T) {
	mock := &MockService{
		DeleteSupplierFunc: func(ctx context.Context, actor models.Actor, id string) error {
			if id == "used" {
				return apperr.Conflict("supplier %s is referenced by rfqs or purchase orders", id)
			}
			return nil
		},
	}
	handler := handlers.NewHandler(mock)

	for id, status := range map[string]int{"s1": http.StatusNoContent, "used": http.StatusConflict} {
		req := httptest.NewRequest("DELETE", "/api/suppliers/"+id, nil)
		req = testutils.WithChiURLParams(testutils.WithActor(req, buyer), map[string]string{"id": id})
		w := httptest.NewRecorder()
		handler.DeleteSupplierHandler(w, req)
		require.Equal(t, status, w.Code, id)
	}
}

func TestInternalErrorIsHidden(t *testing.T) {
	mock := &MockService{
		CountPendingFunc: func(ctx context.Context, actor models.Actor, orgID string) (procurement.CountResponse, error) {
			return procurement.CountResponse{}, io.ErrUnexpectedEOF
		},
	}
	handler := handlers.NewHandler(mock)

	req := httptest.NewRequest("GET", "/api/approvals/pending/org-1/count", nil)
	req = testutils.WithChiURLParams(testutils.WithActor(req, buyer), map[string]string{"orgId": "org-1"})
	w := httptest.NewRecorder()

	handler.CountPendingApprovalsHandler(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w.Body)
	require.Equal(t, "internal error", resp["message"])
	require.Equal(t, "Internal", resp["kind"])
}

// участники для роутера
type memberDirectory map[string]models.Member

func (d memberDirectory) GetMember(ctx context.Context, orgID, userID string) (*models.Member, error) {
	m, ok := d[orgID+"/"+userID]
	if !ok {
		return nil, apperr.NotFound("member", userID)
	}
	return &m, nil
}

func TestRouter(t *testing.T) {
	const key = "router-key"
	mock := &MockService{
		ListSuppliersFunc: func(ctx context.Context, actor models.Actor, orgID string) ([]models.Supplier, error) {
			require.Equal(t, models.RoleProcurement, actor.Role)
			return []models.Supplier{{ID: "s1", Name: "Globex"}}, nil
		},
		AcceptInvitationFunc: func(ctx context.Context, who models.Identity, id string) (*models.Member, error) {
			return &models.Member{UserID: who.UserID, OrganizationID: "org-1", Role: models.RoleApprover, Email: who.Email}, nil
		},
		CountPendingFunc: func(ctx context.Context, actor models.Actor, orgID string) (procurement.CountResponse, error) {
			return procurement.CountResponse{Count: 3}, nil
		},
	}
	reg := prometheus.NewRegistry()
	authn := auth.NewAuthenticator(key, memberDirectory{
		"org-1/u-buyer": {UserID: "u-buyer", OrganizationID: "org-1", Role: models.RoleProcurement},
	}, handlers.WriteError)
	router := handlers.NewRouter(handlers.NewHandler(mock), authn, handlers.RouterConfig{
		Log:            zerolog.Nop(),
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: time.Second,
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	token := func(userID string) string {
		tok, err := auth.IssueToken(key, models.Identity{UserID: userID, OrgID: "org-1", Email: userID + "@acme.test"}, time.Hour)
		require.NoError(t, err)
		return tok
	}
	do := func(method, path, tok string) *http.Response {
		req, err := http.NewRequest(method, srv.URL+path, nil)
		require.NoError(t, err)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := do("GET", "/api/ping", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	require.Equal(t, http.StatusUnauthorized, do("GET", "/api/suppliers/org/org-1", "").StatusCode)
	require.Equal(t, http.StatusOK, do("GET", "/api/suppliers/org/org-1", token("u-buyer")).StatusCode)

	// не участник: 403 на защищенных маршрутах, но принять приглашение может
	require.Equal(t, http.StatusForbidden, do("GET", "/api/suppliers/org/org-1", token("u-new")).StatusCode)
	require.Equal(t, http.StatusOK, do("POST", "/api/organization/invitations/inv-1/accept", token("u-new")).StatusCode)

	resp = do("GET", "/api/approvals/pending/org-1/count", token("u-buyer"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"count":3}`, string(body))

	resp = do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `route="/api/suppliers/org/{orgId}"`)
}

package db

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"procurement/db/migrations"
	"procurement/internal/apperr"
	"procurement/internal/procurement"
	"procurement/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMapErr(t *testing.T) {
	require.NoError(t, mapErr(nil, "rfq", "1"))

	err := mapErr(sql.ErrNoRows, "rfq", "1")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
	require.Equal(t, "rfq 1 not found", err.Error())

	err = mapErr(&pq.Error{Code: codeUniqueViolation, Constraint: "purchase_orders_quote_id_key"}, "purchase order", "p1")
	require.True(t, apperr.Is(err, apperr.KindConflict))
	require.Equal(t, "quote already has a purchase order", apperr.PublicMessage(err))

	err = mapErr(&pq.Error{Code: codeUniqueViolation, Constraint: "other"}, "supplier", "s1")
	require.Equal(t, "supplier already exists", apperr.PublicMessage(err))

	err = mapErr(&pq.Error{Code: codeForeignKeyViolation}, "rfq", "r1")
	require.True(t, apperr.Is(err, apperr.KindConflict))

	err = mapErr(&pq.Error{Code: codeInvalidText}, "rfq", "not-a-uuid")
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	err = mapErr(errors.New("connection refused"), "rfq", "1")
	require.True(t, apperr.Is(err, apperr.KindInternal))
	require.Contains(t, err.Error(), "connection refused")
}

type fakeResult struct{ n int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.n, nil }

func TestExpectAffected(t *testing.T) {
	require.NoError(t, expectAffected(fakeResult{1}, nil, "quote", "q1"))
	require.True(t, apperr.Is(expectAffected(fakeResult{0}, nil, "quote", "q1"), apperr.KindNotFound))
	require.True(t, apperr.Is(expectAffected(nil, sql.ErrNoRows, "quote", "q1"), apperr.KindNotFound))
}

// Интеграционный тест: POSTGRES_TEST_CONN указывает на пустую базу
func TestStorageAgainstPostgres(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_CONN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_CONN is not set")
	}
	ctx := context.Background()
	conn, err := Connect(ctx, dsn, PoolOptions{MaxOpenConns: 4})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, migrations.Up(conn.DB, zerolog.Nop()))

	s := NewStorage(conn)
	now := time.Now().UTC().Truncate(time.Microsecond)
	orgID := "org-" + uuid.NewString()

	require.NoError(t, s.UpsertOrganization(ctx, &models.Organization{ID: orgID, Name: "Acme", CreatedAt: now}))
	supplier := &models.Supplier{ID: uuid.NewString(), OrganizationID: orgID, Name: "Globex", Email: "g@x.test", Status: models.SupplierActive, CreatedAt: now}
	require.NoError(t, s.CreateSupplier(ctx, supplier))

	rfq := &models.RFQ{
		ID: uuid.NewString(), OrganizationID: orgID, Title: "Paper", DueDate: now, Currency: "USD",
		Status: models.RFQSent, CreatedBy: "u1", CreatedAt: now, UpdatedAt: now,
		Items:       []models.RFQItem{{Position: 0, Name: "A4", Quantity: 10, Unit: "BOX"}},
		SupplierIDs: []string{supplier.ID},
	}
	require.NoError(t, s.CreateRFQ(ctx, rfq))

	got, err := s.GetRFQ(ctx, rfq.ID)
	require.NoError(t, err)
	require.Equal(t, []string{supplier.ID}, got.SupplierIDs)
	require.Len(t, got.Items, 1)

	quote := &models.Quote{ID: uuid.NewString(), RFQID: rfq.ID, SupplierID: supplier.ID, TotalAmount: 150000, Currency: "USD", Status: models.QuoteConfirmed, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateQuote(ctx, quote))

	po := &models.PurchaseOrder{
		ID: uuid.NewString(), BuyerOrgID: orgID, SupplierID: supplier.ID, QuoteID: quote.ID, RFQID: rfq.ID,
		TotalAmount: quote.TotalAmount, Currency: "USD", Status: models.POPendingApproval, CreatedBy: "u1", CreatedAt: now, UpdatedAt: now,
	}
	err = s.WithinTx(ctx, func(ctx context.Context, tx procurement.Repository) error {
		if err := tx.CreatePurchaseOrder(ctx, po); err != nil {
			return err
		}
		return tx.CreateApprovalRequest(ctx, &models.ApprovalRequest{
			ID: uuid.NewString(), OrganizationID: orgID, EntityType: models.EntityPurchaseOrder, EntityID: po.ID,
			RequiredRoles: models.NewRoleSet(models.RoleApprover), Status: models.ApprovalPending, CreatedAt: now,
		})
	})
	require.NoError(t, err)

	dup := *po
	dup.ID = uuid.NewString()
	require.True(t, apperr.Is(s.CreatePurchaseOrder(ctx, &dup), apperr.KindConflict))

	pending, err := s.ListPendingApprovals(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "Globex", pending[0].PurchaseOrder.Supplier.Name)
	require.Equal(t, models.RoleSet{models.RoleApprover}, pending[0].RequiredRoles)

	_, err = s.GetPurchaseOrder(ctx, "not-a-uuid")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

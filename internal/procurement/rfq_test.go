package procurement_test

import (
	"context"
	"testing"
	"time"

	"procurement/internal/apperr"
	"procurement/internal/procurement"
	"procurement/models"

	"github.com/stretchr/testify/require"
)

func TestCreateRFQValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")

	cases := []struct {
		name string
		req  procurement.CreateRFQRequest
	}{
		{"no title", procurement.CreateRFQRequest{DueDate: "2024-03-10", Items: []models.RFQItem{{Name: "x", Quantity: 1}}, SupplierIDs: []string{s.ID}}},
		{"bad date", procurement.CreateRFQRequest{Title: "t", DueDate: "10/03/2024", Items: []models.RFQItem{{Name: "x", Quantity: 1}}, SupplierIDs: []string{s.ID}}},
		{"no items", procurement.CreateRFQRequest{Title: "t", DueDate: "2024-03-10", SupplierIDs: []string{s.ID}}},
		{"zero quantity", procurement.CreateRFQRequest{Title: "t", DueDate: "2024-03-10", Items: []models.RFQItem{{Name: "x"}}, SupplierIDs: []string{s.ID}}},
		{"no suppliers", procurement.CreateRFQRequest{Title: "t", DueDate: "2024-03-10", Items: []models.RFQItem{{Name: "x", Quantity: 1}}}},
		{"unknown supplier", procurement.CreateRFQRequest{Title: "t", DueDate: "2024-03-10", Items: []models.RFQItem{{Name: "x", Quantity: 1}}, SupplierIDs: []string{"nope"}}},
		{"bad currency", procurement.CreateRFQRequest{Title: "t", DueDate: "2024-03-10", Currency: "dollars", Items: []models.RFQItem{{Name: "x", Quantity: 1}}, SupplierIDs: []string{s.ID}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.svc.CreateRFQ(ctx, buyer, c.req)
			require.True(t, apperr.Is(err, apperr.KindValidation), err)
		})
	}
}

func TestCreateRFQDefaults(t *testing.T) {
	f := newFixture(t)
	s := f.supplier(t, "acme")

	rfq, err := f.svc.CreateRFQ(context.Background(), buyer, procurement.CreateRFQRequest{
		Title:       "  Chairs ",
		DueDate:     "2024-04-01T10:00:00Z",
		Items:       []models.RFQItem{{Name: "Chair", Quantity: 2.5}, {Name: "Desk", Quantity: 1, Unit: "SET"}},
		SupplierIDs: []string{s.ID, s.ID},
	})
	require.NoError(t, err)
	require.Equal(t, "Chairs", rfq.Title)
	require.Equal(t, "USD", rfq.Currency)
	require.Equal(t, models.RFQDraft, rfq.Status)
	require.Equal(t, "PCS", rfq.Items[0].Unit)
	require.Equal(t, "SET", rfq.Items[1].Unit)
	require.Equal(t, 1, rfq.Items[1].Position)
	require.Equal(t, []string{s.ID}, rfq.SupplierIDs)
}

func TestInactiveSupplierCannotBeInvited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")

	_, err := f.svc.UpdateSupplierStatus(ctx, buyer, s.ID, "inactive")
	require.NoError(t, err)

	_, err = f.svc.CreateRFQ(ctx, buyer, procurement.CreateRFQRequest{
		Title: "t", DueDate: "2024-03-10", Items: []models.RFQItem{{Name: "x", Quantity: 1}}, SupplierIDs: []string{s.ID},
	})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRFQLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")
	rfq := f.draftRFQ(t, s.ID)

	_, err := f.svc.CloseRFQ(ctx, buyer, rfq.ID)
	require.True(t, apperr.Is(err, apperr.KindInvalidTransition))

	_, err = f.svc.RecordQuote(ctx, buyer, rfq.ID, procurement.RecordQuoteRequest{SupplierID: s.ID, TotalAmount: 100})
	require.True(t, apperr.Is(err, apperr.KindInvalidTransition))

	sent, err := f.svc.SendRFQ(ctx, buyer, rfq.ID)
	require.NoError(t, err)
	require.Equal(t, models.RFQSent, sent.Status)

	require.True(t, apperr.Is(f.svc.DeleteRFQ(ctx, buyer, rfq.ID), apperr.KindInvalidTransition))

	closed, err := f.svc.CloseRFQ(ctx, buyer, rfq.ID)
	require.NoError(t, err)
	require.Equal(t, models.RFQClosed, closed.Status)

	_, err = f.svc.RecordQuote(ctx, buyer, rfq.ID, procurement.RecordQuoteRequest{SupplierID: s.ID, TotalAmount: 100})
	require.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestDeleteDraftRFQ(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")
	rfq := f.draftRFQ(t, s.ID)

	require.NoError(t, f.svc.DeleteRFQ(ctx, buyer, rfq.ID))
	_, err := f.svc.GetRFQ(ctx, buyer, rfq.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestQuoteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invited := f.supplier(t, "acme")
	other := f.supplier(t, "globex")
	rfq := f.draftRFQ(t, invited.ID)
	_, err := f.svc.SendRFQ(ctx, buyer, rfq.ID)
	require.NoError(t, err)

	_, err = f.svc.RecordQuote(ctx, buyer, rfq.ID, procurement.RecordQuoteRequest{SupplierID: other.ID, TotalAmount: 100})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.RecordQuote(ctx, buyer, rfq.ID, procurement.RecordQuoteRequest{SupplierID: invited.ID})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	q, err := f.svc.RecordQuote(ctx, buyer, rfq.ID, procurement.RecordQuoteRequest{SupplierID: invited.ID, TotalAmount: 12345, Currency: "eur"})
	require.NoError(t, err)
	require.Equal(t, "EUR", q.Currency)
	require.Equal(t, models.QuoteReceived, q.Status)

	_, err = f.svc.UpdateQuoteStatus(ctx, buyer, q.ID, "ACCEPTED")
	require.True(t, apperr.Is(err, apperr.KindInvalidTransition))

	confirmed, err := f.svc.UpdateQuoteStatus(ctx, buyer, q.ID, "confirmed")
	require.NoError(t, err)
	require.Equal(t, models.QuoteConfirmed, confirmed.Status)

	details, err := f.svc.GetRFQ(ctx, approver, rfq.ID)
	require.NoError(t, err)
	require.Len(t, details.Quotes, 1)
	require.Len(t, details.Suppliers, 1)
	require.Equal(t, "acme", details.Suppliers[0].Name)
}

func TestAcceptedQuoteCannotBeConfirmedAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.confirmedQuote(t, 100, "USD")
	_, err := f.svc.CreatePurchaseOrder(ctx, buyer, procurement.CreatePurchaseOrderRequest{QuoteID: q.ID})
	require.NoError(t, err)

	_, err = f.svc.UpdateQuoteStatus(ctx, buyer, q.ID, "CONFIRMED")
	require.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestOtherOrganizationSeesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")
	rfq := f.draftRFQ(t, s.ID)

	_, err := f.svc.GetRFQ(ctx, outsider, rfq.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.ListRFQs(ctx, outsider, orgID, 10, 0)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.SendRFQ(ctx, outsider, rfq.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestApproverCannotManageProcurement(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateSupplier(context.Background(), approver, procurement.CreateSupplierRequest{Name: "acme", Email: "a@b.test"})
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestListRFQsPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")
	for i := 0; i < 3; i++ {
		f.draftRFQ(t, s.ID)
		f.clock.Advance(time.Minute)
	}

	first, err := f.svc.ListRFQs(ctx, buyer, orgID, 2, 0)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	rest, err := f.svc.ListRFQs(ctx, buyer, orgID, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
}

func TestCloseOverdueRFQs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")

	overdue := f.draftRFQ(t, s.ID)
	_, err := f.svc.SendRFQ(ctx, buyer, overdue.ID)
	require.NoError(t, err)
	draft := f.draftRFQ(t, s.ID)

	n, err := f.svc.CloseOverdueRFQs(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	f.clock.Advance(30 * 24 * time.Hour)
	n, err = f.svc.CloseOverdueRFQs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := f.svc.GetRFQ(ctx, buyer, overdue.ID)
	require.NoError(t, err)
	require.Equal(t, models.RFQClosed, got.Status)

	got, err = f.svc.GetRFQ(ctx, buyer, draft.ID)
	require.NoError(t, err)
	require.Equal(t, models.RFQDraft, got.Status)
}

func TestRFQStaysOpenThroughItsDueDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")

	rfq := f.draftRFQ(t, s.ID) // срок 2024-03-15
	_, err := f.svc.SendRFQ(ctx, buyer, rfq.ID)
	require.NoError(t, err)

	for _, at := range []time.Time{
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC),
	} {
		f.clock.Set(at)
		n, err := f.svc.CloseOverdueRFQs(ctx)
		require.NoError(t, err)
		require.Zero(t, n, at)

		got, err := f.svc.GetRFQ(ctx, buyer, rfq.ID)
		require.NoError(t, err)
		require.Equal(t, models.RFQSent, got.Status, at)
	}

	f.clock.Set(time.Date(2024, 3, 16, 0, 0, 1, 0, time.UTC))
	n, err := f.svc.CloseOverdueRFQs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestTimestampDueDateIsExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "acme")

	rfq, err := f.svc.CreateRFQ(ctx, buyer, procurement.CreateRFQRequest{
		Title:       "Desks",
		DueDate:     "2024-03-15T10:00:00Z",
		Items:       []models.RFQItem{{Name: "Desk", Quantity: 1}},
		SupplierIDs: []string{s.ID},
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), rfq.DueDate.UTC())
	_, err = f.svc.SendRFQ(ctx, buyer, rfq.ID)
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 3, 15, 10, 0, 1, 0, time.UTC))
	n, err := f.svc.CloseOverdueRFQs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSupplierInUseCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	used := f.supplier(t, "acme")
	free := f.supplier(t, "globex")
	f.draftRFQ(t, used.ID)

	require.True(t, apperr.Is(f.svc.DeleteSupplier(ctx, buyer, used.ID), apperr.KindConflict))
	require.NoError(t, f.svc.DeleteSupplier(ctx, buyer, free.ID))

	list, err := f.svc.ListSuppliers(ctx, buyer, orgID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

package db

import (
	"context"
	"time"

	"procurement/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RFQ (Запрос котировок)

func (r *repo) CreateRFQ(ctx context.Context, rfq *models.RFQ) error {
	query := `
        INSERT INTO rfqs (id, organization_id, title, due_date, currency, notes, status, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.ExecContext(ctx, query,
		rfq.ID, rfq.OrganizationID, rfq.Title, rfq.DueDate, rfq.Currency, rfq.Notes,
		rfq.Status, rfq.CreatedBy, rfq.CreatedAt, rfq.UpdatedAt)
	if err != nil {
		return mapErr(err, "rfq", rfq.ID)
	}

	for _, it := range rfq.Items {
		query := `
            INSERT INTO rfq_items (rfq_id, position, name, description, quantity, unit)
            VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := r.q.ExecContext(ctx, query, rfq.ID, it.Position, it.Name, it.Description, it.Quantity, it.Unit); err != nil {
			return mapErr(err, "rfq item", rfq.ID)
		}
	}
	for _, sid := range rfq.SupplierIDs {
		query := `INSERT INTO rfq_suppliers (rfq_id, supplier_id) VALUES ($1, $2)`
		if _, err := r.q.ExecContext(ctx, query, rfq.ID, sid); err != nil {
			return mapErr(err, "rfq supplier", sid)
		}
	}
	return nil
}

func (r *repo) GetRFQ(ctx context.Context, id string) (*models.RFQ, error) {
	return r.getRFQ(ctx, `SELECT * FROM rfqs WHERE id = $1`, id)
}

func (r *repo) LockRFQ(ctx context.Context, id string) (*models.RFQ, error) {
	return r.getRFQ(ctx, `SELECT * FROM rfqs WHERE id = $1 FOR UPDATE`, id)
}

func (r *repo) getRFQ(ctx context.Context, query, id string) (*models.RFQ, error) {
	rfq := models.RFQ{}
	if err := sqlx.GetContext(ctx, r.q, &rfq, query, id); err != nil {
		return nil, mapErr(err, "rfq", id)
	}
	list := []models.RFQ{rfq}
	if err := r.loadRFQDetails(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *repo) ListRFQs(ctx context.Context, orgID string, limit, offset int) ([]models.RFQ, error) {
	query := `
        SELECT * FROM rfqs
        WHERE organization_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`
	rfqs := []models.RFQ{}
	if err := sqlx.SelectContext(ctx, r.q, &rfqs, query, orgID, limit, offset); err != nil {
		return nil, mapErr(err, "rfqs", orgID)
	}
	return rfqs, r.loadRFQDetails(ctx, rfqs)
}

func (r *repo) ListOverdueRFQs(ctx context.Context, before time.Time) ([]models.RFQ, error) {
	query := `SELECT * FROM rfqs WHERE status = $1 AND due_date < $2 ORDER BY due_date`
	rfqs := []models.RFQ{}
	if err := sqlx.SelectContext(ctx, r.q, &rfqs, query, models.RFQSent, before); err != nil {
		return nil, mapErr(err, "rfqs", "overdue")
	}
	return rfqs, nil
}

// loadRFQDetails подгружает позиции и поставщиков одним запросом на таблицу
func (r *repo) loadRFQDetails(ctx context.Context, rfqs []models.RFQ) error {
	if len(rfqs) == 0 {
		return nil
	}
	ids := make([]string, len(rfqs))
	index := make(map[string]int, len(rfqs))
	for i := range rfqs {
		ids[i] = rfqs[i].ID
		index[rfqs[i].ID] = i
		rfqs[i].Items = []models.RFQItem{}
		rfqs[i].SupplierIDs = []string{}
	}

	var items []struct {
		RFQID string `db:"rfq_id"`
		models.RFQItem
	}
	query := `SELECT * FROM rfq_items WHERE rfq_id = ANY($1) ORDER BY rfq_id, position`
	if err := sqlx.SelectContext(ctx, r.q, &items, query, pq.Array(ids)); err != nil {
		return mapErr(err, "rfq items", "")
	}
	for _, it := range items {
		i := index[it.RFQID]
		rfqs[i].Items = append(rfqs[i].Items, it.RFQItem)
	}

	var links []struct {
		RFQID      string `db:"rfq_id"`
		SupplierID string `db:"supplier_id"`
	}
	query = `SELECT rfq_id, supplier_id FROM rfq_suppliers WHERE rfq_id = ANY($1) ORDER BY rfq_id, supplier_id`
	if err := sqlx.SelectContext(ctx, r.q, &links, query, pq.Array(ids)); err != nil {
		return mapErr(err, "rfq suppliers", "")
	}
	for _, l := range links {
		i := index[l.RFQID]
		rfqs[i].SupplierIDs = append(rfqs[i].SupplierIDs, l.SupplierID)
	}
	return nil
}

func (r *repo) UpdateRFQStatus(ctx context.Context, id string, status models.RFQStatus, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE rfqs SET status = $1, updated_at = $2 WHERE id = $3`, status, at, id)
	return expectAffected(res, err, "rfq", id)
}

func (r *repo) DeleteRFQ(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM rfqs WHERE id = $1`, id)
	return expectAffected(res, err, "rfq", id)
}

// Quote (Котировка)

func (r *repo) CreateQuote(ctx context.Context, q *models.Quote) error {
	query := `
        INSERT INTO quotes (id, rfq_id, supplier_id, total_amount, currency, notes, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.ExecContext(ctx, query,
		q.ID, q.RFQID, q.SupplierID, q.TotalAmount, q.Currency, q.Notes, q.Status, q.CreatedAt, q.UpdatedAt)
	return mapErr(err, "quote", q.ID)
}

func (r *repo) GetQuote(ctx context.Context, id string) (*models.Quote, error) {
	return r.getQuote(ctx, `SELECT * FROM quotes WHERE id = $1`, id)
}

func (r *repo) LockQuote(ctx context.Context, id string) (*models.Quote, error) {
	return r.getQuote(ctx, `SELECT * FROM quotes WHERE id = $1 FOR UPDATE`, id)
}

func (r *repo) getQuote(ctx context.Context, query, id string) (*models.Quote, error) {
	q := &models.Quote{}
	if err := sqlx.GetContext(ctx, r.q, q, query, id); err != nil {
		return nil, mapErr(err, "quote", id)
	}
	return q, nil
}

func (r *repo) ListQuotes(ctx context.Context, rfqID string) ([]models.Quote, error) {
	quotes := []models.Quote{}
	query := `SELECT * FROM quotes WHERE rfq_id = $1 ORDER BY created_at, id`
	err := sqlx.SelectContext(ctx, r.q, &quotes, query, rfqID)
	return quotes, mapErr(err, "quotes", rfqID)
}

func (r *repo) UpdateQuoteStatus(ctx context.Context, id string, status models.QuoteStatus, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE quotes SET status = $1, updated_at = $2 WHERE id = $3`, status, at, id)
	return expectAffected(res, err, "quote", id)
}

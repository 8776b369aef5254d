package db

import (
	"context"
	"time"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

// PurchaseOrder (Заказ)

func (r *repo) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	query := `
        INSERT INTO purchase_orders
            (id, buyer_org_id, supplier_id, quote_id, rfq_id, total_amount, currency, notes, status, created_by, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.ExecContext(ctx, query,
		po.ID, po.BuyerOrgID, po.SupplierID, po.QuoteID, po.RFQID, po.TotalAmount, po.Currency,
		po.Notes, po.Status, po.CreatedBy, po.CreatedAt, po.UpdatedAt)
	return mapErr(err, "purchase order", po.ID)
}

func (r *repo) GetPurchaseOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	return r.getPurchaseOrder(ctx, `SELECT * FROM purchase_orders WHERE id = $1`, id)
}

func (r *repo) LockPurchaseOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	return r.getPurchaseOrder(ctx, `SELECT * FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *repo) getPurchaseOrder(ctx context.Context, query, id string) (*models.PurchaseOrder, error) {
	po := &models.PurchaseOrder{}
	if err := sqlx.GetContext(ctx, r.q, po, query, id); err != nil {
		return nil, mapErr(err, "purchase order", id)
	}
	return po, nil
}

func (r *repo) ListPurchaseOrders(ctx context.Context, orgID string, status models.POStatus) ([]models.PurchaseOrder, error) {
	query := `SELECT * FROM purchase_orders WHERE buyer_org_id = $1`
	args := []interface{}{orgID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	orders := []models.PurchaseOrder{}
	err := sqlx.SelectContext(ctx, r.q, &orders, query, args...)
	return orders, mapErr(err, "purchase orders", orgID)
}

func (r *repo) UpdatePurchaseOrderStatus(ctx context.Context, id string, status models.POStatus, at time.Time) error {
	query := `
        UPDATE purchase_orders
        SET status = $1,
            updated_at = $2,
            sent_at = CASE WHEN $1::text = 'SENT' THEN $2::timestamptz ELSE sent_at END
        WHERE id = $3`
	res, err := r.q.ExecContext(ctx, query, status, at, id)
	return expectAffected(res, err, "purchase order", id)
}

func (r *repo) DeletePurchaseOrder(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	return expectAffected(res, err, "purchase order", id)
}

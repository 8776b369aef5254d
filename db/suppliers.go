package db

import (
	"context"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

// Supplier (Поставщик)

func (r *repo) CreateSupplier(ctx context.Context, s *models.Supplier) error {
	query := `
        INSERT INTO suppliers (id, organization_id, name, email, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, s.ID, s.OrganizationID, s.Name, s.Email, s.Status, s.CreatedAt)
	return mapErr(err, "supplier", s.ID)
}

func (r *repo) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	s := &models.Supplier{}
	if err := sqlx.GetContext(ctx, r.q, s, `SELECT * FROM suppliers WHERE id = $1`, id); err != nil {
		return nil, mapErr(err, "supplier", id)
	}
	return s, nil
}

func (r *repo) ListSuppliers(ctx context.Context, orgID string) ([]models.Supplier, error) {
	suppliers := []models.Supplier{}
	query := `SELECT * FROM suppliers WHERE organization_id = $1 ORDER BY name`
	err := sqlx.SelectContext(ctx, r.q, &suppliers, query, orgID)
	return suppliers, mapErr(err, "suppliers", orgID)
}

func (r *repo) UpdateSupplierStatus(ctx context.Context, id string, status models.SupplierStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE suppliers SET status = $1 WHERE id = $2`, status, id)
	return expectAffected(res, err, "supplier", id)
}

func (r *repo) SupplierInUse(ctx context.Context, id string) (bool, error) {
	var inUse bool
	query := `
        SELECT EXISTS (SELECT 1 FROM rfq_suppliers WHERE supplier_id = $1)
            OR EXISTS (SELECT 1 FROM quotes WHERE supplier_id = $1)
            OR EXISTS (SELECT 1 FROM purchase_orders WHERE supplier_id = $1)`
	err := sqlx.GetContext(ctx, r.q, &inUse, query, id)
	return inUse, mapErr(err, "supplier", id)
}

func (r *repo) DeleteSupplier(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	return expectAffected(res, err, "supplier", id)
}

package db

import (
	"context"
	"time"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

// ApprovalRule (Правило согласования)

func (r *repo) CreateApprovalRule(ctx context.Context, rule *models.ApprovalRule) error {
	query := `
        INSERT INTO approval_rules (id, organization_id, min_amount, currency, role, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, rule.ID, rule.OrganizationID, rule.MinAmount, rule.Currency, rule.Role, rule.CreatedAt)
	return mapErr(err, "approval rule", rule.ID)
}

func (r *repo) GetApprovalRule(ctx context.Context, id string) (*models.ApprovalRule, error) {
	rule := &models.ApprovalRule{}
	if err := sqlx.GetContext(ctx, r.q, rule, `SELECT * FROM approval_rules WHERE id = $1`, id); err != nil {
		return nil, mapErr(err, "approval rule", id)
	}
	return rule, nil
}

func (r *repo) ListApprovalRules(ctx context.Context, orgID string) ([]models.ApprovalRule, error) {
	rules := []models.ApprovalRule{}
	query := `SELECT * FROM approval_rules WHERE organization_id = $1 ORDER BY min_amount, id`
	err := sqlx.SelectContext(ctx, r.q, &rules, query, orgID)
	return rules, mapErr(err, "approval rules", orgID)
}

func (r *repo) DeleteApprovalRule(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM approval_rules WHERE id = $1`, id)
	return expectAffected(res, err, "approval rule", id)
}

// ApprovalRequest (Запрос согласования)

func (r *repo) CreateApprovalRequest(ctx context.Context, a *models.ApprovalRequest) error {
	query := `
        INSERT INTO approval_requests (id, organization_id, entity_type, entity_id, required_roles, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.ExecContext(ctx, query, a.ID, a.OrganizationID, a.EntityType, a.EntityID, a.RequiredRoles, a.Status, a.CreatedAt)
	return mapErr(err, "approval request", a.ID)
}

func (r *repo) GetApprovalRequest(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return r.getApprovalRequest(ctx, `SELECT * FROM approval_requests WHERE id = $1`, id)
}

func (r *repo) LockApprovalRequest(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return r.getApprovalRequest(ctx, `SELECT * FROM approval_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *repo) getApprovalRequest(ctx context.Context, query, id string) (*models.ApprovalRequest, error) {
	a := &models.ApprovalRequest{}
	if err := sqlx.GetContext(ctx, r.q, a, query, id); err != nil {
		return nil, mapErr(err, "approval request", id)
	}
	return a, nil
}

func (r *repo) FindApprovalRequest(ctx context.Context, entityType, entityID string) (*models.ApprovalRequest, error) {
	query := `
        SELECT * FROM approval_requests
        WHERE entity_type = $1 AND entity_id = $2
        ORDER BY created_at DESC
        LIMIT 1`
	found := []models.ApprovalRequest{}
	if err := sqlx.SelectContext(ctx, r.q, &found, query, entityType, entityID); err != nil {
		return nil, mapErr(err, "approval request", entityID)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

type pendingRow struct {
	models.ApprovalRequest
	POID         string          `db:"po_id"`
	POAmount     models.Amount   `db:"po_total_amount"`
	POCurrency   string          `db:"po_currency"`
	POStatus     models.POStatus `db:"po_status"`
	SupplierID   string          `db:"po_supplier_id"`
	SupplierName string          `db:"po_supplier_name"`
}

func (r *repo) ListPendingApprovals(ctx context.Context, orgID string) ([]models.PendingApproval, error) {
	query := `
        SELECT ar.*,
               po.id           AS po_id,
               po.total_amount AS po_total_amount,
               po.currency     AS po_currency,
               po.status       AS po_status,
               s.id            AS po_supplier_id,
               s.name          AS po_supplier_name
        FROM approval_requests ar
        JOIN purchase_orders po ON po.id = ar.entity_id AND ar.entity_type = $2
        JOIN suppliers s ON s.id = po.supplier_id
        WHERE ar.organization_id = $1 AND ar.status = $3
        ORDER BY ar.created_at DESC, ar.id DESC`
	var rows []pendingRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, orgID, models.EntityPurchaseOrder, models.ApprovalPending); err != nil {
		return nil, mapErr(err, "pending approvals", orgID)
	}

	out := make([]models.PendingApproval, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PendingApproval{
			ApprovalRequest: row.ApprovalRequest,
			PurchaseOrder: &models.PendingOrderSummary{
				ID:          row.POID,
				TotalAmount: row.POAmount,
				Currency:    row.POCurrency,
				Status:      row.POStatus,
				Supplier:    models.SupplierSummary{ID: row.SupplierID, Name: row.SupplierName},
			},
		})
	}
	return out, nil
}

// ResolveApprovalRequest закрывает только ожидающий запрос
func (r *repo) ResolveApprovalRequest(ctx context.Context, id string, status models.ApprovalStatus, decidedBy string, at time.Time) error {
	query := `
        UPDATE approval_requests
        SET status = $1, decided_by = $2, decided_at = $3
        WHERE id = $4 AND status = $5`
	res, err := r.q.ExecContext(ctx, query, status, decidedBy, at, id, models.ApprovalPending)
	return expectAffected(res, err, "approval request", id)
}

func (r *repo) DeleteApprovalRequests(ctx context.Context, entityType, entityID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM approval_requests WHERE entity_type = $1 AND entity_id = $2`, entityType, entityID)
	return mapErr(err, "approval requests", entityID)
}

package db

import (
	"context"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

// Organization (Организация)

func (r *repo) UpsertOrganization(ctx context.Context, org *models.Organization) error {
	query := `
        INSERT INTO organizations (id, name, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
        RETURNING created_at`
	err := sqlx.GetContext(ctx, r.q, &org.CreatedAt, query, org.ID, org.Name, org.CreatedAt)
	return mapErr(err, "organization", org.ID)
}

func (r *repo) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	org := &models.Organization{}
	err := sqlx.GetContext(ctx, r.q, org, `SELECT * FROM organizations WHERE id = $1`, id)
	if err != nil {
		return nil, mapErr(err, "organization", id)
	}
	return org, nil
}

// Member (Участник)

func (r *repo) CreateMember(ctx context.Context, m *models.Member) error {
	query := `
        INSERT INTO members (user_id, organization_id, role, email, name, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, m.UserID, m.OrganizationID, m.Role, m.Email, m.Name, m.CreatedAt)
	return mapErr(err, "member", m.UserID)
}

func (r *repo) GetMember(ctx context.Context, orgID, userID string) (*models.Member, error) {
	m := &models.Member{}
	query := `SELECT * FROM members WHERE organization_id = $1 AND user_id = $2`
	if err := sqlx.GetContext(ctx, r.q, m, query, orgID, userID); err != nil {
		return nil, mapErr(err, "member", userID)
	}
	return m, nil
}

func (r *repo) ListMembers(ctx context.Context, orgID string) ([]models.Member, error) {
	members := []models.Member{}
	query := `SELECT * FROM members WHERE organization_id = $1 ORDER BY created_at, user_id`
	err := sqlx.SelectContext(ctx, r.q, &members, query, orgID)
	return members, mapErr(err, "members", orgID)
}

// Invitation (Приглашение)

func (r *repo) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	query := `
        INSERT INTO invitations (id, organization_id, email, role, status, invited_by, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, query,
		inv.ID, inv.OrganizationID, inv.Email, inv.Role, inv.Status, inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt)
	return mapErr(err, "invitation", inv.ID)
}

func (r *repo) GetInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	return r.getInvitation(ctx, `SELECT * FROM invitations WHERE id = $1`, id)
}

func (r *repo) LockInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	return r.getInvitation(ctx, `SELECT * FROM invitations WHERE id = $1 FOR UPDATE`, id)
}

func (r *repo) getInvitation(ctx context.Context, query, id string) (*models.Invitation, error) {
	inv := &models.Invitation{}
	if err := sqlx.GetContext(ctx, r.q, inv, query, id); err != nil {
		return nil, mapErr(err, "invitation", id)
	}
	return inv, nil
}

func (r *repo) UpdateInvitationStatus(ctx context.Context, id string, status models.InvitationStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE invitations SET status = $1 WHERE id = $2`, status, id)
	return expectAffected(res, err, "invitation", id)
}

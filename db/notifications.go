package db

import (
	"context"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

// Notification (Уведомление)

func (r *repo) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
        INSERT INTO notifications (id, organization_id, user_id, title, message, type, created_at, is_read)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, query, n.ID, n.OrganizationID, n.UserID, n.Title, n.Message, n.Type, n.CreatedAt, n.Read)
	return mapErr(err, "notification", n.ID)
}

func (r *repo) ListNotifications(ctx context.Context, orgID, userID string, limit int) ([]models.Notification, error) {
	query := `
        SELECT * FROM notifications
        WHERE organization_id = $1 AND user_id = $2
        ORDER BY created_at DESC
        LIMIT $3`
	list := []models.Notification{}
	err := sqlx.SelectContext(ctx, r.q, &list, query, orgID, userID, limit)
	return list, mapErr(err, "notifications", userID)
}

func (r *repo) MarkNotificationRead(ctx context.Context, orgID, id, userID string) (*models.Notification, error) {
	n := &models.Notification{}
	query := `
        UPDATE notifications SET is_read = TRUE
        WHERE id = $1 AND user_id = $2 AND organization_id = $3
        RETURNING *`
	if err := sqlx.GetContext(ctx, r.q, n, query, id, userID, orgID); err != nil {
		return nil, mapErr(err, "notification", id)
	}
	return n, nil
}

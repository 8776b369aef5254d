package procurement

import (
	"context"

	"procurement/models"
)

const defaultNotificationLimit = 50

// ListNotifications: лента текущего пользователя, новые сверху
func (s *Service) ListNotifications(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultNotificationLimit
	}
	return s.store.ListNotifications(ctx, actor.OrgID, actor.UserID, limit)
}

// MarkNotificationRead: отметить можно только свое уведомление в активной организации
func (s *Service) MarkNotificationRead(ctx context.Context, actor models.Actor, id string) (*models.Notification, error) {
	return s.store.MarkNotificationRead(ctx, actor.OrgID, id, actor.UserID)
}

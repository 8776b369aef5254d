// Package notify сохраняет уведомления в ленту и публикует события в NATS.
// Ошибки доставки логируются и считаются, но никогда не возвращаются вызывающему.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"procurement/internal/metrics"
	"procurement/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository: запись уведомлений
type Repository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Publisher: внешний канал доставки (NATS)
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Event: JSON, публикуемый в notifications.procurement.<type>
type Event struct {
	EventType      string    `json:"event_type"`
	OrganizationID string    `json:"organization_id"`
	Recipients     []string  `json:"recipients"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

type Emitter struct {
	repo    Repository
	pub     Publisher
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// NewEmitter: pub может быть nil, тогда уведомления только сохраняются
func NewEmitter(repo Repository, pub Publisher, m *metrics.Metrics, log zerolog.Logger) *Emitter {
	return &Emitter{
		repo:    repo,
		pub:     pub,
		metrics: m,
		log:     log.With().Str("component", "notify").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func Subject(eventType string) string {
	return "notifications.procurement." + eventType
}

func (e *Emitter) Notify(ctx context.Context, orgID string, recipients []string, draft models.NotificationDraft) {
	if len(recipients) == 0 {
		return
	}
	now := e.now()

	for _, userID := range recipients {
		n := &models.Notification{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			UserID:         userID,
			Title:          draft.Title,
			Message:        draft.Message,
			Type:           draft.Type,
			CreatedAt:      now,
		}
		if err := e.repo.CreateNotification(ctx, n); err != nil {
			e.metrics.NotificationFailed()
			e.log.Warn().Err(err).
				Str("type", draft.Type).
				Str("user_id", userID).
				Msg("notification: failed to store (non-fatal)")
		}
	}

	if e.pub == nil {
		return
	}
	data, err := json.Marshal(Event{
		EventType:      draft.Type,
		OrganizationID: orgID,
		Recipients:     recipients,
		Title:          draft.Title,
		Message:        draft.Message,
		CreatedAt:      now,
	})
	if err != nil {
		e.log.Warn().Err(err).Str("type", draft.Type).Msg("notification: failed to marshal event")
		return
	}
	subject := Subject(draft.Type)
	if err := e.pub.Publish(ctx, subject, data); err != nil {
		e.metrics.NotificationFailed()
		e.log.Warn().Err(err).Str("subject", subject).Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}
	e.log.Debug().Str("subject", subject).Int("recipients", len(recipients)).Msg("notification: event published")
}

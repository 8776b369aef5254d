// Package procurement реализует операции закупок: RFQ, котировки, заказы и их согласование.
// Каждая операция получает явного Actor и выполняется в транзакции хранилища.
package procurement

import (
	"context"
	"time"

	"procurement/internal/apperr"
	"procurement/internal/metrics"
	"procurement/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

type Service struct {
	store    Store
	notifier Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger

	now           func() time.Time
	newID         func() string
	invitationTTL time.Duration
}

type Option func(*Service)

// WithClock подменяет источник времени (для тестов и планировщика)
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func WithInvitationTTL(ttl time.Duration) Option {
	return func(s *Service) { s.invitationTTL = ttl }
}

func NewService(store Store, notifier Notifier, m *metrics.Metrics, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:         store,
		notifier:      notifier,
		metrics:       m,
		log:           log.With().Str("component", "procurement").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
		invitationTTL: defaultInvitationTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireProcurement(actor models.Actor) error {
	if !actor.Role.CanManageProcurement() {
		return apperr.Forbidden("role %s cannot manage procurement", actor.Role)
	}
	return nil
}

func requireRuleManager(actor models.Actor) error {
	if !actor.Role.CanManageApprovalRules() {
		return apperr.Forbidden("role %s cannot manage approval rules", actor.Role)
	}
	return nil
}

// requireOrg: чтение чужой организации по явному orgId запрещено
func requireOrg(actor models.Actor, orgID string) error {
	if orgID != actor.OrgID {
		return apperr.Forbidden("not a member of organization %s", orgID)
	}
	return nil
}

// recipients выбирает участников организации; ошибка чтения только логируется
func (s *Service) recipients(ctx context.Context, orgID string, match func(models.Member) bool) []string {
	members, err := s.store.ListMembers(ctx, orgID)
	if err != nil {
		s.log.Warn().Err(err).Str("org_id", orgID).Msg("list notification recipients")
		return nil
	}
	var ids []string
	for _, m := range members {
		if match(m) {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

func (s *Service) notify(ctx context.Context, orgID string, recipients []string, draft models.NotificationDraft) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}
	s.notifier.Notify(ctx, orgID, dedupe(recipients), draft)
}

func procurementManagers(m models.Member) bool { return m.Role.CanManageProcurement() }

func teamManagers(m models.Member) bool { return m.Role.CanManageTeam() }

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

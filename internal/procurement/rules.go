package procurement

import (
	"context"

	"procurement/internal/apperr"
	"procurement/models"
)

type CreateApprovalRuleRequest struct {
	OrganizationID string        `json:"organizationId"`
	MinAmount      models.Amount `json:"minAmount"`
	Currency       string        `json:"currency"`
	Role           string        `json:"role"`
}

func (s *Service) ListApprovalRules(ctx context.Context, actor models.Actor, orgID string) ([]models.ApprovalRule, error) {
	if err := requireOrg(actor, orgID); err != nil {
		return nil, err
	}
	return s.store.ListApprovalRules(ctx, orgID)
}

// CreateApprovalRule: правила действуют только на заказы, созданные после них
func (s *Service) CreateApprovalRule(ctx context.Context, actor models.Actor, req CreateApprovalRuleRequest) (*models.ApprovalRule, error) {
	if err := requireRuleManager(actor); err != nil {
		return nil, err
	}
	if req.OrganizationID != "" {
		if err := requireOrg(actor, req.OrganizationID); err != nil {
			return nil, err
		}
	}
	if req.MinAmount < 0 {
		return nil, apperr.Validation("minAmount", "must not be negative")
	}
	currency, err := models.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, apperr.Validation("currency", err.Error())
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.Validation("role", err.Error())
	}

	rule := &models.ApprovalRule{
		ID:             s.newID(),
		OrganizationID: actor.OrgID,
		MinAmount:      req.MinAmount,
		Currency:       currency,
		Role:           role,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateApprovalRule(ctx, rule); err != nil {
		return nil, err
	}
	s.log.Info().Str("rule_id", rule.ID).Str("min_amount", rule.MinAmount.String()).Str("currency", currency).Str("role", string(role)).Msg("approval rule created")
	return rule, nil
}

func (s *Service) DeleteApprovalRule(ctx context.Context, actor models.Actor, id string) error {
	if err := requireRuleManager(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		rule, err := repo.GetApprovalRule(ctx, id)
		if err != nil {
			return err
		}
		if rule.OrganizationID != actor.OrgID {
			return apperr.NotFound("approval rule", id)
		}
		return repo.DeleteApprovalRule(ctx, id)
	})
}

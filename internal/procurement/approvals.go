package procurement

import (
	"context"
	"fmt"
	"strings"

	"procurement/internal/apperr"
	"procurement/internal/lifecycle"
	"procurement/internal/rules"
	"procurement/models"
)

// Decision: решение согласующего
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	}
	return "", apperr.Validation("decision", "must be approve or reject")
}

func (d Decision) event() lifecycle.Event {
	if d == DecisionApprove {
		return lifecycle.EventApprove
	}
	return lifecycle.EventReject
}

func (d Decision) status() models.ApprovalStatus {
	if d == DecisionApprove {
		return models.ApprovalApproved
	}
	return models.ApprovalRejected
}

type CountResponse struct {
	Count int `json:"count"`
}

// onPurchaseOrderCreated создает запрос согласования в транзакции создания заказа.
// При пустом наборе ролей заказ уже APPROVED и запроса нет.
func (s *Service) onPurchaseOrderCreated(ctx context.Context, repo Repository, po *models.PurchaseOrder, result rules.Result) (*models.ApprovalRequest, error) {
	if result.Decision == rules.AutoApprove {
		return nil, nil
	}
	req := &models.ApprovalRequest{
		ID:             s.newID(),
		OrganizationID: po.BuyerOrgID,
		EntityType:     models.EntityPurchaseOrder,
		EntityID:       po.ID,
		RequiredRoles:  result.Roles,
		Status:         models.ApprovalPending,
		CreatedAt:      po.CreatedAt,
	}
	if err := repo.CreateApprovalRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Decide применяет решение к запросу согласования и к заказу.
// Решить может владелец или участник с одной из требуемых ролей.
// Повторное решение по закрытому запросу: всегда Conflict.
func (s *Service) Decide(ctx context.Context, actor models.Actor, requestID string, decision Decision) (*models.PurchaseOrder, error) {
	if _, err := ParseDecision(string(decision)); err != nil {
		return nil, err
	}

	// порядок блокировок: заказ, затем запрос
	head, err := s.store.GetApprovalRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if head.OrganizationID != actor.OrgID {
		return nil, apperr.NotFound("approval request", requestID)
	}

	var po *models.PurchaseOrder
	err = s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		if po, err = repo.LockPurchaseOrder(ctx, head.EntityID); err != nil {
			return err
		}
		req, err := repo.LockApprovalRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.ApprovalPending {
			return apperr.Conflict("approval request %s is already %s", requestID, strings.ToLower(string(req.Status)))
		}
		if actor.Role != models.RoleOwner && !req.RequiredRoles.Contains(actor.Role) {
			return apperr.Forbidden("role %s cannot decide this request", actor.Role)
		}

		next, err := lifecycle.PurchaseOrder(po.Status, decision.event())
		if err != nil {
			return err
		}
		now := s.now()
		if err := repo.ResolveApprovalRequest(ctx, requestID, decision.status(), actor.UserID, now); err != nil {
			return err
		}
		if err := repo.UpdatePurchaseOrderStatus(ctx, po.ID, next, now); err != nil {
			return err
		}
		po.Status, po.UpdatedAt = next, now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ApprovalDecided(string(decision))
	s.log.Info().
		Str("request_id", requestID).
		Str("po_id", po.ID).
		Str("decision", string(decision)).
		Str("user_id", actor.UserID).
		Msg("approval decided")

	verb := "approved"
	if decision == DecisionReject {
		verb = "rejected"
	}
	recipients := append(s.recipients(ctx, po.BuyerOrgID, procurementManagers), po.CreatedBy)
	s.notify(ctx, po.BuyerOrgID, recipients, models.NotificationDraft{
		Title:   "Purchase order " + verb,
		Message: fmt.Sprintf("Purchase order for %s %s was %s by %s at %s", po.TotalAmount, po.Currency, verb, actor.Email, po.UpdatedAt.Format("2006-01-02 15:04 MST")),
		Type:    "po_" + verb,
	})
	return po, nil
}

// ListPendingApprovals: ожидающие запросы организации с кратким описанием заказа
func (s *Service) ListPendingApprovals(ctx context.Context, actor models.Actor, orgID string) ([]models.PendingApproval, error) {
	if err := requireOrg(actor, orgID); err != nil {
		return nil, err
	}
	return s.store.ListPendingApprovals(ctx, orgID)
}

// CountPendingApprovals считается по тому же запросу, что и список
func (s *Service) CountPendingApprovals(ctx context.Context, actor models.Actor, orgID string) (CountResponse, error) {
	pending, err := s.ListPendingApprovals(ctx, actor, orgID)
	if err != nil {
		return CountResponse{}, err
	}
	return CountResponse{Count: len(pending)}, nil
}

func approversOf(roles models.RoleSet) func(models.Member) bool {
	return func(m models.Member) bool {
		return m.Role == models.RoleOwner || roles.Contains(m.Role)
	}
}

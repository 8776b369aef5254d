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

type CreatePurchaseOrderRequest struct {
	QuoteID string `json:"quoteId"`
	Notes   string `json:"notes"`
}

// PurchaseOrderDetails: заказ с поставщиком и последним запросом согласования
type PurchaseOrderDetails struct {
	models.PurchaseOrder
	Supplier        *models.Supplier        `json:"supplier,omitempty"`
	ApprovalRequest *models.ApprovalRequest `json:"approvalRequest,omitempty"`
}

// CreatePurchaseOrder принимает котировку и создает заказ в одной транзакции:
// блокировка котировки, вставка заказа, QUOTE -> ACCEPTED, запрос согласования при необходимости.
func (s *Service) CreatePurchaseOrder(ctx context.Context, actor models.Actor, req CreatePurchaseOrderRequest) (*models.PurchaseOrder, error) {
	if err := requireProcurement(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.QuoteID) == "" {
		return nil, apperr.Validation("quoteId", "required")
	}

	var (
		po       *models.PurchaseOrder
		approval *models.ApprovalRequest
		matched  []string
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		quote, err := s.orgQuote(ctx, repo, actor, req.QuoteID, true)
		if err != nil {
			return err
		}
		accepted, err := lifecycle.Quote(quote.Status, lifecycle.EventAccept)
		if err != nil {
			return err
		}
		if _, err := repo.GetSupplier(ctx, quote.SupplierID); err != nil {
			return err
		}

		orgRules, err := repo.ListApprovalRules(ctx, actor.OrgID)
		if err != nil {
			return err
		}
		result := rules.Evaluate(quote.TotalAmount, quote.Currency, orgRules)
		matched = matched[:0]
		for _, rule := range result.Matched {
			matched = append(matched, rule.ID)
		}

		now := s.now()
		po = &models.PurchaseOrder{
			ID:          s.newID(),
			BuyerOrgID:  actor.OrgID,
			SupplierID:  quote.SupplierID,
			QuoteID:     quote.ID,
			RFQID:       quote.RFQID,
			TotalAmount: quote.TotalAmount,
			Currency:    quote.Currency,
			Notes:       strings.TrimSpace(req.Notes),
			Status:      lifecycle.InitialPOStatus(result.Decision),
			CreatedBy:   actor.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.CreatePurchaseOrder(ctx, po); err != nil {
			return err
		}
		if err := repo.UpdateQuoteStatus(ctx, quote.ID, accepted, now); err != nil {
			return err
		}
		approval, err = s.onPurchaseOrderCreated(ctx, repo, po, result)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PurchaseOrderCreated(string(po.Status))
	s.log.Info().
		Str("po_id", po.ID).
		Str("quote_id", po.QuoteID).
		Str("status", string(po.Status)).
		Str("amount", po.TotalAmount.String()).
		Str("currency", po.Currency).
		Strs("matched_rules", matched).
		Msg("purchase order created")

	if approval != nil {
		s.notify(ctx, po.BuyerOrgID, s.recipients(ctx, po.BuyerOrgID, approversOf(approval.RequiredRoles)), models.NotificationDraft{
			Title:   "Approval required",
			Message: fmt.Sprintf("Purchase order for %s %s requires approval", po.TotalAmount, po.Currency),
			Type:    "approval_required",
		})
	} else {
		s.notify(ctx, po.BuyerOrgID, s.recipients(ctx, po.BuyerOrgID, procurementManagers), models.NotificationDraft{
			Title:   "Purchase order approved",
			Message: fmt.Sprintf("Purchase order for %s %s was approved automatically", po.TotalAmount, po.Currency),
			Type:    "po_approved",
		})
	}
	return po, nil
}

func (s *Service) GetPurchaseOrder(ctx context.Context, actor models.Actor, id string) (*PurchaseOrderDetails, error) {
	po, err := s.orgPurchaseOrder(ctx, s.store, actor, id, false)
	if err != nil {
		return nil, err
	}
	details := &PurchaseOrderDetails{PurchaseOrder: *po}
	supplier, err := s.store.GetSupplier(ctx, po.SupplierID)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	details.Supplier = supplier
	if details.ApprovalRequest, err = s.store.FindApprovalRequest(ctx, models.EntityPurchaseOrder, po.ID); err != nil {
		return nil, err
	}
	return details, nil
}

// ListPurchaseOrders: пустой статус означает все заказы
func (s *Service) ListPurchaseOrders(ctx context.Context, actor models.Actor, orgID, status string) ([]models.PurchaseOrder, error) {
	if err := requireOrg(actor, orgID); err != nil {
		return nil, err
	}
	var filter models.POStatus
	if status != "" {
		st, ok := models.ParsePOStatus(strings.ToUpper(status))
		if !ok {
			return nil, apperr.Validation("status", "unknown purchase order status")
		}
		filter = st
	}
	return s.store.ListPurchaseOrders(ctx, orgID, filter)
}

// SendPurchaseOrder отправляет согласованный заказ поставщику
func (s *Service) SendPurchaseOrder(ctx context.Context, actor models.Actor, id string) (*models.PurchaseOrder, error) {
	if err := requireProcurement(actor); err != nil {
		return nil, err
	}
	var po *models.PurchaseOrder
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		if po, err = s.orgPurchaseOrder(ctx, repo, actor, id, true); err != nil {
			return err
		}
		next, err := lifecycle.PurchaseOrder(po.Status, lifecycle.EventSend)
		if err != nil {
			return err
		}
		now := s.now()
		if err := repo.UpdatePurchaseOrderStatus(ctx, id, next, now); err != nil {
			return err
		}
		po.Status, po.UpdatedAt, po.SentAt = next, now, &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("po_id", po.ID).Str("user_id", actor.UserID).Msg("purchase order sent")
	s.notify(ctx, po.BuyerOrgID, append(s.recipients(ctx, po.BuyerOrgID, procurementManagers), po.CreatedBy), models.NotificationDraft{
		Title:   "Purchase order sent",
		Message: fmt.Sprintf("Purchase order for %s %s was sent to the supplier", po.TotalAmount, po.Currency),
		Type:    "po_sent",
	})
	return po, nil
}

// DeletePurchaseOrder удаляет заказ вместе с его запросами согласования. Отправленный заказ удалить нельзя.
func (s *Service) DeletePurchaseOrder(ctx context.Context, actor models.Actor, id string) error {
	if err := requireProcurement(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		po, err := s.orgPurchaseOrder(ctx, repo, actor, id, true)
		if err != nil {
			return err
		}
		if _, err := lifecycle.PurchaseOrder(po.Status, lifecycle.EventDelete); err != nil {
			return err
		}
		if err := repo.DeleteApprovalRequests(ctx, models.EntityPurchaseOrder, id); err != nil {
			return err
		}
		return repo.DeletePurchaseOrder(ctx, id)
	})
}

func (s *Service) orgPurchaseOrder(ctx context.Context, repo Repository, actor models.Actor, id string, lock bool) (*models.PurchaseOrder, error) {
	var (
		po  *models.PurchaseOrder
		err error
	)
	if lock {
		po, err = repo.LockPurchaseOrder(ctx, id)
	} else {
		po, err = repo.GetPurchaseOrder(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if po.BuyerOrgID != actor.OrgID {
		return nil, apperr.NotFound("purchase order", id)
	}
	return po, nil
}

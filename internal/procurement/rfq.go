package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"procurement/internal/apperr"
	"procurement/internal/lifecycle"
	"procurement/models"
)

const (
	defaultCurrency = "USD"
	defaultUnit     = "PCS"
	maxPageSize     = 100
)

type CreateRFQRequest struct {
	Title       string           `json:"title"`
	DueDate     string           `json:"dueDate"`
	Currency    string           `json:"currency"`
	Notes       string           `json:"notes"`
	Items       []models.RFQItem `json:"items"`
	SupplierIDs []string         `json:"supplierIds"`
}

// RFQDetails: запрос котировок с поставщиками и полученными котировками
type RFQDetails struct {
	models.RFQ
	Suppliers []models.Supplier `json:"suppliers"`
	Quotes    []models.Quote    `json:"quotes"`
}

// parseDueDate: дата без времени действует до конца этого дня по UTC
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.AddDate(0, 0, 1).Add(-time.Microsecond), nil
	}
	return time.Parse(time.RFC3339, s)
}

func (s *Service) CreateRFQ(ctx context.Context, actor models.Actor, req CreateRFQRequest) (*models.RFQ, error) {
	if err := requireProcurement(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("title", "required")
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, apperr.Validation("dueDate", "expected YYYY-MM-DD or RFC3339")
	}
	currency := defaultCurrency
	if strings.TrimSpace(req.Currency) != "" {
		if currency, err = models.NormalizeCurrency(req.Currency); err != nil {
			return nil, apperr.Validation("currency", err.Error())
		}
	}

	if len(req.Items) == 0 {
		return nil, apperr.Validation("items", "at least one item is required")
	}
	items := make([]models.RFQItem, 0, len(req.Items))
	for i, it := range req.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].name", i), "required")
		}
		if it.Quantity <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if strings.TrimSpace(it.Unit) == "" {
			it.Unit = defaultUnit
		}
		it.Position = i
		items = append(items, it)
	}

	supplierIDs := dedupe(req.SupplierIDs)
	if len(supplierIDs) == 0 {
		return nil, apperr.Validation("supplierIds", "at least one supplier is required")
	}

	now := s.now()
	rfq := &models.RFQ{
		ID:             s.newID(),
		OrganizationID: actor.OrgID,
		Title:          title,
		DueDate:        due,
		Currency:       currency,
		Notes:          strings.TrimSpace(req.Notes),
		Status:         models.RFQDraft,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Items:          items,
		SupplierIDs:    supplierIDs,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, id := range supplierIDs {
			supplier, err := repo.GetSupplier(ctx, id)
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.Validation("supplierIds", "unknown supplier "+id)
			}
			if err != nil {
				return err
			}
			if supplier.OrganizationID != actor.OrgID {
				return apperr.Validation("supplierIds", "unknown supplier "+id)
			}
			if supplier.Status != models.SupplierActive {
				return apperr.Validation("supplierIds", "supplier "+id+" is inactive")
			}
		}
		return repo.CreateRFQ(ctx, rfq)
	})
	if err != nil {
		return nil, err
	}
	return rfq, nil
}

func (s *Service) ListRFQs(ctx context.Context, actor models.Actor, orgID string, limit, offset int) ([]models.RFQ, error) {
	if err := requireOrg(actor, orgID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListRFQs(ctx, orgID, limit, offset)
}

func (s *Service) GetRFQ(ctx context.Context, actor models.Actor, id string) (*RFQDetails, error) {
	rfq, err := s.orgRFQ(ctx, s.store, actor, id, false)
	if err != nil {
		return nil, err
	}
	details := &RFQDetails{RFQ: *rfq, Suppliers: []models.Supplier{}}
	for _, sid := range rfq.SupplierIDs {
		supplier, err := s.store.GetSupplier(ctx, sid)
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		details.Suppliers = append(details.Suppliers, *supplier)
	}
	if details.Quotes, err = s.store.ListQuotes(ctx, id); err != nil {
		return nil, err
	}
	return details, nil
}

// SendRFQ переводит черновик в SENT и уведомляет закупщиков
func (s *Service) SendRFQ(ctx context.Context, actor models.Actor, id string) (*models.RFQ, error) {
	rfq, err := s.transitionRFQ(ctx, actor, id, lifecycle.EventSend)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, rfq.OrganizationID, s.recipients(ctx, rfq.OrganizationID, procurementManagers), models.NotificationDraft{
		Title:   "RFQ sent",
		Message: fmt.Sprintf("RFQ %q was sent to %d suppliers", rfq.Title, len(rfq.SupplierIDs)),
		Type:    "rfq_sent",
	})
	return rfq, nil
}

func (s *Service) CloseRFQ(ctx context.Context, actor models.Actor, id string) (*models.RFQ, error) {
	return s.transitionRFQ(ctx, actor, id, lifecycle.EventClose)
}

func (s *Service) transitionRFQ(ctx context.Context, actor models.Actor, id string, ev lifecycle.Event) (*models.RFQ, error) {
	if err := requireProcurement(actor); err != nil {
		return nil, err
	}
	var rfq *models.RFQ
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		if rfq, err = s.orgRFQ(ctx, repo, actor, id, true); err != nil {
			return err
		}
		next, err := lifecycle.RFQ(rfq.Status, ev)
		if err != nil {
			return err
		}
		now := s.now()
		if err := repo.UpdateRFQStatus(ctx, id, next, now); err != nil {
			return err
		}
		rfq.Status, rfq.UpdatedAt = next, now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("rfq_id", id).Str("status", string(rfq.Status)).Str("user_id", actor.UserID).Msg("rfq status changed")
	return rfq, nil
}

func (s *Service) DeleteRFQ(ctx context.Context, actor models.Actor, id string) error {
	if err := requireProcurement(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		rfq, err := s.orgRFQ(ctx, repo, actor, id, true)
		if err != nil {
			return err
		}
		if _, err := lifecycle.RFQ(rfq.Status, lifecycle.EventDelete); err != nil {
			return err
		}
		return repo.DeleteRFQ(ctx, id)
	})
}

// CloseOverdueRFQs закрывает отправленные запросы с истекшим сроком. Вызывается планировщиком.
func (s *Service) CloseOverdueRFQs(ctx context.Context) (int, error) {
	now := s.now()
	overdue, err := s.store.ListOverdueRFQs(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, candidate := range overdue {
		var rfq *models.RFQ
		err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
			var err error
			if rfq, err = repo.LockRFQ(ctx, candidate.ID); err != nil {
				return err
			}
			next, err := lifecycle.RFQ(rfq.Status, lifecycle.EventClose)
			if err != nil {
				return err
			}
			rfq.Status, rfq.UpdatedAt = next, now
			return repo.UpdateRFQStatus(ctx, rfq.ID, next, now)
		})
		if apperr.Is(err, apperr.KindInvalidTransition) || apperr.Is(err, apperr.KindNotFound) {
			// закрыт или удален параллельно
			continue
		}
		if err != nil {
			return closed, err
		}
		closed++
		s.notify(ctx, rfq.OrganizationID, s.recipients(ctx, rfq.OrganizationID, procurementManagers), models.NotificationDraft{
			Title:   "RFQ closed",
			Message: fmt.Sprintf("RFQ %q was closed after its due date", rfq.Title),
			Type:    "rfq_closed",
		})
	}
	s.metrics.RFQsAutoClosed(closed)
	return closed, nil
}

func (s *Service) orgRFQ(ctx context.Context, repo Repository, actor models.Actor, id string, lock bool) (*models.RFQ, error) {
	var (
		rfq *models.RFQ
		err error
	)
	if lock {
		rfq, err = repo.LockRFQ(ctx, id)
	} else {
		rfq, err = repo.GetRFQ(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if rfq.OrganizationID != actor.OrgID {
		return nil, apperr.NotFound("rfq", id)
	}
	return rfq, nil
}

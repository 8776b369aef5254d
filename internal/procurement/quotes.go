package procurement

import (
	"context"
	"strings"

	"procurement/internal/apperr"
	"procurement/internal/lifecycle"
	"procurement/models"
)

type RecordQuoteRequest struct {
	SupplierID  string        `json:"supplierId"`
	TotalAmount models.Amount `json:"totalAmount"`
	Currency    string        `json:"currency"`
	Notes       string        `json:"notes"`
}

// RecordQuote сохраняет котировку приглашенного поставщика по отправленному RFQ
func (s *Service) RecordQuote(ctx context.Context, actor models.Actor, rfqID string, req RecordQuoteRequest) (*models.Quote, error) {
	if err := requireProcurement(actor); err != nil {
		return nil, err
	}
	if req.SupplierID == "" {
		return nil, apperr.Validation("supplierId", "required")
	}
	if req.TotalAmount <= 0 {
		return nil, apperr.Validation("totalAmount", "must be positive")
	}

	var quote *models.Quote
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		rfq, err := s.orgRFQ(ctx, repo, actor, rfqID, true)
		if err != nil {
			return err
		}
		if rfq.Status != models.RFQSent {
			return apperr.InvalidTransition("rfq", string(rfq.Status), "receive quote")
		}
		if !contains(rfq.SupplierIDs, req.SupplierID) {
			return apperr.Validation("supplierId", "supplier was not invited to this rfq")
		}

		currency := rfq.Currency
		if strings.TrimSpace(req.Currency) != "" {
			if currency, err = models.NormalizeCurrency(req.Currency); err != nil {
				return apperr.Validation("currency", err.Error())
			}
		}

		now := s.now()
		quote = &models.Quote{
			ID:          s.newID(),
			RFQID:       rfq.ID,
			SupplierID:  req.SupplierID,
			TotalAmount: req.TotalAmount,
			Currency:    currency,
			Notes:       strings.TrimSpace(req.Notes),
			Status:      models.QuoteReceived,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return repo.CreateQuote(ctx, quote)
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// UpdateQuoteStatus: вручную допустим только переход в CONFIRMED.
// ACCEPTED выставляется созданием заказа.
func (s *Service) UpdateQuoteStatus(ctx context.Context, actor models.Actor, quoteID, status string) (*models.Quote, error) {
	if err := requireProcurement(actor); err != nil {
		return nil, err
	}
	target := models.QuoteStatus(strings.ToUpper(strings.TrimSpace(status)))

	var quote *models.Quote
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		if quote, err = s.orgQuote(ctx, repo, actor, quoteID, true); err != nil {
			return err
		}
		if target != models.QuoteConfirmed {
			return apperr.InvalidTransition("quote", string(quote.Status), "move to "+string(target))
		}
		next, err := lifecycle.Quote(quote.Status, lifecycle.EventConfirm)
		if err != nil {
			return err
		}
		now := s.now()
		if err := repo.UpdateQuoteStatus(ctx, quoteID, next, now); err != nil {
			return err
		}
		quote.Status, quote.UpdatedAt = next, now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// orgQuote проверяет, что котировка относится к RFQ организации
func (s *Service) orgQuote(ctx context.Context, repo Repository, actor models.Actor, id string, lock bool) (*models.Quote, error) {
	var (
		quote *models.Quote
		err   error
	)
	if lock {
		quote, err = repo.LockQuote(ctx, id)
	} else {
		quote, err = repo.GetQuote(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	rfq, err := repo.GetRFQ(ctx, quote.RFQID)
	if err != nil {
		return nil, err
	}
	if rfq.OrganizationID != actor.OrgID {
		return nil, apperr.NotFound("quote", id)
	}
	return quote, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

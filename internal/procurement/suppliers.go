package procurement

import (
	"context"
	"net/mail"
	"strings"

	"procurement/internal/apperr"
	"procurement/models"
)

type CreateSupplierRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Service) CreateSupplier(ctx context.Context, actor models.Actor, req CreateSupplierRequest) (*models.Supplier, error) {
	if err := requireProcurement(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name", "required")
	}
	if len(name) > 200 {
		return nil, apperr.Validation("name", "too long")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, apperr.Validation("email", "invalid address")
	}

	supplier := &models.Supplier{
		ID:             s.newID(),
		OrganizationID: actor.OrgID,
		Name:           name,
		Email:          strings.ToLower(addr.Address),
		Status:         models.SupplierActive,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *Service) ListSuppliers(ctx context.Context, actor models.Actor, orgID string) ([]models.Supplier, error) {
	if err := requireOrg(actor, orgID); err != nil {
		return nil, err
	}
	return s.store.ListSuppliers(ctx, orgID)
}

func (s *Service) UpdateSupplierStatus(ctx context.Context, actor models.Actor, id, status string) (*models.Supplier, error) {
	if err := requireProcurement(actor); err != nil {
		return nil, err
	}
	st, ok := models.ParseSupplierStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !ok {
		return nil, apperr.Validation("status", "must be ACTIVE or INACTIVE")
	}

	var supplier *models.Supplier
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		if supplier, err = s.orgSupplier(ctx, repo, actor, id); err != nil {
			return err
		}
		if err := repo.UpdateSupplierStatus(ctx, id, st); err != nil {
			return err
		}
		supplier.Status = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

// DeleteSupplier: поставщика, на которого ссылаются RFQ, котировки или заказы, удалить нельзя
func (s *Service) DeleteSupplier(ctx context.Context, actor models.Actor, id string) error {
	if err := requireProcurement(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := s.orgSupplier(ctx, repo, actor, id); err != nil {
			return err
		}
		inUse, err := repo.SupplierInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return apperr.Conflict("supplier %s is referenced by rfqs or orders", id)
		}
		return repo.DeleteSupplier(ctx, id)
	})
}

func (s *Service) orgSupplier(ctx context.Context, repo Repository, actor models.Actor, id string) (*models.Supplier, error) {
	supplier, err := repo.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	if supplier.OrganizationID != actor.OrgID {
		return nil, apperr.NotFound("supplier", id)
	}
	return supplier, nil
}

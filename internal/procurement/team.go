package procurement

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"procurement/internal/apperr"
	"procurement/models"
)

type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InvitationInfo: то, что видит приглашенный до принятия
type InvitationInfo struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	Role             models.Role `json:"role"`
	OrganizationID   string      `json:"orgId"`
	OrganizationName string      `json:"organizationName"`
}

func (s *Service) ListMembers(ctx context.Context, actor models.Actor) ([]models.Member, error) {
	return s.store.ListMembers(ctx, actor.OrgID)
}

func (s *Service) CreateInvitation(ctx context.Context, actor models.Actor, req CreateInvitationRequest) (*models.Invitation, error) {
	if !actor.Role.CanManageTeam() {
		return nil, apperr.Forbidden("role %s cannot invite members", actor.Role)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, apperr.Validation("email", "invalid address")
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.Validation("role", err.Error())
	}
	if role == models.RoleOwner {
		return nil, apperr.Validation("role", "owner cannot be invited")
	}

	now := s.now()
	inv := &models.Invitation{
		ID:             s.newID(),
		OrganizationID: actor.OrgID,
		Email:          strings.ToLower(addr.Address),
		Role:           role,
		Status:         models.InvitationPending,
		InvitedBy:      actor.UserID,
		ExpiresAt:      now.Add(s.invitationTTL),
		CreatedAt:      now,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}
	s.log.Info().Str("invitation_id", inv.ID).Str("role", string(role)).Str("user_id", actor.UserID).Msg("invitation created")
	return inv, nil
}

func (s *Service) VerifyInvitation(ctx context.Context, id string) (*InvitationInfo, error) {
	inv, err := s.store.GetInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkInvitation(inv); err != nil {
		return nil, err
	}
	org, err := s.store.GetOrganization(ctx, inv.OrganizationID)
	if err != nil {
		return nil, err
	}
	return &InvitationInfo{
		ID:               inv.ID,
		Email:            inv.Email,
		Role:             inv.Role,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
	}, nil
}

// AcceptInvitation делает пользователя участником. Email из токена должен совпасть с приглашением.
func (s *Service) AcceptInvitation(ctx context.Context, who models.Identity, id string) (*models.Member, error) {
	var member *models.Member
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.LockInvitation(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkInvitation(inv); err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(who.Email), inv.Email) {
			return apperr.Forbidden("invitation was issued to another email")
		}
		if _, err := repo.GetMember(ctx, inv.OrganizationID, who.UserID); err == nil {
			return apperr.Conflict("user is already a member of organization %s", inv.OrganizationID)
		} else if !apperr.Is(err, apperr.KindNotFound) {
			return err
		}

		member = &models.Member{
			UserID:         who.UserID,
			OrganizationID: inv.OrganizationID,
			Role:           inv.Role,
			Email:          inv.Email,
			Name:           who.Name,
			CreatedAt:      s.now(),
		}
		if err := repo.CreateMember(ctx, member); err != nil {
			return err
		}
		return repo.UpdateInvitationStatus(ctx, id, models.InvitationAccepted)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, member.OrganizationID, s.recipients(ctx, member.OrganizationID, teamManagers), models.NotificationDraft{
		Title:   "New team member",
		Message: fmt.Sprintf("%s joined as %s", member.Email, member.Role),
		Type:    "member_joined",
	})
	return member, nil
}

// AddMember заводит организацию и участника без приглашения (первичная настройка из CLI)
func (s *Service) AddMember(ctx context.Context, org models.Organization, member models.Member) (*models.Member, error) {
	if org.ID == "" || member.UserID == "" {
		return nil, apperr.Validation("id", "organization and user ids are required")
	}
	if _, err := models.ParseRole(string(member.Role)); err != nil {
		return nil, apperr.Validation("role", err.Error())
	}
	now := s.now()
	if org.Name == "" {
		org.Name = org.ID
	}
	org.CreatedAt = now
	member.OrganizationID = org.ID
	member.Email = strings.ToLower(strings.TrimSpace(member.Email))
	member.CreatedAt = now

	err := s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpsertOrganization(ctx, &org); err != nil {
			return err
		}
		return repo.CreateMember(ctx, &member)
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Service) checkInvitation(inv *models.Invitation) error {
	if inv.Status != models.InvitationPending {
		return apperr.Conflict("invitation is %s", strings.ToLower(string(inv.Status)))
	}
	if !s.now().Before(inv.ExpiresAt) {
		return apperr.NotFound("invitation", inv.ID)
	}
	return nil
}

package handlers

import (
	"context"

	"procurement/internal/procurement"
	"procurement/models"
)

// Service: операции закупок, которые вызывают обработчики
type Service interface {
	CreateSupplier(ctx context.Context, actor models.Actor, req procurement.CreateSupplierRequest) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, actor models.Actor, orgID string) ([]models.Supplier, error)
	UpdateSupplierStatus(ctx context.Context, actor models.Actor, id, status string) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, actor models.Actor, id string) error

	CreateRFQ(ctx context.Context, actor models.Actor, req procurement.CreateRFQRequest) (*models.RFQ, error)
	ListRFQs(ctx context.Context, actor models.Actor, orgID string, limit, offset int) ([]models.RFQ, error)
	GetRFQ(ctx context.Context, actor models.Actor, id string) (*procurement.RFQDetails, error)
	SendRFQ(ctx context.Context, actor models.Actor, id string) (*models.RFQ, error)
	CloseRFQ(ctx context.Context, actor models.Actor, id string) (*models.RFQ, error)
	DeleteRFQ(ctx context.Context, actor models.Actor, id string) error

	RecordQuote(ctx context.Context, actor models.Actor, rfqID string, req procurement.RecordQuoteRequest) (*models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, actor models.Actor, quoteID, status string) (*models.Quote, error)

	CreatePurchaseOrder(ctx context.Context, actor models.Actor, req procurement.CreatePurchaseOrderRequest) (*models.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, actor models.Actor, id string) (*procurement.PurchaseOrderDetails, error)
	ListPurchaseOrders(ctx context.Context, actor models.Actor, orgID, status string) ([]models.PurchaseOrder, error)
	SendPurchaseOrder(ctx context.Context, actor models.Actor, id string) (*models.PurchaseOrder, error)
	DeletePurchaseOrder(ctx context.Context, actor models.Actor, id string) error

	Decide(ctx context.Context, actor models.Actor, requestID string, decision procurement.Decision) (*models.PurchaseOrder, error)
	ListPendingApprovals(ctx context.Context, actor models.Actor, orgID string) ([]models.PendingApproval, error)
	CountPendingApprovals(ctx context.Context, actor models.Actor, orgID string) (procurement.CountResponse, error)
	ListApprovalRules(ctx context.Context, actor models.Actor, orgID string) ([]models.ApprovalRule, error)
	CreateApprovalRule(ctx context.Context, actor models.Actor, req procurement.CreateApprovalRuleRequest) (*models.ApprovalRule, error)
	DeleteApprovalRule(ctx context.Context, actor models.Actor, id string) error

	ListMembers(ctx context.Context, actor models.Actor) ([]models.Member, error)
	CreateInvitation(ctx context.Context, actor models.Actor, req procurement.CreateInvitationRequest) (*models.Invitation, error)
	VerifyInvitation(ctx context.Context, id string) (*procurement.InvitationInfo, error)
	AcceptInvitation(ctx context.Context, who models.Identity, id string) (*models.Member, error)
	ListNotifications(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, actor models.Actor, id string) (*models.Notification, error)
}

var _ Service = (*procurement.Service)(nil)

package procurement

import (
	"context"
	"time"

	"procurement/models"
)

// Repository: операции хранилища, доступные внутри и вне транзакции.
// Отсутствующая запись возвращается как apperr.NotFound, нарушение уникальности как apperr.Conflict.
// Lock* читают строку с блокировкой до конца транзакции.
type Repository interface {
	UpsertOrganization(ctx context.Context, org *models.Organization) error
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)

	CreateMember(ctx context.Context, m *models.Member) error
	GetMember(ctx context.Context, orgID, userID string) (*models.Member, error)
	ListMembers(ctx context.Context, orgID string) ([]models.Member, error)

	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, id string) (*models.Invitation, error)
	LockInvitation(ctx context.Context, id string) (*models.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id string, status models.InvitationStatus) error

	CreateSupplier(ctx context.Context, s *models.Supplier) error
	GetSupplier(ctx context.Context, id string) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, orgID string) ([]models.Supplier, error)
	UpdateSupplierStatus(ctx context.Context, id string, status models.SupplierStatus) error
	SupplierInUse(ctx context.Context, id string) (bool, error)
	DeleteSupplier(ctx context.Context, id string) error

	// CreateRFQ сохраняет запрос вместе с позициями и приглашенными поставщиками
	CreateRFQ(ctx context.Context, rfq *models.RFQ) error
	GetRFQ(ctx context.Context, id string) (*models.RFQ, error)
	LockRFQ(ctx context.Context, id string) (*models.RFQ, error)
	ListRFQs(ctx context.Context, orgID string, limit, offset int) ([]models.RFQ, error)
	// ListOverdueRFQs: отправленные запросы со сроком раньше before
	ListOverdueRFQs(ctx context.Context, before time.Time) ([]models.RFQ, error)
	UpdateRFQStatus(ctx context.Context, id string, status models.RFQStatus, at time.Time) error
	DeleteRFQ(ctx context.Context, id string) error

	CreateQuote(ctx context.Context, q *models.Quote) error
	GetQuote(ctx context.Context, id string) (*models.Quote, error)
	LockQuote(ctx context.Context, id string) (*models.Quote, error)
	ListQuotes(ctx context.Context, rfqID string) ([]models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, id string, status models.QuoteStatus, at time.Time) error

	CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id string) (*models.PurchaseOrder, error)
	LockPurchaseOrder(ctx context.Context, id string) (*models.PurchaseOrder, error)
	// ListPurchaseOrders фильтрует по статусу, если status не пустой
	ListPurchaseOrders(ctx context.Context, orgID string, status models.POStatus) ([]models.PurchaseOrder, error)
	// UpdatePurchaseOrderStatus проставляет sent_at при переходе в SENT
	UpdatePurchaseOrderStatus(ctx context.Context, id string, status models.POStatus, at time.Time) error
	DeletePurchaseOrder(ctx context.Context, id string) error

	CreateApprovalRule(ctx context.Context, r *models.ApprovalRule) error
	GetApprovalRule(ctx context.Context, id string) (*models.ApprovalRule, error)
	ListApprovalRules(ctx context.Context, orgID string) ([]models.ApprovalRule, error)
	DeleteApprovalRule(ctx context.Context, id string) error

	CreateApprovalRequest(ctx context.Context, r *models.ApprovalRequest) error
	GetApprovalRequest(ctx context.Context, id string) (*models.ApprovalRequest, error)
	LockApprovalRequest(ctx context.Context, id string) (*models.ApprovalRequest, error)
	// FindApprovalRequest возвращает последний запрос по сущности или nil
	FindApprovalRequest(ctx context.Context, entityType, entityID string) (*models.ApprovalRequest, error)
	ListPendingApprovals(ctx context.Context, orgID string) ([]models.PendingApproval, error)
	ResolveApprovalRequest(ctx context.Context, id string, status models.ApprovalStatus, decidedBy string, at time.Time) error
	DeleteApprovalRequests(ctx context.Context, entityType, entityID string) error
}

// NotificationRepository: лента уведомлений, пишется вне транзакций
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, orgID, userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, orgID, id, userID string) (*models.Notification, error)
}

type Store interface {
	Repository
	NotificationRepository

	// WithinTx выполняет fn в одной транзакции; ошибка fn откатывает все записи
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Notifier доставляет уведомления после коммита и не возвращает ошибок
type Notifier interface {
	Notify(ctx context.Context, orgID string, recipients []string, draft models.NotificationDraft)
}

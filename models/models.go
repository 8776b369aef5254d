package models

import "time"

// Сущность Организации (владелец всех остальных записей)
type Organization struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Участник организации с ролью
type Member struct {
	UserID         string    `db:"user_id" json:"userId"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	Role           Role      `db:"role" json:"role"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Приглашение в организацию
type Invitation struct {
	ID             string           `db:"id" json:"id"`
	OrganizationID string           `db:"organization_id" json:"orgId"`
	Email          string           `db:"email" json:"email"`
	Role           Role             `db:"role" json:"role"`
	Status         InvitationStatus `db:"status" json:"status"`
	InvitedBy      string           `db:"invited_by" json:"invitedBy"`
	ExpiresAt      time.Time        `db:"expires_at" json:"expiresAt"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

// Сущность Поставщика
type Supplier struct {
	ID             string         `db:"id" json:"id"`
	OrganizationID string         `db:"organization_id" json:"orgId"`
	Name           string         `db:"name" json:"name"`
	Email          string         `db:"email" json:"email"`
	Status         SupplierStatus `db:"status" json:"status"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// Позиция запроса котировок
type RFQItem struct {
	Position    int     `db:"position" json:"-"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Quantity    float64 `db:"quantity" json:"quantity"`
	Unit        string  `db:"unit" json:"unit"`
}

// Сущность Запроса котировок (RFQ)
type RFQ struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"orgId"`
	Title          string    `db:"title" json:"title"`
	DueDate        time.Time `db:"due_date" json:"dueDate"`
	Currency       string    `db:"currency" json:"currency"`
	Notes          string    `db:"notes" json:"notes"`
	Status         RFQStatus `db:"status" json:"status"`
	CreatedBy      string    `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`

	Items       []RFQItem `db:"-" json:"items"`
	SupplierIDs []string  `db:"-" json:"supplierIds"`
}

// Сущность Котировки (ответ поставщика на RFQ)
type Quote struct {
	ID          string      `db:"id" json:"id"`
	RFQID       string      `db:"rfq_id" json:"rfqId"`
	SupplierID  string      `db:"supplier_id" json:"supplierId"`
	TotalAmount Amount      `db:"total_amount" json:"totalAmount"`
	Currency    string      `db:"currency" json:"currency"`
	Notes       string      `db:"notes" json:"notes"`
	Status      QuoteStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// Сущность Заказа на закупку
type PurchaseOrder struct {
	ID          string     `db:"id" json:"id"`
	BuyerOrgID  string     `db:"buyer_org_id" json:"buyerOrgId"`
	SupplierID  string     `db:"supplier_id" json:"supplierId"`
	QuoteID     string     `db:"quote_id" json:"quoteId"`
	RFQID       string     `db:"rfq_id" json:"rfqId"`
	TotalAmount Amount     `db:"total_amount" json:"totalAmount"`
	Currency    string     `db:"currency" json:"currency"`
	Notes       string     `db:"notes" json:"notes"`
	Status      POStatus   `db:"status" json:"status"`
	CreatedBy   string     `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	SentAt      *time.Time `db:"sent_at" json:"sentAt,omitempty"`
}

// Правило согласования: порог суммы -> требуемая роль
type ApprovalRule struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	MinAmount      Amount    `db:"min_amount" json:"minAmount"`
	Currency       string    `db:"currency" json:"currency"`
	Role           Role      `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Запрос на согласование
type ApprovalRequest struct {
	ID             string         `db:"id" json:"id"`
	OrganizationID string         `db:"organization_id" json:"organizationId"`
	EntityType     string         `db:"entity_type" json:"entityType"`
	EntityID       string         `db:"entity_id" json:"entityId"`
	RequiredRoles  RoleSet        `db:"required_roles" json:"requiredRoles"`
	Status         ApprovalStatus `db:"status" json:"status"`
	DecidedBy      *string        `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt      *time.Time     `db:"decided_at" json:"decidedAt,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// EntityPurchaseOrder: тип сущности для запросов согласования заказов
const EntityPurchaseOrder = "purchase_order"

// Уведомление (лента активности)
type Notification struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	UserID         string    `db:"user_id" json:"userId"`
	Title          string    `db:"title" json:"title"`
	Message        string    `db:"message" json:"message"`
	Type           string    `db:"type" json:"type"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	Read           bool      `db:"is_read" json:"read"`
}

// Actor: вызывающий пользователь в контексте активной организации
type Actor struct {
	UserID string
	OrgID  string
	Role   Role
	Email  string
}

// Identity: пользователь из токена без привязки к членству
type Identity struct {
	UserID string
	OrgID  string
	Email  string
	Name   string
}

// Черновик уведомления до выбора получателей
type NotificationDraft struct {
	Title   string
	Message string
	Type    string
}

// PendingApproval: запрос согласования вместе с кратким описанием заказа
type PendingApproval struct {
	ApprovalRequest
	PurchaseOrder *PendingOrderSummary `json:"purchaseOrder,omitempty"`
}

type PendingOrderSummary struct {
	ID          string          `json:"id"`
	TotalAmount Amount          `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Status      POStatus        `json:"status"`
	Supplier    SupplierSummary `json:"supplier"`
}

type SupplierSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

package models

type (
	RFQStatus        string // Статус запроса котировок
	QuoteStatus      string // Статус котировки
	POStatus         string // Статус заказа
	ApprovalStatus   string // Статус запроса согласования
	SupplierStatus   string // Статус поставщика
	InvitationStatus string // Статус приглашения
)

const (
	RFQDraft  RFQStatus = "DRAFT"
	RFQSent   RFQStatus = "SENT"
	RFQClosed RFQStatus = "CLOSED"

	QuoteReceived  QuoteStatus = "RECEIVED"
	QuoteConfirmed QuoteStatus = "CONFIRMED"
	QuoteAccepted  QuoteStatus = "ACCEPTED"

	POPendingApproval POStatus = "PENDING_APPROVAL"
	POApproved        POStatus = "APPROVED"
	PORejected        POStatus = "REJECTED"
	POSent            POStatus = "SENT"

	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"

	SupplierActive   SupplierStatus = "ACTIVE"
	SupplierInactive SupplierStatus = "INACTIVE"

	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationCanceled InvitationStatus = "CANCELED"
)

// ParsePOStatus проверяет значение фильтра статуса заказа
func ParsePOStatus(s string) (POStatus, bool) {
	switch st := POStatus(s); st {
	case POPendingApproval, POApproved, PORejected, POSent:
		return st, true
	}
	return "", false
}

// ParseSupplierStatus проверяет статус поставщика
func ParseSupplierStatus(s string) (SupplierStatus, bool) {
	switch st := SupplierStatus(s); st {
	case SupplierActive, SupplierInactive:
		return st, true
	}
	return "", false
}

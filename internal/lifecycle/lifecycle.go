// Package lifecycle задает допустимые переходы статусов RFQ, котировок и заказов.
package lifecycle

import (
	"procurement/internal/apperr"
	"procurement/internal/rules"
	"procurement/models"
)

type Event string

const (
	EventSend    Event = "send"
	EventClose   Event = "close"
	EventDelete  Event = "delete"
	EventConfirm Event = "confirm"
	EventAccept  Event = "accept"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
)

// RFQ: DRAFT -> SENT -> CLOSED. Удаление только из DRAFT.
func RFQ(from models.RFQStatus, ev Event) (models.RFQStatus, error) {
	switch from {
	case models.RFQDraft:
		switch ev {
		case EventSend:
			return models.RFQSent, nil
		case EventDelete:
			return models.RFQDraft, nil
		}
	case models.RFQSent:
		if ev == EventClose {
			return models.RFQClosed, nil
		}
	case models.RFQClosed:
	}
	return from, apperr.InvalidTransition("rfq", string(from), string(ev))
}

// Quote: RECEIVED -> CONFIRMED -> ACCEPTED. Повтор на ACCEPTED: конфликт.
func Quote(from models.QuoteStatus, ev Event) (models.QuoteStatus, error) {
	switch from {
	case models.QuoteReceived:
		if ev == EventConfirm {
			return models.QuoteConfirmed, nil
		}
	case models.QuoteConfirmed:
		if ev == EventAccept {
			return models.QuoteAccepted, nil
		}
	case models.QuoteAccepted:
		if ev == EventConfirm || ev == EventAccept {
			return from, apperr.Conflict("quote is already accepted")
		}
	}
	return from, apperr.InvalidTransition("quote", string(from), string(ev))
}

// InitialPOStatus: статус нового заказа по итогу оценки правил
func InitialPOStatus(d rules.Decision) models.POStatus {
	switch d {
	case rules.RequireApproval:
		return models.POPendingApproval
	case rules.AutoApprove:
		return models.POApproved
	}
	return models.POPendingApproval
}

// PurchaseOrder: PENDING_APPROVAL -> APPROVED|REJECTED, APPROVED -> SENT.
// REJECTED и SENT конечные. Удалить можно любой заказ, кроме отправленного.
func PurchaseOrder(from models.POStatus, ev Event) (models.POStatus, error) {
	switch from {
	case models.POPendingApproval:
		switch ev {
		case EventApprove:
			return models.POApproved, nil
		case EventReject:
			return models.PORejected, nil
		case EventDelete:
			return from, nil
		}
	case models.POApproved:
		switch ev {
		case EventSend:
			return models.POSent, nil
		case EventDelete:
			return from, nil
		}
	case models.PORejected:
		if ev == EventDelete {
			return from, nil
		}
	case models.POSent:
	}
	return from, apperr.InvalidTransition("purchase order", string(from), string(ev))
}


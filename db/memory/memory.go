// Package memory: хранилище в памяти для STORAGE=memory и тестов.
// Транзакция держит единственный мьютекс записи и работает с копией состояния,
// которая подменяет основное только при успешном завершении.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"procurement/internal/apperr"
	"procurement/internal/procurement"
	"procurement/models"
)

type memberKey struct {
	orgID  string
	userID string
}

type state struct {
	orgs          map[string]models.Organization
	members       map[memberKey]models.Member
	invitations   map[string]models.Invitation
	suppliers     map[string]models.Supplier
	rfqs          map[string]models.RFQ
	quotes        map[string]models.Quote
	orders        map[string]models.PurchaseOrder
	rules         map[string]models.ApprovalRule
	approvals     map[string]models.ApprovalRequest
	notifications []models.Notification
}

func newState() state {
	return state{
		orgs:        map[string]models.Organization{},
		members:     map[memberKey]models.Member{},
		invitations: map[string]models.Invitation{},
		suppliers:   map[string]models.Supplier{},
		rfqs:        map[string]models.RFQ{},
		quotes:      map[string]models.Quote{},
		orders:      map[string]models.PurchaseOrder{},
		rules:       map[string]models.ApprovalRule{},
		approvals:   map[string]models.ApprovalRequest{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.orgs {
		c.orgs[k] = v
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.invitations {
		c.invitations[k] = v
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.rfqs {
		c.rfqs[k] = cloneRFQ(v)
	}
	for k, v := range s.quotes {
		c.quotes[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.rules {
		c.rules[k] = v
	}
	for k, v := range s.approvals {
		c.approvals[k] = cloneApproval(v)
	}
	c.notifications = append([]models.Notification(nil), s.notifications...)
	return c
}

func cloneRFQ(r models.RFQ) models.RFQ {
	r.Items = append([]models.RFQItem(nil), r.Items...)
	r.SupplierIDs = append([]string(nil), r.SupplierIDs...)
	return r
}

func cloneOrder(po models.PurchaseOrder) models.PurchaseOrder {
	if po.SentAt != nil {
		t := *po.SentAt
		po.SentAt = &t
	}
	return po
}

func cloneApproval(a models.ApprovalRequest) models.ApprovalRequest {
	a.RequiredRoles = append(models.RoleSet{}, a.RequiredRoles...)
	if a.DecidedBy != nil {
		v := *a.DecidedBy
		a.DecidedBy = &v
	}
	if a.DecidedAt != nil {
		t := *a.DecidedAt
		a.DecidedAt = &t
	}
	return a
}

// repo работает с состоянием; mu задан только вне транзакции
type repo struct {
	mu *sync.RWMutex
	st *state
}

func (r *repo) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *repo) rlock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

type Store struct {
	repo
	guard sync.RWMutex
	data  state
}

var _ procurement.Store = (*Store)(nil)

func New() *Store {
	s := &Store{data: newState()}
	s.repo = repo{mu: &s.guard, st: &s.data}
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx procurement.Repository) error) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(ctx, &repo{st: &work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Организации и участники

func (r *repo) UpsertOrganization(_ context.Context, org *models.Organization) error {
	defer r.lock()()
	if existing, ok := r.st.orgs[org.ID]; ok {
		org.CreatedAt = existing.CreatedAt
	}
	r.st.orgs[org.ID] = *org
	return nil
}

func (r *repo) GetOrganization(_ context.Context, id string) (*models.Organization, error) {
	defer r.rlock()()
	org, ok := r.st.orgs[id]
	if !ok {
		return nil, apperr.NotFound("organization", id)
	}
	return &org, nil
}

func (r *repo) CreateMember(_ context.Context, m *models.Member) error {
	defer r.lock()()
	if _, ok := r.st.orgs[m.OrganizationID]; !ok {
		return apperr.NotFound("organization", m.OrganizationID)
	}
	key := memberKey{m.OrganizationID, m.UserID}
	if _, ok := r.st.members[key]; ok {
		return apperr.Conflict("user %s is already a member", m.UserID)
	}
	r.st.members[key] = *m
	return nil
}

func (r *repo) GetMember(_ context.Context, orgID, userID string) (*models.Member, error) {
	defer r.rlock()()
	m, ok := r.st.members[memberKey{orgID, userID}]
	if !ok {
		return nil, apperr.NotFound("member", userID)
	}
	return &m, nil
}

func (r *repo) ListMembers(_ context.Context, orgID string) ([]models.Member, error) {
	defer r.rlock()()
	out := []models.Member{}
	for _, m := range r.st.members {
		if m.OrganizationID == orgID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *repo) CreateInvitation(_ context.Context, inv *models.Invitation) error {
	defer r.lock()()
	r.st.invitations[inv.ID] = *inv
	return nil
}

func (r *repo) GetInvitation(_ context.Context, id string) (*models.Invitation, error) {
	defer r.rlock()()
	inv, ok := r.st.invitations[id]
	if !ok {
		return nil, apperr.NotFound("invitation", id)
	}
	return &inv, nil
}

func (r *repo) LockInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	return r.GetInvitation(ctx, id)
}

func (r *repo) UpdateInvitationStatus(_ context.Context, id string, status models.InvitationStatus) error {
	defer r.lock()()
	inv, ok := r.st.invitations[id]
	if !ok {
		return apperr.NotFound("invitation", id)
	}
	inv.Status = status
	r.st.invitations[id] = inv
	return nil
}

// Поставщики

func (r *repo) CreateSupplier(_ context.Context, s *models.Supplier) error {
	defer r.lock()()
	r.st.suppliers[s.ID] = *s
	return nil
}

func (r *repo) GetSupplier(_ context.Context, id string) (*models.Supplier, error) {
	defer r.rlock()()
	s, ok := r.st.suppliers[id]
	if !ok {
		return nil, apperr.NotFound("supplier", id)
	}
	return &s, nil
}

func (r *repo) ListSuppliers(_ context.Context, orgID string) ([]models.Supplier, error) {
	defer r.rlock()()
	out := []models.Supplier{}
	for _, s := range r.st.suppliers {
		if s.OrganizationID == orgID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *repo) UpdateSupplierStatus(_ context.Context, id string, status models.SupplierStatus) error {
	defer r.lock()()
	s, ok := r.st.suppliers[id]
	if !ok {
		return apperr.NotFound("supplier", id)
	}
	s.Status = status
	r.st.suppliers[id] = s
	return nil
}

func (r *repo) SupplierInUse(_ context.Context, id string) (bool, error) {
	defer r.rlock()()
	for _, rfq := range r.st.rfqs {
		for _, sid := range rfq.SupplierIDs {
			if sid == id {
				return true, nil
			}
		}
	}
	for _, q := range r.st.quotes {
		if q.SupplierID == id {
			return true, nil
		}
	}
	for _, po := range r.st.orders {
		if po.SupplierID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *repo) DeleteSupplier(_ context.Context, id string) error {
	defer r.lock()()
	if _, ok := r.st.suppliers[id]; !ok {
		return apperr.NotFound("supplier", id)
	}
	delete(r.st.suppliers, id)
	return nil
}

// RFQ

func (r *repo) CreateRFQ(_ context.Context, rfq *models.RFQ) error {
	defer r.lock()()
	r.st.rfqs[rfq.ID] = cloneRFQ(*rfq)
	return nil
}

func (r *repo) GetRFQ(_ context.Context, id string) (*models.RFQ, error) {
	defer r.rlock()()
	rfq, ok := r.st.rfqs[id]
	if !ok {
		return nil, apperr.NotFound("rfq", id)
	}
	rfq = cloneRFQ(rfq)
	return &rfq, nil
}

func (r *repo) LockRFQ(ctx context.Context, id string) (*models.RFQ, error) {
	return r.GetRFQ(ctx, id)
}

func (r *repo) ListRFQs(_ context.Context, orgID string, limit, offset int) ([]models.RFQ, error) {
	defer r.rlock()()
	all := []models.RFQ{}
	for _, rfq := range r.st.rfqs {
		if rfq.OrganizationID == orgID {
			all = append(all, cloneRFQ(rfq))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, limit, offset), nil
}

func (r *repo) ListOverdueRFQs(_ context.Context, before time.Time) ([]models.RFQ, error) {
	defer r.rlock()()
	out := []models.RFQ{}
	for _, rfq := range r.st.rfqs {
		if rfq.Status == models.RFQSent && rfq.DueDate.Before(before) {
			out = append(out, cloneRFQ(rfq))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *repo) UpdateRFQStatus(_ context.Context, id string, status models.RFQStatus, at time.Time) error {
	defer r.lock()()
	rfq, ok := r.st.rfqs[id]
	if !ok {
		return apperr.NotFound("rfq", id)
	}
	rfq.Status, rfq.UpdatedAt = status, at
	r.st.rfqs[id] = rfq
	return nil
}

func (r *repo) DeleteRFQ(_ context.Context, id string) error {
	defer r.lock()()
	if _, ok := r.st.rfqs[id]; !ok {
		return apperr.NotFound("rfq", id)
	}
	for _, q := range r.st.quotes {
		if q.RFQID == id {
			return apperr.Conflict("rfq %s has quotes", id)
		}
	}
	delete(r.st.rfqs, id)
	return nil
}

// Котировки

func (r *repo) CreateQuote(_ context.Context, q *models.Quote) error {
	defer r.lock()()
	if _, ok := r.st.rfqs[q.RFQID]; !ok {
		return apperr.NotFound("rfq", q.RFQID)
	}
	r.st.quotes[q.ID] = *q
	return nil
}

func (r *repo) GetQuote(_ context.Context, id string) (*models.Quote, error) {
	defer r.rlock()()
	q, ok := r.st.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote", id)
	}
	return &q, nil
}

func (r *repo) LockQuote(ctx context.Context, id string) (*models.Quote, error) {
	return r.GetQuote(ctx, id)
}

func (r *repo) ListQuotes(_ context.Context, rfqID string) ([]models.Quote, error) {
	defer r.rlock()()
	out := []models.Quote{}
	for _, q := range r.st.quotes {
		if q.RFQID == rfqID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *repo) UpdateQuoteStatus(_ context.Context, id string, status models.QuoteStatus, at time.Time) error {
	defer r.lock()()
	q, ok := r.st.quotes[id]
	if !ok {
		return apperr.NotFound("quote", id)
	}
	q.Status, q.UpdatedAt = status, at
	r.st.quotes[id] = q
	return nil
}

// Заказы

func (r *repo) CreatePurchaseOrder(_ context.Context, po *models.PurchaseOrder) error {
	defer r.lock()()
	for _, existing := range r.st.orders {
		if existing.QuoteID == po.QuoteID {
			return apperr.Conflict("quote %s already has a purchase order", po.QuoteID)
		}
	}
	if _, ok := r.st.quotes[po.QuoteID]; !ok {
		return apperr.NotFound("quote", po.QuoteID)
	}
	if _, ok := r.st.suppliers[po.SupplierID]; !ok {
		return apperr.NotFound("supplier", po.SupplierID)
	}
	r.st.orders[po.ID] = cloneOrder(*po)
	return nil
}

func (r *repo) GetPurchaseOrder(_ context.Context, id string) (*models.PurchaseOrder, error) {
	defer r.rlock()()
	po, ok := r.st.orders[id]
	if !ok {
		return nil, apperr.NotFound("purchase order", id)
	}
	po = cloneOrder(po)
	return &po, nil
}

func (r *repo) LockPurchaseOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	return r.GetPurchaseOrder(ctx, id)
}

func (r *repo) ListPurchaseOrders(_ context.Context, orgID string, status models.POStatus) ([]models.PurchaseOrder, error) {
	defer r.rlock()()
	out := []models.PurchaseOrder{}
	for _, po := range r.st.orders {
		if po.BuyerOrgID != orgID {
			continue
		}
		if status != "" && po.Status != status {
			continue
		}
		out = append(out, cloneOrder(po))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *repo) UpdatePurchaseOrderStatus(_ context.Context, id string, status models.POStatus, at time.Time) error {
	defer r.lock()()
	po, ok := r.st.orders[id]
	if !ok {
		return apperr.NotFound("purchase order", id)
	}
	po.Status, po.UpdatedAt = status, at
	if status == models.POSent {
		sent := at
		po.SentAt = &sent
	}
	r.st.orders[id] = po
	return nil
}

func (r *repo) DeletePurchaseOrder(_ context.Context, id string) error {
	defer r.lock()()
	if _, ok := r.st.orders[id]; !ok {
		return apperr.NotFound("purchase order", id)
	}
	delete(r.st.orders, id)
	return nil
}

// Правила согласования

func (r *repo) CreateApprovalRule(_ context.Context, rule *models.ApprovalRule) error {
	defer r.lock()()
	r.st.rules[rule.ID] = *rule
	return nil
}

func (r *repo) GetApprovalRule(_ context.Context, id string) (*models.ApprovalRule, error) {
	defer r.rlock()()
	rule, ok := r.st.rules[id]
	if !ok {
		return nil, apperr.NotFound("approval rule", id)
	}
	return &rule, nil
}

func (r *repo) ListApprovalRules(_ context.Context, orgID string) ([]models.ApprovalRule, error) {
	defer r.rlock()()
	out := []models.ApprovalRule{}
	for _, rule := range r.st.rules {
		if rule.OrganizationID == orgID {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MinAmount != out[j].MinAmount {
			return out[i].MinAmount < out[j].MinAmount
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *repo) DeleteApprovalRule(_ context.Context, id string) error {
	defer r.lock()()
	if _, ok := r.st.rules[id]; !ok {
		return apperr.NotFound("approval rule", id)
	}
	delete(r.st.rules, id)
	return nil
}

// Запросы согласования

func (r *repo) CreateApprovalRequest(_ context.Context, a *models.ApprovalRequest) error {
	defer r.lock()()
	for _, existing := range r.st.approvals {
		if existing.EntityType == a.EntityType && existing.EntityID == a.EntityID && existing.Status == models.ApprovalPending {
			return apperr.Conflict("%s %s already has a pending approval", a.EntityType, a.EntityID)
		}
	}
	r.st.approvals[a.ID] = cloneApproval(*a)
	return nil
}

func (r *repo) GetApprovalRequest(_ context.Context, id string) (*models.ApprovalRequest, error) {
	defer r.rlock()()
	a, ok := r.st.approvals[id]
	if !ok {
		return nil, apperr.NotFound("approval request", id)
	}
	a = cloneApproval(a)
	return &a, nil
}

func (r *repo) LockApprovalRequest(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return r.GetApprovalRequest(ctx, id)
}

func (r *repo) FindApprovalRequest(_ context.Context, entityType, entityID string) (*models.ApprovalRequest, error) {
	defer r.rlock()()
	var found *models.ApprovalRequest
	for _, a := range r.st.approvals {
		if a.EntityType != entityType || a.EntityID != entityID {
			continue
		}
		if found == nil || a.CreatedAt.After(found.CreatedAt) {
			c := cloneApproval(a)
			found = &c
		}
	}
	return found, nil
}

func (r *repo) ListPendingApprovals(_ context.Context, orgID string) ([]models.PendingApproval, error) {
	defer r.rlock()()
	out := []models.PendingApproval{}
	for _, a := range r.st.approvals {
		if a.OrganizationID != orgID || a.Status != models.ApprovalPending {
			continue
		}
		po, ok := r.st.orders[a.EntityID]
		if !ok || a.EntityType != models.EntityPurchaseOrder {
			continue
		}
		out = append(out, models.PendingApproval{
			ApprovalRequest: cloneApproval(a),
			PurchaseOrder: &models.PendingOrderSummary{
				ID:          po.ID,
				TotalAmount: po.TotalAmount,
				Currency:    po.Currency,
				Status:      po.Status,
				Supplier:    models.SupplierSummary{ID: po.SupplierID, Name: r.st.suppliers[po.SupplierID].Name},
			},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *repo) ResolveApprovalRequest(_ context.Context, id string, status models.ApprovalStatus, decidedBy string, at time.Time) error {
	defer r.lock()()
	a, ok := r.st.approvals[id]
	if !ok {
		return apperr.NotFound("approval request", id)
	}
	if a.Status != models.ApprovalPending {
		return apperr.Conflict("approval request %s is already decided", id)
	}
	by, when := decidedBy, at
	a.Status, a.DecidedBy, a.DecidedAt = status, &by, &when
	r.st.approvals[id] = a
	return nil
}

func (r *repo) DeleteApprovalRequests(_ context.Context, entityType, entityID string) error {
	defer r.lock()()
	for id, a := range r.st.approvals {
		if a.EntityType == entityType && a.EntityID == entityID {
			delete(r.st.approvals, id)
		}
	}
	return nil
}

// Уведомления

func (r *repo) CreateNotification(_ context.Context, n *models.Notification) error {
	defer r.lock()()
	r.st.notifications = append(r.st.notifications, *n)
	return nil
}

func (r *repo) ListNotifications(_ context.Context, orgID, userID string, limit int) ([]models.Notification, error) {
	defer r.rlock()()
	out := []models.Notification{}
	for i := len(r.st.notifications) - 1; i >= 0; i-- {
		n := r.st.notifications[i]
		if n.OrganizationID == orgID && n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *repo) MarkNotificationRead(_ context.Context, orgID, id, userID string) (*models.Notification, error) {
	defer r.lock()()
	for i := range r.st.notifications {
		n := &r.st.notifications[i]
		if n.ID == id && n.UserID == userID && n.OrganizationID == orgID {
			n.Read = true
			out := *n
			return &out, nil
		}
	}
	return nil, apperr.NotFound("notification", id)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

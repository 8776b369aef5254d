package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Role: роль участника организации
type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RoleProcurement Role = "procurement"
	RoleApprover    Role = "approver"
)

// ParseRole разбирает роль без учета регистра. org_owner: старое имя роли владельца.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner", "org_owner":
		return RoleOwner, nil
	case "admin":
		return RoleAdmin, nil
	case "procurement":
		return RoleProcurement, nil
	case "approver":
		return RoleApprover, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanManageProcurement: поставщики, RFQ, котировки, заказы
func (r Role) CanManageProcurement() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleProcurement:
		return true
	case RoleApprover:
		return false
	}
	return false
}

// CanManageApprovalRules: настройка правил согласования
func (r Role) CanManageApprovalRules() bool {
	switch r {
	case RoleOwner, RoleAdmin:
		return true
	case RoleProcurement, RoleApprover:
		return false
	}
	return false
}

// CanManageTeam: приглашения участников
func (r Role) CanManageTeam() bool {
	switch r {
	case RoleOwner, RoleAdmin:
		return true
	case RoleProcurement, RoleApprover:
		return false
	}
	return false
}

// RoleSet: отсортированное множество ролей без повторов
type RoleSet []Role

// NewRoleSet строит множество из произвольного списка
func NewRoleSet(roles ...Role) RoleSet {
	seen := make(map[Role]struct{}, len(roles))
	set := make(RoleSet, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		set = append(set, r)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set
}

func (s RoleSet) Contains(r Role) bool {
	for _, v := range s {
		if v == r {
			return true
		}
	}
	return false
}

func (s RoleSet) Empty() bool { return len(s) == 0 }

// Value сохраняет множество как text[]
func (s RoleSet) Value() (driver.Value, error) {
	arr := make(pq.StringArray, len(s))
	for i, r := range s {
		arr[i] = string(r)
	}
	return arr.Value()
}

// Scan читает text[] из базы
func (s *RoleSet) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	roles := make([]Role, 0, len(arr))
	for _, v := range arr {
		r, err := ParseRole(v)
		if err != nil {
			return err
		}
		roles = append(roles, r)
	}
	*s = NewRoleSet(roles...)
	return nil
}

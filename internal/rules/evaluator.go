// Package rules вычисляет роли, которые должны согласовать заказ.
package rules

import "procurement/models"

// Decision: явный итог оценки правил
type Decision int

const (
	AutoApprove Decision = iota
	RequireApproval
)

func (d Decision) String() string {
	switch d {
	case AutoApprove:
		return "auto_approve"
	case RequireApproval:
		return "require_approval"
	}
	return "unknown"
}

type Result struct {
	Decision Decision
	Roles    models.RoleSet
	Matched  []models.ApprovalRule
}

// Evaluate выбирает правила той же валюты с порогом не выше суммы.
// Правило в другой валюте не применяется никогда, конвертации нет.
func Evaluate(amount models.Amount, currency string, rules []models.ApprovalRule) Result {
	var (
		matched []models.ApprovalRule
		roles   []models.Role
	)
	for _, rule := range rules {
		if rule.Currency != currency {
			continue
		}
		if rule.MinAmount > amount {
			continue
		}
		matched = append(matched, rule)
		roles = append(roles, rule.Role)
	}

	if len(matched) == 0 {
		return Result{Decision: AutoApprove, Roles: models.RoleSet{}}
	}
	return Result{
		Decision: RequireApproval,
		Roles:    models.NewRoleSet(roles...),
		Matched:  matched,
	}
}

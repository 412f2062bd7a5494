package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleWorker Role = "WORKER"
)

const (
	PermOrdersCreate          = "orders.create"
	PermOrdersEdit            = "orders.edit"
	PermOrdersDelete          = "orders.delete"
	PermOrdersViewAll         = "orders.view_all"
	PermOrdersViewAmounts     = "orders.view_amounts"
	PermOrdersAssignWorker    = "orders.assign_worker"
	PermOrdersGenerateInvoice = "orders.generate_invoice"
	PermOrdersViewAssigned    = "orders.view_assigned"
	PermOrdersUpdateStatus    = "orders.update_status"
)

// Principal is an authenticated back-office user.
type Principal struct {
	Username    string
	Role        Role
	Permissions []string
}

func (p Principal) HasPermission(perm string) bool {
	return slices.Contains(p.Permissions, perm)
}

// CanSeeOrder reports whether p may read o. Users without orders.view_all
// only see orders assigned to them.
func (p Principal) CanSeeOrder(o *Order) bool {
	if p.Role == RoleAdmin || p.HasPermission(PermOrdersViewAll) {
		return true
	}
	return o.AssignedWorker == p.Username
}

// Session is an issued login, identified by an opaque token.
type Session struct {
	Token string
	Principal
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

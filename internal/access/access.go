package access

import (
	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// Action enumerates the operations gated by the controller. Public tracking
// by ticket id bypasses the controller entirely; anonymity redaction handles
// it instead.
type Action string

const (
	ActionSubmit       Action = "submit"
	ActionView         Action = "view"
	ActionList         Action = "list"
	ActionUpdateStatus Action = "update_status"
	ActionReassign     Action = "reassign"
	ActionEscalate     Action = "escalate"
	ActionFeedback     Action = "feedback"
	ActionManageUsers  Action = "manage_users"
	ActionViewStats    Action = "view_stats"
)

// Scope narrows an allowed action to a subset of grievances.
type Scope int

const (
	// ScopeOwn restricts the action to grievances the caller submitted.
	ScopeOwn Scope = iota + 1
	// ScopeAssigned restricts the action to grievances assigned to the caller.
	ScopeAssigned
	// ScopeAny places no per-record restriction.
	ScopeAny
)

// rules is the (role, action) permission table. A missing entry means the
// role may never perform the action.
var rules = map[domain.Role]map[Action]Scope{
	domain.RoleStudent: {
		ActionSubmit:    ScopeAny,
		ActionView:      ScopeOwn,
		ActionList:      ScopeOwn,
		ActionEscalate:  ScopeOwn,
		ActionFeedback:  ScopeOwn,
		ActionViewStats: ScopeOwn,
	},
	domain.RoleAuthority: {
		ActionView:         ScopeAssigned,
		ActionList:         ScopeAssigned,
		ActionUpdateStatus: ScopeAssigned,
		ActionViewStats:    ScopeAssigned,
	},
	domain.RoleAdmin: {
		ActionSubmit:       ScopeAny,
		ActionView:         ScopeAny,
		ActionList:         ScopeAny,
		ActionUpdateStatus: ScopeAny,
		ActionReassign:     ScopeAny,
		ActionEscalate:     ScopeAny,
		ActionFeedback:     ScopeOwn,
		ActionManageUsers:  ScopeAny,
		ActionViewStats:    ScopeAny,
	},
}

// Authorize gates an action for a caller, optionally against a target
// grievance. It returns nil on allow and a FORBIDDEN domain error otherwise.
func Authorize(user *domain.User, action Action, target *domain.Grievance) error {
	if user == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	scope, ok := rules[user.Role][action]
	if !ok {
		return apperrors.NewForbidden("role " + string(user.Role) + " may not " + string(action))
	}
	if target == nil {
		return nil
	}
	switch scope {
	case ScopeAny:
		return nil
	case ScopeOwn:
		if target.OwnedBy(user.ID) {
			return nil
		}
	case ScopeAssigned:
		if target.AssigneeID == user.ID {
			return nil
		}
	}
	return apperrors.NewForbidden("access denied")
}

// ScopeFor exposes the table entry for list-style operations that need to
// translate scope into a query filter.
func ScopeFor(role domain.Role, action Action) (Scope, bool) {
	scope, ok := rules[role][action]
	return scope, ok
}

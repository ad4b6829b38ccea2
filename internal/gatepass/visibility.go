package gatepass

import (
	"time"

	"gatepass/internal/identity"
)

// Scope is the role-derived slice of passes a listing may return. Zero
// fields leave that dimension unrestricted; Empty short-circuits to no
// rows at all. Caller filters are applied inside the scope and can only
// narrow it further.
type Scope struct {
	Empty         bool
	StudentID     string
	Department    string
	Status        Status
	EmergencyOnly bool
}

// ViewScope maps an actor to the listing it may read: students their own
// passes, department staff their department's, principal and admin the
// whole campus, security the approved slice it verifies at the gate.
// Department staff without a department see nothing.
func ViewScope(actor identity.Actor) Scope {
	switch {
	case actor.Role == identity.RoleStudent:
		return Scope{StudentID: actor.ID}
	case actor.Role.ViewsAllPasses():
		return Scope{}
	case actor.Role.ViewsDepartmentPasses():
		if actor.Department == "" {
			return Scope{Empty: true}
		}
		return Scope{Department: actor.Department}
	case actor.Role.CanMarkGate():
		return Scope{Status: StatusApproved}
	}
	return Scope{Empty: true}
}

// PendingScope maps an approver to its approval queue: class in-charge →
// pending EMERGENCY passes of the own department, HOD → pending passes of
// the own department, principal → all pending. Non-approvers are denied.
func PendingScope(actor identity.Actor) (Scope, error) {
	if err := CanListPending(actor).Err(); err != nil {
		return Scope{}, err
	}
	scope := Scope{Status: StatusPending}
	switch actor.Role {
	case identity.RoleClassIncharge:
		if actor.Department == "" {
			scope.Empty = true
			return scope, nil
		}
		scope.Department = actor.Department
		scope.EmergencyOnly = true
	case identity.RoleHOD:
		if actor.Department == "" {
			scope.Empty = true
			return scope, nil
		}
		scope.Department = actor.Department
	}
	return scope, nil
}

// ListFilter narrows a listing within the caller's scope. Zero values
// impose nothing. From and To are instants derived from campus calendar
// dates by the transport layer: From inclusive, To exclusive, both
// compared against the pass's out time.
type ListFilter struct {
	Status   Status
	PassType PassType
	From     time.Time
	To       time.Time
}

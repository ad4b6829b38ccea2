package gatepass

import "gatepass/internal/identity"

// Decision is an explicit allow or deny. Reason carries the violated
// restriction on a deny and becomes the AuthorizationError message.
// Every policy function denies unless a rule explicitly allows.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Err converts a deny into its AuthorizationError; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &AuthorizationError{Restriction: d.Reason}
}

// CanCreate decides whether the actor may request a new pass.
func CanCreate(actor identity.Actor) Decision {
	if !actor.Role.CanCreatePass() {
		return deny("Only students can create gate pass requests.")
	}
	return allow()
}

// CanDecide decides whether the actor may approve or reject the pass.
// Class in-charges are limited to EMERGENCY passes; HOD and principal
// decide every type. Department membership plays no part in deciding.
func CanDecide(actor identity.Actor, p *GatePass) Decision {
	if !actor.Role.IsApprover() {
		return deny("You don't have permission to approve/reject this gate pass.")
	}
	if !actor.Role.CanApproveAnyType() && p.PassType != TypeEmergency {
		return deny("Class Incharge can only approve EMERGENCY passes.")
	}
	return allow()
}

// CanListPending decides whether the actor may read a pending queue at
// all; the queue's contents are scoped separately by PendingScope.
func CanListPending(actor identity.Actor) Decision {
	if !actor.Role.IsApprover() {
		return deny("You don't have permission to approve/reject this gate pass.")
	}
	return allow()
}

// CanMarkGate decides whether the actor may record gate movements and
// scan QR tokens.
func CanMarkGate(actor identity.Actor) Decision {
	if !actor.Role.CanMarkGate() {
		return deny("Only security personnel can mark entry/exit.")
	}
	return allow()
}

// CanViewPass decides whether the actor may read a single pass. Students
// see their own. Department staff see their department's. Principal and
// admin see everything. Security sees approved passes only, matching the
// slice of the list they verify at the gate.
func CanViewPass(actor identity.Actor, p *GatePass) Decision {
	const reason = "You don't have permission to view this gate pass."
	switch {
	case actor.Role.ViewsAllPasses():
		return allow()
	case actor.ID == p.StudentID:
		return allow()
	case actor.Role.ViewsDepartmentPasses():
		if actor.Department != "" && actor.Department == p.StudentDepartment {
			return allow()
		}
		return deny(reason)
	case actor.Role.CanMarkGate():
		if p.Status == StatusApproved {
			return allow()
		}
		return deny(reason)
	}
	return deny(reason)
}

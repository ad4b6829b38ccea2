package gatepass

import (
	"errors"
	"testing"

	"gatepass/internal/identity"
)

func TestViewScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		actor identity.Actor
		want  Scope
	}{
		{"student", identity.Actor{ID: "stu-1", Role: identity.RoleStudent}, Scope{StudentID: "stu-1"}},
		{"faculty", actor(identity.RoleFaculty, "CSE"), Scope{Department: "CSE"}},
		{"faculty no department", actor(identity.RoleFaculty, ""), Scope{Empty: true}},
		{"class incharge", actor(identity.RoleClassIncharge, "ECE"), Scope{Department: "ECE"}},
		{"hod", actor(identity.RoleHOD, "MEC"), Scope{Department: "MEC"}},
		{"hod no department", actor(identity.RoleHOD, ""), Scope{Empty: true}},
		{"principal", actor(identity.RolePrincipal, ""), Scope{}},
		{"admin", actor(identity.RoleAdmin, ""), Scope{}},
		{"security", actor(identity.RoleSecurity, ""), Scope{Status: StatusApproved}},
		{"unknown role", identity.Actor{ID: "x", Role: identity.Role("warden")}, Scope{Empty: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ViewScope(tt.actor); got != tt.want {
				t.Errorf("ViewScope() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPendingScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		actor identity.Actor
		want  Scope
	}{
		{
			name:  "class incharge",
			actor: actor(identity.RoleClassIncharge, "CSE"),
			want:  Scope{Status: StatusPending, Department: "CSE", EmergencyOnly: true},
		},
		{
			name:  "class incharge no department",
			actor: actor(identity.RoleClassIncharge, ""),
			want:  Scope{Status: StatusPending, Empty: true},
		},
		{
			name:  "hod",
			actor: actor(identity.RoleHOD, "ECE"),
			want:  Scope{Status: StatusPending, Department: "ECE"},
		},
		{
			name:  "hod no department",
			actor: actor(identity.RoleHOD, ""),
			want:  Scope{Status: StatusPending, Empty: true},
		},
		{
			name:  "principal",
			actor: actor(identity.RolePrincipal, ""),
			want:  Scope{Status: StatusPending},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PendingScope(tt.actor)
			if err != nil {
				t.Fatalf("PendingScope() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PendingScope() = %+v, want %+v", got, tt.want)
			}
		})
	}

	for _, role := range []identity.Role{
		identity.RoleStudent, identity.RoleFaculty, identity.RoleSecurity, identity.RoleAdmin,
	} {
		_, err := PendingScope(actor(role, "CSE"))
		var ae *AuthorizationError
		if !errors.As(err, &ae) {
			t.Errorf("PendingScope(%s) error = %v, want AuthorizationError", role, err)
		}
	}
}

package gatepass

import (
	"fmt"
	"time"

	"gatepass/internal/identity"
)

// Status is the lifecycle state of a gate pass. A pass starts pending,
// is decided into approved or rejected, and an approved pass ends up
// used (marked back in) or expired (window passed before exit).
// rejected, expired and used are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
	StatusUsed     Status = "used"
)

// Statuses lists every lifecycle state.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusExpired, StatusUsed}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if s == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Terminal reports whether no transition leaves the state.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusUsed:
		return true
	}
	return false
}

// PassType is the kind of outing a pass covers.
type PassType string

const (
	TypeDayOut    PassType = "DAY_OUT"
	TypeHomeLeave PassType = "HOME_LEAVE"
	TypeEmergency PassType = "EMERGENCY"
	TypeNightOut  PassType = "NIGHT_OUT"
	TypeLongLeave PassType = "LONG_LEAVE"
)

// PassTypes lists every pass type.
var PassTypes = []PassType{TypeDayOut, TypeHomeLeave, TypeEmergency, TypeNightOut, TypeLongLeave}

// ParsePassType validates a raw pass type string.
func ParsePassType(s string) (PassType, error) {
	for _, t := range PassTypes {
		if s == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown pass type %q", s)
}

// AllowedFor reports whether a student of the given residency may request
// this pass type. Day scholars get the same-day kinds only; hostellers get
// all five. Unknown residencies get nothing.
func (t PassType) AllowedFor(res identity.Residency) bool {
	switch res {
	case identity.ResidencyHosteller:
		return true
	case identity.ResidencyDayScholar:
		switch t {
		case TypeDayOut, TypeHomeLeave, TypeEmergency:
			return true
		}
	}
	return false
}

// GatePass is a stored pass row. The Student* fields are joined from the
// owning student for reads and never written back.
type GatePass struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"student_id"`
	PassType        PassType  `json:"pass_type"`
	Reason          string    `json:"reason"`
	OutTime         time.Time `json:"out_datetime"`
	InTime          time.Time `json:"in_datetime"`
	Status          Status    `json:"status"`
	ApprovedBy      *string   `json:"approved_by,omitempty"`
	ApproverComment string    `json:"approver_comment,omitempty"`
	QRToken         string    `json:"qr_token"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	StudentName       string `json:"student_name,omitempty"`
	StudentRoll       string `json:"student_roll,omitempty"`
	StudentDepartment string `json:"student_department,omitempty"`
}

// IsValid reports whether the pass admits an exit at the given instant:
// approved and inside its [out, in] window, both boundaries inclusive.
func (p *GatePass) IsValid(now time.Time) bool {
	return p.Status == StatusApproved && !now.Before(p.OutTime) && !now.After(p.InTime)
}

// IsExpired reports whether the window has passed, regardless of status.
func (p *GatePass) IsExpired(now time.Time) bool {
	return now.After(p.InTime)
}

// LogAction is the direction of a recorded gate movement.
type LogAction string

const (
	ActionOut LogAction = "OUT"
	ActionIn  LogAction = "IN"
)

// GateLog is one appended gate movement. A pass accumulates at most one
// OUT and at most one IN, in that order.
type GateLog struct {
	ID         string    `json:"id"`
	GatePassID string    `json:"gate_pass_id"`
	Action     LogAction `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
	MarkedBy   *string   `json:"marked_by,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

func hasLog(logs []GateLog, action LogAction) bool {
	for _, l := range logs {
		if l.Action == action {
			return true
		}
	}
	return false
}

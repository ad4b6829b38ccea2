package gatepass

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/identity"
)

// The transition functions below are pure over (pass, logs, input, now):
// they validate preconditions, mutate the in-memory pass and shape any
// log row, and return typed errors otherwise. Persistence applies the
// result atomically; nothing here touches storage. The one deliberate
// wrinkle is MarkOut's lazy expiry flip, which mutates the pass even
// though the call fails, and callers persist that flip.

// CreateInput is a student's pass request.
type CreateInput struct {
	PassType string    `json:"pass_type" binding:"required"`
	Reason   string    `json:"reason"`
	OutTime  time.Time `json:"out_datetime" binding:"required"`
	InTime   time.Time `json:"in_datetime" binding:"required"`
}

// NewPass validates a request against the student's residency and shapes
// the pending pass. The campus location fixes which calendar day an
// instant belongs to for the day-scholar same-day rule. The row ID is
// left for the store; the QR token is minted here, once, and never
// rotates.
func NewPass(studentID string, profile *identity.StudentProfile, in CreateInput, now time.Time, campus *time.Location) (*GatePass, error) {
	if profile == nil {
		return nil, invalid("", "Student profile not found. Please complete your profile first.")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, invalid("reason", "Reason is required.")
	}
	if !in.OutTime.After(now) {
		return nil, invalid("out_datetime", "Out datetime must be in the future.")
	}
	if !in.InTime.After(in.OutTime) {
		return nil, invalid("in_datetime", "In datetime must be after out datetime.")
	}
	passType, err := ParsePassType(in.PassType)
	if err != nil {
		return nil, invalid("pass_type", "Invalid pass type. Allowed types: DAY_OUT, HOME_LEAVE, EMERGENCY, NIGHT_OUT, LONG_LEAVE.")
	}
	if !passType.AllowedFor(profile.Residency) {
		return nil, invalid("pass_type", "Day scholars can only request: DAY_OUT, HOME_LEAVE, EMERGENCY. NIGHT_OUT and LONG_LEAVE are only available for hostellers.")
	}
	if profile.Residency == identity.ResidencyDayScholar && !sameCampusDay(in.OutTime, in.InTime, campus) {
		return nil, invalid("in_datetime", "Day scholars must return on the same day. Out date and In date must be the same.")
	}

	return &GatePass{
		StudentID: studentID,
		PassType:  passType,
		Reason:    reason,
		OutTime:   in.OutTime,
		InTime:    in.InTime,
		Status:    StatusPending,
		QRToken:   uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func sameCampusDay(a, b time.Time, campus *time.Location) bool {
	ay, am, ad := a.In(campus).Date()
	by, bm, bd := b.In(campus).Date()
	return ay == by && am == bm && ad == bd
}

// Approve moves a pending pass to approved and records the decider.
func Approve(p *GatePass, approverID, comment string, now time.Time) error {
	if p.Status != StatusPending {
		return conflict("approve", p.Status, "Gate pass is already "+string(p.Status)+".")
	}
	p.Status = StatusApproved
	p.ApprovedBy = &approverID
	p.ApproverComment = comment
	p.UpdatedAt = now
	return nil
}

// Reject moves a pending pass to rejected. The decider lands in
// ApprovedBy for both verdicts; the status tells them apart.
func Reject(p *GatePass, approverID, comment string, now time.Time) error {
	if p.Status != StatusPending {
		return conflict("reject", p.Status, "Gate pass is already "+string(p.Status)+".")
	}
	p.Status = StatusRejected
	p.ApprovedBy = &approverID
	p.ApproverComment = comment
	p.UpdatedAt = now
	return nil
}

// MarkOut records an exit on an approved pass whose window has opened,
// both window boundaries inclusive. When the window has already closed
// the pass flips to expired in place and the call fails; the caller must
// persist the flip. On success the status stays approved until mark-in.
func MarkOut(p *GatePass, logs []GateLog, securityID, notes string, now time.Time, campus *time.Location) (*GateLog, error) {
	if p.Status != StatusApproved {
		return nil, conflict("mark-out", p.Status, "Gate pass is not approved.")
	}
	if hasLog(logs, ActionOut) {
		return nil, conflict("mark-out", p.Status, "Student has already exited.")
	}
	if now.Before(p.OutTime) {
		return nil, conflict("mark-out", p.Status, "Gate pass is not yet valid. Valid from: "+p.OutTime.In(campus).Format("2006-01-02 15:04"))
	}
	if now.After(p.InTime) {
		p.Status = StatusExpired
		p.UpdatedAt = now
		return nil, conflict("mark-out", StatusExpired, "Gate pass has expired.")
	}
	return &GateLog{
		GatePassID: p.ID,
		Action:     ActionOut,
		Timestamp:  now,
		MarkedBy:   &securityID,
		Notes:      notes,
	}, nil
}

// MarkIn records the return and consumes the pass. There is no time
// check: a late return is still recorded, against a pass that must have
// an OUT and no IN yet.
func MarkIn(p *GatePass, logs []GateLog, securityID, notes string, now time.Time) (*GateLog, error) {
	if p.Status != StatusApproved && p.Status != StatusUsed {
		return nil, conflict("mark-in", p.Status, "Gate pass is not valid.")
	}
	if !hasLog(logs, ActionOut) {
		return nil, conflict("mark-in", p.Status, "Student has not exited yet.")
	}
	if hasLog(logs, ActionIn) {
		return nil, conflict("mark-in", p.Status, "Student has already returned.")
	}
	p.Status = StatusUsed
	p.UpdatedAt = now
	return &GateLog{
		GatePassID: p.ID,
		Action:     ActionIn,
		Timestamp:  now,
		MarkedBy:   &securityID,
		Notes:      notes,
	}, nil
}

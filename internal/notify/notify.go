// Package notify composes the emails the worker sends after gate pass
// transitions. Composition is separated from delivery so the templates
// are testable without SMTP.
package notify

import (
	"fmt"
	"time"

	"gatepass/internal/gatepass"
	"gatepass/internal/identity"
)

// Email is one composed message.
type Email struct {
	To      []string
	Subject string
	Body    string
}

// Event carries everything a notification needs, resolved by the worker
// before composing. Profile and Approver may be absent.
type Event struct {
	Action   string
	Pass     *gatepass.GatePass
	Student  *identity.User
	Profile  *identity.StudentProfile
	Approver string
	Logs     []gatepass.GateLog
}

const signature = "Regards,\nCollege Gate Pass System"

// Compose builds the email for a transition event. The student always
// receives it; a hosteller's parent is added on approved, out and in.
// A rejection stays between the student and the approvers. Unknown
// actions report ok=false.
func Compose(ev Event, campus *time.Location) (Email, bool) {
	if campus == nil {
		campus = time.UTC
	}
	name := ev.Student.FullName()

	var subject, body string
	switch ev.Action {
	case gatepass.EventApproved:
		approver := ev.Approver
		if approver == "" {
			approver = "N/A"
		}
		subject = fmt.Sprintf("Gate Pass Approved - %s", ev.Pass.PassType)
		body = fmt.Sprintf(`Dear %s,

Your gate pass request has been APPROVED.

Details:
- Pass Type: %s
- Reason: %s
- Out Time: %s
- Return Time: %s
- Approved By: %s

Please show your QR code at the security gate.

%s`, name, ev.Pass.PassType, ev.Pass.Reason,
			stamp(ev.Pass.OutTime, campus), stamp(ev.Pass.InTime, campus), approver, signature)

	case gatepass.EventRejected:
		comment := ev.Pass.ApproverComment
		if comment == "" {
			comment = "No comment provided"
		}
		subject = fmt.Sprintf("Gate Pass Rejected - %s", ev.Pass.PassType)
		body = fmt.Sprintf(`Dear %s,

Your gate pass request has been REJECTED.

Details:
- Pass Type: %s
- Reason: %s
- Comment: %s

You may submit a new request if needed.

%s`, name, ev.Pass.PassType, ev.Pass.Reason, comment, signature)

	case gatepass.EventOut:
		subject = fmt.Sprintf("Exit Marked - Gate Pass #%s", ev.Pass.ID)
		body = fmt.Sprintf(`Dear %s,

Your exit has been recorded.

Details:
- Pass ID: #%s
- Exit Time: %s
- Expected Return: %s

Have a safe journey!

%s`, name, ev.Pass.ID, logStamp(ev.Logs, gatepass.ActionOut, campus),
			stamp(ev.Pass.InTime, campus), signature)

	case gatepass.EventIn:
		subject = fmt.Sprintf("Entry Marked - Gate Pass #%s", ev.Pass.ID)
		body = fmt.Sprintf(`Dear %s,

Welcome back! Your entry has been recorded.

Details:
- Pass ID: #%s
- Entry Time: %s

Gate pass completed successfully.

%s`, name, ev.Pass.ID, logStamp(ev.Logs, gatepass.ActionIn, campus), signature)

	default:
		return Email{}, false
	}

	to := []string{ev.Student.Email}
	if parent := parentEmail(ev); parent != "" {
		to = append(to, parent)
	}
	return Email{To: to, Subject: subject, Body: body}, true
}

// parentEmail returns the hosteller parent's address when the action
// warrants keeping them informed.
func parentEmail(ev Event) string {
	if ev.Profile == nil || ev.Profile.Residency != identity.ResidencyHosteller {
		return ""
	}
	switch ev.Action {
	case gatepass.EventApproved, gatepass.EventOut, gatepass.EventIn:
		return ev.Profile.ParentEmail
	}
	return ""
}

func stamp(t time.Time, campus *time.Location) string {
	return t.In(campus).Format("2006-01-02 15:04")
}

func logStamp(logs []gatepass.GateLog, action gatepass.LogAction, campus *time.Location) string {
	for _, l := range logs {
		if l.Action == action {
			return stamp(l.Timestamp, campus)
		}
	}
	return "N/A"
}

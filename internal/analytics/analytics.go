// Package analytics computes reporting aggregates over the gate pass
// tables. It is read-only glue on top of SQL; nothing here participates
// in the pass lifecycle.
package analytics

import (
	"context"
	"database/sql"
	"math"
	"strconv"
	"time"
)

// Service runs the summary queries. HOD callers are pinned to their own
// department by the transport layer before the query runs.
type Service struct {
	db     *sql.DB
	campus *time.Location
	now    func() time.Time
}

// NewService creates a service. campus fixes which calendar day an
// instant belongs to; nil means UTC.
func NewService(db *sql.DB, campus *time.Location) *Service {
	if campus == nil {
		campus = time.UTC
	}
	return &Service{db: db, campus: campus, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the service clock. Tests pin time with it.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// DateRange is the resolved reporting window, campus calendar dates.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Totals are the status counts plus the share of decided passes that
// were approved, in percent with one decimal.
type Totals struct {
	Total        int     `json:"total"`
	Pending      int     `json:"pending"`
	Approved     int     `json:"approved"`
	Rejected     int     `json:"rejected"`
	Used         int     `json:"used"`
	ApprovalRate float64 `json:"approval_rate"`
}

// DayCount is one calendar day's pass volume.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DeptCount is one department's pass volume.
type DeptCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// TypeCount is one pass type's volume.
type TypeCount struct {
	PassType string `json:"pass_type"`
	Count    int    `json:"count"`
}

// StudentRank is one student's pass volume for the top list.
type StudentRank struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// Summary is the reporting payload.
type Summary struct {
	DateRange   DateRange     `json:"date_range"`
	Department  string        `json:"department,omitempty"`
	Totals      Totals        `json:"summary"`
	PerDay      []DayCount    `json:"passes_per_day"`
	PerDept     []DeptCount   `json:"passes_per_department"`
	PerType     []TypeCount   `json:"passes_per_type"`
	TopStudents []StudentRank `json:"top_students"`
}

// resolveRange parses from/to calendar dates and falls back to the last
// 30 days ending today. Unparseable values fall back silently. Returned
// times are campus midnights; to is the inclusive last day.
func resolveRange(fromStr, toStr string, now time.Time, campus *time.Location) (time.Time, time.Time) {
	local := now.In(campus)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, campus)

	from := today.AddDate(0, 0, -30)
	if fromStr != "" {
		if d, err := time.ParseInLocation("2006-01-02", fromStr, campus); err == nil {
			from = d
		}
	}
	to := today
	if toStr != "" {
		if d, err := time.ParseInLocation("2006-01-02", toStr, campus); err == nil {
			to = d
		}
	}
	return from, to
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Summary aggregates pass volumes for the window. department narrows to
// one department; empty means campus-wide.
func (s *Service) Summary(ctx context.Context, department, fromStr, toStr string) (*Summary, error) {
	from, to := resolveRange(fromStr, toStr, s.now(), s.campus)
	end := to.AddDate(0, 0, 1)

	where := ` WHERE p.created_at >= $1 AND p.created_at < $2`
	args := []any{from, end}
	if department != "" {
		where += ` AND u.department = $3`
		args = append(args, department)
	}
	base := ` FROM gate_passes p JOIN users u ON u.id = p.student_id` + where

	out := &Summary{
		DateRange:   DateRange{From: from.Format("2006-01-02"), To: to.Format("2006-01-02")},
		Department:  department,
		PerDay:      []DayCount{},
		PerDept:     []DeptCount{},
		PerType:     []TypeCount{},
		TopStudents: []StudentRank{},
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE p.status = 'pending'),
			COUNT(*) FILTER (WHERE p.status = 'approved'),
			COUNT(*) FILTER (WHERE p.status = 'rejected'),
			COUNT(*) FILTER (WHERE p.status = 'used')
	`+base, args...).Scan(&out.Totals.Total, &out.Totals.Pending, &out.Totals.Approved,
		&out.Totals.Rejected, &out.Totals.Used)
	if err != nil {
		return nil, err
	}
	if decided := out.Totals.Approved + out.Totals.Rejected; decided > 0 {
		out.Totals.ApprovalRate = round1(float64(out.Totals.Approved) / float64(decided) * 100)
	}

	tzArgs := append(append([]any{}, args...), s.campus.String())
	tz := "$" + strconv.Itoa(len(tzArgs))
	rows, err := s.db.QueryContext(ctx, `
		SELECT (p.created_at AT TIME ZONE `+tz+`)::date AS day, COUNT(*)
	`+base+` GROUP BY day ORDER BY day`, tzArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var day time.Time
		var c DayCount
		if err := rows.Scan(&day, &c.Count); err != nil {
			return nil, err
		}
		c.Date = day.Format("2006-01-02")
		out.PerDay = append(out.PerDay, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT u.department, COUNT(*) AS c
	`+base+` AND u.department <> '' GROUP BY u.department ORDER BY c DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c DeptCount
		if err := rows.Scan(&c.Department, &c.Count); err != nil {
			return nil, err
		}
		out.PerDept = append(out.PerDept, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT p.pass_type, COUNT(*) AS c
	`+base+` GROUP BY p.pass_type ORDER BY c DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c TypeCount
		if err := rows.Scan(&c.PassType, &c.Count); err != nil {
			return nil, err
		}
		out.PerType = append(out.PerType, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT TRIM(CONCAT_WS(' ', u.first_name, u.last_name)), u.email, u.department, COUNT(*) AS c
	`+base+` GROUP BY u.id, u.first_name, u.last_name, u.email, u.department
		ORDER BY c DESC LIMIT 10`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r StudentRank
		if err := rows.Scan(&r.Name, &r.Email, &r.Department, &r.Count); err != nil {
			return nil, err
		}
		out.TopStudents = append(out.TopStudents, r)
	}
	return out, rows.Err()
}

// PassStats are a department's pass counters.
type PassStats struct {
	Total     int `json:"total"`
	ThisMonth int `json:"this_month"`
	Pending   int `json:"pending"`
}

// DepartmentStats is the per-department headcount and pass volume.
type DepartmentStats struct {
	Department string    `json:"department"`
	Students   int       `json:"students"`
	Staff      int       `json:"staff"`
	Passes     PassStats `json:"passes"`
}

// DepartmentStats reports one department's headcounts and pass volume.
// The month window starts at the first of the current campus month.
func (s *Service) DepartmentStats(ctx context.Context, department string) (*DepartmentStats, error) {
	local := s.now().In(s.campus)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.campus)

	out := &DepartmentStats{Department: department}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE role = 'student'),
			COUNT(*) FILTER (WHERE role IN ('faculty', 'class_incharge', 'hod'))
		FROM users WHERE department = $1 AND is_active = TRUE
	`, department).Scan(&out.Students, &out.Staff)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE p.created_at >= $2),
			COUNT(*) FILTER (WHERE p.status = 'pending')
		FROM gate_passes p
		JOIN users u ON u.id = p.student_id
		WHERE u.department = $1
	`, department, monthStart).Scan(&out.Passes.Total, &out.Passes.ThisMonth, &out.Passes.Pending)
	if err != nil {
		return nil, err
	}
	return out, nil
}

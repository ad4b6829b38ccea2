package gatepass

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Repository persists gate passes and their logs in Postgres. It is the
// production Store; transitions take a row lock so concurrent deciders
// and gate marks serialize on the pass.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const passColumns = `p.id, p.student_id, p.pass_type, p.reason, p.out_datetime, p.in_datetime,
	p.status, p.approved_by, p.approver_comment, p.qr_token, p.created_at, p.updated_at,
	TRIM(CONCAT_WS(' ', u.first_name, u.last_name)), COALESCE(sp.roll_number, ''), u.department`

const passFrom = `
	FROM gate_passes p
	JOIN users u ON u.id = p.student_id
	LEFT JOIN student_profiles sp ON sp.user_id = p.student_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPass(row rowScanner) (*GatePass, error) {
	var p GatePass
	err := row.Scan(&p.ID, &p.StudentID, &p.PassType, &p.Reason, &p.OutTime, &p.InTime,
		&p.Status, &p.ApprovedBy, &p.ApproverComment, &p.QRToken, &p.CreatedAt, &p.UpdatedAt,
		&p.StudentName, &p.StudentRoll, &p.StudentDepartment)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePass inserts a freshly shaped pending pass, assigning its id.
func (r *Repository) CreatePass(ctx context.Context, p *GatePass) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gate_passes (id, student_id, pass_type, reason, out_datetime, in_datetime, status, approver_comment, qr_token, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, p.ID, p.StudentID, p.PassType, p.Reason, p.OutTime, p.InTime, p.Status, p.ApproverComment, p.QRToken, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetPass returns one pass with its logs.
func (r *Repository) GetPass(ctx context.Context, id string) (*GatePass, []GateLog, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+passColumns+passFrom+` WHERE p.id = $1`, id)
	p, err := scanPass(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, &NotFoundError{Resource: "gate pass"}
		}
		return nil, nil, err
	}
	logs, err := listLogs(ctx, r.db, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, logs, nil
}

// GetPassByToken resolves a scanned QR token.
func (r *Repository) GetPassByToken(ctx context.Context, token string) (*GatePass, []GateLog, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+passColumns+passFrom+` WHERE p.qr_token = $1`, token)
	p, err := scanPass(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, &NotFoundError{Resource: "gate pass", Message: "Invalid QR code."}
		}
		return nil, nil, err
	}
	logs, err := listLogs(ctx, r.db, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, logs, nil
}

// ListPasses returns the scoped, filtered listing, newest first.
func (r *Repository) ListPasses(ctx context.Context, scope Scope, filter ListFilter, limit, offset int) ([]GatePass, error) {
	if scope.Empty {
		return []GatePass{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + passColumns + passFrom
	args := []any{}
	clauses := []string{}
	if scope.StudentID != "" {
		clauses = append(clauses, "p.student_id = $"+strconv.Itoa(len(args)+1))
		args = append(args, scope.StudentID)
	}
	if scope.Department != "" {
		clauses = append(clauses, "u.department = $"+strconv.Itoa(len(args)+1))
		args = append(args, scope.Department)
	}
	if scope.Status != "" {
		clauses = append(clauses, "p.status = $"+strconv.Itoa(len(args)+1))
		args = append(args, scope.Status)
	}
	if scope.EmergencyOnly {
		clauses = append(clauses, "p.pass_type = $"+strconv.Itoa(len(args)+1))
		args = append(args, TypeEmergency)
	}
	if filter.Status != "" {
		clauses = append(clauses, "p.status = $"+strconv.Itoa(len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.PassType != "" {
		clauses = append(clauses, "p.pass_type = $"+strconv.Itoa(len(args)+1))
		args = append(args, filter.PassType)
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "p.out_datetime >= $"+strconv.Itoa(len(args)+1))
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "p.out_datetime < $"+strconv.Itoa(len(args)+1))
		args = append(args, filter.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY p.created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []GatePass{}
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

// Transition loads the pass under FOR UPDATE, runs apply against the
// locked row and its logs, and persists the result atomically. When
// apply fails after flipping the status (lazy expiry during mark-out)
// the flip alone is committed; every other failure rolls back.
func (r *Repository) Transition(ctx context.Context, id string, apply TransitionFunc) (*GatePass, []GateLog, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, student_id, pass_type, reason, out_datetime, in_datetime,
			status, approved_by, approver_comment, qr_token, created_at, updated_at
		FROM gate_passes WHERE id = $1 FOR UPDATE
	`, id)
	var p GatePass
	err = row.Scan(&p.ID, &p.StudentID, &p.PassType, &p.Reason, &p.OutTime, &p.InTime,
		&p.Status, &p.ApprovedBy, &p.ApproverComment, &p.QRToken, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, &NotFoundError{Resource: "gate pass"}
		}
		return nil, nil, err
	}
	err = tx.QueryRowContext(ctx, `
		SELECT TRIM(CONCAT_WS(' ', u.first_name, u.last_name)), COALESCE(sp.roll_number, ''), u.department
		FROM users u
		LEFT JOIN student_profiles sp ON sp.user_id = u.id
		WHERE u.id = $1
	`, p.StudentID).Scan(&p.StudentName, &p.StudentRoll, &p.StudentDepartment)
	if err != nil {
		return nil, nil, err
	}
	logs, err := listLogs(ctx, tx, p.ID)
	if err != nil {
		return nil, nil, err
	}

	prev := p
	newLog, applyErr := apply(&p, logs)
	if applyErr != nil {
		if p.Status != prev.Status {
			if err := updatePass(ctx, tx, &p); err != nil {
				return nil, nil, err
			}
			if err := tx.Commit(); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, applyErr
	}

	if p != prev {
		if err := updatePass(ctx, tx, &p); err != nil {
			return nil, nil, err
		}
	}
	if newLog != nil {
		if newLog.ID == "" {
			newLog.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO gate_logs (id, gate_pass_id, action, timestamp, marked_by, notes)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, newLog.ID, newLog.GatePassID, newLog.Action, newLog.Timestamp, newLog.MarkedBy, newLog.Notes)
		if err != nil {
			return nil, nil, err
		}
		logs = append(logs, *newLog)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &p, logs, nil
}

func updatePass(ctx context.Context, q querier, p *GatePass) error {
	_, err := q.ExecContext(ctx, `
		UPDATE gate_passes
		SET status = $2, approved_by = $3, approver_comment = $4, updated_at = $5
		WHERE id = $1
	`, p.ID, p.Status, p.ApprovedBy, p.ApproverComment, p.UpdatedAt)
	return err
}

func listLogs(ctx context.Context, q querier, passID string) ([]GateLog, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, gate_pass_id, action, timestamp, marked_by, notes
		FROM gate_logs WHERE gate_pass_id = $1
		ORDER BY timestamp
	`, passID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []GateLog
	for rows.Next() {
		var l GateLog
		if err := rows.Scan(&l.ID, &l.GatePassID, &l.Action, &l.Timestamp, &l.MarkedBy, &l.Notes); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

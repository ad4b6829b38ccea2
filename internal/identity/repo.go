package identity

import (
	"context"
	"database/sql"
	"errors"
)

// Repository reads and writes accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, role, department, phone, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.Department, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail returns an active user by email, or nil when absent.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE email = $1 AND is_active = TRUE
	`, email)
	return scanUser(row)
}

// GetUserByID returns a user by id, or nil when absent.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetStudentProfile returns the profile for a student user, or nil when
// the student has none.
func (r *Repository) GetStudentProfile(ctx context.Context, userID string) (*StudentProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, roll_number, class_name, section, year, residency_type, parent_phone, parent_email, created_at
		FROM student_profiles WHERE user_id = $1
	`, userID)
	var p StudentProfile
	err := row.Scan(&p.UserID, &p.RollNumber, &p.ClassName, &p.Section, &p.Year,
		&p.Residency, &p.ParentPhone, &p.ParentEmail, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpsertUser creates or updates an account keyed by email. Used by the
// seeder; the API has no registration surface.
func (r *Repository) UpsertUser(ctx context.Context, u User) (string, error) {
	var id string
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, role, department, phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role,
			department = EXCLUDED.department,
			phone = EXCLUDED.phone,
			updated_at = NOW()
		RETURNING id
	`, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Department, u.Phone)
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// UpsertStudentProfile creates or updates a student profile keyed by user.
func (r *Repository) UpsertStudentProfile(ctx context.Context, p StudentProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO student_profiles (user_id, roll_number, class_name, section, year, residency_type, parent_phone, parent_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			roll_number = EXCLUDED.roll_number,
			class_name = EXCLUDED.class_name,
			section = EXCLUDED.section,
			year = EXCLUDED.year,
			residency_type = EXCLUDED.residency_type,
			parent_phone = EXCLUDED.parent_phone,
			parent_email = EXCLUDED.parent_email
	`, p.UserID, p.RollNumber, p.ClassName, p.Section, p.Year, p.Residency, p.ParentPhone, p.ParentEmail)
	return err
}

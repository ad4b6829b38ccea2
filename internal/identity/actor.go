package identity

import "time"

// Actor is the authenticated identity a request acts as: who, in what
// role, and for which department (empty when the role carries none).
// It is produced by the auth layer from token claims; the core never
// re-derives it.
type Actor struct {
	ID         string
	Role       Role
	Department string
}

// Residency classifies where a student lives; it governs which pass
// types the student may request.
type Residency string

const (
	ResidencyDayScholar Residency = "DAY_SCHOLAR"
	ResidencyHosteller  Residency = "HOSTELLER"
)

// User is a stored account row.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	Department   string    `json:"department,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins the stored name parts.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Actor converts the stored user into its request identity.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role, Department: u.Department}
}

// StudentProfile holds the student-only attributes a pass request needs.
// Every student that creates passes must have one; a missing profile is a
// precondition failure, never a defaulted residency.
type StudentProfile struct {
	UserID      string    `json:"user_id"`
	RollNumber  string    `json:"roll_number"`
	ClassName   string    `json:"class_name"`
	Section     string    `json:"section"`
	Year        int       `json:"year"`
	Residency   Residency `json:"residency_type"`
	ParentPhone string    `json:"parent_phone"`
	ParentEmail string    `json:"parent_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

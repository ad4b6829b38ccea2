package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"gatepass/internal/gatepass"
	"gatepass/internal/identity"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

// fakeDirectory returns stored users as-is, including inactive ones, so
// the handler's own checks are what the tests observe.
type fakeDirectory struct {
	users map[string]*identity.User
}

func (f *fakeDirectory) GetUserByEmail(_ context.Context, email string) (*identity.User, error) {
	return f.users[email], nil
}

func loginRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("opensesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	dir := &fakeDirectory{users: map[string]*identity.User{
		"hod.cse@college.edu": {
			ID: "u-1", Email: "hod.cse@college.edu", PasswordHash: string(hash),
			Role: identity.RoleHOD, Department: "CSE", IsActive: true,
		},
		"left@college.edu": {
			ID: "u-2", Email: "left@college.edu", PasswordHash: string(hash),
			Role: identity.RoleStudent, IsActive: false,
		},
	}}

	h := New(nil, nil, dir, "gatepass", "secret", time.Minute, time.Hour)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestLogin(t *testing.T) {
	r := loginRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"hod.cse@college.edu","password":"opensesame"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Role       string `json:"role"`
			Department string `json:"department"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		t.Error("login returned empty tokens")
	}
	if body.User.Role != "hod" || body.User.Department != "CSE" {
		t.Errorf("user = %+v, want hod/CSE", body.User)
	}
}

func TestLoginRejects(t *testing.T) {
	r := loginRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"email":"hod.cse@college.edu","password":"guess"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"nobody@college.edu","password":"opensesame"}`, http.StatusUnauthorized},
		{"inactive user", `{"email":"left@college.edu","password":"opensesame"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"hod.cse@college.edu"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestReportDepartment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		actor     identity.Actor
		requested string
		want      string
		wantDeny  bool
	}{
		{"hod pinned to own department", identity.Actor{ID: "u-1", Role: identity.RoleHOD, Department: "CSE"}, "ECE", "CSE", false},
		{"hod without department", identity.Actor{ID: "u-1", Role: identity.RoleHOD}, "ECE", "", true},
		{"principal gets requested", identity.Actor{ID: "u-2", Role: identity.RolePrincipal}, "ECE", "ECE", false},
		{"principal campus-wide", identity.Actor{ID: "u-2", Role: identity.RolePrincipal}, "", "", false},
		{"admin gets requested", identity.Actor{ID: "u-3", Role: identity.RoleAdmin}, "MEC", "MEC", false},
		{"student denied", identity.Actor{ID: "u-4", Role: identity.RoleStudent, Department: "CSE"}, "CSE", "", true},
		{"faculty denied", identity.Actor{ID: "u-5", Role: identity.RoleFaculty, Department: "CSE"}, "CSE", "", true},
		{"security denied", identity.Actor{ID: "u-6", Role: identity.RoleSecurity}, "CSE", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reportDepartment(tt.actor, tt.requested)
			if tt.wantDeny {
				var ae *gatepass.AuthorizationError
				if !errors.As(err, &ae) {
					t.Fatalf("error = %v, want AuthorizationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("reportDepartment() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("department = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseListFilter(t *testing.T) {
	t.Parallel()

	f, err := parseListFilter("approved", "DAY_OUT", "2025-03-01", "2025-03-05", ist)
	if err != nil {
		t.Fatalf("parseListFilter() error: %v", err)
	}
	if f.Status != gatepass.StatusApproved {
		t.Errorf("Status = %q, want %q", f.Status, gatepass.StatusApproved)
	}
	if f.PassType != gatepass.TypeDayOut {
		t.Errorf("PassType = %q, want %q", f.PassType, gatepass.TypeDayOut)
	}
	wantFrom := time.Date(2025, 3, 1, 0, 0, 0, 0, ist)
	if !f.From.Equal(wantFrom) {
		t.Errorf("From = %v, want campus midnight %v", f.From, wantFrom)
	}
	// date_to is inclusive for the caller, so the bound is the next midnight.
	wantTo := time.Date(2025, 3, 6, 0, 0, 0, 0, ist)
	if !f.To.Equal(wantTo) {
		t.Errorf("To = %v, want %v", f.To, wantTo)
	}
}

func TestParseListFilterRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                               string
		status, passType, dateFrom, dateTo string
		wantField                          string
	}{
		{"bad status", "done", "", "", "", "status"},
		{"bad pass type", "", "WEEKEND", "", "", "pass_type"},
		{"bad from", "", "", "01-03-2025", "", "date_from"},
		{"bad to", "", "", "", "tomorrow", "date_to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseListFilter(tt.status, tt.passType, tt.dateFrom, tt.dateTo, ist)
			var ve *gatepass.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "validation",
			err:        &gatepass.ValidationError{Field: "in_datetime", Message: "In datetime must be after out datetime."},
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"error": "In datetime must be after out datetime.", "field": "in_datetime"},
		},
		{
			name:       "authorization",
			err:        &gatepass.AuthorizationError{Restriction: "Class Incharge can only approve EMERGENCY passes."},
			wantStatus: http.StatusForbidden,
			wantBody:   map[string]any{"error": "Class Incharge can only approve EMERGENCY passes."},
		},
		{
			name:       "state conflict carries status",
			err:        &gatepass.StateConflictError{Op: "mark-out", Current: gatepass.StatusExpired, Message: "Gate pass has expired."},
			wantStatus: http.StatusConflict,
			wantBody:   map[string]any{"error": "Gate pass has expired.", "status": "expired"},
		},
		{
			name:       "not found",
			err:        &gatepass.NotFoundError{Resource: "gate pass", Message: "Invalid QR code."},
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]any{"error": "Invalid QR code."},
		},
		{
			name:       "unexpected",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"error": "internal error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal body: %v", err)
			}
			for k, want := range tt.wantBody {
				if body[k] != want {
					t.Errorf("body[%q] = %v, want %v", k, body[k], want)
				}
			}
		})
	}
}

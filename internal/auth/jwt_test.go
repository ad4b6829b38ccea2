package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gatepass/internal/identity"
)

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	pair, err := Issue("user-1", "hod", "CSE", "gatepass", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Issue() returned empty tokens")
	}

	claims, err := Parse(pair.AccessToken, "secret", "gatepass")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Role != "hod" {
		t.Errorf("Role = %q, want %q", claims.Role, "hod")
	}
	if claims.Department != "CSE" {
		t.Errorf("Department = %q, want %q", claims.Department, "CSE")
	}

	actor, err := claims.Actor()
	if err != nil {
		t.Fatalf("Actor() error: %v", err)
	}
	want := identity.Actor{ID: "user-1", Role: identity.RoleHOD, Department: "CSE"}
	if actor != want {
		t.Errorf("Actor() = %+v, want %+v", actor, want)
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	pair, err := Issue("user-1", "student", "", "gatepass", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := Parse(pair.AccessToken, "other-secret", "gatepass"); err == nil {
		t.Error("Parse() with wrong key expected error, got nil")
	}
	if _, err := Parse(pair.AccessToken, "secret", "someone-else"); err == nil {
		t.Error("Parse() with foreign issuer expected error, got nil")
	}

	expired, err := Issue("user-1", "student", "", "gatepass", "secret", -time.Minute, -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := Parse(expired.AccessToken, "secret", "gatepass"); err == nil {
		t.Error("Parse() of expired token expected error, got nil")
	}
}

func TestClaimsActorRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	claims := Claims{Subject: "user-1", Role: "superuser"}
	if _, err := claims.Actor(); err == nil {
		t.Error("Actor() with unknown role expected error, got nil")
	}
}

func TestUserAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(UserAuth("secret", "gatepass"))
	r.GET("/whoami", func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no actor"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": string(actor.Role), "department": actor.Department})
	})

	pair, err := Issue("user-7", "security", "", "gatepass", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + pair.AccessToken, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

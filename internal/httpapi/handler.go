// Package httpapi is the gin transport for the gate-pass service: route
// registration, request decoding, and the mapping from domain errors to
// HTTP statuses. No rules live here.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"gatepass/internal/analytics"
	"gatepass/internal/auth"
	"gatepass/internal/gatepass"
	"gatepass/internal/identity"
)

// UserDirectory resolves accounts for login. The identity repository is
// the production implementation.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (*identity.User, error)
}

// Handler wires the services into gin routes.
type Handler struct {
	passes  *gatepass.Service
	reports *analytics.Service
	users   UserDirectory

	jwtIssuer  string
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates a handler.
func New(passes *gatepass.Service, reports *analytics.Service, users UserDirectory,
	jwtIssuer, signingKey string, accessTTL, refreshTTL time.Duration) *Handler {
	return &Handler{
		passes:     passes,
		reports:    reports,
		users:      users,
		jwtIssuer:  jwtIssuer,
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// RegisterRoutes mounts the API under /v1. Everything except login rides
// behind the bearer-token middleware.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/v1/auth/login", h.login)

	v1 := r.Group("/v1", auth.UserAuth(h.signingKey, h.jwtIssuer))
	v1.POST("/gate-passes", h.createPass)
	v1.GET("/gate-passes", h.listPasses)
	v1.GET("/gate-passes/pending", h.listPending)
	v1.GET("/gate-passes/:id", h.getPass)
	v1.POST("/gate-passes/:id/approve", h.approve)
	v1.POST("/gate-passes/:id/reject", h.reject)
	v1.POST("/gate-passes/:id/mark-out", h.markOut)
	v1.POST("/gate-passes/:id/mark-in", h.markIn)
	v1.POST("/gate-passes/scan", h.scan)
	v1.GET("/analytics/summary", h.analyticsSummary)
	v1.GET("/analytics/department/:department", h.analyticsDepartment)
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if user == nil || !user.IsActive || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tokens, err := auth.Issue(user.ID, string(user.Role), user.Department,
		h.jwtIssuer, h.signingKey, h.accessTTL, h.refreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"name":       user.FullName(),
			"role":       user.Role,
			"department": user.Department,
		},
	})
}

func (h *Handler) createPass(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	var in gatepass.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pass, err := h.passes.Create(c.Request.Context(), actor, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"gate_pass": pass})
}

func (h *Handler) listPasses(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	filter, err := parseListFilter(
		c.Query("status"), c.Query("pass_type"), c.Query("date_from"), c.Query("date_to"),
		h.passes.Campus())
	if err != nil {
		writeError(c, err)
		return
	}
	limit, offset := pagination(c)
	passes, err := h.passes.List(c.Request.Context(), actor, filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gate_passes": passes, "count": len(passes)})
}

func (h *Handler) listPending(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	limit, offset := pagination(c)
	passes, err := h.passes.ListPending(c.Request.Context(), actor, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gate_passes": passes, "count": len(passes)})
}

func (h *Handler) getPass(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	pass, logs, err := h.passes.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, passDetail(pass, logs))
}

func (h *Handler) approve(c *gin.Context) {
	h.decide(c, h.passes.Approve)
}

func (h *Handler) reject(c *gin.Context) {
	h.decide(c, h.passes.Reject)
}

func (h *Handler) decide(c *gin.Context, op func(ctx context.Context, actor identity.Actor, id, comment string) (*gatepass.GatePass, []gatepass.GateLog, error)) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	_ = c.ShouldBindJSON(&req) // empty body means no comment
	pass, _, err := op(c.Request.Context(), actor, c.Param("id"), req.Comment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gate_pass": pass})
}

func (h *Handler) markOut(c *gin.Context) {
	h.mark(c, h.passes.MarkOut)
}

func (h *Handler) markIn(c *gin.Context) {
	h.mark(c, h.passes.MarkIn)
}

func (h *Handler) mark(c *gin.Context, op func(ctx context.Context, actor identity.Actor, id, notes string) (*gatepass.GatePass, []gatepass.GateLog, error)) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)
	pass, logs, err := op(c.Request.Context(), actor, c.Param("id"), req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, passDetail(pass, logs))
}

func (h *Handler) scan(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	var req struct {
		QRToken string `json:"qr_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "qr_token is required"})
		return
	}
	pass, logs, err := h.passes.Scan(c.Request.Context(), actor, req.QRToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, passDetail(pass, logs))
}

func (h *Handler) analyticsSummary(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	department, err := reportDepartment(actor, c.Query("department"))
	if err != nil {
		writeError(c, err)
		return
	}
	summary, err := h.reports.Summary(c.Request.Context(), department, c.Query("from"), c.Query("to"))
	if err != nil {
		log.Printf("analytics summary failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics query failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) analyticsDepartment(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	department, err := reportDepartment(actor, c.Param("department"))
	if err != nil {
		writeError(c, err)
		return
	}
	stats, err := h.reports.DepartmentStats(c.Request.Context(), department)
	if err != nil {
		log.Printf("department stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics query failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// reportDepartment resolves which department an analytics call reports
// on. A HOD is pinned to their own department whatever was requested;
// principal and admin get the requested one (empty means campus-wide on
// the summary route). Everyone else is denied.
func reportDepartment(actor identity.Actor, requested string) (string, error) {
	switch actor.Role {
	case identity.RoleHOD:
		if actor.Department == "" {
			return "", &gatepass.AuthorizationError{Restriction: "You are not assigned to a department."}
		}
		return actor.Department, nil
	case identity.RolePrincipal, identity.RoleAdmin:
		return requested, nil
	}
	return "", &gatepass.AuthorizationError{Restriction: "You don't have permission to view analytics."}
}

// passDetail is the single-pass payload: the row, its gate logs and the
// validity predicates evaluated now.
func passDetail(p *gatepass.GatePass, logs []gatepass.GateLog) gin.H {
	now := time.Now().UTC()
	if logs == nil {
		logs = []gatepass.GateLog{}
	}
	return gin.H{
		"gate_pass":  p,
		"logs":       logs,
		"is_valid":   p.IsValid(now),
		"is_expired": p.IsExpired(now),
	}
}

// parseListFilter narrows a listing from query strings. Dates are campus
// calendar days: date_from at local midnight inclusive, date_to exclusive
// at the midnight after, both applied to the pass's out time.
func parseListFilter(status, passType, dateFrom, dateTo string, campus *time.Location) (gatepass.ListFilter, error) {
	var f gatepass.ListFilter
	if status != "" {
		st, err := gatepass.ParseStatus(status)
		if err != nil {
			return f, &gatepass.ValidationError{Field: "status", Message: "Invalid status filter."}
		}
		f.Status = st
	}
	if passType != "" {
		pt, err := gatepass.ParsePassType(passType)
		if err != nil {
			return f, &gatepass.ValidationError{Field: "pass_type", Message: "Invalid pass type filter."}
		}
		f.PassType = pt
	}
	if dateFrom != "" {
		d, err := time.ParseInLocation("2006-01-02", dateFrom, campus)
		if err != nil {
			return f, &gatepass.ValidationError{Field: "date_from", Message: "Invalid date, expected YYYY-MM-DD."}
		}
		f.From = d
	}
	if dateTo != "" {
		d, err := time.ParseInLocation("2006-01-02", dateTo, campus)
		if err != nil {
			return f, &gatepass.ValidationError{Field: "date_to", Message: "Invalid date, expected YYYY-MM-DD."}
		}
		f.To = d.AddDate(0, 0, 1)
	}
	return f, nil
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, offset = 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}

// writeError maps domain errors onto HTTP statuses: validation 400,
// authorization 403, state conflict 409 (with the current status),
// not found 404, anything else a logged 500.
func writeError(c *gin.Context, err error) {
	var (
		ve *gatepass.ValidationError
		ae *gatepass.AuthorizationError
		ce *gatepass.StateConflictError
		nf *gatepass.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &ae):
		c.JSON(http.StatusForbidden, gin.H{"error": ae.Restriction})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": ce.Message, "status": ce.Current})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

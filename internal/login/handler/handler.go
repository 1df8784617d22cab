// Package handler exposes the login workflow over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"connectme/backend/internal/audit"
	auditdomain "connectme/backend/internal/audit/domain"
	"connectme/backend/internal/auth"
	"connectme/backend/internal/events"
	"connectme/backend/internal/login"
	"connectme/backend/internal/session"
	userdomain "connectme/backend/internal/user/domain"
	"connectme/backend/internal/verification"
)

// Handler serves the login endpoints.
type Handler struct {
	sessions *session.Store
	tokens   *auth.TokenService
	audit    audit.AuditLogger
	producer events.Producer
	log      *zap.Logger
}

// New creates a login handler.
func New(sessions *session.Store, tokens *auth.TokenService, auditLog audit.AuditLogger, producer events.Producer, log *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		tokens:   tokens,
		audit:    auditLog,
		producer: producer,
		log:      log,
	}
}

// Register mounts the login routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/users/login")
	g.POST("/init", h.init)
	g.POST("/userdata", h.submitCredentials)
	g.POST("/verify/start", h.startVerification)
	g.POST("/verify/check", h.checkCode)
}

func (h *Handler) workflow(c *gin.Context) *login.Workflow {
	w := h.sessions.Login(session.ID(c))
	if w == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no active session"})
	}
	return w
}

func (h *Handler) init(c *gin.Context) {
	w := h.workflow(c)
	if w == nil {
		return
	}
	if err := w.Reset(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "login cannot be restarted yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": w.State()})
}

func (h *Handler) submitCredentials(c *gin.Context) {
	w := h.workflow(c)
	if w == nil {
		return
	}

	var data userdomain.LoginData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := w.SubmitCredentials(c.Request.Context(), data)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"state": w.State()})
	case errors.Is(err, login.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "credentials already submitted"})
	case errors.Is(err, login.ErrUnknownUser), errors.Is(err, login.ErrWrongPassword):
		// One answer for both, so usernames cannot be probed.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		h.log.Error("submit credentials failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) startVerification(c *gin.Context) {
	w := h.workflow(c)
	if w == nil {
		return
	}

	err := w.StartVerification(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"state": w.State()})
	case errors.Is(err, login.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "submit credentials first"})
	case errors.Is(err, verification.ErrAttemptNotAllowed):
		retryAfter(c, w.RemainingWait())
	default:
		h.log.Error("start verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deliver verification code"})
	}
}

type checkCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *Handler) checkCode(c *gin.Context) {
	w := h.workflow(c)
	if w == nil {
		return
	}

	var req checkCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := w.SubmitCode(req.Code)
	switch {
	case err == nil:
		h.issueToken(c, w.Username())
	case errors.Is(err, login.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "no verification in progress"})
	case errors.Is(err, verification.ErrWrongCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "wrong verification code"})
	default:
		h.log.Error("check code failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// issueToken mints the session token for the verified user. Issuing rotates
// the auth secret, so any earlier token for the user stops working.
func (h *Handler) issueToken(c *gin.Context, username string) {
	token, err := h.tokens.IssueToken(c.Request.Context(), username)
	if err != nil {
		h.log.Error("issue token failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.audit.LogEvent(username, auditdomain.ActionUserLogin, c.ClientIP(), "")
	events.PublishAsync(h.producer, events.TypeUserLogin, username, nil)

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func retryAfter(c *gin.Context, wait time.Duration) {
	seconds := int(wait.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":             "too many verification attempts",
		"retryAfterSeconds": seconds,
	})
}

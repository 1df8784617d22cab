// Package handler exposes the registration workflow over HTTP. The handlers
// are thin: they translate requests to workflow operations and workflow
// errors to status codes.
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
	"connectme/backend/internal/events"
	interestdomain "connectme/backend/internal/interest/domain"
	"connectme/backend/internal/registration"
	"connectme/backend/internal/security"
	"connectme/backend/internal/session"
	userdomain "connectme/backend/internal/user/domain"
	userrepo "connectme/backend/internal/user/repository"
	"connectme/backend/internal/verification"
)

// Handler serves the registration endpoints.
type Handler struct {
	sessions *session.Store
	users    userrepo.Repository
	hasher   *security.Hasher
	audit    audit.AuditLogger
	producer events.Producer
	log      *zap.Logger
}

// New creates a registration handler.
func New(sessions *session.Store, users userrepo.Repository, hasher *security.Hasher, auditLog audit.AuditLogger, producer events.Producer, log *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		users:    users,
		hasher:   hasher,
		audit:    auditLog,
		producer: producer,
		log:      log,
	}
}

// Register mounts the registration routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/users/registration")
	g.POST("/init", h.init)
	g.POST("/userdata", h.submitUserData)
	g.POST("/verify/start", h.startVerification)
	g.POST("/verify/check", h.checkCode)
}

func (h *Handler) workflow(c *gin.Context) *registration.Workflow {
	w := h.sessions.Registration(session.ID(c))
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
		c.JSON(http.StatusConflict, gin.H{"error": "registration cannot be restarted yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": w.State()})
}

func (h *Handler) submitUserData(c *gin.Context) {
	w := h.workflow(c)
	if w == nil {
		return
	}

	var data userdomain.RegistrationData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := w.SubmitUserData(c.Request.Context(), data)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"state": w.State()})
	case errors.Is(err, registration.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "user data already submitted"})
	case errors.Is(err, userdomain.ErrDataInsufficient),
		errors.Is(err, interestdomain.ErrNoSuchTerm):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, registration.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case errors.Is(err, registration.ErrPhoneInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "phone number already in use"})
	default:
		h.log.Error("submit user data failed", zap.Error(err))
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
	case errors.Is(err, registration.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "submit user data first"})
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
		h.completeRegistration(c, w)
	case errors.Is(err, registration.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "no verification in progress"})
	case errors.Is(err, verification.ErrWrongCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "wrong verification code"})
	default:
		h.log.Error("check code failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// completeRegistration persists the verified registration. A store rejection
// here is an internal error; the workflow stays verified and is not retried
// automatically.
func (h *Handler) completeRegistration(c *gin.Context, w *registration.Workflow) {
	data := w.Data()

	hash, err := h.hasher.Hash([]byte(data.Password))
	if err != nil {
		h.log.Error("hash password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	u := &userdomain.User{
		Username:     data.Username,
		PasswordHash: hash,
		PhoneNumber:  data.PhoneNumber,
	}
	if err := h.users.Create(c.Request.Context(), u, data.InterestTermIDs); err != nil {
		h.log.Error("create user failed", zap.String("username", data.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.audit.LogEvent(u.Username, auditdomain.ActionUserRegistered, c.ClientIP(), "")
	events.PublishAsync(h.producer, events.TypeUserRegistered, u.Username, nil)

	c.JSON(http.StatusCreated, gin.H{"username": u.Username})
}

// retryAfter writes a 429 with the remaining wait rounded up to whole seconds.
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

// Package handler exposes the account endpoints for authenticated users.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"connectme/backend/internal/audit"
	auditdomain "connectme/backend/internal/audit/domain"
	"connectme/backend/internal/auth"
	"connectme/backend/internal/events"
	interestdomain "connectme/backend/internal/interest/domain"
	interestrepo "connectme/backend/internal/interest/repository"
	"connectme/backend/internal/user/domain"
	userrepo "connectme/backend/internal/user/repository"
)

// Handler serves the authenticated account endpoints.
type Handler struct {
	users     userrepo.Repository
	interests interestrepo.Repository
	tokens    *auth.TokenService
	audit     audit.AuditLogger
	producer  events.Producer
	log       *zap.Logger
}

// New creates an account handler.
func New(users userrepo.Repository, interests interestrepo.Repository, tokens *auth.TokenService, auditLog audit.AuditLogger, producer events.Producer, log *zap.Logger) *Handler {
	return &Handler{
		users:     users,
		interests: interests,
		tokens:    tokens,
		audit:     auditLog,
		producer:  producer,
		log:       log,
	}
}

// Register mounts the account routes on the authenticated group g.
func (h *Handler) Register(g gin.IRouter) {
	g.GET("/users/me", h.me)
	g.PUT("/users/me/interests", h.replaceInterests)
	g.POST("/users/logout", h.logout)
	g.DELETE("/users/me", h.deleteAccount)
}

type profileResponse struct {
	Username    string                        `json:"username"`
	PhoneNumber string                        `json:"phoneNumber"`
	Interests   []interestdomain.InterestTerm `json:"interests"`
}

func (h *Handler) me(c *gin.Context) {
	username, _ := auth.GetUsername(c)

	u, err := h.users.Get(c.Request.Context(), username)
	if err != nil {
		h.log.Error("load profile failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if u == nil {
		// Token validated but the account is gone (deleted concurrently).
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	terms, err := h.interests.ListForUser(c.Request.Context(), username)
	if err != nil {
		h.log.Error("load interests failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if terms == nil {
		terms = []interestdomain.InterestTerm{}
	}

	c.JSON(http.StatusOK, profileResponse{
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		Interests:   terms,
	})
}

type replaceInterestsRequest struct {
	InterestTermIDs []int64 `json:"interestTermIds" binding:"required"`
}

func (h *Handler) replaceInterests(c *gin.Context) {
	username, _ := auth.GetUsername(c)

	var req replaceInterestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.InterestTermIDs) < domain.MinInterestTerms {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too few interests"})
		return
	}

	terms, err := h.interests.Resolve(c.Request.Context(), req.InterestTermIDs)
	if err != nil {
		if errors.Is(err, interestdomain.ErrNoSuchTerm) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("resolve interests failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if err := h.users.ReplaceInterests(c.Request.Context(), username, req.InterestTermIDs); err != nil {
		h.log.Error("replace interests failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"interests": terms})
}

func (h *Handler) logout(c *gin.Context) {
	username, _ := auth.GetUsername(c)

	if err := h.tokens.Revoke(c.Request.Context(), username); err != nil {
		h.log.Error("revoke token failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.audit.LogEvent(username, auditdomain.ActionUserLogout, c.ClientIP(), "")
	events.PublishAsync(h.producer, events.TypeUserLogout, username, nil)

	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	username, _ := auth.GetUsername(c)
	ctx := c.Request.Context()

	if err := h.tokens.Revoke(ctx, username); err != nil {
		h.log.Error("revoke token failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if err := h.users.Delete(ctx, username); err != nil {
		h.log.Error("delete user failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.audit.LogEvent(username, auditdomain.ActionUserDeleted, c.ClientIP(), "")
	events.PublishAsync(h.producer, events.TypeUserDeleted, username, nil)

	c.Status(http.StatusNoContent)
}

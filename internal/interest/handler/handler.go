// Package handler exposes read access to the interest catalog.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"connectme/backend/internal/interest/domain"
	interestrepo "connectme/backend/internal/interest/repository"
)

// Handler serves the interest catalog endpoints.
type Handler struct {
	interests interestrepo.Repository
	log       *zap.Logger
}

// New creates an interest handler.
func New(interests interestrepo.Repository, log *zap.Logger) *Handler {
	return &Handler{interests: interests, log: log}
}

// Register mounts the interest routes on the authenticated group g.
func (h *Handler) Register(g gin.IRouter) {
	g.GET("/interests/search", h.search)
	g.GET("/interests/:id/:lang", h.termInLanguage)
}

func (h *Handler) search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing term parameter"})
		return
	}

	terms, err := h.interests.SearchTerms(c.Request.Context(), term)
	if err != nil {
		h.log.Error("search terms failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if terms == nil {
		terms = []domain.InterestTerm{}
	}
	c.JSON(http.StatusOK, gin.H{"terms": terms})
}

func (h *Handler) termInLanguage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interest id"})
		return
	}
	lang := c.Param("lang")

	term, err := h.interests.TermInLanguage(c.Request.Context(), id, lang)
	if err != nil {
		h.log.Error("term lookup failed", zap.Int64("interest", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if term == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "interest not found"})
		return
	}
	c.JSON(http.StatusOK, term)
}

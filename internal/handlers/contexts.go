package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arthub/backend/internal/middleware"
	"github.com/arthub/backend/internal/models"
)

type contextRequest struct {
	Text string `json:"text" binding:"required"`
}

type voteRequest struct {
	Vote models.VoteDirection `json:"vote" binding:"required"`
}

// AddContext attaches the single reader-supplied context to a post
func (h *Handlers) AddContext(c *gin.Context) {
	var req contextRequest
	if !h.bindJSON(c, &req) {
		return
	}
	pc, err := h.svc.AddContext(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pc)
}

// GetContext returns a post's context with its current tally
func (h *Handlers) GetContext(c *gin.Context) {
	pc, err := h.svc.GetContext(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

// VoteContext casts or replaces the caller's vote on a post's context
func (h *Handlers) VoteContext(c *gin.Context) {
	var req voteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	pc, err := h.svc.VoteContext(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Vote)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

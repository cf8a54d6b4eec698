package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arthub/backend/internal/middleware"
)

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddComment attaches a comment to a post
func (h *Handlers) AddComment(c *gin.Context) {
	var req commentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments returns a post's comments oldest-first
func (h *Handlers) ListComments(c *gin.Context) {
	comments, err := h.svc.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// DeleteComment removes a comment
func (h *Handlers) DeleteComment(c *gin.Context) {
	if err := h.svc.DeleteComment(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

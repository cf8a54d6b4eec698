package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arthub/backend/internal/middleware"
	"github.com/arthub/backend/internal/service"
)

func limitQuery(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// GetFeed returns the public feed enriched for the viewer
func (h *Handlers) GetFeed(c *gin.Context) {
	feed, err := h.svc.GetFeed(c.Request.Context(), middleware.UserID(c), limitQuery(c, 50))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": feed})
}

// GetPost returns one post
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.svc.GetPost(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost publishes a new post
func (h *Handlers) CreatePost(c *gin.Context) {
	var req service.CreatePostRequest
	if !h.bindJSON(c, &req) {
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// EditPost updates the caller's own post
func (h *Handlers) EditPost(c *gin.Context) {
	var req service.EditPostRequest
	if !h.bindJSON(c, &req) {
		return
	}
	post, err := h.svc.EditPost(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost removes the caller's own post
func (h *Handlers) DeletePost(c *gin.Context) {
	if err := h.svc.DeletePost(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleLike likes or unlikes a post
func (h *Handlers) ToggleLike(c *gin.Context) {
	liked, count, err := h.svc.ToggleLike(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes_count": count})
}

// ToggleSave saves or unsaves a post
func (h *Handlers) ToggleSave(c *gin.Context) {
	saved, err := h.svc.ToggleSave(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// ListSavedPosts returns the caller's saved posts, newest save first
func (h *Handlers) ListSavedPosts(c *gin.Context) {
	posts, err := h.svc.ListSavedPosts(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ListUserPosts returns a profile's posts
func (h *Handlers) ListUserPosts(c *gin.Context) {
	posts, err := h.svc.ListUserPosts(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// TrendingTags returns the most used tags on public posts
func (h *Handlers) TrendingTags(c *gin.Context) {
	tags, err := h.svc.TrendingTags(c.Request.Context(), limitQuery(c, 10))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// ListPostsByTag returns public posts carrying the tag
func (h *Handlers) ListPostsByTag(c *gin.Context) {
	posts, err := h.svc.ListPostsByTag(c.Request.Context(), middleware.UserID(c), c.Param("tag"), limitQuery(c, 50))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

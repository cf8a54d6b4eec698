package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arthub/backend/internal/middleware"
	"github.com/arthub/backend/internal/models"
)

type banRequest struct {
	Reason string `json:"reason"`
}

type reviewRequest struct {
	Approved bool `json:"approved"`
}

type reportRequest struct {
	Reason  string `json:"reason" binding:"required"`
	Details string `json:"details"`
}

// BanUser bans an account and hides its posts
func (h *Handlers) BanUser(c *gin.Context) {
	var req banRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if err := h.svc.BanUser(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banned": true})
}

// UnbanUser lifts a ban and restores the user's posts
func (h *Handlers) UnbanUser(c *gin.Context) {
	if err := h.svc.UnbanUser(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banned": false})
}

// AdminRemovePost soft-removes a post with an audit trail
func (h *Handlers) AdminRemovePost(c *gin.Context) {
	var req banRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if err := h.svc.AdminRemovePost(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// AdminRestorePost returns a removed post to public view
func (h *Handlers) AdminRestorePost(c *gin.Context) {
	if err := h.svc.AdminRestorePost(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": true})
}

// ListPendingContexts returns contexts awaiting admin review
func (h *Handlers) ListPendingContexts(c *gin.Context) {
	contexts, err := h.svc.ListPendingContexts(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contexts": contexts})
}

// ReviewContext records an admin verdict on a context
func (h *Handlers) ReviewContext(c *gin.Context) {
	var req reviewRequest
	if !h.bindJSON(c, &req) {
		return
	}
	pc, err := h.svc.ReviewContext(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Approved)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

// ReportPost files a moderation report against a post
func (h *Handlers) ReportPost(c *gin.Context) {
	h.report(c, models.ReportTargetPost)
}

// ReportComment files a moderation report against a comment
func (h *Handlers) ReportComment(c *gin.Context) {
	h.report(c, models.ReportTargetComment)
}

func (h *Handlers) report(c *gin.Context, target models.ReportTargetType) {
	var req reportRequest
	if !h.bindJSON(c, &req) {
		return
	}
	report, err := h.svc.ReportContent(c.Request.Context(), middleware.UserID(c), target, c.Param("id"), req.Reason, req.Details)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListPendingReports returns the open moderation queue
func (h *Handlers) ListPendingReports(c *gin.Context) {
	reports, err := h.svc.ListPendingReports(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// DismissReport closes a report without action
func (h *Handlers) DismissReport(c *gin.Context) {
	if err := h.svc.DismissReport(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": true})
}

// Package handlers exposes the REST API over the service layer.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/middleware"
	"github.com/arthub/backend/internal/service"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	svc *service.Service
	log *zap.Logger
}

// New creates a handlers instance
func New(svc *service.Service, log *zap.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

// RegisterRoutes wires the full API surface onto the router
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	// Public reads carry optional auth for viewer-relative flags
	public := api.Group("", middleware.OptionalAuth(h.svc))
	{
		public.GET("/posts", h.GetFeed)
		public.GET("/posts/:id", h.GetPost)
		public.GET("/posts/:id/comments", h.ListComments)
		public.GET("/posts/:id/context", h.GetContext)
		public.GET("/tags/trending", h.TrendingTags)
		public.GET("/tags/:tag", h.ListPostsByTag)
		public.GET("/users/:id/stats", h.GetUserStats)
		public.GET("/users/:id/posts", h.ListUserPosts)
		public.GET("/users/:id/followers", h.ListFollowers)
	}

	authed := api.Group("", middleware.RequireAuth(h.svc))
	{
		authed.POST("/posts", h.CreatePost)
		authed.PUT("/posts/:id", h.EditPost)
		authed.DELETE("/posts/:id", h.DeletePost)
		authed.POST("/posts/:id/like", h.ToggleLike)
		authed.POST("/posts/:id/save", h.ToggleSave)
		authed.GET("/posts/saved", h.ListSavedPosts)
		authed.POST("/posts/:id/comments", h.AddComment)
		authed.DELETE("/comments/:id", h.DeleteComment)
		authed.POST("/posts/:id/context", h.AddContext)
		authed.POST("/posts/:id/context/vote", h.VoteContext)
		authed.POST("/posts/:id/report", h.ReportPost)
		authed.POST("/comments/:id/report", h.ReportComment)

		authed.POST("/follow/:id", h.Follow)
		authed.DELETE("/follow/:id", h.Unfollow)

		authed.GET("/profile", h.GetProfile)
		authed.GET("/settings", h.GetSettings)
		authed.PUT("/profile/username", h.UpdateUsername)
		authed.PUT("/profile/about", h.UpdateAbout)
		authed.PUT("/profile/picture", h.UpdatePicture)
		authed.DELETE("/profile/aliases", h.ClearAliases)

		authed.GET("/users", h.ListUsers)

		authed.GET("/notifications", h.ListNotifications)
		authed.GET("/notifications/unread-count", h.UnreadNotificationCount)
		authed.PUT("/notifications/:id/read", h.MarkNotificationRead)
		authed.PUT("/notifications/mark-all-read", h.MarkAllNotificationsRead)
	}

	admin := api.Group("/admin", middleware.RequireAuth(h.svc), middleware.RequireAdmin())
	{
		admin.GET("/contexts/pending", h.ListPendingContexts)
		admin.PUT("/contexts/:id/review", h.ReviewContext)
		admin.DELETE("/posts/:id", h.AdminRemovePost)
		admin.PUT("/posts/:id/restore", h.AdminRestorePost)
		admin.POST("/users/:id/ban", h.BanUser)
		admin.POST("/users/:id/unban", h.UnbanUser)
		admin.GET("/reports", h.ListPendingReports)
		admin.PUT("/reports/:id/dismiss", h.DismissReport)
	}
}

// respondError renders a service error as the standard JSON error shape
func (h *Handlers) respondError(c *gin.Context, err error) {
	if apiErr, ok := apierrors.AsAPIError(err); ok {
		c.JSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}
	h.log.Error("unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": apierrors.InternalError("internal server error")})
}

func (h *Handlers) bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apierrors.BadRequest(err.Error())})
		return false
	}
	return true
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arthub/backend/internal/middleware"
	"github.com/arthub/backend/internal/service"
)

// GetProfile returns the caller's own account record
func (h *Handlers) GetProfile(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetSettings returns the account fields shown on the settings screen,
// including the alias history and the cooldown marker
func (h *Handlers) GetSettings(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":             user.Username,
		"email":                user.Email,
		"about_me":             user.AboutMe,
		"profile_picture":      user.ProfilePicture,
		"previous_usernames":   user.PreviousUsernames,
		"last_username_change": user.LastUsernameChange,
	})
}

type usernameRequest struct {
	Username string `json:"username" binding:"required"`
}

type aboutRequest struct {
	AboutMe string `json:"about_me"`
}

type pictureRequest struct {
	ProfilePicture string `json:"profile_picture" binding:"required"`
}

// UpdateUsername renames the account, subject to the cooldown
func (h *Handlers) UpdateUsername(c *gin.Context) {
	var req usernameRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c),
		service.UpdateProfileRequest{Username: &req.Username})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateAbout replaces the about-me text
func (h *Handlers) UpdateAbout(c *gin.Context) {
	var req aboutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c),
		service.UpdateProfileRequest{AboutMe: &req.AboutMe})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdatePicture replaces the profile picture, compressing oversized uploads
func (h *Handlers) UpdatePicture(c *gin.Context) {
	var req pictureRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c),
		service.UpdateProfileRequest{ProfilePicture: &req.ProfilePicture})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ClearAliases wipes the caller's previous-username history
func (h *Handlers) ClearAliases(c *gin.Context) {
	user, err := h.svc.ClearAliasHistory(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"previous_usernames": user.PreviousUsernames})
}

// ListUsers searches users when ?q= is present, otherwise returns
// follow suggestions for the caller
func (h *Handlers) ListUsers(c *gin.Context) {
	viewerID := middleware.UserID(c)
	if term := c.Query("q"); term != "" {
		users, err := h.svc.SearchUsers(c.Request.Context(), viewerID, term)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
		return
	}
	users, err := h.svc.SuggestedUsers(c.Request.Context(), viewerID, limitQuery(c, 5))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUserStats returns a profile's public counters
func (h *Handlers) GetUserStats(c *gin.Context) {
	stats, err := h.svc.GetUserStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Follow makes the caller follow a user
func (h *Handlers) Follow(c *gin.Context) {
	if err := h.svc.Follow(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow removes the caller's follow
func (h *Handlers) Unfollow(c *gin.Context) {
	if err := h.svc.Unfollow(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// ListFollowers lists a user's followers
func (h *Handlers) ListFollowers(c *gin.Context) {
	followers, err := h.svc.ListFollowers(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": followers})
}

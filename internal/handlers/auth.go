package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arthub/backend/internal/service"
)

// Register creates an account and returns a signed token
func (h *Handlers) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Login authenticates by username or email
func (h *Handlers) Login(c *gin.Context) {
	var req service.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

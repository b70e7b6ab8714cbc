package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusreach/internal/engagement"
)

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var in engagement.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortError(c, http.StatusBadRequest, engagement.MsgCredentialsRequired)
		return
	}
	res, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "Server error")
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListAmbassadors handles GET /ambassadors.
func (h *Handler) ListAmbassadors(c *gin.Context) {
	list, err := h.svc.ListAmbassadors(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to fetch ambassadors")
		return
	}
	c.JSON(http.StatusOK, orEmpty(list))
}

// CreateAmbassador handles POST /ambassadors.
func (h *Handler) CreateAmbassador(c *gin.Context) {
	var in engagement.AmbassadorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortError(c, http.StatusBadRequest, engagement.MsgAmbassadorFieldsRequired)
		return
	}
	amb, err := h.svc.CreateAmbassador(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "Failed to create ambassador")
		return
	}
	c.JSON(http.StatusCreated, amb)
}

// Leaderboard handles GET /leaderboard.
func (h *Handler) Leaderboard(c *gin.Context) {
	entries, err := h.svc.Leaderboard(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to compute leaderboard")
		return
	}
	c.JSON(http.StatusOK, orEmpty(entries))
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusreach/internal/auth"
	"campusreach/internal/engagement"
)

// ListEvents handles GET /events.
func (h *Handler) ListEvents(c *gin.Context) {
	who, _ := auth.IdentityFrom(c)
	events, err := h.svc.ListEvents(c.Request.Context(), who)
	if err != nil {
		fail(c, err, "Failed to fetch events")
		return
	}
	c.JSON(http.StatusOK, orEmpty(events))
}

// CreateEvent handles POST /events.
func (h *Handler) CreateEvent(c *gin.Context) {
	who, _ := auth.IdentityFrom(c)
	var in engagement.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortError(c, http.StatusBadRequest, engagement.MsgMissingFields)
		return
	}
	evt, err := h.svc.CreateEvent(c.Request.Context(), who, in)
	if err != nil {
		fail(c, err, "Failed to create event")
		return
	}
	c.JSON(http.StatusCreated, evt)
}

// PublicEvent handles GET /event-public?id=.
func (h *Handler) PublicEvent(c *gin.Context) {
	evt, err := h.svc.PublicEvent(c.Request.Context(), c.Query("id"))
	if err != nil {
		fail(c, err, "Failed to fetch event")
		return
	}
	c.JSON(http.StatusOK, evt)
}

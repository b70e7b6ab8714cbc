package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusreach/internal/engagement"
)

// CreateSubmission handles POST /submissions. No authentication.
func (h *Handler) CreateSubmission(c *gin.Context) {
	var in engagement.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortError(c, http.StatusBadRequest, engagement.MsgMissingFields)
		return
	}
	sub, err := h.svc.CreateSubmission(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "Failed to create submission")
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// ListSubmissions handles GET /submissions?eventId=.
func (h *Handler) ListSubmissions(c *gin.Context) {
	subs, err := h.svc.ListSubmissions(c.Request.Context(), c.Query("eventId"))
	if err != nil {
		fail(c, err, "Failed to fetch submissions")
		return
	}
	c.JSON(http.StatusOK, orEmpty(subs))
}

// Upload handles POST /upload with a base64 screenshot body.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadBodyCap)

	var in engagement.UploadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortError(c, http.StatusRequestEntityTooLarge, engagement.MsgFileTooLarge)
			return
		}
		abortError(c, http.StatusBadRequest, engagement.MsgUploadFieldsRequired)
		return
	}
	res, err := h.svc.Upload(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "Upload failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

// ViewScreenshot handles GET /view-screenshot?blobPath=.
func (h *Handler) ViewScreenshot(c *gin.Context) {
	url, err := h.svc.ViewScreenshot(c.Request.Context(), c.Query("blobPath"))
	if err != nil {
		fail(c, err, "Failed to generate view URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sasUrl": url})
}

// Package handler exposes the engagement service over JSON/HTTP with gin.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"campusreach/internal/engagement"
	"campusreach/internal/vault"
)

// Pinger is a store that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthInfo describes the deployment for the unauthenticated health check.
type HealthInfo struct {
	Environment         string
	DatabaseConfigured  bool
	JWTSecretConfigured bool
	BlobConfigured      bool
}

// Options configures a Handler.
type Options struct {
	Health HealthInfo
	// Probes are pinged by /health/stores, keyed by store name.
	Probes map[string]Pinger
	// MaxUploadBytes is the decoded screenshot limit; the request body cap is
	// derived from it.
	MaxUploadBytes int64
	ProbeTimeout   time.Duration
}

// Handler serves the HTTP API.
type Handler struct {
	svc           *engagement.Service
	health        HealthInfo
	probes        map[string]Pinger
	uploadBodyCap int64
	probeTimeout  time.Duration
	now           func() time.Time
}

// New creates a Handler.
func New(svc *engagement.Service, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = vault.DefaultMaxBytes
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	return &Handler{
		svc:           svc,
		health:        opts.Health,
		probes:        opts.Probes,
		uploadBodyCap: UploadBodyLimit(opts.MaxUploadBytes),
		probeTimeout:  opts.ProbeTimeout,
		now:           time.Now,
	}
}

// UploadBodyLimit is the largest request body accepted by /upload: the base64
// expansion of maxBytes, an escaped CRLF for every 64 characters of line-wrapped
// base64, and room for the surrounding JSON. The decoded size is enforced by the
// vault.
func UploadBodyLimit(maxBytes int64) int64 {
	encoded := (maxBytes + 2) / 3 * 4
	lineBreaks := (encoded + 63) / 64 * 4 // `\r\n` escaped inside a JSON string
	return encoded + lineBreaks + 64<<10
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// fail maps service errors to a status code. Unexpected errors are logged and
// answered with the generic fallback message.
func fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, engagement.ErrValidation):
		abortError(c, http.StatusBadRequest, engagement.Message(err, fallback))
	case errors.Is(err, engagement.ErrInvalidCredentials):
		abortError(c, http.StatusUnauthorized, engagement.Message(err, engagement.MsgInvalidCredentials))
	case errors.Is(err, engagement.ErrNotFound):
		abortError(c, http.StatusNotFound, engagement.Message(err, fallback))
	case errors.Is(err, engagement.ErrConflict):
		abortError(c, http.StatusConflict, engagement.Message(err, fallback))
	case errors.Is(err, vault.ErrTooLarge):
		abortError(c, http.StatusRequestEntityTooLarge, engagement.MsgFileTooLarge)
	default:
		_ = c.Error(err)
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		abortError(c, http.StatusInternalServerError, fallback)
	}
}

// orEmpty keeps empty collections serializing as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

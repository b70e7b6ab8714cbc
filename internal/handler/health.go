package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type healthResponse struct {
	Status              string `json:"status"`
	Message             string `json:"message"`
	Timestamp           string `json:"timestamp"`
	Environment         string `json:"environment"`
	DatabaseConfigured  bool   `json:"databaseConfigured"`
	JWTSecretConfigured bool   `json:"jwtSecretConfigured"`
	BlobConfigured      bool   `json:"blobConfigured"`
}

// Health handles GET /health. It touches no store.
func (h *Handler) Health(c *gin.Context) {
	env := h.health.Environment
	if env == "" {
		env = "unknown"
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:              "ok",
		Message:             "API is deployed and running",
		Timestamp:           h.now().UTC().Format(time.RFC3339),
		Environment:         env,
		DatabaseConfigured:  h.health.DatabaseConfigured,
		JWTSecretConfigured: h.health.JWTSecretConfigured,
		BlobConfigured:      h.health.BlobConfigured,
	})
}

type storeStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type storesResponse struct {
	Connected bool                   `json:"connected"`
	Stores    map[string]storeStatus `json:"stores"`
	Timestamp string                 `json:"timestamp"`
}

// HealthStores handles GET /health/stores by pinging every configured store
// concurrently. Any failure answers 500.
func (h *Handler) HealthStores(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.probeTimeout)
	defer cancel()

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]storeStatus, len(names))
	var g errgroup.Group
	for i, name := range names {
		p := h.probes[name]
		g.Go(func() error {
			if err := p.Ping(ctx); err != nil {
				results[i] = storeStatus{Status: "error", Message: err.Error()}
				return nil
			}
			results[i] = storeStatus{Status: "ok"}
			return nil
		})
	}
	_ = g.Wait()

	resp := storesResponse{Connected: true, Stores: make(map[string]storeStatus, len(names)), Timestamp: h.now().UTC().Format(time.RFC3339)}
	for i, name := range names {
		resp.Stores[name] = results[i]
		if results[i].Status != "ok" {
			resp.Connected = false
		}
	}

	status := http.StatusOK
	if !resp.Connected {
		status = http.StatusInternalServerError
	}
	c.JSON(status, resp)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckCmd = &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that the API and its stores are reachable",
		Long: `Calls the /health/stores endpoint and exits non-zero unless every store
reports ok. Suitable for a container HEALTHCHECK.`,
		RunE: runHealthcheck,
	}

	healthcheckTimeout time.Duration
	healthcheckURL     string
)

func init() {
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "request timeout")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "health URL (default: http://localhost:{HTTP_PORT}{BASE_PATH}/health/stores)")
}

type storesHealth struct {
	Connected bool `json:"connected"`
	Stores    map[string]struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"stores"`
}

func runHealthcheck(cmd *cobra.Command, _ []string) error {
	url := healthcheckURL
	if url == "" {
		port := os.Getenv("HTTP_PORT")
		if port == "" {
			port = "8081"
		}
		url = fmt.Sprintf("http://localhost:%s%s/health/stores", port, os.Getenv("BASE_PATH"))
	}
	return checkHealth(cmd.Context(), url, healthcheckTimeout, cmd)
}

func checkHealth(ctx context.Context, url string, timeout time.Duration, cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body storesHealth
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid health response (status %d): %w", resp.StatusCode, err)
	}
	for name, s := range body.Stores {
		line := fmt.Sprintf("%-10s %s", name, s.Status)
		if s.Message != "" {
			line += ": " + s.Message
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	if resp.StatusCode != http.StatusOK || !body.Connected {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

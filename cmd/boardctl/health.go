package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/kanban/backend/internal/transport/http/dto"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server status, connected clients and task count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, _ := cmd.Flags().GetString("server")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			endpoint, err := healthURL(server)
			if err != nil {
				return err
			}
			health, err := fetchHealth(endpoint, timeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status:  %s\nclients: %d\ntasks:   %d\n", health.Status, health.Clients, health.Tasks)
			return nil
		},
	}
}

// healthURL maps the websocket endpoint onto the server's /health route.
func healthURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", server, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("invalid server url %q: unsupported scheme", server)
	}
	u.Path = "/health"
	u.RawQuery = ""
	return u.String(), nil
}

func fetchHealth(endpoint string, timeout time.Duration) (dto.HealthResponse, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodGet)

	var health dto.HealthResponse
	if err := fasthttp.DoTimeout(req, resp, timeout); err != nil {
		return health, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return health, fmt.Errorf("GET %s: unexpected status %d", endpoint, resp.StatusCode())
	}
	if err := sonic.ConfigStd.Unmarshal(resp.Body(), &health); err != nil {
		return health, fmt.Errorf("decode health response: %w", err)
	}
	return health, nil
}

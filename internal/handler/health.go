package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"file-relay-go/internal/config"
	"file-relay-go/internal/relay"
)

// Version is a string type for dependency injection of the build version.
type Version string

// relayStatus is the /relay/status payload. It describes where files come
// from and how they are relayed; credentials never appear in it.
type relayStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Backend   string `json:"backend"`
	Upstream  string `json:"upstream"`
	ChunkSize int    `json:"chunk_size"`
	RateLimit struct {
		Enabled           bool    `json:"enabled"`
		RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	} `json:"rate_limit"`
	MetricsPath string `json:"metrics_path,omitempty"`
}

// HealthHandler serves the liveness probe and the relay status page.
type HealthHandler struct {
	status relayStatus
}

// NewHealthHandler builds the status payload once; config does not change at runtime.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	s := relayStatus{
		Status:    "ok",
		Version:   string(v),
		Backend:   cfg.Upstream.Backend,
		Upstream:  cfg.UpstreamLocation(),
		ChunkSize: relay.ChunkSize,
	}
	if cfg.Server.RateLimit.Enabled {
		s.RateLimit.Enabled = true
		s.RateLimit.RequestsPerSecond = cfg.Server.RateLimit.RequestsPerSecond
	}
	if cfg.Metrics.Enabled {
		s.MetricsPath = cfg.Metrics.Path
	}
	return &HealthHandler{status: s}
}

// Healthz answers liveness probes. It never contacts the upstream store.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports the relay's backend, upstream location and relay settings.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status)
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"file-relay-go/internal/metrics"
	"file-relay-go/internal/model"
	"file-relay-go/internal/relay"
	"file-relay-go/internal/service"
)

// outcomeStreamFailed labels downloads whose copy loop stopped early.
const outcomeStreamFailed = "stream_failed"

// Fetcher obtains the upstream response for a file.
type Fetcher interface {
	Fetch(ctx context.Context, fr model.FileRequest) (*model.FileResponse, error)
}

// DownloadHandler relays files from the upstream store to the client.
type DownloadHandler struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDownloadHandler creates a DownloadHandler. The metrics parameter may be nil.
func NewDownloadHandler(f Fetcher, logger *slog.Logger, m *metrics.Metrics) *DownloadHandler {
	return &DownloadHandler{
		fetcher: f,
		logger:  logger.With("component", "download_handler"),
		metrics: m,
	}
}

// Download serves GET /files/download?bucket=&filename=.
//
// Status and headers are decided from the upstream response before any body
// byte is written. After that the only failure mode left is a truncated body,
// so copy errors are logged and never returned to echo.
func (h *DownloadHandler) Download(c echo.Context) error {
	fr := model.FileRequest{
		Bucket:   c.QueryParam("bucket"),
		Filename: c.QueryParam("filename"),
	}

	state := relay.Init
	outcome := ""
	var written int64
	defer func() {
		if outcome == "" {
			outcome = state.String()
		}
		h.record(outcome, written)
	}()

	resp, err := h.fetcher.Fetch(c.Request().Context(), fr)
	if err != nil {
		state = relay.Aborted
		return h.mapError(c, fr, err)
	}
	upstream := relay.Guard(resp.Body)
	defer func() { _ = upstream.Close() }()

	state = relay.Inspect(resp.StatusCode)
	switch state {
	case relay.NotFound, relay.UpstreamError:
		_ = upstream.Close()
		h.logger.Info("upstream refused download",
			"bucket", fr.Bucket,
			"filename", fr.Filename,
			"status", resp.StatusCode,
		)
		return c.NoContent(resp.StatusCode)
	}

	md := relay.Negotiate(resp.Header, fr.Filename)
	md.Apply(c.Response().Header())
	c.Response().WriteHeader(http.StatusOK)

	state = relay.StreamingCopy
	written, err = relay.Copy(c.Response(), resp.Body)
	if err != nil {
		_ = upstream.Close()
		outcome = outcomeStreamFailed
		h.logStreamError(fr, md, written, err)
		return nil
	}

	if f, ok := c.Response().Writer.(http.Flusher); ok {
		f.Flush()
	}
	state = relay.Terminal
	return nil
}

// mapError answers a request whose fetch never produced an upstream response.
func (h *DownloadHandler) mapError(c echo.Context, fr model.FileRequest, err error) error {
	if errors.Is(err, service.ErrMissingParam) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "query parameters bucket and filename are required",
		})
	}

	status, reason := http.StatusBadGateway, "upstream request failed"
	var dnsErr *net.DNSError
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status, reason = http.StatusGatewayTimeout, "upstream request timed out"
	case errors.Is(err, context.Canceled):
		reason = "client disconnected"
	case errors.As(err, &dnsErr):
		reason = "upstream host unreachable"
	case errors.As(err, &urlErr):
		reason = "upstream connection failed"
	}

	h.logger.Error("fetch failed",
		"err", err,
		"reason", reason,
		"bucket", fr.Bucket,
		"filename", fr.Filename,
	)
	return c.NoContent(status)
}

func (h *DownloadHandler) logStreamError(fr model.FileRequest, md relay.Metadata, written int64, err error) {
	msg := "upstream read failed mid-stream"
	level := slog.LevelError
	switch {
	case errors.Is(err, http.ErrContentLength):
		msg = "upstream body exceeds its declared content length"
	case relay.IsWriteError(err):
		msg = "client went away mid-stream"
		level = slog.LevelWarn
	}
	h.logger.Log(context.Background(), level, msg,
		"err", err,
		"bucket", fr.Bucket,
		"filename", fr.Filename,
		"bytes_written", written,
		"content_length", md.ContentLength,
	)
}

func (h *DownloadHandler) record(outcome string, written int64) {
	if h.metrics == nil {
		return
	}
	h.metrics.RelayOutcomes.WithLabelValues(outcome).Inc()
	if written > 0 {
		h.metrics.RelayBytes.Add(float64(written))
	}
}


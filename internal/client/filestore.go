// Package client provides the upstream HTTP client for the file store service.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"file-relay-go/internal/config"
	"file-relay-go/internal/metrics"
	"file-relay-go/internal/model"
)

const userAgent = "file-relay-go/1.0"

// FileStoreClient fetches files from the upstream file store over HTTP.
type FileStoreClient struct {
	httpClient  *http.Client
	downloadURL *url.URL
	authToken   string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewFileStoreClient creates a FileStoreClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
// Compression is never negotiated with the file store.
//
// No http.Client.Timeout is set since it would also bound the body read and
// cut off long downloads; dialing and response headers are bounded instead.
func NewFileStoreClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*FileStoreClient, error) {
	base, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	u := base.JoinPath(cfg.Upstream.DownloadPath)

	timeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost:   cfg.Upstream.IdleConnections,
		IdleConnTimeout:       90 * time.Second,
		// Files are relayed byte for byte; a transparently decoded body would
		// no longer match the upstream Content-Length.
		DisableCompression:    true,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &FileStoreClient{
		httpClient:  &http.Client{Transport: transport},
		downloadURL: u,
		authToken:   cfg.Upstream.AuthToken,
		logger:      logger.With("component", "filestore_client"),
		metrics:     m,
	}, nil
}

// Name identifies the backend in logs and metrics.
func (c *FileStoreClient) Name() string { return config.BackendHTTP }

// Fetch requests one file and returns the raw upstream response. Any HTTP
// status, including 404 and 5xx, is a normal result; only a failure to get a
// response at all is an error.
//
// The caller owns the returned body and must close it. ctx bounds the whole
// exchange, so cancelling it also aborts a body that is still being read.
func (c *FileStoreClient) Fetch(ctx context.Context, fr model.FileRequest) (*model.FileResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(fr), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	c.logger.Debug("upstream request",
		"bucket", fr.Bucket,
		"filename", fr.Filename,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via FileResponse
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(c.Name()).Observe(duration)
	}
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(c.Name(), strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.FileResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// buildURL places bucket and filename in the query string, so neither needs
// to be a valid path segment.
func (c *FileStoreClient) buildURL(fr model.FileRequest) string {
	u := *c.downloadURL

	q := u.Query()
	q.Set("bucket", fr.Bucket)
	q.Set("filename", fr.Filename)
	u.RawQuery = q.Encode()

	return u.String()
}


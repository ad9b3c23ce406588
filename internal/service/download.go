// Package service resolves download requests against the configured upstream backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"file-relay-go/internal/model"
)

// ErrMissingParam is returned when bucket or filename is empty.
var ErrMissingParam = errors.New("bucket and filename are required")

// forwardableResponseHeaders are the only upstream headers that reach the client.
var forwardableResponseHeaders = map[string]bool{
	"Content-Type":        true,
	"Content-Length":      true,
	"Content-Disposition": true,
	"Last-Modified":       true,
	"Etag":                true,
}

// Backend fetches a file from one kind of upstream store.
type Backend interface {
	Fetch(ctx context.Context, fr model.FileRequest) (*model.FileResponse, error)
	Name() string
}

// DownloadService fetches files for the download endpoint.
type DownloadService struct {
	backend Backend
	logger  *slog.Logger
}

// NewDownloadService creates a DownloadService.
func NewDownloadService(b Backend, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		backend: b,
		logger:  logger.With("component", "download_service", "backend", b.Name()),
	}
}

// Backend returns the name of the configured backend.
func (s *DownloadService) Backend() string {
	return s.backend.Name()
}

// Fetch retrieves the upstream response for fr. Upstream error statuses are
// returned as responses, not errors. The caller must close the body.
func (s *DownloadService) Fetch(ctx context.Context, fr model.FileRequest) (*model.FileResponse, error) {
	if fr.Bucket == "" || fr.Filename == "" {
		return nil, ErrMissingParam
	}

	resp, err := s.backend.Fetch(ctx, fr)
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", fr.Bucket, fr.Filename, err)
	}

	s.logger.Debug("upstream responded",
		"bucket", fr.Bucket,
		"filename", fr.Filename,
		"status", resp.StatusCode,
	)

	resp.Header = filterResponseHeaders(resp.Header)
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	return resp, nil
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		if forwardableResponseHeaders[http.CanonicalHeaderKey(key)] {
			dst[http.CanonicalHeaderKey(key)] = vals
		}
	}
	return dst
}

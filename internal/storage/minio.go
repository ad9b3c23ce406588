// Package storage fetches files directly from an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"file-relay-go/internal/config"
	"file-relay-go/internal/metrics"
	"file-relay-go/internal/model"
)

// MinioStore serves files from a MinIO (or any S3-compatible) endpoint.
// Buckets map to S3 buckets and filenames to object keys.
type MinioStore struct {
	client  *minio.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewMinioStore connects a MinioStore. The metrics parameter may be nil.
func NewMinioStore(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*MinioStore, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
		Region: cfg.Minio.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &MinioStore{
		client:  client,
		logger:  logger.With("component", "minio_store"),
		metrics: m,
	}, nil
}

// Name identifies the backend in logs and metrics.
func (s *MinioStore) Name() string { return config.BackendMinio }

// Fetch opens the object and stats it. S3 error responses (missing key,
// missing bucket, access denied) become a FileResponse carrying the error's
// status; only failures without an HTTP status are returned as errors.
func (s *MinioStore) Fetch(ctx context.Context, fr model.FileRequest) (*model.FileResponse, error) {
	s.logger.Debug("object request",
		"bucket", fr.Bucket,
		"filename", fr.Filename,
	)

	start := time.Now()
	resp, err := s.fetch(ctx, fr)
	if s.metrics != nil {
		s.metrics.UpstreamDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
		if err == nil {
			s.metrics.UpstreamResponses.WithLabelValues(s.Name(), strconv.Itoa(resp.StatusCode)).Inc()
		}
	}
	return resp, err
}

func (s *MinioStore) fetch(ctx context.Context, fr model.FileRequest) (*model.FileResponse, error) {
	obj, err := s.client.GetObject(ctx, fr.Bucket, fr.Filename, minio.GetObjectOptions{})
	if err != nil {
		return errorResponse(err, nil)
	}

	info, err := obj.Stat()
	if err != nil {
		return errorResponse(err, obj)
	}

	return &model.FileResponse{
		StatusCode: http.StatusOK,
		Header:     objectHeader(info),
		Body:       obj,
	}, nil
}

// errorResponse converts a minio error into a FileResponse when S3 answered
// with a status, closing obj either way.
func errorResponse(err error, obj io.Closer) (*model.FileResponse, error) {
	if obj != nil {
		_ = obj.Close()
	}

	status := StatusFromError(err)
	if status == 0 {
		return nil, fmt.Errorf("minio get object: %w", err)
	}

	return &model.FileResponse{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       http.NoBody,
	}, nil
}

// StatusFromError returns the HTTP status an S3 error corresponds to, or 0
// when err did not come from an S3 response.
func StatusFromError(err error) int {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return http.StatusNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode
	}
	return 0
}

// objectHeader renders object info as the response headers a file store
// would have sent.
func objectHeader(info minio.ObjectInfo) http.Header {
	h := make(http.Header)
	if info.ContentType != "" {
		h.Set("Content-Type", info.ContentType)
	}
	if info.Size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if cd := info.Metadata.Get("Content-Disposition"); cd != "" {
		h.Set("Content-Disposition", cd)
	}
	if !info.LastModified.IsZero() {
		h.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	if info.ETag != "" {
		h.Set("ETag", `"`+info.ETag+`"`)
	}
	return h
}

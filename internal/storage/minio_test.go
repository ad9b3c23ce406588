package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"file-relay-go/internal/config"
	"file-relay-go/internal/model"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"no such bucket", minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"no such key without status", minio.ErrorResponse{Code: "NoSuchKey"}, http.StatusNotFound},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, http.StatusForbidden},
		{"invalid bucket name", minio.ErrorResponse{Code: "InvalidBucketName", StatusCode: http.StatusBadRequest}, http.StatusBadRequest},
		{"slow down", minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, http.StatusServiceUnavailable},
		{"transport error", errors.New("dial tcp: connection refused"), 0},
		{"error without status", minio.ErrorResponse{Code: "InternalError"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromError(tt.err); got != tt.want {
				t.Errorf("StatusFromError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestObjectHeader(t *testing.T) {
	modified := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	info := minio.ObjectInfo{
		ContentType:  "application/pdf",
		Size:         12345,
		ETag:         "abc123",
		LastModified: modified,
		Metadata:     http.Header{"Content-Disposition": {`attachment; filename="report.pdf"`}},
	}

	h := objectHeader(info)

	checks := map[string]string{
		"Content-Type":        "application/pdf",
		"Content-Length":      "12345",
		"Content-Disposition": `attachment; filename="report.pdf"`,
		"Last-Modified":       modified.Format(http.TimeFormat),
		"ETag":                `"abc123"`,
	}
	for key, want := range checks {
		if got := h.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestObjectHeader_Sparse(t *testing.T) {
	h := objectHeader(minio.ObjectInfo{Size: 0})

	if got := h.Get("Content-Length"); got != "0" {
		t.Errorf("Content-Length = %q, want %q", got, "0")
	}
	for _, key := range []string{"Content-Type", "Content-Disposition", "Last-Modified", "ETag"} {
		if got := h.Get(key); got != "" {
			t.Errorf("%s = %q, want empty", key, got)
		}
	}
}

// fakeS3 serves a single object at /docs/report.pdf and answers everything
// else with NoSuchKey.
func fakeS3(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/report.pdf" {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
					`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", "12")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", "Sat, 01 Mar 2025 12:00:00 GMT")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = io.WriteString(w, body)
		}
	}))
}

func newTestStore(t *testing.T, srvURL string) *MinioStore {
	t.Helper()
	u, err := url.Parse(srvURL)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Minio: config.MinioConfig{
			Endpoint:  u.Host,
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Region:    "us-east-1",
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewMinioStore(cfg, logger, nil)
	if err != nil {
		t.Fatalf("NewMinioStore() error = %v", err)
	}
	return s
}

func TestMinioStore_Fetch(t *testing.T) {
	srv := fakeS3(t, "%PDF-1.7 abc")
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	resp, err := s.Fetch(context.Background(), model.FileRequest{Bucket: "docs", Filename: "report.pdf"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q, want %q", got, "application/pdf")
	}
	if got := resp.Header.Get("Content-Length"); got != "12" {
		t.Errorf("Content-Length = %q, want %q", got, "12")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != "%PDF-1.7 abc" {
		t.Errorf("body = %q, want %q", string(body), "%PDF-1.7 abc")
	}
}

func TestMinioStore_Fetch_NotFound(t *testing.T) {
	srv := fakeS3(t, "")
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	resp, err := s.Fetch(context.Background(), model.FileRequest{Bucket: "docs", Filename: "missing.pdf"})
	if err != nil {
		t.Fatalf("Fetch() error = %v, want a 404 response", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("body = %q, want empty", string(body))
	}
}

func TestMinioStore_Fetch_Unreachable(t *testing.T) {
	srv := fakeS3(t, "")
	s := newTestStore(t, srv.URL)
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.Fetch(ctx, model.FileRequest{Bucket: "docs", Filename: "report.pdf"})
	if err == nil {
		t.Fatal("Fetch() expected error for closed endpoint, got nil")
	}
	if strings.Contains(err.Error(), "NoSuchKey") {
		t.Errorf("Fetch() error = %v, want a transport failure", err)
	}
}

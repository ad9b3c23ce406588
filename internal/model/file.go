// Package model defines shared types for the relay.
package model

import (
	"io"
	"net/http"
)

// FileRequest identifies one file in the upstream store.
type FileRequest struct {
	Bucket   string
	Filename string
}

// FileResponse is a single upstream answer for a FileRequest.
// Body is read at most once and must be closed by whoever holds it.
type FileResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

package relay

import (
	"net/http"
	"strconv"
	"strings"
)

// DefaultContentType is used when upstream gives no usable Content-Type.
const DefaultContentType = "application/octet-stream"

// Metadata holds the downstream headers decided before the first body byte.
type Metadata struct {
	ContentType        string
	ContentDisposition string
	ContentLength      int64 // -1 when unknown
}

// Negotiate derives downstream metadata from upstream headers.
// A missing header and a blank one are treated the same. An unparsable
// Content-Length is dropped rather than reported.
func Negotiate(upstream http.Header, filename string) Metadata {
	md := Metadata{
		ContentType:        DefaultContentType,
		ContentDisposition: "attachment; filename=" + filename,
		ContentLength:      -1,
	}

	if v := firstValue(upstream, "Content-Type"); strings.TrimSpace(v) != "" {
		md.ContentType = v
	}
	if v := firstValue(upstream, "Content-Disposition"); strings.TrimSpace(v) != "" {
		md.ContentDisposition = v
	}
	if v := firstValue(upstream, "Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			md.ContentLength = n
		}
	}

	return md
}

// Apply sets the negotiated headers on h.
func (m Metadata) Apply(h http.Header) {
	h.Set("Content-Type", m.ContentType)
	h.Set("Content-Disposition", m.ContentDisposition)
	if m.ContentLength >= 0 {
		h.Set("Content-Length", strconv.FormatInt(m.ContentLength, 10))
	} else {
		h.Del("Content-Length")
	}
}

func firstValue(h http.Header, key string) string {
	if vals := h.Values(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

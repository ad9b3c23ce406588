// Package relay moves a file from an upstream response to a downstream
// writer: status inspection, header negotiation, a chunked copy loop, and
// single release of the upstream body.
package relay

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ChunkSize is the number of bytes moved per read/write step.
const ChunkSize = 8 * 1024

var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, ChunkSize)
		return &b
	},
}

// StreamError reports a failure on one side of the copy loop.
type StreamError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("relay %s: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// IsWriteError reports whether err came from the downstream side.
func IsWriteError(err error) bool {
	var se *StreamError
	return errors.As(err, &se) && se.Op == "write"
}

// Copy reads src in ChunkSize chunks and writes each chunk to dst in order
// until src reports io.EOF. It returns the number of bytes written to dst.
//
// Unlike io.Copy it never delegates to ReaderFrom/WriterTo, so every step is
// bounded by the chunk buffer, and it stops reading as soon as a write fails.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	bp := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bp)
	buf := *bp

	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			if nw < 0 || nw > nr {
				nw = 0
				if werr == nil {
					werr = errors.New("invalid write result")
				}
			}
			written += int64(nw)
			if werr != nil {
				return written, &StreamError{Op: "write", Err: werr}
			}
			if nw != nr {
				return written, &StreamError{Op: "write", Err: io.ErrShortWrite}
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return written, nil
			}
			return written, &StreamError{Op: "read", Err: rerr}
		}
	}
}

package relay

import (
	"io"
	"sync"
	"sync/atomic"
)

// Release owns an upstream body and closes it once, however many exit paths
// try to.
type Release struct {
	once   sync.Once
	closer io.Closer
	err    error
	done   atomic.Bool
}

// Guard takes ownership of c. A nil closer is allowed.
func Guard(c io.Closer) *Release {
	return &Release{closer: c}
}

// Close releases the guarded resource on the first call and returns that
// result on every later call.
func (r *Release) Close() error {
	r.once.Do(func() {
		if r.closer != nil {
			r.err = r.closer.Close()
		}
		r.done.Store(true)
	})
	return r.err
}

// Released reports whether Close has run.
func (r *Release) Released() bool {
	return r.done.Load()
}

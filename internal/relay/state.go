package relay

import "net/http"

// State is a step of the per-request relay state machine.
type State int

const (
	Init State = iota
	Aborted
	NotFound
	UpstreamError
	HeaderNegotiation
	StreamingCopy
	Terminal
)

var stateNames = [...]string{
	Init:              "init",
	Aborted:           "aborted",
	NotFound:          "not_found",
	UpstreamError:     "upstream_error",
	HeaderNegotiation: "header_negotiation",
	StreamingCopy:     "streaming_copy",
	Terminal:          "terminal",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Inspect picks the state that follows a completed fetch with the given
// upstream status.
func Inspect(status int) State {
	switch {
	case status == http.StatusNotFound:
		return NotFound
	case status >= http.StatusBadRequest:
		return UpstreamError
	default:
		return HeaderNegotiation
	}
}

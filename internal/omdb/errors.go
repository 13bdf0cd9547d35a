package omdb

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound reports that OMDb answered Response=False for the query.
	ErrNotFound = errors.New("omdb: movie not found")
	// ErrOffline reports that the request was skipped because the
	// connectivity checker reported offline.
	ErrOffline = errors.New("omdb: offline")
)

// TransportError describes a failed exchange: network error, non-2xx status,
// or an undecodable body. URL never includes the API key.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Latency    time.Duration
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("omdb %s %s returned %d (latency=%v)", e.Op, e.URL, e.StatusCode, e.Latency)
	}
	return fmt.Sprintf("omdb %s %s (latency=%v): %v", e.Op, e.URL, e.Latency, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

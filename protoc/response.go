package protoc

import (
	"errors"
	"io"
	"sync"
)

// ErrResponseDrained is returned when reading a response the session has
// already drained to serve another request.
var ErrResponseDrained = errors.New("protocol: response drained before it was fully read")

// ResponseTracker keeps the pending response of a session: the streaming
// reader last handed to a caller, until that caller closes it. Sessions
// embed it to implement DrainPending.
type ResponseTracker struct {
	mu      sync.Mutex
	pending *trackedResponse
}

// Track registers rc as the pending response and returns the reader to
// hand to the caller. Closing the returned reader clears the pending
// response.
func (t *ResponseTracker) Track(rc io.ReadCloser) io.ReadCloser {
	r := &trackedResponse{body: rc, tracker: t}
	t.mu.Lock()
	t.pending = r
	t.mu.Unlock()
	return r
}

// Pending reports whether a response is still pending.
func (t *ResponseTracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// Drain reads the pending response to its end, discards it and closes it.
func (t *ResponseTracker) Drain() (err error) {
	if r := t.take(); r != nil {
		err = r.finish(true)
	}
	return
}

// Discard closes the pending response without reading it.
func (t *ResponseTracker) Discard() (err error) {
	if r := t.take(); r != nil {
		err = r.finish(false)
	}
	return
}

func (t *ResponseTracker) take() (r *trackedResponse) {
	t.mu.Lock()
	r, t.pending = t.pending, nil
	t.mu.Unlock()
	return
}

func (t *ResponseTracker) forget(r *trackedResponse) {
	t.mu.Lock()
	if t.pending == r {
		t.pending = nil
	}
	t.mu.Unlock()
}

type trackedResponse struct {
	body    io.ReadCloser
	tracker *ResponseTracker

	mu       sync.Mutex
	finished bool
	drained  bool
	closeErr error
}

func (r *trackedResponse) Read(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drained {
		return 0, ErrResponseDrained
	}
	if r.finished {
		return 0, io.ErrClosedPipe
	}
	return r.body.Read(p)
}

func (r *trackedResponse) Close() error {
	r.tracker.forget(r)
	r.mu.Lock()
	drained := r.drained
	r.mu.Unlock()
	if drained {
		return nil
	}
	return r.finish(false)
}

// finish closes the body once, reading it to its end first when drain is set.
func (r *trackedResponse) finish(drain bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return r.closeErr
	}
	r.finished, r.drained = true, drain
	var drainErr error
	if drain {
		_, drainErr = io.Copy(io.Discard, r.body)
	}
	r.closeErr = errors.Join(drainErr, r.body.Close())
	return r.closeErr
}

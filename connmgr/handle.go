package connmgr

import (
	"sync"

	"github.com/derektruong/fxvfs/protoc"
)

// Handle is the connection an execution context works with. It is owned by
// one slot for its whole life: retargeting it to another endpoint replaces
// its session, never the handle itself.
type Handle struct {
	key string

	// mu serializes the session lifecycle (open, drain, close, retarget)
	// between the owner and the idle reaper
	mu       sync.Mutex
	endpoint protoc.Endpoint
	session  protoc.Session
}

func newHandle(key string, endpoint protoc.Endpoint, session protoc.Session) *Handle {
	return &Handle{key: key, endpoint: endpoint, session: session}
}

// Key returns the execution context key owning the handle.
func (h *Handle) Key() string {
	return h.key
}

// Endpoint returns the endpoint the handle currently targets.
func (h *Handle) Endpoint() protoc.Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.endpoint
}

// Session returns the protocol session of the handle. Callers type assert
// it to protoc.FileSession to run file operations.
func (h *Handle) Session() protoc.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// IsOpen reports whether the session of the handle is established.
func (h *Handle) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session.IsOpen()
}

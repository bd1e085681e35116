//go:generate mockgen -source=session.go -destination=mock/session.go

package protoc

import (
	"context"
	"io"
	"net/url"

	"github.com/derektruong/fxvfs/internal/vfsfile"
)

// Session is one live protocol session with a remote endpoint. It is the
// capability every protocol adapter implements so a single connection
// manager can drive the lifecycle of all of them.
//
// A session is never used by two goroutines at the same time, except for
// Close and IsOpen which must be safe to call while the session is idle.
type Session interface {
	// Open establishes the session with the endpoint (dial, handshake and
	// authentication). Opening an already open session is a no-op.
	Open(ctx context.Context, endpoint Endpoint) (err error)

	// Close tears the session down, discarding any pending response.
	Close() (err error)

	// IsOpen reports whether the session is established.
	IsOpen() bool

	// DrainPending consumes and discards the unread remainder of the last
	// response handed out by the session, so the next request starts on a
	// clean framing boundary. It is a no-op without a pending response.
	DrainPending() (err error)
}

// SessionFactory builds an unopened session able to reach endpoint.
type SessionFactory func(endpoint Endpoint) (Session, error)

// FileSession is a session exposing the protocol-agnostic file operations.
// Paths are slash separated and absolute within the endpoint, the first
// segment names the SMB share.
type FileSession interface {
	Session

	// Stat returns the information of the file at filePath,
	// vfsfile.ErrFileNotExists if there is none
	Stat(ctx context.Context, filePath string) (info vfsfile.Info, err error)

	// RetrieveFileFromOffset returns the content of the file at filePath
	// starting at offset. The reader is the session's pending response
	// until it is closed or drained.
	RetrieveFileFromOffset(ctx context.Context, filePath string, offset int64) (reader io.ReadCloser, err error)

	// CreateOrOverwriteFile stores the content of reader at filePath.
	CreateOrOverwriteFile(ctx context.Context, filePath string, reader io.Reader) (err error)

	// AppendToFile appends the content of reader to the file at filePath.
	AppendToFile(ctx context.Context, filePath string, reader io.Reader) (err error)

	// MakeDirectoryAll creates dirPath and all its missing parents.
	MakeDirectoryAll(ctx context.Context, dirPath string) (err error)

	// DeleteFile deletes the file at filePath.
	DeleteFile(ctx context.Context, filePath string) (err error)
}

// Location is where a URI points to once resolved by a provider.
type Location struct {
	// Endpoint is the remote session target
	Endpoint Endpoint
	// Root identifies the file system inside the endpoint ("/" or the
	// SMB share / S3 bucket), file systems are cached per root
	Root string
	// Path is the absolute path of the file
	Path string
}

// Provider plugs a family of protocols into the registry.
type Provider interface {
	// Protocols returns the protocols served by the provider.
	Protocols() []Protocol

	// Resolve turns a parsed URI and the configuration bag into a Location.
	Resolve(ctx context.Context, u *url.URL, opts Options) (loc Location, err error)

	// NewSession builds an unopened session for endpoint.
	NewSession(endpoint Endpoint) (session Session, err error)

	// Capabilities returns what the provider's file systems can do.
	Capabilities() []Capability
}

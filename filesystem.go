package fxvfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/derektruong/fxvfs/connmgr"
	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
	"github.com/samber/lo"
)

// FileSystem is one root (a directory tree, an SMB share or an S3 bucket)
// of a provider. Its operations run on the connection of the execution
// context carried by ctx, see connmgr.NewContext.
type FileSystem struct {
	logger       logr.Logger
	manager      *connmgr.Manager
	provider     protoc.Provider
	root         string
	capabilities []protoc.Capability
}

func newFileSystem(logger logr.Logger, manager *connmgr.Manager, provider protoc.Provider, root string) *FileSystem {
	return &FileSystem{
		logger:       logger.WithName("filesystem").WithValues("root", root),
		manager:      manager,
		provider:     provider,
		root:         root,
		capabilities: provider.Capabilities(),
	}
}

// Root returns the root the file system is cached for.
func (fs *FileSystem) Root() string {
	return fs.root
}

// HasCapability reports whether the file system supports c.
func (fs *FileSystem) HasCapability(c protoc.Capability) bool {
	return lo.Contains(fs.capabilities, c)
}

func (fs *FileSystem) require(op string, capabilities ...protoc.Capability) error {
	for _, c := range capabilities {
		if !fs.HasCapability(c) {
			return fmt.Errorf("%w: %s needs %s", ErrCapabilityNotSupported, op, c)
		}
	}
	return nil
}

// withSession runs fn on the file session of the execution context, the
// handle is released once fn returns.
func (fs *FileSystem) withSession(
	ctx context.Context,
	op string,
	endpoint protoc.Endpoint,
	fn func(session protoc.FileSession) error,
) (err error) {
	var h *connmgr.Handle
	var session protoc.FileSession
	if h, session, err = fs.acquire(ctx, endpoint); err != nil {
		return
	}
	defer func() {
		if releaseErr := fs.manager.Release(ctx, h); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()
	if err = fn(session); err != nil {
		err = wrapSessionError(op, endpoint, err)
	}
	return
}

func (fs *FileSystem) acquire(ctx context.Context, endpoint protoc.Endpoint) (h *connmgr.Handle, session protoc.FileSession, err error) {
	if h, err = fs.manager.Acquire(ctx, endpoint); err != nil {
		return
	}
	var ok bool
	if session, ok = h.Session().(protoc.FileSession); !ok {
		err = errors.Join(
			fmt.Errorf("%w: %s sessions have no file operations", protoc.ErrUnsupportedOperation, endpoint.Protocol),
			fs.manager.Release(ctx, h),
		)
		h = nil
	}
	return
}

// wrapSessionError reports remote failures as protocol errors, leaving
// the errors callers act upon untouched.
func wrapSessionError(op string, endpoint protoc.Endpoint, err error) error {
	if errors.Is(err, vfsfile.ErrFileNotExists) ||
		errors.Is(err, protoc.ErrUnsupportedOperation) ||
		errors.Is(err, context.Canceled) ||
		connmgr.IsProtocolError(err) {
		return err
	}
	return &connmgr.ProtocolError{Op: op, Endpoint: endpoint, Err: err}
}

// File is a file addressed by URI. It holds no connection: every
// operation acquires the connection of the execution context carried by
// its ctx and releases it when done.
type File struct {
	fs       *FileSystem
	endpoint protoc.Endpoint
	path     string
	uri      string
}

// URI returns the address of the file, without credentials.
func (f *File) URI() string {
	return f.uri
}

// Path returns the absolute path of the file in its endpoint.
func (f *File) Path() string {
	return f.path
}

// FileSystem returns the file system the file belongs to.
func (f *File) FileSystem() *FileSystem {
	return f.fs
}

func (f *File) String() string {
	return f.uri
}

// Stat returns the file info, vfsfile.ErrFileNotExists if there is no file.
func (f *File) Stat(ctx context.Context) (info vfsfile.Info, err error) {
	err = f.fs.withSession(ctx, "stat", f.endpoint, func(session protoc.FileSession) (err error) {
		info, err = session.Stat(ctx, f.path)
		return
	})
	return
}

// Exists reports whether the file exists.
func (f *File) Exists(ctx context.Context) (exists bool, err error) {
	if _, err = f.Stat(ctx); err != nil {
		if errors.Is(err, vfsfile.ErrFileNotExists) {
			err = nil
		}
		return
	}
	exists = true
	return
}

// Open returns a reader of the file content starting at offset. The
// connection stays acquired until the reader is closed; any other
// operation of the same execution context meanwhile drains the reader.
func (f *File) Open(ctx context.Context, offset int64) (rc io.ReadCloser, err error) {
	if err = f.fs.require("open", protoc.CapabilityReadContent); err != nil {
		return
	}
	if offset > 0 {
		if err = f.fs.require("open at offset", protoc.CapabilityRandomAccessRead); err != nil {
			return
		}
	}
	var h *connmgr.Handle
	var session protoc.FileSession
	if h, session, err = f.fs.acquire(ctx, f.endpoint); err != nil {
		return
	}
	var reader io.ReadCloser
	if reader, err = session.RetrieveFileFromOffset(ctx, f.path, offset); err != nil {
		err = wrapSessionError("open", f.endpoint, err)
		if releaseErr := f.fs.manager.Release(ctx, h); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
		return
	}
	rc = &releasingReader{
		ReadCloser: reader,
		release: func() error {
			return f.fs.manager.Release(ctx, h)
		},
	}
	return
}

// Create writes the content of r to the file, replacing it. Missing parent
// directories are created.
func (f *File) Create(ctx context.Context, r io.Reader) (err error) {
	if err = f.fs.require("create", protoc.CapabilityCreate, protoc.CapabilityWriteContent); err != nil {
		return
	}
	return f.fs.withSession(ctx, "create", f.endpoint, func(session protoc.FileSession) (err error) {
		if dir := path.Dir(f.path); dir != "/" && dir != "." {
			if err = session.MakeDirectoryAll(ctx, dir); err != nil {
				return
			}
		}
		return session.CreateOrOverwriteFile(ctx, f.path, r)
	})
}

// Append writes the content of r at the end of the file.
func (f *File) Append(ctx context.Context, r io.Reader) (err error) {
	if err = f.fs.require("append", protoc.CapabilityAppendContent); err != nil {
		return
	}
	return f.fs.withSession(ctx, "append", f.endpoint, func(session protoc.FileSession) error {
		return session.AppendToFile(ctx, f.path, r)
	})
}

// MkdirAll creates the file path as a directory, along with its parents.
func (f *File) MkdirAll(ctx context.Context) (err error) {
	if err = f.fs.require("mkdir", protoc.CapabilityCreate); err != nil {
		return
	}
	return f.fs.withSession(ctx, "mkdir", f.endpoint, func(session protoc.FileSession) error {
		return session.MakeDirectoryAll(ctx, f.path)
	})
}

// Delete removes the file.
func (f *File) Delete(ctx context.Context) (err error) {
	if err = f.fs.require("delete", protoc.CapabilityDelete); err != nil {
		return
	}
	return f.fs.withSession(ctx, "delete", f.endpoint, func(session protoc.FileSession) error {
		return session.DeleteFile(ctx, f.path)
	})
}

// releasingReader releases the connection of the reader once closed.
type releasingReader struct {
	io.ReadCloser
	release func() error
	once    sync.Once
	err     error
}

func (r *releasingReader) Close() error {
	r.once.Do(func() {
		r.err = r.ReadCloser.Close()
		if releaseErr := r.release(); releaseErr != nil {
			r.err = errors.Join(r.err, releaseErr)
		}
	})
	return r.err
}

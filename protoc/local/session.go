package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
)

var defaultFilePerm = os.FileMode(0664)
var defaultDirPerm = os.FileMode(0755)

// Session is the local file system seen through the session contract.
// Opening it only flips its state, there is no connection behind it.
type Session struct {
	logger logr.Logger

	mu       sync.Mutex
	opened   bool
	tracker  protoc.ResponseTracker
	endpoint protoc.Endpoint
}

var _ protoc.FileSession = (*Session)(nil)

// NewSession creates an unopened local session.
func NewSession(logger logr.Logger) *Session {
	return &Session{logger: logger.WithName("local.session")}
}

func (s *Session) Open(ctx context.Context, endpoint protoc.Endpoint) (err error) {
	if endpoint.Protocol != protoc.ProtocolLocal {
		return fmt.Errorf("%w: %s is not a local endpoint", protoc.ErrInvalidEndpoint, endpoint)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened, s.endpoint = true, endpoint
	return
}

func (s *Session) Close() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return
	}
	s.opened = false
	err = s.tracker.Discard()
	s.logger.V(1).Info("closed local session")
	return
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

func (s *Session) DrainPending() error {
	return s.tracker.Drain()
}

func (s *Session) Stat(ctx context.Context, filePath string) (info vfsfile.Info, err error) {
	if err = s.checkOpen(); err != nil {
		return
	}
	var fileInfo os.FileInfo
	if fileInfo, err = os.Stat(filepath.FromSlash(filePath)); err != nil {
		err = mapNotExist(err)
		return
	}
	info = vfsfile.NewInfo(filePath, fileInfo.Size(), fileInfo.ModTime(), fileInfo.IsDir())
	return
}

func (s *Session) RetrieveFileFromOffset(
	ctx context.Context,
	filePath string,
	offset int64,
) (reader io.ReadCloser, err error) {
	if err = s.checkOpen(); err != nil {
		return
	}
	var file *os.File
	if file, err = os.Open(filepath.FromSlash(filePath)); err != nil {
		err = mapNotExist(err)
		return
	}
	if _, err = file.Seek(offset, io.SeekStart); err != nil {
		_ = file.Close()
		return
	}
	reader = s.tracker.Track(file)
	return
}

func (s *Session) CreateOrOverwriteFile(ctx context.Context, filePath string, reader io.Reader) (err error) {
	return s.write(filePath, reader, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
}

func (s *Session) AppendToFile(ctx context.Context, filePath string, reader io.Reader) (err error) {
	return s.write(filePath, reader, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
}

func (s *Session) MakeDirectoryAll(ctx context.Context, dirPath string) (err error) {
	if err = s.checkOpen(); err != nil {
		return
	}
	return os.MkdirAll(filepath.FromSlash(dirPath), defaultDirPerm)
}

func (s *Session) DeleteFile(ctx context.Context, filePath string) (err error) {
	if err = s.checkOpen(); err != nil {
		return
	}
	if err = os.Remove(filepath.FromSlash(filePath)); err != nil {
		err = mapNotExist(err)
	}
	return
}

func (s *Session) write(filePath string, reader io.Reader, flag int) (err error) {
	if err = s.checkOpen(); err != nil {
		return
	}
	var file *os.File
	if file, err = os.OpenFile(filepath.FromSlash(filePath), flag, defaultFilePerm); err != nil {
		err = mapNotExist(err)
		return
	}
	if _, err = io.Copy(file, reader); err != nil {
		_ = file.Close()
		return
	}
	return file.Close()
}

func (s *Session) checkOpen() error {
	if !s.IsOpen() {
		return protoc.ErrSessionClosed
	}
	return nil
}

func mapNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", vfsfile.ErrFileNotExists, err)
	}
	return err
}

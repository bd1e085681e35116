package smb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/derektruong/fxvfs/internal/fileutils"
	"github.com/derektruong/fxvfs/internal/protocutils"
	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
	"github.com/hirochachacha/go-smb2"
	"github.com/samber/lo"
)

// NT status codes mapped to protocol-agnostic errors.
const (
	statusObjectNameNotFound uint32 = 0xC0000034
	statusObjectPathNotFound uint32 = 0xC000003A
	statusBadNetworkName     uint32 = 0xC00000CC
	statusLogonFailure       uint32 = 0xC000006D
	statusPasswordExpired    uint32 = 0xC0000071
	statusAccountDisabled    uint32 = 0xC0000072
	statusAccountLockedOut   uint32 = 0xC0000234
)

var defaultFilePerm = os.FileMode(0664)
var defaultDirPerm = os.FileMode(0755)

// Session is an authenticated SMB2/3 session. Shares are mounted on first
// use and kept until the session closes.
type Session struct {
	logger logr.Logger

	mu      sync.Mutex
	conn    net.Conn
	session *smb2.Session
	shares  map[string]*smb2.Share
	tracker protoc.ResponseTracker
}

var _ protoc.FileSession = (*Session)(nil)

func NewSession(logger logr.Logger) *Session {
	return &Session{logger: logger.WithName("smb.session")}
}

// Open dials the endpoint, through its SOCKS5 proxy if any, and
// authenticates with NTLM.
func (s *Session) Open(ctx context.Context, endpoint protoc.Endpoint) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return
	}
	var conn net.Conn
	if conn, err = protocutils.Dial(
		ctx,
		endpoint.Address(),
		endpoint.ProxyAddress(),
		endpoint.Settings.Timeout,
	); err != nil {
		return
	}
	domain, user := SplitDomain(endpoint.Credentials)
	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     user,
			Password: endpoint.Credentials.Password,
			Domain:   domain,
		},
	}
	var session *smb2.Session
	if session, err = dialer.DialContext(ctx, conn); err != nil {
		_ = conn.Close()
		if hasStatus(err, statusLogonFailure, statusPasswordExpired, statusAccountDisabled, statusAccountLockedOut) {
			err = fmt.Errorf("%w: %w", protoc.ErrAuthenticationFailed, err)
		}
		return
	}
	s.conn, s.session = conn, session
	s.shares = make(map[string]*smb2.Share)
	s.logger.V(1).Info("opened smb session", "endpoint", endpoint.String())
	return
}

// Close discards the pending read, unmounts the shares and logs off.
func (s *Session) Close() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return
	}
	errs := []error{s.tracker.Discard()}
	for _, share := range s.shares {
		errs = append(errs, share.Umount())
	}
	errs = append(errs, s.session.Logoff(), s.conn.Close())
	s.conn, s.session, s.shares = nil, nil, nil
	// the server drops the connection on logoff
	return errors.Join(lo.Filter(errs, func(err error, _ int) bool {
		return err != nil && !errors.Is(err, net.ErrClosed)
	})...)
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// DrainPending closes the file handle of the pending read. SMB reads are
// one request per chunk, nothing is left in flight once the handle is
// closed.
func (s *Session) DrainPending() error {
	return s.tracker.Discard()
}

func (s *Session) Stat(ctx context.Context, filePath string) (info vfsfile.Info, err error) {
	var share *smb2.Share
	var name string
	if share, name, err = s.mount(ctx, filePath); err != nil {
		return
	}
	var fileInfo fs.FileInfo
	if fileInfo, err = share.Stat(sharePath(name)); err != nil {
		err = mapError(err)
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
	var share *smb2.Share
	var name string
	if share, name, err = s.mount(ctx, filePath); err != nil {
		return
	}
	var file *smb2.File
	if file, err = share.Open(sharePath(name)); err != nil {
		err = mapError(err)
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
	return s.write(ctx, filePath, reader, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
}

func (s *Session) AppendToFile(ctx context.Context, filePath string, reader io.Reader) (err error) {
	return s.write(ctx, filePath, reader, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
}

func (s *Session) MakeDirectoryAll(ctx context.Context, dirPath string) (err error) {
	var share *smb2.Share
	var name string
	if share, name, err = s.mount(ctx, dirPath); err != nil {
		return
	}
	if name == "" {
		return
	}
	return mapError(share.MkdirAll(sharePath(name), defaultDirPerm))
}

func (s *Session) DeleteFile(ctx context.Context, filePath string) (err error) {
	var share *smb2.Share
	var name string
	if share, name, err = s.mount(ctx, filePath); err != nil {
		return
	}
	return mapError(share.Remove(sharePath(name)))
}

func (s *Session) write(ctx context.Context, filePath string, reader io.Reader, flag int) (err error) {
	var share *smb2.Share
	var name string
	if share, name, err = s.mount(ctx, filePath); err != nil {
		return
	}
	var file *smb2.File
	if file, err = share.OpenFile(sharePath(name), flag, defaultFilePerm); err != nil {
		err = mapError(err)
		return
	}
	if flag&os.O_APPEND != 0 {
		if _, err = file.Seek(0, io.SeekEnd); err != nil {
			_ = file.Close()
			return
		}
	}
	if _, err = io.Copy(file, reader); err != nil {
		_ = file.Close()
		return
	}
	return file.Close()
}

// mount returns the share named by the first segment of filePath, mounting
// it if needed, and the path of the file inside the share.
func (s *Session) mount(ctx context.Context, filePath string) (share *smb2.Share, name string, err error) {
	shareName, name := fileutils.SplitRoot(filePath)
	if shareName == "" {
		err = fmt.Errorf("%w: %q names no share", protoc.ErrInvalidEndpoint, filePath)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		err = protoc.ErrSessionClosed
		return
	}
	var ok bool
	if share, ok = s.shares[strings.ToLower(shareName)]; !ok {
		if share, err = s.session.Mount(shareName); err != nil {
			err = mapError(err)
			return
		}
		s.shares[strings.ToLower(shareName)] = share
	}
	share = share.WithContext(ctx)
	return
}

// SplitDomain returns the NTLM domain and user of credentials. Without
// explicit domain, "DOMAIN;user" and "DOMAIN\user" user names are split.
func SplitDomain(credentials protoc.Credentials) (domain, user string) {
	domain, user = credentials.Domain, credentials.Username
	if domain != "" {
		return
	}
	for _, sep := range []string{";", `\`} {
		if d, u, ok := strings.Cut(user, sep); ok {
			return d, u
		}
	}
	return
}

func sharePath(name string) string {
	return strings.ReplaceAll(name, "/", `\`)
}

func hasStatus(err error, codes ...uint32) bool {
	var respErr *smb2.ResponseError
	return errors.As(err, &respErr) && lo.Contains(codes, respErr.Code)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) ||
		hasStatus(err, statusObjectNameNotFound, statusObjectPathNotFound, statusBadNetworkName) {
		return fmt.Errorf("%w: %w", vfsfile.ErrFileNotExists, err)
	}
	return err
}

package ftp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/derektruong/fxvfs/internal/protocutils"
	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
	"github.com/jlaffaye/ftp"
)

const anonymousUser = "anonymous"

// Session is an FTP control connection, plain or secured with TLS
// (explicit or implicit).
type Session struct {
	logger logr.Logger

	mu      sync.Mutex
	conn    *ftp.ServerConn
	tracker protoc.ResponseTracker
}

var _ protoc.FileSession = (*Session)(nil)

func NewSession(logger logr.Logger) *Session {
	return &Session{logger: logger.WithName("ftp.session")}
}

// Open dials the endpoint, through its SOCKS5 proxy if any, and logs in.
// Without username the session logs in as anonymous.
func (s *Session) Open(ctx context.Context, endpoint protoc.Endpoint) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return
	}
	var conn *ftp.ServerConn
	if conn, err = ftp.Dial(endpoint.Address(), dialOptions(ctx, endpoint)...); err != nil {
		return
	}
	username, password := endpoint.Credentials.Username, endpoint.Credentials.Password
	if username == "" {
		username, password = anonymousUser, anonymousUser
	}
	if err = conn.Login(username, password); err != nil {
		_ = conn.Quit()
		if isLoginRefused(err) {
			err = fmt.Errorf("%w: %w", protoc.ErrAuthenticationFailed, err)
		}
		return
	}
	s.conn = conn
	s.logger.V(1).Info("opened ftp session", "endpoint", endpoint.String())
	return
}

func (s *Session) Close() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return
	}
	conn := s.conn
	s.conn = nil
	return errors.Join(s.tracker.Discard(), conn.Quit())
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// DrainPending reads the rest of the pending data connection and the
// transfer completion reply, the control connection accepts commands again
// afterwards.
func (s *Session) DrainPending() error {
	return s.tracker.Drain()
}

func (s *Session) Stat(ctx context.Context, filePath string) (info vfsfile.Info, err error) {
	var conn *ftp.ServerConn
	if conn, err = s.client(); err != nil {
		return
	}
	var size int64
	if size, err = conn.FileSize(filePath); err != nil {
		if !isFileUnavailable(err) {
			return
		}
		// SIZE is refused on directories
		if dirErr := conn.ChangeDir(filePath); dirErr != nil {
			err = fmt.Errorf("%w: %w", vfsfile.ErrFileNotExists, err)
			return
		}
		_ = conn.ChangeDir("/")
		info, err = vfsfile.NewInfo(filePath, 0, time.Time{}, true), nil
		return
	}
	var modTime time.Time
	if conn.IsGetTimeSupported() {
		// MDTM failures leave the modification time unknown
		modTime, _ = conn.GetTime(filePath)
	}
	info = vfsfile.NewInfo(filePath, size, modTime, false)
	return
}

func (s *Session) RetrieveFileFromOffset(
	ctx context.Context,
	filePath string,
	offset int64,
) (reader io.ReadCloser, err error) {
	var conn *ftp.ServerConn
	if conn, err = s.client(); err != nil {
		return
	}
	var resp *ftp.Response
	if resp, err = conn.RetrFrom(filePath, uint64(offset)); err != nil {
		err = mapError(err)
		return
	}
	reader = s.tracker.Track(resp)
	return
}

func (s *Session) CreateOrOverwriteFile(ctx context.Context, filePath string, reader io.Reader) (err error) {
	var conn *ftp.ServerConn
	if conn, err = s.client(); err != nil {
		return
	}
	return mapError(conn.Stor(filePath, reader))
}

func (s *Session) AppendToFile(ctx context.Context, filePath string, reader io.Reader) (err error) {
	var conn *ftp.ServerConn
	if conn, err = s.client(); err != nil {
		return
	}
	return mapError(conn.Append(filePath, reader))
}

// MakeDirectoryAll creates each missing segment of dirPath, segments the
// server refuses with 550 are considered existing.
func (s *Session) MakeDirectoryAll(ctx context.Context, dirPath string) (err error) {
	var conn *ftp.ServerConn
	if conn, err = s.client(); err != nil {
		return
	}
	current := "/"
	for _, segment := range strings.Split(strings.Trim(path.Clean(dirPath), "/"), "/") {
		if segment == "" {
			continue
		}
		current = path.Join(current, segment)
		if err = conn.MakeDir(current); err != nil && !isFileUnavailable(err) {
			return
		}
	}
	return nil
}

func (s *Session) DeleteFile(ctx context.Context, filePath string) (err error) {
	var conn *ftp.ServerConn
	if conn, err = s.client(); err != nil {
		return
	}
	return mapError(conn.Delete(filePath))
}

func (s *Session) client() (*ftp.ServerConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, protoc.ErrSessionClosed
	}
	return s.conn, nil
}

// dialOptions builds the dial options of endpoint. Connections, control and
// data, are dialed by protocutils.Dial so they all follow the proxy, which
// means TLS is applied here rather than by the library.
func dialOptions(ctx context.Context, endpoint protoc.Endpoint) (opts []ftp.DialOption) {
	timeout := endpoint.Settings.Timeout
	var tlsConfig *tls.Config
	if endpoint.Protocol.IsSecure() {
		tlsConfig = &tls.Config{
			ServerName:         endpoint.Host,
			InsecureSkipVerify: endpoint.Settings.InsecureSkipVerify,
			ClientSessionCache: tls.NewLRUClientSessionCache(0),
			MinVersion:         tls.VersionTLS12,
		}
	}
	var dialed bool
	dialFunc := func(network, addr string) (conn net.Conn, err error) {
		control := !dialed
		dialed = true
		if conn, err = protocutils.Dial(ctx, addr, endpoint.ProxyAddress(), timeout); err != nil {
			return
		}
		// the explicit control connection is upgraded by AUTH TLS
		if tlsConfig != nil && !(control && endpoint.Protocol == protoc.ProtocolFTPS) {
			conn = tls.Client(conn, tlsConfig)
		}
		return
	}
	opts = []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithDialFunc(dialFunc),
	}
	if endpoint.HasProxy() {
		// EPSV replies carry no host, data would be dialed to the proxy
		opts = append(opts, ftp.DialWithDisabledEPSV(true))
	}
	if timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(timeout), ftp.DialWithShutTimeout(timeout))
	}
	switch endpoint.Protocol {
	case protoc.ProtocolFTPS:
		opts = append(opts, ftp.DialWithExplicitTLS(tlsConfig))
	case protoc.ProtocolFTPSImplicit:
		opts = append(opts, ftp.DialWithTLS(tlsConfig))
	}
	return
}

// isLoginRefused reports whether the server answered the login with a
// refusal rather than the connection failing.
func isLoginRefused(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code == ftp.StatusNotLoggedIn ||
			protoErr.Code == ftp.StatusInvalidCredentials ||
			protoErr.Code == ftp.StatusLoginNeedAccount
	}
	var netErr net.Error
	return !errors.As(err, &netErr) && !errors.Is(err, io.EOF)
}

func isFileUnavailable(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable
}

func mapError(err error) error {
	if isFileUnavailable(err) {
		return fmt.Errorf("%w: %w", vfsfile.ErrFileNotExists, err)
	}
	return err
}

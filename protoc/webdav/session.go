package webdav

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"sync"

	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
	"github.com/studio-b12/gowebdav"
)

var defaultFilePerm = fs.FileMode(0664)
var defaultDirPerm = fs.FileMode(0755)

// Session is a WebDAV client with its own HTTP transport, so the keep-alive
// connections it holds belong to this session only.
type Session struct {
	logger logr.Logger

	mu        sync.Mutex
	client    *gowebdav.Client
	transport *http.Transport
	tracker   protoc.ResponseTracker
}

var _ protoc.FileSession = (*Session)(nil)

func NewSession(logger logr.Logger) *Session {
	return &Session{logger: logger.WithName("webdav.session")}
}

// Open checks the server root answers with the endpoint credentials.
func (s *Session) Open(ctx context.Context, endpoint protoc.Endpoint) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return
	}
	transport := newTransport(endpoint)
	client := gowebdav.NewClient(
		BaseURL(endpoint),
		endpoint.Credentials.Username,
		endpoint.Credentials.Password,
	)
	client.SetTransport(transport)
	if endpoint.Settings.Timeout > 0 {
		client.SetTimeout(endpoint.Settings.Timeout)
	}
	if err = client.Connect(); err != nil {
		transport.CloseIdleConnections()
		if gowebdav.IsErrCode(err, http.StatusUnauthorized) || gowebdav.IsErrCode(err, http.StatusForbidden) {
			err = fmt.Errorf("%w: %w", protoc.ErrAuthenticationFailed, err)
		}
		return
	}
	s.client, s.transport = client, transport
	s.logger.V(1).Info("opened webdav session", "endpoint", endpoint.String())
	return
}

func (s *Session) Close() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return
	}
	err = s.tracker.Discard()
	s.transport.CloseIdleConnections()
	s.client, s.transport = nil, nil
	return
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// DrainPending reads the rest of the pending response body so its
// keep-alive connection goes back to the transport.
func (s *Session) DrainPending() error {
	return s.tracker.Drain()
}

func (s *Session) Stat(ctx context.Context, filePath string) (info vfsfile.Info, err error) {
	var client *gowebdav.Client
	if client, err = s.webdav(); err != nil {
		return
	}
	var fileInfo fs.FileInfo
	if fileInfo, err = client.Stat(filePath); err != nil {
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
	var client *gowebdav.Client
	if client, err = s.webdav(); err != nil {
		return
	}
	var body io.ReadCloser
	if offset > 0 {
		body, err = client.ReadStreamRange(filePath, offset, 0)
	} else {
		body, err = client.ReadStream(filePath)
	}
	if err != nil {
		err = mapError(err)
		return
	}
	reader = s.tracker.Track(body)
	return
}

func (s *Session) CreateOrOverwriteFile(ctx context.Context, filePath string, reader io.Reader) (err error) {
	var client *gowebdav.Client
	if client, err = s.webdav(); err != nil {
		return
	}
	return mapError(client.WriteStream(filePath, reader, defaultFilePerm))
}

func (s *Session) AppendToFile(context.Context, string, io.Reader) error {
	return fmt.Errorf("%w: webdav resources cannot be appended to", protoc.ErrUnsupportedOperation)
}

func (s *Session) MakeDirectoryAll(ctx context.Context, dirPath string) (err error) {
	var client *gowebdav.Client
	if client, err = s.webdav(); err != nil {
		return
	}
	return mapError(client.MkdirAll(dirPath, defaultDirPerm))
}

func (s *Session) DeleteFile(ctx context.Context, filePath string) (err error) {
	var client *gowebdav.Client
	if client, err = s.webdav(); err != nil {
		return
	}
	if _, err = client.Stat(filePath); err != nil {
		return mapError(err)
	}
	return mapError(client.Remove(filePath))
}

func (s *Session) webdav() (*gowebdav.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, protoc.ErrSessionClosed
	}
	return s.client, nil
}

// BaseURL returns the HTTP root of endpoint.
func BaseURL(endpoint protoc.Endpoint) string {
	scheme := "http"
	if endpoint.Protocol.IsSecure() {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: endpoint.Address(), Path: "/"}).String()
}

func newTransport(endpoint protoc.Endpoint) (transport *http.Transport) {
	transport = http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: endpoint.Settings.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
	transport.Proxy = nil
	if endpoint.HasProxy() {
		transport.Proxy = http.ProxyURL(&url.URL{Scheme: "http", Host: endpoint.ProxyAddress()})
	}
	if endpoint.Settings.Timeout > 0 {
		transport.ResponseHeaderTimeout = endpoint.Settings.Timeout
		transport.TLSHandshakeTimeout = endpoint.Settings.Timeout
	}
	return
}

func mapError(err error) error {
	if gowebdav.IsErrNotFound(err) {
		return fmt.Errorf("%w: %w", vfsfile.ErrFileNotExists, err)
	}
	return err
}

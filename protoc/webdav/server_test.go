package webdav_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/net/webdav"
)

const (
	testUser     = "alice"
	testPassword = "s3cret"
)

// davServer is an in-memory WebDAV server behind basic authentication.
type davServer struct {
	*httptest.Server
	fs       webdav.FileSystem
	requests atomic.Int32
}

func newDAVServer() *davServer {
	GinkgoHelper()
	s := &davServer{fs: webdav.NewMemFS()}
	handler := &webdav.Handler{
		FileSystem: s.fs,
		LockSystem: webdav.NewMemLS(),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		user, password, ok := r.BasicAuth()
		if !ok || user != testUser || password != testPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="test"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	}))
	DeferCleanup(s.Close)
	return s
}

func (s *davServer) Host() string {
	host, _, _ := net.SplitHostPort(s.Listener.Addr().String())
	return host
}

func (s *davServer) Port() int {
	_, port, _ := net.SplitHostPort(s.Listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

func (s *davServer) Put(name string, data []byte) {
	GinkgoHelper()
	f, err := s.fs.OpenFile(context.Background(), name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	Expect(err).ToNot(HaveOccurred())
	_, err = f.Write(data)
	Expect(err).ToNot(HaveOccurred())
	Expect(f.Close()).To(Succeed())
}

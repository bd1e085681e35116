package webdav_test

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/derektruong/fxvfs/protoc/webdav"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Session", func() {
	var (
		server   *davServer
		session  *webdav.Session
		endpoint protoc.Endpoint
	)

	BeforeEach(func() {
		server = newDAVServer()
		session = webdav.NewSession(GinkgoLogr)
		endpoint = protoc.Endpoint{
			Protocol:    protoc.ProtocolWebDAV,
			Host:        server.Host(),
			Port:        server.Port(),
			Credentials: protoc.Credentials{Username: testUser, Password: testPassword},
			Settings:    protoc.Settings{Timeout: 5 * time.Second},
		}
		DeferCleanup(session.Close)
	})

	It("should build the base URL", func() {
		Expect(webdav.BaseURL(endpoint)).To(Equal(server.URL + "/"))
		endpoint.Protocol, endpoint.Port = protoc.ProtocolWebDAVS, 0
		Expect(webdav.BaseURL(endpoint)).To(Equal("https://127.0.0.1:443/"))
	})

	It("should report refused credentials", func(ctx context.Context) {
		endpoint.Credentials.Password = "wrong"
		Expect(session.Open(ctx, endpoint)).To(MatchError(protoc.ErrAuthenticationFailed))
		Expect(session.IsOpen()).To(BeFalse())
	}, NodeTimeout(10*time.Second))

	When("open", func() {
		BeforeEach(func(ctx context.Context) {
			Expect(session.Open(ctx, endpoint)).To(Succeed())
			Expect(session.IsOpen()).To(BeTrue())
		}, NodeTimeout(10*time.Second))

		It("should write, stat, read from offset and delete a resource", func(ctx context.Context) {
			Expect(session.MakeDirectoryAll(ctx, "/in/daily")).To(Succeed())
			Expect(session.CreateOrOverwriteFile(ctx, "/in/daily/a.txt", strings.NewReader("hello world"))).To(Succeed())

			info, err := session.Stat(ctx, "/in/daily/a.txt")
			Expect(err).ToNot(HaveOccurred())
			Expect(info.Size).To(Equal(int64(11)))
			Expect(info.IsDir).To(BeFalse())

			reader, err := session.RetrieveFileFromOffset(ctx, "/in/daily/a.txt", 6)
			Expect(err).ToNot(HaveOccurred())
			Expect(io.ReadAll(reader)).To(Equal([]byte("world")))
			Expect(reader.Close()).To(Succeed())

			dir, err := session.Stat(ctx, "/in/daily")
			Expect(err).ToNot(HaveOccurred())
			Expect(dir.IsDir).To(BeTrue())

			Expect(session.DeleteFile(ctx, "/in/daily/a.txt")).To(Succeed())
			_, err = session.Stat(ctx, "/in/daily/a.txt")
			Expect(err).To(MatchError(vfsfile.ErrFileNotExists))
		}, NodeTimeout(10*time.Second))

		It("should drain an unread response body", func(ctx context.Context) {
			server.Put("/big.bin", bytes.Repeat([]byte("x"), 256*1024))
			reader, err := session.RetrieveFileFromOffset(ctx, "/big.bin", 0)
			Expect(err).ToNot(HaveOccurred())

			Expect(session.DrainPending()).To(Succeed())
			_, err = reader.Read(make([]byte, 1))
			Expect(err).To(MatchError(protoc.ErrResponseDrained))

			_, err = session.Stat(ctx, "/big.bin")
			Expect(err).ToNot(HaveOccurred())
		}, NodeTimeout(10*time.Second))

		It("should map missing resources", func(ctx context.Context) {
			_, err := session.RetrieveFileFromOffset(ctx, "/missing.txt", 0)
			Expect(err).To(MatchError(vfsfile.ErrFileNotExists))
			Expect(session.DeleteFile(ctx, "/missing.txt")).To(MatchError(vfsfile.ErrFileNotExists))
		}, NodeTimeout(10*time.Second))

		It("should not append", func(ctx context.Context) {
			err := session.AppendToFile(ctx, "/a.txt", strings.NewReader("x"))
			Expect(err).To(MatchError(protoc.ErrUnsupportedOperation))
		}, NodeTimeout(10*time.Second))

		It("should refuse operations once closed", func(ctx context.Context) {
			Expect(session.Close()).To(Succeed())
			_, err := session.Stat(ctx, "/")
			Expect(err).To(MatchError(protoc.ErrSessionClosed))
		}, NodeTimeout(10*time.Second))
	})
})

var _ = Describe("Provider", func() {
	It("should resolve webdav URIs", func(ctx context.Context) {
		provider := webdav.NewProvider(GinkgoLogr)
		Expect(provider.Capabilities()).ToNot(ContainElement(protoc.CapabilityAppendContent))

		u, err := url.Parse("davs://dav.example.com/remote.php/files/a.txt")
		Expect(err).ToNot(HaveOccurred())
		loc, err := provider.Resolve(ctx, u, protoc.Options{ProxyHost: "proxy", ProxyPort: 3128})
		Expect(err).ToNot(HaveOccurred())
		Expect(loc.Endpoint.Protocol).To(Equal(protoc.ProtocolWebDAVS))
		Expect(loc.Endpoint.ProxyAddress()).To(Equal("proxy:3128"))
		Expect(loc.Path).To(Equal("/remote.php/files/a.txt"))
	}, NodeTimeout(10*time.Second))
})

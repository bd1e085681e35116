package fxvfs_test

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/derektruong/fxvfs"
	"github.com/derektruong/fxvfs/connmgr"
	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/derektruong/fxvfs/protoc/local"
	mock_protoc "github.com/derektruong/fxvfs/protoc/mock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("File", func() {
	var (
		registry *fxvfs.Registry
		dir      string
		execCtx  context.Context
	)

	resolve := func(name string) *fxvfs.File {
		GinkgoHelper()
		f, err := registry.ResolveFile(context.Background(), fileURI(dir, name), fxvfs.Options{})
		Expect(err).ToNot(HaveOccurred())
		return f
	}

	BeforeEach(func() {
		var err error
		registry, err = fxvfs.NewDefaultRegistry(GinkgoLogr)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(registry.Close, context.Background())
		dir = GinkgoT().TempDir()
		execCtx = connmgr.NewContext(context.Background())
	})

	It("should require an execution context", func(ctx context.Context) {
		_, err := resolve("missing.txt").Stat(ctx)
		Expect(err).To(MatchError(connmgr.ErrNoExecutionContext))
	}, NodeTimeout(5*time.Second))

	It("should stat an existing file", func() {
		writeFile(dir, "docs/guide.md", []byte("# guide"))
		info, err := resolve("docs/guide.md").Stat(execCtx)
		Expect(err).ToNot(HaveOccurred())
		Expect(info.Size).To(BeEquivalentTo(7))
		Expect(info.Name).To(Equal("guide"))
		Expect(info.Extension).To(Equal("md"))
		Expect(info.IsDir).To(BeFalse())
	})

	It("should report a missing file", func() {
		f := resolve("missing.txt")
		_, err := f.Stat(execCtx)
		Expect(err).To(MatchError(vfsfile.ErrFileNotExists))

		exists, err := f.Exists(execCtx)
		Expect(err).ToNot(HaveOccurred())
		Expect(exists).To(BeFalse())
	})

	It("should create a file along with its parent directories", func() {
		content := gofakeit.SentenceSimple()
		f := resolve("a/b/c/notes.txt")
		Expect(f.Create(execCtx, strings.NewReader(content))).To(Succeed())
		Expect(string(readFile(dir, "a/b/c/notes.txt"))).To(Equal(content))

		exists, err := f.Exists(execCtx)
		Expect(err).ToNot(HaveOccurred())
		Expect(exists).To(BeTrue())
	})

	It("should append to a file", func() {
		writeFile(dir, "log.txt", []byte("first\n"))
		Expect(resolve("log.txt").Append(execCtx, strings.NewReader("second\n"))).To(Succeed())
		Expect(string(readFile(dir, "log.txt"))).To(Equal("first\nsecond\n"))
	})

	It("should read a file from an offset", func() {
		writeFile(dir, "digits.txt", []byte("0123456789"))
		rc, err := resolve("digits.txt").Open(execCtx, 4)
		Expect(err).ToNot(HaveOccurred())
		data, err := io.ReadAll(rc)
		Expect(err).ToNot(HaveOccurred())
		Expect(rc.Close()).To(Succeed())
		Expect(string(data)).To(Equal("456789"))
	})

	It("should keep the connection until the reader is closed", func() {
		writeFile(dir, "digits.txt", []byte("0123456789"))
		rc, err := resolve("digits.txt").Open(execCtx, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(registry.Manager().Stats()).To(Equal(connmgr.Stats{Slots: 1, Open: 1}))

		Expect(rc.Close()).To(Succeed())
		Expect(rc.Close()).To(Succeed())
		Expect(registry.Manager().Stats()).To(Equal(connmgr.Stats{Slots: 1, Open: 1, Idle: 1}))
	})

	It("should drain a reader left open by the next operation", func() {
		writeFile(dir, "digits.txt", []byte("0123456789"))
		rc, err := resolve("digits.txt").Open(execCtx, 0)
		Expect(err).ToNot(HaveOccurred())

		_, err = resolve("digits.txt").Stat(execCtx)
		Expect(err).ToNot(HaveOccurred())

		_, err = rc.Read(make([]byte, 1))
		Expect(err).To(MatchError(protoc.ErrResponseDrained))
		Expect(rc.Close()).To(Succeed())
	})

	It("should release the connection when opening fails", func() {
		_, err := resolve("missing.txt").Open(execCtx, 0)
		Expect(err).To(MatchError(vfsfile.ErrFileNotExists))
		Expect(registry.Manager().Stats()).To(Equal(connmgr.Stats{Slots: 1, Open: 1, Idle: 1}))
	})

	It("should create directories", func() {
		Expect(resolve("x/y/z").MkdirAll(execCtx)).To(Succeed())
		info, err := os.Stat(filepath.Join(dir, "x", "y", "z"))
		Expect(err).ToNot(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("should delete a file", func() {
		writeFile(dir, "old.txt", []byte("old"))
		f := resolve("old.txt")
		Expect(f.Delete(execCtx)).To(Succeed())
		Expect(filepath.Join(dir, "old.txt")).ToNot(BeAnExistingFile())
		Expect(f.Delete(execCtx)).To(MatchError(vfsfile.ErrFileNotExists))
	})

	It("should reuse one connection per execution context", func() {
		writeFile(dir, "a.txt", []byte("a"))
		f := resolve("a.txt")
		for range 3 {
			_, err := f.Stat(execCtx)
			Expect(err).ToNot(HaveOccurred())
		}
		_, err := f.Stat(connmgr.NewContext(context.Background()))
		Expect(err).ToNot(HaveOccurred())
		Expect(registry.Manager().Stats()).To(Equal(connmgr.Stats{Slots: 2, Open: 2, Idle: 2}))

		Expect(registry.Manager().CloseContext(execCtx)).To(Succeed())
		Expect(registry.Manager().Stats()).To(Equal(connmgr.Stats{Slots: 1, Open: 1, Idle: 1}))
	})

	Context("with a read-only provider", func() {
		BeforeEach(func() {
			ctrl := gomock.NewController(GinkgoT())
			delegate := local.NewProvider(GinkgoLogr)
			provider := mock_protoc.NewMockProvider(ctrl)
			provider.EXPECT().Protocols().Return([]protoc.Protocol{protoc.ProtocolLocal}).AnyTimes()
			provider.EXPECT().Capabilities().Return([]protoc.Capability{
				protoc.CapabilityReadContent, protoc.CapabilityURI,
			}).AnyTimes()
			provider.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, u *url.URL, opts protoc.Options) (protoc.Location, error) {
					return delegate.Resolve(ctx, u, opts)
				},
			).AnyTimes()
			provider.EXPECT().NewSession(gomock.Any()).DoAndReturn(delegate.NewSession).AnyTimes()

			var err error
			registry, err = fxvfs.NewRegistry(GinkgoLogr, fxvfs.WithProvider(provider))
			Expect(err).ToNot(HaveOccurred())
			DeferCleanup(registry.Close, context.Background())
		})

		It("should refuse operations the file system cannot do", func() {
			writeFile(dir, "ro.txt", []byte("read only"))
			f := resolve("ro.txt")

			Expect(f.Create(execCtx, strings.NewReader("x"))).To(MatchError(fxvfs.ErrCapabilityNotSupported))
			Expect(f.Append(execCtx, strings.NewReader("x"))).To(MatchError(protoc.ErrUnsupportedOperation))
			Expect(f.Delete(execCtx)).To(MatchError(fxvfs.ErrCapabilityNotSupported))
			_, err := f.Open(execCtx, 3)
			Expect(err).To(MatchError(fxvfs.ErrCapabilityNotSupported))
			Expect(registry.Manager().Stats().Slots).To(BeZero())

			rc, err := f.Open(execCtx, 0)
			Expect(err).ToNot(HaveOccurred())
			data, err := io.ReadAll(rc)
			Expect(err).ToNot(HaveOccurred())
			Expect(rc.Close()).To(Succeed())
			Expect(string(data)).To(Equal("read only"))
		})
	})
})

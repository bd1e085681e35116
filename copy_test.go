package fxvfs_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/derektruong/fxvfs"
	"github.com/derektruong/fxvfs/connmgr"
	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc/local"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// progressRecorder collects the progress updates of a copy.
type progressRecorder struct {
	mu      sync.Mutex
	updates []fxvfs.Progress
}

func (r *progressRecorder) callback(p fxvfs.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, p)
}

func (r *progressRecorder) last() fxvfs.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	Expect(r.updates).ToNot(BeEmpty())
	return r.updates[len(r.updates)-1]
}

func (r *progressRecorder) statuses() (statuses []fxvfs.ProgressStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.updates {
		statuses = append(statuses, p.Status)
	}
	return
}

var _ = Describe("Copy", func() {
	var (
		registry *fxvfs.Registry
		srcDir   string
		dstDir   string
		content  []byte
		jobCtx   context.Context
		progress *progressRecorder
	)

	resolve := func(uri string) *fxvfs.File {
		GinkgoHelper()
		f, err := registry.ResolveFile(context.Background(), uri, fxvfs.Options{})
		Expect(err).ToNot(HaveOccurred())
		return f
	}

	BeforeEach(func() {
		var err error
		registry, err = fxvfs.NewDefaultRegistry(GinkgoLogr)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(registry.Close, context.Background())

		srcDir, dstDir = GinkgoT().TempDir(), GinkgoT().TempDir()
		content = []byte(gofakeit.Sentence(200))
		srcPath := writeFile(srcDir, "in/report.txt", content)
		past := time.Now().Add(-time.Hour)
		Expect(os.Chtimes(srcPath, past, past)).To(Succeed())

		jobCtx = connmgr.NewContext(context.Background())
		progress = new(progressRecorder)
	})

	It("should copy a file", func() {
		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "out/report.txt"))

		Expect(registry.Copy(jobCtx, src, dst, fxvfs.WithProgress(progress.callback))).To(Succeed())
		Expect(readFile(dstDir, "out/report.txt")).To(Equal(content))

		last := progress.last()
		Expect(last.Status).To(Equal(fxvfs.ProgressStatusFinished))
		Expect(last.Percentage).To(Equal(100))
		Expect(last.TransferredSize).To(BeEquivalentTo(len(content)))
	})

	It("should run source and destination on derived execution contexts", func() {
		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "report.txt"))

		Expect(registry.Copy(jobCtx, src, dst)).To(Succeed())
		Expect(registry.Manager().Stats()).To(Equal(connmgr.Stats{Slots: 2, Open: 2, Idle: 2}))

		Expect(registry.Copy(jobCtx, src, resolve(fileURI(dstDir, "again.txt")))).To(Succeed())
		Expect(registry.Manager().Stats().Slots).To(Equal(2))

		Expect(registry.Manager().CloseContext(jobCtx)).To(Succeed())
		Expect(registry.Manager().Stats()).To(Equal(connmgr.Stats{}))
	})

	It("should resume a partial destination file", func() {
		writeFile(dstDir, "report.txt", content[:100])
		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "report.txt"))

		Expect(registry.Copy(jobCtx, src, dst, fxvfs.WithProgress(progress.callback))).To(Succeed())
		Expect(readFile(dstDir, "report.txt")).To(Equal(content))
	})

	It("should restart when asked to overwrite", func() {
		writeFile(dstDir, "report.txt", []byte("stale content of another file"))
		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "report.txt"))

		Expect(registry.Copy(jobCtx, src, dst, fxvfs.WithOverwrite())).To(Succeed())
		Expect(readFile(dstDir, "report.txt")).To(Equal(content))
	})

	It("should restart when the source was modified after the partial copy", func() {
		dstPath := writeFile(dstDir, "report.txt", bytes.Repeat([]byte("x"), 100))
		older := time.Now().Add(-2 * time.Hour)
		Expect(os.Chtimes(dstPath, older, older)).To(Succeed())

		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "report.txt"))
		Expect(registry.Copy(jobCtx, src, dst)).To(Succeed())
		Expect(readFile(dstDir, "report.txt")).To(Equal(content))
	})

	It("should skip a destination already complete", func() {
		dstPath := writeFile(dstDir, "report.txt", content)
		before, err := os.Stat(dstPath)
		Expect(err).ToNot(HaveOccurred())

		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "report.txt"))
		Expect(registry.Copy(jobCtx, src, dst, fxvfs.WithProgress(progress.callback))).To(Succeed())

		after, err := os.Stat(dstPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(after.ModTime()).To(Equal(before.ModTime()))
		Expect(progress.statuses()).To(Equal([]fxvfs.ProgressStatus{fxvfs.ProgressStatusFinished}))
	})

	It("should restart when the destination is larger than the source", func() {
		writeFile(dstDir, "report.txt", append(bytes.Clone(content), "trailing"...))
		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "report.txt"))

		Expect(registry.Copy(jobCtx, src, dst)).To(Succeed())
		Expect(readFile(dstDir, "report.txt")).To(Equal(content))
	})

	It("should copy under a rate limit", func() {
		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "report.txt"))

		Expect(registry.Copy(jobCtx, src, dst, fxvfs.WithRateLimit(1<<20))).To(Succeed())
		Expect(readFile(dstDir, "report.txt")).To(Equal(content))
	})

	DescribeTable("should refuse",
		func(srcName, dstName string, options []fxvfs.CopyOption, expected error) {
			src := resolve(fileURI(srcDir, srcName))
			dst := resolve(fileURI(dstDir, dstName))
			if srcName == dstName {
				dst = resolve(fileURI(srcDir, dstName))
			}
			Expect(registry.Copy(jobCtx, src, dst, options...)).To(MatchError(expected))
			Expect(filepath.Join(dstDir, dstName)).ToNot(BeAnExistingFile())
		},
		Entry("a missing source", "in/missing.txt", "out.txt", nil, vfsfile.ErrFileNotExists),
		Entry("a directory", "in", "out.txt", nil, fxvfs.ErrIsDirectory),
		Entry("the same file", "in/report.txt", "in/report.txt", nil, fxvfs.ErrSameFile),
		Entry("an invalid retry config", "in/report.txt", "out.txt",
			[]fxvfs.CopyOption{fxvfs.WithRetryConfig(fxvfs.RetryConfig{
				InitialDelay: time.Minute, MaxDelay: time.Second,
			})}, fxvfs.ErrInvalidOptions),
	)

	It("should refuse a blocked extension", func() {
		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "out.txt"))
		err := registry.Copy(jobCtx, src, dst, fxvfs.WithExtensionBlacklist("txt"))
		Expect(err).To(MatchError(fxvfs.ErrExtensionBlocked("txt").Error()))
	})

	It("should require an execution context", func() {
		src := resolve(fileURI(srcDir, "in/report.txt"))
		dst := resolve(fileURI(dstDir, "out.txt"))
		Expect(registry.Copy(context.Background(), src, dst)).To(MatchError(connmgr.ErrNoExecutionContext))
	})

	Context("with a destination breaking connections", func() {
		var flaky *flakyProvider

		BeforeEach(func() {
			flaky = &flakyProvider{Provider: local.NewProvider(GinkgoLogr), failAfter: 64}
			flaky.failures.Store(2)
			var err error
			registry, err = fxvfs.NewRegistry(GinkgoLogr, fxvfs.WithProvider(flaky))
			Expect(err).ToNot(HaveOccurred())
			DeferCleanup(registry.Close, context.Background())
		})

		It("should resume after each failure until the copy succeeds", func() {
			src := resolve(fileURI(srcDir, "in/report.txt"))
			dst := resolve(fileURI(dstDir, "report.txt"))

			Expect(registry.Copy(jobCtx, src, dst,
				fxvfs.WithProgress(progress.callback),
				fxvfs.WithRetryConfig(fxvfs.RetryConfig{
					InitialDelay: time.Millisecond,
					MaxDelay:     time.Millisecond,
				}),
			)).To(Succeed())
			Expect(readFile(dstDir, "report.txt")).To(Equal(content))
			Expect(flaky.writes.Load()).To(BeEquivalentTo(3))
			Expect(progress.statuses()).To(ContainElement(fxvfs.ProgressStatusInError))
			Expect(progress.last().Status).To(Equal(fxvfs.ProgressStatusFinished))
		})

		It("should give up without retry", func() {
			src := resolve(fileURI(srcDir, "in/report.txt"))
			dst := resolve(fileURI(dstDir, "report.txt"))

			err := registry.Copy(jobCtx, src, dst, fxvfs.WithDisabledRetry())
			Expect(err).To(MatchError(errConnectionReset))
			var protoErr *connmgr.ProtocolError
			Expect(errors.As(err, &protoErr)).To(BeTrue())
			Expect(protoErr.Op).To(Equal("create"))
			Expect(readFile(dstDir, "report.txt")).To(HaveLen(64))
			Expect(flaky.writes.Load()).To(BeEquivalentTo(1))
		})
	})

	Context("to a WebDAV server", func() {
		var server *davServer

		BeforeEach(func() {
			server = newDAVServer()
		})

		It("should upload the file", func() {
			src := resolve(fileURI(srcDir, "in/report.txt"))
			dst := resolve(server.URI("/backup/2025/report.txt"))

			Expect(registry.Copy(jobCtx, src, dst)).To(Succeed())
			Expect(server.Content("/backup/2025/report.txt")).To(Equal(content))
		})

		It("should restart a partial upload since WebDAV cannot append", func() {
			server.Put("/report.txt", content[:50])
			src := resolve(fileURI(srcDir, "in/report.txt"))
			dst := resolve(server.URI("/report.txt"))

			Expect(registry.Copy(jobCtx, src, dst)).To(Succeed())
			Expect(server.Content("/report.txt")).To(Equal(content))
		})

		It("should download the file back", func() {
			server.Put("/shared.txt", content)
			src := resolve(server.URI("/shared.txt"))
			dst := resolve(fileURI(dstDir, "shared.txt"))

			Expect(registry.Copy(jobCtx, src, dst)).To(Succeed())
			Expect(readFile(dstDir, "shared.txt")).To(Equal(content))
		})
	})
})

package fxvfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/derektruong/fxvfs/connmgr"
	"github.com/derektruong/fxvfs/internal/vfsfile"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
)

// copier copies one file to another, resuming partial copies
type copier struct {
	logger logr.Logger

	// options
	fileRule                *fileRule
	progressCallback        ProgressUpdatedCallback
	refreshProgressInterval time.Duration
	rateLimit               float64
	overwrite               bool
	disabledRetry           bool
	retryConfig             RetryConfig
}

func newCopier(logger logr.Logger, options ...CopyOption) (c *copier) {
	c = &copier{
		logger:                  logger.WithName("copy"),
		fileRule:                new(fileRule),
		refreshProgressInterval: defaultRefreshInterval,
		retryConfig: RetryConfig{
			MaxRetryAttempts: defaultMaxRetryAttempts,
			InitialDelay:     defaultInitialDelay,
			MaxDelay:         defaultMaxDelay,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return
}

// Copy copies the content of src to dst within the execution context
// carried by ctx. The source and the destination run on two contexts
// derived from it, so that both connections stay open across copies.
//
// A partial destination file left by a failed attempt is resumed by
// appending to it when both file systems allow it, unless the source was
// modified since. Failed attempts are retried, see WithRetryConfig.
func (r *Registry) Copy(ctx context.Context, src, dst *File, options ...CopyOption) (err error) {
	return newCopier(r.logger, options...).copy(ctx, src, dst)
}

func (c *copier) copy(ctx context.Context, src, dst *File) (err error) {
	if src == nil || dst == nil {
		return fmt.Errorf("%w: source and destination are required", ErrInvalidOptions)
	}
	if src.URI() == dst.URI() {
		return fmt.Errorf("%w: %s", ErrSameFile, src.URI())
	}
	if err = c.retryConfig.Validate(ctx); err != nil {
		return
	}
	var srcCtx, dstCtx context.Context
	if srcCtx, err = connmgr.DeriveContext(ctx, "src"); err != nil {
		return
	}
	if dstCtx, err = connmgr.DeriveContext(ctx, "dst"); err != nil {
		return
	}

	var srcInfo vfsfile.Info
	if srcInfo, err = src.Stat(srcCtx); err != nil {
		return
	}
	if srcInfo.IsDir {
		return fmt.Errorf("%w: %s", ErrIsDirectory, src.URI())
	}
	if err = c.fileRule.Check(srcInfo); err != nil {
		return
	}

	attempt := func() error {
		return c.processResumableCopy(ctx, srcCtx, dstCtx, srcInfo, src, dst)
	}
	if c.disabledRetry {
		return attempt()
	}
	if err = retry.Do(
		attempt,
		retry.Context(ctx),
		retry.Delay(c.retryConfig.InitialDelay),
		retry.MaxDelay(c.retryConfig.MaxDelay),
		retry.Attempts(c.retryConfig.MaxRetryAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("retrying file copy",
				"src", src.URI(), "dst", dst.URI(),
				"errorMessage", err.Error(),
				"retryAttempts", n+1)
		}),
	); err != nil {
		c.logger.Info("failed to copy file",
			"src", src.URI(), "dst", dst.URI(), "errorMessage", err.Error())
	}
	return
}

// isRetryable reports whether another attempt may succeed.
func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, protoc.ErrAuthenticationFailed) &&
		!errors.Is(err, protoc.ErrInvalidEndpoint) &&
		!errors.Is(err, protoc.ErrUnsupportedOperation) &&
		!errors.Is(err, vfsfile.ErrFileNotExists) &&
		!errors.Is(err, ErrIsDirectory) &&
		!connmgr.IsMisuse(err)
}

func (c *copier) processResumableCopy(
	ctx, srcCtx, dstCtx context.Context,
	srcInfo vfsfile.Info,
	src, dst *File,
) (err error) {
	startTime := time.Now()
	var offset int64
	var complete bool
	if offset, complete, err = c.resumeOffset(dstCtx, srcInfo, src, dst); err != nil {
		return
	}
	if complete {
		c.logger.Info("destination file is already complete",
			"src", src.URI(), "dst", dst.URI(), "totalSize", srcInfo.Size)
		c.notify(Progress{
			Status:          ProgressStatusFinished,
			TotalSize:       srcInfo.Size,
			TransferredSize: srcInfo.Size,
			Percentage:      finishedProgress,
			StartAt:         startTime,
			FinishAt:        time.Now(),
		})
		return
	}

	var reader io.ReadCloser
	if reader, err = src.Open(srcCtx, offset); err != nil {
		return
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	proxy := newProgressReader(ctx, reader, offset, c.rateLimit)
	defer proxy.stop()
	stopTracking := c.startTracking(proxy, startTime, srcInfo.Size)
	defer stopTracking()

	if offset == 0 {
		c.logger.Info("starting file copy",
			"src", src.URI(), "dst", dst.URI(), "totalSize", srcInfo.Size)
		err = dst.Create(dstCtx, proxy)
	} else {
		c.logger.Info("resuming file copy",
			"src", src.URI(), "dst", dst.URI(),
			"fromOffset", offset, "toOffset", srcInfo.Size)
		err = dst.Append(dstCtx, proxy)
	}
	if err == nil && proxy.TransferredSize() < srcInfo.Size {
		err = fmt.Errorf("source ended at %d of %d bytes: %w",
			proxy.TransferredSize(), srcInfo.Size, io.ErrUnexpectedEOF)
	}
	if err != nil {
		proxy.stop()
		stopTracking()
		if ctx.Err() != nil {
			c.logger.Info("file copy is canceled in the middle",
				"src", src.URI(), "dst", dst.URI())
			return
		}
		c.notify(Progress{
			Status:          ProgressStatusInError,
			Error:           err,
			TotalSize:       srcInfo.Size,
			TransferredSize: proxy.TransferredSize(),
			Duration:        time.Since(startTime),
			StartAt:         startTime,
		})
		return
	}

	stopTracking()
	finishTime := time.Now()
	c.notify(Progress{
		Status:          ProgressStatusFinished,
		TotalSize:       srcInfo.Size,
		TransferredSize: srcInfo.Size,
		Percentage:      finishedProgress,
		Duration:        finishTime.Sub(startTime),
		StartAt:         startTime,
		FinishAt:        finishTime,
	})
	c.logger.Info("file copy is finished",
		"src", src.URI(), "dst", dst.URI(), "totalSize", srcInfo.Size)
	return
}

// resumeOffset returns where the copy of the source starts in the
// destination, complete is set when the destination already holds it all.
func (c *copier) resumeOffset(
	dstCtx context.Context,
	srcInfo vfsfile.Info,
	src, dst *File,
) (offset int64, complete bool, err error) {
	if c.overwrite {
		return
	}
	var dstInfo vfsfile.Info
	if dstInfo, err = dst.Stat(dstCtx); err != nil {
		if errors.Is(err, vfsfile.ErrFileNotExists) {
			err = nil
		}
		return
	}
	if dstInfo.IsDir {
		err = fmt.Errorf("%w: %s", ErrIsDirectory, dst.URI())
		return
	}

	switch {
	case !srcInfo.ModTime.IsZero() && !dstInfo.ModTime.IsZero() &&
		dstInfo.ModTime.Before(srcInfo.ModTime):
		c.logger.Info("source file has been modified, restarting file copy",
			"srcModTime", srcInfo.ModTime, "dstModTime", dstInfo.ModTime)
	case dstInfo.Size == srcInfo.Size:
		complete = true
	case dstInfo.Size > srcInfo.Size:
		c.logger.Info("destination file is larger than the source, restarting file copy",
			"srcSize", srcInfo.Size, "dstSize", dstInfo.Size)
	case !dst.fs.HasCapability(protoc.CapabilityAppendContent) ||
		!src.fs.HasCapability(protoc.CapabilityRandomAccessRead):
		c.logger.V(1).Info("file systems cannot resume, restarting file copy",
			"src", src.URI(), "dst", dst.URI())
	default:
		offset = dstInfo.Size
	}
	return
}

// startTracking reports progress until the returned function is called.
func (c *copier) startTracking(proxy *progressReader, startTime time.Time, totalSize int64) (stop func()) {
	if c.progressCallback == nil {
		return func() {}
	}
	completed := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		proxy.trackProgress(startTime, totalSize, c.refreshProgressInterval, completed, c.progressCallback)
	}()
	return sync.OnceFunc(func() {
		close(completed)
		wg.Wait()
	})
}

func (c *copier) notify(progress Progress) {
	if c.progressCallback != nil {
		c.progressCallback(progress)
	}
}

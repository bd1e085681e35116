package iometer

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const burstLimit = 1024 * 1024 * 1024 // 1GB

// TransferReader wraps an io.Reader, counts the number of bytes read
// from it and optionally throttles the reads.
type TransferReader struct {
	reader  io.Reader
	limiter *rate.Limiter

	// transferredSize is a pointer to an int64 that stores the number of
	// bytes transferred, shared with whoever reports progress
	transferredSize *int64

	// ctx bounds the time spent waiting on the limiter
	ctx context.Context

	// closed is a flag that indicates if the reader is closed
	closed bool
}

// NewTransferReader constructs a new TransferReader.
func NewTransferReader(ctx context.Context, reader io.Reader, transferredSize *int64) (tr *TransferReader) {
	if transferredSize == nil {
		transferredSize = new(int64)
	}
	tr = &TransferReader{
		reader:          reader,
		transferredSize: transferredSize,
		ctx:             ctx,
	}
	return
}

// Read reads from the underlying reader and increments the counter.
func (tr *TransferReader) Read(p []byte) (n int, err error) {
	n, err = tr.reader.Read(p)
	if n > 0 {
		atomic.AddInt64(tr.transferredSize, int64(n))
		if tr.limiter != nil {
			if waitErr := tr.limiter.WaitN(tr.ctx, n); waitErr != nil {
				err = waitErr
			}
		}
	}
	return
}

// Close closes the underlying io.Reader if it implements the
// io.Closer interface.
func (tr *TransferReader) Close() (err error) {
	if tr.closed {
		return
	}
	if closer, ok := tr.reader.(io.Closer); ok {
		err = closer.Close()
	}
	tr.closed = true
	return
}

// TransferredSize returns the number of bytes transferred.
func (tr *TransferReader) TransferredSize() int64 {
	return atomic.LoadInt64(tr.transferredSize)
}

// SetRateLimit sets rate limit (bytes/sec) to the reader.
func (tr *TransferReader) SetRateLimit(bytesPerSec float64) {
	tr.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), burstLimit)
	tr.limiter.AllowN(time.Now(), burstLimit) // spend initial burst
}

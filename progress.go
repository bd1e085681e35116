package fxvfs

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/derektruong/fxvfs/internal/iometer"
)

// ProgressUpdatedCallback is called each time the progress of a copy is
// updated.
type ProgressUpdatedCallback func(progress Progress)

// ProgressStatus is the state of a copy.
type ProgressStatus int

const (
	// ProgressStatusInProgress is reported while bytes are flowing
	ProgressStatusInProgress ProgressStatus = iota
	// ProgressStatusFinalizing is reported once every byte was read, while
	// the destination completes the write
	ProgressStatusFinalizing
	// ProgressStatusFinished is reported once the copy is complete
	ProgressStatusFinished
	// ProgressStatusInError is reported when an attempt fails
	ProgressStatusInError
)

// Progress describes how far a copy went.
type Progress struct {
	Status ProgressStatus

	// TotalSize is the size of the source file in bytes
	TotalSize int64

	// TransferredSize counts the bytes in the destination, including those
	// written by previous attempts
	TransferredSize int64

	Percentage int

	// Speed is in bytes per second
	Speed int64

	Duration time.Duration

	// Error is set with ProgressStatusInError
	Error error

	StartAt  time.Time
	FinishAt time.Time
}

const (
	finalizingProgress = 99
	finishedProgress   = 100
)

// progressReader counts and throttles the bytes read from the source of
// a copy.
type progressReader struct {
	transferReader *iometer.TransferReader

	// doneCtx is canceled once the copy attempt stops
	doneCtx context.Context
	done    context.CancelFunc
}

// newProgressReader wraps r, starting the count at transferredSize.
func newProgressReader(ctx context.Context, r io.Reader, transferredSize int64, bytesPerSec float64) (p *progressReader) {
	p = &progressReader{
		transferReader: iometer.NewTransferReader(ctx, r, &transferredSize),
	}
	if bytesPerSec > 0 {
		p.transferReader.SetRateLimit(bytesPerSec)
	}
	p.doneCtx, p.done = context.WithCancel(ctx)
	return
}

// Read fails with context.Canceled once the attempt is stopped.
func (p *progressReader) Read(data []byte) (n int, err error) {
	select {
	case <-p.doneCtx.Done():
		return 0, context.Canceled
	default:
		return p.transferReader.Read(data)
	}
}

// stop ends the attempt, the source reader itself is closed by its owner.
func (p *progressReader) stop() {
	p.done()
}

func (p *progressReader) TransferredSize() int64 {
	return p.transferReader.TransferredSize()
}

// trackProgress reports the progress every refreshInterval until the
// attempt completes or is stopped.
func (p *progressReader) trackProgress(
	startTime time.Time,
	totalSize int64,
	refreshInterval time.Duration,
	completed <-chan struct{},
	cb ProgressUpdatedCallback,
) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	update := func() {
		transferredSize := p.TransferredSize()
		status := ProgressStatusInProgress
		percentage := finishedProgress
		if totalSize > 0 {
			percentage = int(math.Min(
				finishedProgress,
				math.Round(float64(transferredSize)/float64(totalSize)*100),
			))
		}
		if percentage == finishedProgress {
			percentage = finalizingProgress
			status = ProgressStatusFinalizing
		}
		elapsed := time.Since(startTime)
		cb(Progress{
			Status:          status,
			TotalSize:       totalSize,
			TransferredSize: transferredSize,
			Percentage:      percentage,
			Duration:        elapsed,
			Speed:           transferredSize / int64(math.Max(1, elapsed.Seconds())),
			StartAt:         startTime,
		})
	}

	for {
		select {
		case <-p.doneCtx.Done():
			return
		case <-completed:
			return
		case <-ticker.C:
			update()
		}
	}
}

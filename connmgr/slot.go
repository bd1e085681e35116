package connmgr

import (
	"math"
	"sync/atomic"
	"time"
)

const (
	notIdle = math.MaxInt64
	// retired marks a slot removed by the reaper, it is never used again
	retired = math.MinInt64
)

// slot is the per execution context container of a handle. Its handle is
// only replaced by its own execution context, the reaper only reads it.
type slot struct {
	handle atomic.Pointer[Handle]
	// idleSince holds the unix nanos of the last release, notIdle while the
	// handle is in use, retired once the reaper removed the slot
	idleSince atomic.Int64
}

func newSlot() (s *slot) {
	s = new(slot)
	s.idleSince.Store(notIdle)
	return
}

func (s *slot) load() *Handle {
	return s.handle.Load()
}

func (s *slot) store(h *Handle) {
	s.handle.Store(h)
}

// claim marks the slot in use. It fails once the slot is retired.
func (s *slot) claim() bool {
	for {
		since := s.idleSince.Load()
		if since == retired {
			return false
		}
		if s.idleSince.CompareAndSwap(since, notIdle) {
			return true
		}
	}
}

func (s *slot) markIdle(at time.Time) {
	for {
		since := s.idleSince.Load()
		if since == retired || s.idleSince.CompareAndSwap(since, at.UnixNano()) {
			return
		}
	}
}

// retire marks the slot retired if it stayed idle since cutoff or earlier.
func (s *slot) retire(cutoff time.Time) bool {
	since := s.idleSince.Load()
	if since == retired || since > cutoff.UnixNano() {
		return false
	}
	return s.idleSince.CompareAndSwap(since, retired)
}

// idleAt returns when the slot became idle, false while in use.
func (s *slot) idleAt() (at time.Time, idle bool) {
	nanos := s.idleSince.Load()
	if nanos == notIdle || nanos == retired {
		return
	}
	return time.Unix(0, nanos), true
}

// idleBefore reports whether the slot is idle since cutoff or earlier.
func (s *slot) idleBefore(cutoff time.Time) bool {
	nanos := s.idleSince.Load()
	return nanos != retired && nanos <= cutoff.UnixNano()
}

package connmgr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Manager hands out one connection per execution context and keeps it for
// reuse between operations. It is safe for concurrent use: execution
// contexts never share a handle, only the slot registry is shared.
type Manager struct {
	logger  logr.Logger
	factory protoc.SessionFactory
	config  Config

	// idleTimeout is the live value of config.IdleTimeout
	idleTimeout atomic.Int64

	// slots maps execution context keys to *slot
	slots sync.Map

	now     func() time.Time
	metrics managerMetrics

	shutdownOnce sync.Once
}

// Stats is a snapshot of the manager slots.
type Stats struct {
	// Slots is the number of execution contexts known to the manager
	Slots int
	// Open is the number of open sessions
	Open int
	// Idle is the number of open sessions released by their owner
	Idle int
}

// NewManager creates a connection manager building its sessions with
// factory.
func NewManager(logger logr.Logger, factory protoc.SessionFactory, config Config) (m *Manager, err error) {
	if factory == nil {
		err = fmt.Errorf("%w: session factory is required", ErrInvalidConfig)
		return
	}
	if err = config.Validate(context.Background()); err != nil {
		return
	}
	m = &Manager{
		logger:  logger.WithName("connmgr"),
		factory: factory,
		config:  config,
		now:     time.Now,
	}
	m.idleTimeout.Store(int64(config.IdleTimeout))
	if err = m.registerMeterCallback(); err != nil {
		m = nil
	}
	return
}

// IdleTimeout returns the idle timeout used by CloseExpiredConnections.
func (m *Manager) IdleTimeout() time.Duration {
	return time.Duration(m.idleTimeout.Load())
}

// SetIdleTimeout changes the idle timeout used by CloseExpiredConnections.
func (m *Manager) SetIdleTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: idle timeout must be positive, got %s", ErrInvalidConfig, timeout)
	}
	m.idleTimeout.Store(int64(timeout))
	return nil
}

// Acquire returns the handle of the execution context carried by ctx, open
// and ready for a new request to endpoint:
//   - the first acquisition of a context opens a new session
//   - acquiring another endpoint closes the current session and retargets
//     the handle, the pending response of the closed session is not drained
//   - acquiring the same endpoint drains the pending response of the
//     session, a session failing to drain is closed and opened again
//   - a session closed meanwhile, e.g. after a failed drain, is opened again
//     with the credentials and settings of endpoint
//   - a slot removed by the idle reaper is replaced by a new one
//
// The handle must be given back with Release once the request is done.
func (m *Manager) Acquire(ctx context.Context, endpoint protoc.Endpoint) (h *Handle, err error) {
	key, ok := KeyFrom(ctx)
	if !ok {
		err = ErrNoExecutionContext
		return
	}
	if err = endpoint.Validate(ctx); err != nil {
		return
	}

	s := m.claimSlot(key)
	if h = s.load(); h == nil {
		var session protoc.Session
		if session, err = m.newSession(endpoint); err != nil {
			h = nil
			s.markIdle(m.now())
			return
		}
		h = newHandle(key, endpoint, session)
		s.store(h)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.endpoint.Equivalent(endpoint) {
		err = m.retarget(h, endpoint)
	} else if h.session.IsOpen() {
		m.drain(h)
	}
	// credentials and settings of an equivalent endpoint apply at the next
	// open, the endpoint of an open handle is the one its session uses
	if err == nil && !h.session.IsOpen() {
		h.endpoint = endpoint
		err = m.open(ctx, h)
	}
	if err != nil {
		h = nil
		s.markIdle(m.now())
	}
	return
}

// Release gives back the handle acquired by the execution context carried
// by ctx. The pending response of the session is drained and the handle
// stays open for the next acquisition until it expires.
func (m *Manager) Release(ctx context.Context, h *Handle) (err error) {
	key, ok := KeyFrom(ctx)
	if !ok {
		return ErrNoExecutionContext
	}
	v, ok := m.slots.Load(key)
	if !ok || h == nil || v.(*slot).load() != h {
		return fmt.Errorf("%w: unexpected release of an unknown connection", ErrIllegalState)
	}
	h.mu.Lock()
	if h.session.IsOpen() {
		m.drain(h)
	}
	h.mu.Unlock()
	v.(*slot).markIdle(m.now())
	return
}

// CloseIdleConnections closes the sessions released for maxIdle or longer
// and returns how many were closed. Their slots are removed, the next
// acquisition of an abandoned execution context starts from scratch.
// Handles in use are never closed. Close failures are logged and the
// session is considered closed.
func (m *Manager) CloseIdleConnections(ctx context.Context, maxIdle time.Duration) (closed int, err error) {
	if maxIdle < 0 {
		err = fmt.Errorf("%w: max idle duration must not be negative, got %s", ErrInvalidConfig, maxIdle)
		return
	}
	cutoff := m.now().Add(-maxIdle)

	type candidate struct {
		key  string
		slot *slot
	}
	var candidates []candidate
	m.slots.Range(func(k, v any) bool {
		if s := v.(*slot); s.idleBefore(cutoff) {
			candidates = append(candidates, candidate{key: k.(string), slot: s})
		}
		return true
	})

	var count atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.MaxConcurrentCloses)
	for _, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// an owner claiming the slot meanwhile keeps it
			if !c.slot.retire(cutoff) {
				return nil
			}
			m.slots.CompareAndDelete(c.key, c.slot)
			if h := c.slot.load(); h != nil {
				h.mu.Lock()
				defer h.mu.Unlock()
				if h.session.IsOpen() {
					m.close(h, "idle")
					count.Add(1)
				}
			}
			return nil
		})
	}
	err = g.Wait()
	closed = int(count.Load())
	m.metrics.reaped.Add(int64(closed))
	if closed > 0 {
		m.logger.Info("closed idle connections", "closed", closed, "maxIdle", maxIdle.String())
	}
	return
}

// CloseExpiredConnections closes the sessions idle for the idle timeout.
func (m *Manager) CloseExpiredConnections(ctx context.Context) (closed int, err error) {
	return m.CloseIdleConnections(ctx, m.IdleTimeout())
}

// CloseContext closes the sessions of the execution context carried by ctx
// and of the contexts derived from it, then forgets their slots. Call it
// when an execution context ends.
func (m *Manager) CloseContext(ctx context.Context) (err error) {
	key, ok := KeyFrom(ctx)
	if !ok {
		return ErrNoExecutionContext
	}
	m.slots.Range(func(k, v any) bool {
		if k == key || strings.HasPrefix(k.(string), key+"/") {
			if _, loaded := m.slots.LoadAndDelete(k); loaded {
				m.closeSlot(v.(*slot), "context closed")
			}
		}
		return true
	})
	return
}

func (m *Manager) closeSlot(s *slot, reason string) {
	h := s.load()
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session.IsOpen() {
		m.close(h, reason)
	}
}

// Shutdown closes every session, forgets every slot and stops reporting
// metrics. The manager must not be used afterwards.
func (m *Manager) Shutdown(ctx context.Context) (err error) {
	m.shutdownOnce.Do(func() {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.config.MaxConcurrentCloses)
		m.slots.Range(func(key, v any) bool {
			m.slots.Delete(key)
			h := v.(*slot).load()
			if h == nil {
				return true
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				h.mu.Lock()
				defer h.mu.Unlock()
				if h.session.IsOpen() {
					m.close(h, "shutdown")
				}
				return nil
			})
			return true
		})
		err = errors.Join(g.Wait(), m.unregisterMeterCallback())
		m.logger.Info("connection manager shut down")
	})
	return
}

// Stats returns a snapshot of the slots. Handles busy opening or draining
// count as open.
func (m *Manager) Stats() (stats Stats) {
	m.slots.Range(func(_, v any) bool {
		stats.Slots++
		s := v.(*slot)
		h := s.load()
		if h == nil {
			return true
		}
		if !h.mu.TryLock() {
			stats.Open++
			return true
		}
		open := h.session.IsOpen()
		h.mu.Unlock()
		if open {
			stats.Open++
			if _, idle := s.idleAt(); idle {
				stats.Idle++
			}
		}
		return true
	})
	return
}

// claimSlot returns the slot of key marked in use, replacing a slot the
// reaper retired meanwhile.
func (m *Manager) claimSlot(key string) *slot {
	for {
		s := m.slot(key)
		if s.claim() {
			return s
		}
		m.slots.CompareAndDelete(key, s)
	}
}

func (m *Manager) slot(key string) *slot {
	if v, ok := m.slots.Load(key); ok {
		return v.(*slot)
	}
	v, _ := m.slots.LoadOrStore(key, newSlot())
	return v.(*slot)
}

func (m *Manager) newSession(endpoint protoc.Endpoint) (session protoc.Session, err error) {
	if session, err = m.factory(endpoint); err != nil {
		err = &ProtocolError{Op: "create session", Endpoint: endpoint, Err: err}
		return
	}
	if session == nil {
		err = &ProtocolError{Op: "create session", Endpoint: endpoint, Err: protoc.ErrUnknownProtocol}
	}
	return
}

// retarget points h to endpoint, closing its session first. The session is
// replaced only when the protocol changes. h.mu must be held.
func (m *Manager) retarget(h *Handle, endpoint protoc.Endpoint) (err error) {
	previous := h.endpoint
	if h.session.IsOpen() {
		m.close(h, "endpoint changed")
	}
	if previous.Protocol != endpoint.Protocol {
		var session protoc.Session
		if session, err = m.newSession(endpoint); err != nil {
			return
		}
		h.session = session
	}
	h.endpoint = endpoint
	m.logger.V(1).Info("retargeted connection",
		"key", h.key, "from", previous.String(), "to", endpoint.String())
	return
}

// drain makes the open session of h ready for a new request, closing it
// when its pending response cannot be drained. h.mu must be held.
func (m *Manager) drain(h *Handle) {
	if err := h.session.DrainPending(); err != nil {
		m.metrics.drainFailures.Add(1)
		m.logger.V(1).Info("failed to drain pending response, closing connection",
			"key", h.key, "endpoint", h.endpoint.String(), "errorMessage", err.Error())
		m.close(h, "drain failed")
	}
}

// open opens the session of h, retrying transient failures. h.mu must be
// held.
func (m *Manager) open(ctx context.Context, h *Handle) (err error) {
	if err = retry.Do(
		func() error {
			return h.session.Open(ctx, h.endpoint)
		},
		retry.Context(ctx),
		retry.Attempts(m.config.OpenRetryAttempts),
		retry.Delay(m.config.OpenRetryDelay),
		retry.MaxDelay(m.config.OpenRetryMaxDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, protoc.ErrAuthenticationFailed) &&
				!errors.Is(err, protoc.ErrInvalidEndpoint) &&
				!errors.Is(err, context.Canceled)
		}),
		retry.OnRetry(func(n uint, err error) {
			m.logger.V(1).Info("retrying connection open",
				"key", h.key, "endpoint", h.endpoint.String(),
				"errorMessage", err.Error(), "retryAttempts", n+1)
		}),
	); err != nil {
		err = &ProtocolError{Op: "open", Endpoint: h.endpoint, Err: err}
		return
	}
	m.metrics.opened.Add(1)
	m.logger.V(1).Info("opened connection", "key", h.key, "endpoint", h.endpoint.String())
	return
}

// close closes the session of h, a failure is logged and swallowed. h.mu
// must be held.
func (m *Manager) close(h *Handle, reason string) {
	m.metrics.closed.Add(1)
	if err := h.session.Close(); err != nil {
		m.logger.V(1).Info("failed to close connection",
			"key", h.key, "endpoint", h.endpoint.String(),
			"reason", reason, "errorMessage", err.Error())
		return
	}
	m.logger.V(1).Info("closed connection",
		"key", h.key, "endpoint", h.endpoint.String(), "reason", reason)
}

package fxvfs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/derektruong/fxvfs/connmgr"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/derektruong/fxvfs/protoc/ftp"
	"github.com/derektruong/fxvfs/protoc/local"
	"github.com/derektruong/fxvfs/protoc/s3"
	"github.com/derektruong/fxvfs/protoc/smb"
	"github.com/derektruong/fxvfs/protoc/webdav"
	"github.com/go-logr/logr"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Registry resolves URIs to files of the registered providers. Every file
// it resolves shares one connection manager.
type Registry struct {
	logger logr.Logger

	config           connmgr.Config
	initialProviders []protoc.Provider
	manager          *connmgr.Manager

	mu        sync.RWMutex
	schemes   map[string]protoc.Provider
	protocols map[protoc.Protocol]protoc.Provider

	// fileSystems caches *FileSystem by scheme, endpoint and root
	fileSystems sync.Map
}

// NewRegistry creates an empty registry, see WithProvider.
func NewRegistry(logger logr.Logger, options ...RegistryOption) (r *Registry, err error) {
	r = &Registry{
		logger:    logger.WithName("fxvfs"),
		config:    connmgr.DefaultConfig(),
		schemes:   make(map[string]protoc.Provider),
		protocols: make(map[protoc.Protocol]protoc.Provider),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.manager, err = connmgr.NewManager(logger, r.newSession, r.config); err != nil {
		r = nil
		return
	}
	for _, p := range r.initialProviders {
		if err = r.Register(p); err != nil {
			err = errors.Join(err, r.manager.Shutdown(context.Background()))
			r = nil
			return
		}
	}
	r.initialProviders = nil
	return
}

// NewDefaultRegistry creates a registry serving every built-in protocol:
// ftp, ftps, ftps+implicit, smb, webdav, webdavs, s3 and file.
func NewDefaultRegistry(logger logr.Logger, options ...RegistryOption) (*Registry, error) {
	defaults := []RegistryOption{
		WithProvider(ftp.NewProvider(logger)),
		WithProvider(smb.NewProvider(logger)),
		WithProvider(webdav.NewProvider(logger)),
		WithProvider(s3.NewProvider(logger)),
		WithProvider(local.NewProvider(logger)),
	}
	return NewRegistry(logger, append(defaults, options...)...)
}

// Register adds the provider for every scheme of its protocols. Nothing is
// registered when one of them is already taken.
func (r *Registry) Register(p protoc.Provider) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var schemes []string
	for _, protocol := range p.Protocols() {
		if _, ok := r.protocols[protocol]; ok {
			return fmt.Errorf("%w: %s", ErrSchemeAlreadyRegistered, protocol.Scheme())
		}
		for _, scheme := range protocol.Schemes() {
			if _, ok := r.schemes[scheme]; ok {
				return fmt.Errorf("%w: %s", ErrSchemeAlreadyRegistered, scheme)
			}
			schemes = append(schemes, scheme)
		}
	}
	for _, protocol := range p.Protocols() {
		r.protocols[protocol] = p
	}
	for _, scheme := range schemes {
		r.schemes[scheme] = p
	}
	r.logger.V(1).Info("registered provider", "schemes", schemes)
	return
}

// Schemes returns the registered URI schemes, sorted.
func (r *Registry) Schemes() (schemes []string) {
	r.mu.RLock()
	schemes = lo.Keys(r.schemes)
	r.mu.RUnlock()
	slices.Sort(schemes)
	return
}

// Manager returns the connection manager of the registry.
func (r *Registry) Manager() *connmgr.Manager {
	return r.manager
}

// ResolveFile returns the file addressed by uri. Credentials in the URI
// take precedence over opts. No connection is made.
func (r *Registry) ResolveFile(ctx context.Context, uri string, opts Options) (f *File, err error) {
	var u *url.URL
	if u, err = url.Parse(uri); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidURI, err)
		return
	}
	if u.Scheme == "" {
		err = fmt.Errorf("%w: %q has no scheme", ErrInvalidURI, u.Redacted())
		return
	}
	scheme := strings.ToLower(u.Scheme)

	r.mu.RLock()
	provider, ok := r.schemes[scheme]
	r.mu.RUnlock()
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
		return
	}

	var loc protoc.Location
	if loc, err = provider.Resolve(ctx, u, opts); err != nil {
		return
	}
	fs := r.fileSystem(scheme, provider, loc)

	display := *u
	display.User = nil
	display.Scheme = scheme
	f = &File{
		fs:       fs,
		endpoint: loc.Endpoint,
		path:     loc.Path,
		uri:      display.String(),
	}
	return
}

func (r *Registry) fileSystem(scheme string, provider protoc.Provider, loc protoc.Location) *FileSystem {
	key := scheme + "|" + loc.Endpoint.ID() + "|" + loc.Root
	if v, ok := r.fileSystems.Load(key); ok {
		return v.(*FileSystem)
	}
	v, _ := r.fileSystems.LoadOrStore(key, newFileSystem(r.logger, r.manager, provider, loc.Root))
	return v.(*FileSystem)
}

// RunIdleReaper closes the connections idle for the idle timeout every
// interval, until ctx is done.
func (r *Registry) RunIdleReaper(ctx context.Context, interval time.Duration) (err error) {
	if err = (reaperConfig{Interval: interval}).Validate(ctx); err != nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	r.logger.Info("idle reaper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("idle reaper stopped")
			return
		case <-ticker.C:
			if _, reapErr := r.manager.CloseExpiredConnections(ctx); reapErr != nil && ctx.Err() == nil {
				r.logger.Error(reapErr, "failed to close idle connections")
			}
		}
	}
}

// Close closes every connection of the registry.
func (r *Registry) Close(ctx context.Context) error {
	return r.manager.Shutdown(ctx)
}

func (r *Registry) newSession(endpoint protoc.Endpoint) (protoc.Session, error) {
	r.mu.RLock()
	provider, ok := r.protocols[endpoint.Protocol]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", protoc.ErrUnknownProtocol, endpoint.Protocol)
	}
	return provider.NewSession(endpoint)
}

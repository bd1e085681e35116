package webdav

import (
	"context"
	"net/url"
	"path"

	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
	"github.com/samber/lo"
)

// Provider serves webdav and webdavs URIs.
type Provider struct {
	logger logr.Logger
}

var _ protoc.Provider = (*Provider)(nil)

func NewProvider(logger logr.Logger) *Provider {
	return &Provider{logger: logger}
}

func (p *Provider) Protocols() []protoc.Protocol {
	return []protoc.Protocol{protoc.ProtocolWebDAV, protoc.ProtocolWebDAVS}
}

func (p *Provider) Resolve(ctx context.Context, u *url.URL, opts protoc.Options) (loc protoc.Location, err error) {
	var protocol protoc.Protocol
	if protocol, err = protoc.ParseProtocol(u.Scheme); err != nil {
		return
	}
	if loc.Endpoint, err = protoc.EndpointFromURL(ctx, protocol, u, opts); err != nil {
		return
	}
	loc.Root = "/"
	loc.Path = path.Clean("/" + u.Path)
	return
}

func (p *Provider) NewSession(endpoint protoc.Endpoint) (protoc.Session, error) {
	return NewSession(p.logger), nil
}

// Capabilities returns every capability but appending.
func (p *Provider) Capabilities() []protoc.Capability {
	return lo.Without(protoc.AllCapabilities(), protoc.CapabilityAppendContent)
}

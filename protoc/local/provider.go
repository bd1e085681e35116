package local

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
)

// Provider serves file:// URIs.
type Provider struct {
	logger logr.Logger
}

var _ protoc.Provider = (*Provider)(nil)

func NewProvider(logger logr.Logger) *Provider {
	return &Provider{logger: logger}
}

func (p *Provider) Protocols() []protoc.Protocol {
	return []protoc.Protocol{protoc.ProtocolLocal}
}

func (p *Provider) Resolve(ctx context.Context, u *url.URL, opts protoc.Options) (loc protoc.Location, err error) {
	if u.Host != "" && u.Host != "localhost" {
		err = fmt.Errorf("%w: remote host %q in a file URI", protoc.ErrInvalidEndpoint, u.Host)
		return
	}
	if u.Path == "" {
		err = fmt.Errorf("%w: file URI without path", protoc.ErrInvalidEndpoint)
		return
	}
	if err = opts.Validate(ctx); err != nil {
		return
	}
	loc = protoc.Location{
		Endpoint: protoc.Endpoint{Protocol: protoc.ProtocolLocal},
		Root:     "/",
		Path:     path.Clean(u.Path),
	}
	return
}

func (p *Provider) NewSession(endpoint protoc.Endpoint) (protoc.Session, error) {
	return NewSession(p.logger), nil
}

func (p *Provider) Capabilities() []protoc.Capability {
	return protoc.AllCapabilities()
}

package smb

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/derektruong/fxvfs/internal/fileutils"
	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
)

// Provider serves smb://host/share/path URIs.
type Provider struct {
	logger logr.Logger
}

var _ protoc.Provider = (*Provider)(nil)

func NewProvider(logger logr.Logger) *Provider {
	return &Provider{logger: logger}
}

func (p *Provider) Protocols() []protoc.Protocol {
	return []protoc.Protocol{protoc.ProtocolSMB}
}

func (p *Provider) Resolve(ctx context.Context, u *url.URL, opts protoc.Options) (loc protoc.Location, err error) {
	filePath := path.Clean("/" + u.Path)
	share, _ := fileutils.SplitRoot(filePath)
	if share == "" {
		err = fmt.Errorf("%w: smb URI %q names no share", protoc.ErrInvalidEndpoint, u.Redacted())
		return
	}
	if loc.Endpoint, err = protoc.EndpointFromURL(ctx, protoc.ProtocolSMB, u, opts); err != nil {
		return
	}
	loc.Root = share
	loc.Path = filePath
	return
}

func (p *Provider) NewSession(endpoint protoc.Endpoint) (protoc.Session, error) {
	return NewSession(p.logger), nil
}

func (p *Provider) Capabilities() []protoc.Capability {
	return protoc.AllCapabilities()
}

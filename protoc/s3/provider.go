package s3

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/derektruong/fxvfs/protoc"
	"github.com/go-logr/logr"
	"github.com/samber/lo"
)

const defaultRegion = "us-east-1"

// Provider serves s3://bucket/key URIs.
type Provider struct {
	logger logr.Logger
}

var _ protoc.Provider = (*Provider)(nil)

func NewProvider(logger logr.Logger) *Provider {
	return &Provider{logger: logger}
}

func (p *Provider) Protocols() []protoc.Protocol {
	return []protoc.Protocol{protoc.ProtocolS3}
}

func (p *Provider) Resolve(ctx context.Context, u *url.URL, opts protoc.Options) (loc protoc.Location, err error) {
	if u.Port() != "" {
		err = fmt.Errorf("%w: s3 URIs name a bucket, use the S3 endpoint option for the service address", protoc.ErrInvalidEndpoint)
		return
	}
	if loc.Endpoint, err = protoc.EndpointFromURL(ctx, protoc.ProtocolS3, u, opts); err != nil {
		return
	}
	loc.Root = loc.Endpoint.Host
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

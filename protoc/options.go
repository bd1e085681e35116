package protoc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Options is the configuration bag handed to a provider when it resolves a
// URI. Credentials embedded in the URI take precedence over the bag.
type Options struct {
	// Username used when the URI carries no user info
	Username string `json:"username" yaml:"username"`
	// Password used when the URI carries no password
	Password string `json:"-" yaml:"-"`
	// Domain is the NTLM domain used by SMB
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
	// ProxyHost routes connections through a proxy (SOCKS5 for FTP and SMB,
	// HTTP for WebDAV)
	ProxyHost string `json:"proxyHost,omitempty" yaml:"proxyHost,omitempty" validate:"omitempty,hostname_rfc1123|ip"`
	// ProxyPort is required with ProxyHost
	ProxyPort int `json:"proxyPort,omitempty" yaml:"proxyPort,omitempty" validate:"gte=0,lte=65535,required_with=ProxyHost"`
	// Timeout bounds dialing and requests, 0 means no timeout
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
	// InsecureSkipVerify disables TLS certificate verification
	InsecureSkipVerify bool `json:"insecureSkipVerify" yaml:"insecureSkipVerify"`
	// S3Endpoint is the S3 service URL, e.g. https://s3.eu-west-1.amazonaws.com
	S3Endpoint string `json:"s3Endpoint,omitempty" yaml:"s3Endpoint,omitempty" validate:"omitempty,url"`
	// S3Region is the S3 signing region
	S3Region string `json:"s3Region,omitempty" yaml:"s3Region,omitempty"`
}

func (o Options) Validate(ctx context.Context) (err error) {
	if err = validate.StructCtx(ctx, o); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return
}

// EndpointFromURL builds the endpoint of protocol addressed by u, completing
// it with the proxy, credentials and settings found in opts.
func EndpointFromURL(ctx context.Context, protocol Protocol, u *url.URL, opts Options) (e Endpoint, err error) {
	if err = opts.Validate(ctx); err != nil {
		return
	}
	e = Endpoint{
		Protocol:  protocol,
		Host:      u.Hostname(),
		ProxyHost: opts.ProxyHost,
		ProxyPort: opts.ProxyPort,
		Credentials: Credentials{
			Username: opts.Username,
			Password: opts.Password,
			Domain:   opts.Domain,
		},
		Settings: Settings{
			Timeout:            opts.Timeout,
			InsecureSkipVerify: opts.InsecureSkipVerify,
			BaseURL:            opts.S3Endpoint,
			Region:             opts.S3Region,
		},
	}
	if port := u.Port(); port != "" {
		if e.Port, err = strconv.Atoi(port); err != nil {
			err = fmt.Errorf("%w: port %q: %w", ErrInvalidEndpoint, port, err)
			return
		}
	}
	if u.User != nil {
		e.Credentials.Username = u.User.Username()
		if password, ok := u.User.Password(); ok {
			e.Credentials.Password = password
		}
	}
	err = e.Validate(ctx)
	return
}

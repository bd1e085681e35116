package protoc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/derektruong/fxvfs/internal/protocutils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate use a single instance of validate, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

var endpointIDNamespace = uuid.MustParse("3f0b7c52-6a1e-4d4b-9a0c-8d2e51f4b7a1")

// Credentials carries the secrets used to authenticate a session.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"-" yaml:"-"`
	// Domain is the NTLM domain, SMB only
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
}

// Settings tune how a session talks to its endpoint. They are not part of
// the endpoint identity.
type Settings struct {
	// Timeout bounds dialing and, where the protocol supports it, each request
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
	// InsecureSkipVerify disables TLS certificate verification
	InsecureSkipVerify bool `json:"insecureSkipVerify" yaml:"insecureSkipVerify"`
	// BaseURL is the full service URL for HTTP based APIs (S3)
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty" validate:"omitempty,url"`
	// Region is the S3 signing region
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// Endpoint describes the remote session target: host, port, protocol and
// proxy. Endpoints are values, build a new one to target something else.
type Endpoint struct {
	Protocol  Protocol `json:"protocol" yaml:"protocol" validate:"required"`
	Host      string   `json:"host" yaml:"host"`
	Port      int      `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	ProxyHost string   `json:"proxyHost,omitempty" yaml:"proxyHost,omitempty"`
	ProxyPort int      `json:"proxyPort,omitempty" yaml:"proxyPort,omitempty" validate:"gte=0,lte=65535,required_with=ProxyHost"`

	Credentials Credentials `json:"credentials" yaml:"credentials"`
	Settings    Settings    `json:"settings" yaml:"settings"`
}

// Validate checks the endpoint is complete enough to be dialed.
func (e Endpoint) Validate(ctx context.Context) (err error) {
	if err = validate.StructCtx(ctx, e); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if e.Protocol != ProtocolLocal && e.Host == "" {
		return fmt.Errorf("%w: host is required for %s", ErrInvalidEndpoint, e.Protocol)
	}
	return
}

// EffectivePort returns the configured port, or the protocol default.
func (e Endpoint) EffectivePort() int {
	if e.Port > 0 {
		return e.Port
	}
	return e.Protocol.DefaultPort()
}

// Equivalent reports whether both endpoints reach the same remote session:
// same protocol, host, port and proxy. Credentials and settings are ignored.
func (e Endpoint) Equivalent(other Endpoint) bool {
	return e.Protocol == other.Protocol &&
		strings.EqualFold(e.Host, other.Host) &&
		e.EffectivePort() == other.EffectivePort() &&
		strings.EqualFold(e.ProxyHost, other.ProxyHost) &&
		e.ProxyPort == other.ProxyPort
}

// Address returns the host:port to dial.
func (e Endpoint) Address() string {
	return protocutils.BuildAddress(e.Host, e.EffectivePort())
}

// HasProxy reports whether connections go through a proxy.
func (e Endpoint) HasProxy() bool {
	return e.ProxyHost != ""
}

// ProxyAddress returns the proxy host:port, empty without proxy.
func (e Endpoint) ProxyAddress() string {
	if !e.HasProxy() {
		return ""
	}
	return protocutils.BuildAddress(e.ProxyHost, e.ProxyPort)
}

// ID returns a deterministic identifier of the endpoint; equivalent
// endpoints share the same ID.
func (e Endpoint) ID() string {
	return uuid.NewSHA1(
		endpointIDNamespace,
		[]byte(fmt.Sprintf(
			"%s:%s:%d:%s:%d",
			e.Protocol.Scheme(), strings.ToLower(e.Host), e.EffectivePort(),
			strings.ToLower(e.ProxyHost), e.ProxyPort,
		)),
	).String()
}

// String renders the endpoint for logs, credentials never appear.
func (e Endpoint) String() string {
	s := fmt.Sprintf("%s://%s", e.Protocol.Scheme(), e.Address())
	if e.HasProxy() {
		s += " via " + e.ProxyAddress()
	}
	return s
}

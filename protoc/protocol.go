package protoc

import (
	"fmt"

	"github.com/derektruong/fxvfs/internal/sliceutils"
)

// Protocol identifies the wire protocol spoken with a remote endpoint.
type Protocol int

const (
	// ProtocolUnknown is the zero value, never valid in an Endpoint.
	ProtocolUnknown Protocol = iota
	// ProtocolFTP is plain FTP.
	ProtocolFTP
	// ProtocolFTPS is FTP upgraded with AUTH TLS (explicit FTPS).
	ProtocolFTPS
	// ProtocolFTPSImplicit is FTP over a TLS socket from the first byte.
	ProtocolFTPSImplicit
	// ProtocolSMB is SMB2/SMB3.
	ProtocolSMB
	// ProtocolWebDAV is WebDAV over plain HTTP.
	ProtocolWebDAV
	// ProtocolWebDAVS is WebDAV over HTTPS.
	ProtocolWebDAVS
	// ProtocolS3 is the S3 object storage API.
	ProtocolS3
	// ProtocolLocal is the local file system.
	ProtocolLocal
)

// protocolSchemes lists the URI schemes of each protocol, the first one
// being the canonical scheme.
var protocolSchemes = map[Protocol][]string{
	ProtocolFTP:          {"ftp"},
	ProtocolFTPS:         {"ftps", "ftpes"},
	ProtocolFTPSImplicit: {"ftps+implicit", "ftpis"},
	ProtocolSMB:          {"smb", "smb2", "cifs"},
	ProtocolWebDAV:       {"webdav", "dav"},
	ProtocolWebDAVS:      {"webdavs", "davs"},
	ProtocolS3:           {"s3"},
	ProtocolLocal:        {"file"},
}

var defaultPorts = map[Protocol]int{
	ProtocolFTP:          21,
	ProtocolFTPS:         21,
	ProtocolFTPSImplicit: 990,
	ProtocolSMB:          445,
	ProtocolWebDAV:       80,
	ProtocolWebDAVS:      443,
	ProtocolS3:           443,
}

// ParseProtocol returns the protocol addressed by a URI scheme.
func ParseProtocol(scheme string) (p Protocol, err error) {
	for candidate, schemes := range protocolSchemes {
		if sliceutils.Contains(schemes, scheme) {
			p = candidate
			return
		}
	}
	err = fmt.Errorf("%w: %q", ErrUnknownProtocol, scheme)
	return
}

// Scheme returns the canonical URI scheme of the protocol.
func (p Protocol) Scheme() string {
	if schemes, ok := protocolSchemes[p]; ok {
		return schemes[0]
	}
	return "unknown"
}

// Schemes returns every URI scheme the protocol answers to.
func (p Protocol) Schemes() []string {
	return append([]string(nil), protocolSchemes[p]...)
}

// DefaultPort returns the well-known port of the protocol, 0 if it has none.
func (p Protocol) DefaultPort() int {
	return defaultPorts[p]
}

// IsSecure reports whether the protocol runs over TLS.
func (p Protocol) IsSecure() bool {
	switch p {
	case ProtocolFTPS, ProtocolFTPSImplicit, ProtocolWebDAVS:
		return true
	default:
		return false
	}
}

func (p Protocol) String() string {
	return p.Scheme()
}

package protocutils

import (
	"context"
	"net"
	"time"

	"golang.org/x/net/proxy"
)

// Dial opens a TCP connection to addr. When proxyAddr is not empty the
// connection is tunnelled through the SOCKS5 proxy listening there.
func Dial(ctx context.Context, addr, proxyAddr string, timeout time.Duration) (conn net.Conn, err error) {
	direct := &net.Dialer{Timeout: timeout}
	if proxyAddr == "" {
		return direct.DialContext(ctx, "tcp", addr)
	}
	var dialer proxy.Dialer
	if dialer, err = proxy.SOCKS5("tcp", proxyAddr, nil, direct); err != nil {
		return
	}
	if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
		return contextDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.Dial("tcp", addr)
}

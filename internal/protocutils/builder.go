package protocutils

import (
	"net"
	"strconv"
)

// BuildAddress builds the address based on the provided host and port.
// A port already present in host is replaced when port is positive.
// If the port is not provided, the host is returned.
func BuildAddress(host string, port int) (addr string) {
	if host == "" {
		return
	}
	if port <= 0 {
		addr = host
		return
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	addr = net.JoinHostPort(host, strconv.Itoa(port))
	return
}

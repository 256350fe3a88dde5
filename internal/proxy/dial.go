package proxy

import (
	"fmt"
	"net"
	"time"
)

const backendDialTimeout = 5 * time.Second

// dialBackend connects to a backend listening on port, trying 127.0.0.1
// first and falling back to ::1. Some dev servers (notably Node's HTTP
// server on recent platforms) bind only the IPv6 loopback, so a bare
// IPv4 dial would otherwise fail against a perfectly healthy backend.
func dialBackend(port int) (net.Conn, error) {
	addr4 := fmt.Sprintf("127.0.0.1:%d", port)
	if conn, err := net.DialTimeout("tcp", addr4, backendDialTimeout); err == nil {
		return conn, nil
	}

	addr6 := fmt.Sprintf("[::1]:%d", port)
	return net.DialTimeout("tcp", addr6, backendDialTimeout)
}

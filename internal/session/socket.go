// ABOUTME: TCP listener owned by the gateway worker.
// ABOUTME: Accept unblocks with net.ErrClosed once Close is called.

package session

import (
	"fmt"
	"net"
	"strconv"
)

// Socket accepts client connections on the configured interface and port.
type Socket struct {
	listener net.Listener
}

// Listen binds a TCP socket on iface:port.
func Listen(iface string, port int) (*Socket, error) {
	address := net.JoinHostPort(iface, strconv.Itoa(port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", address, err)
	}
	return &Socket{listener: listener}, nil
}

// Accept waits for the next connection.
func (s *Socket) Accept() (net.Conn, error) {
	return s.listener.Accept()
}

// Addr returns the bound address.
func (s *Socket) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops the listener.
func (s *Socket) Close() error {
	return s.listener.Close()
}

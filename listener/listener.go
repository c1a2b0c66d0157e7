// Package listener provides a resilient net.Listener wrapper for the HTTP
// service. Transient accept failures are logged and skipped so a single bad
// connection cannot bring the server loop down.
package listener

import (
	"errors"
	"log"
	"net"
)

// ServiceListener wraps net.Listener to be resilient, recoverable errors are
// handled gracefully.
type ServiceListener struct {
	net.Listener
}

func NewServiceListener(listenerToWrap net.Listener) *ServiceListener {
	return &ServiceListener{Listener: listenerToWrap}
}

// Accept will gracefully handle recoverable errors and continue without
// crashing the server.
func (l *ServiceListener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			// If the listener was closed, this is a fatal error. Propagate it.
			if errors.Is(err, net.ErrClosed) {
				return nil, err
			}

			// For any other error, log it and continue to the next connection attempt.
			log.Printf("Recoverable listener error, connection rejected: %v", err)
			continue
		}
		return conn, nil
	}
}

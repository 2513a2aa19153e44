package tbnf

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gamevidea/tbnf/internal/protocol"
	"github.com/gamevidea/tbnf/message"
)

// EndpointAuthenticator listens for incoming client connections, identifies
// each one by the hardware address in its identification message and either
// creates a remote endpoint for a new identity or reattaches a known identity
// to its existing endpoint. The client table is keyed by hardware address
// alone and is append-only, so the first 256 identities receive distinct
// network identifiers; the 8-bit identifier wraps around after that.
type EndpointAuthenticator struct {
	// InactivityCheckInterval is forwarded into every remote endpoint this
	// authenticator creates. Read-only once Start is called.
	InactivityCheckInterval time.Duration

	// ConnectionTimeout is forwarded into every remote endpoint this
	// authenticator creates. Read-only once Start is called.
	ConnectionTimeout time.Duration

	listeningPort int
	handler       *Handler

	ctx    context.Context
	cancel context.CancelFunc

	listener net.Listener

	mu      sync.RWMutex
	clients map[string]*RemoteEndpoint

	registeredFns []func(*EndpointAuthenticator, *RemoteEndpoint)
}

// Creates an authenticator that will listen on the given TCP port. The handler
// is shared by every remote endpoint it creates. Configuration fields may be
// adjusted until Start is called.
func NewEndpointAuthenticator(listeningPort int, handler *Handler) *EndpointAuthenticator {
	ctx, cancel := context.WithCancel(context.Background())

	return &EndpointAuthenticator{
		InactivityCheckInterval: protocol.DEFAULT_INACTIVITY_CHECK_INTERVAL,
		ConnectionTimeout:       protocol.DEFAULT_CONNECTION_TIMEOUT,
		listeningPort:           listeningPort,
		handler:                 handler,
		ctx:                     ctx,
		cancel:                  cancel,
		clients:                 map[string]*RemoteEndpoint{},
	}
}

// Registers a listener invoked whenever a previously unknown identity is
// registered and its remote endpoint created.
func (a *EndpointAuthenticator) OnNewClientRegistered(fn func(*EndpointAuthenticator, *RemoteEndpoint)) {
	a.registeredFns = append(a.registeredFns, fn)
}

// Begins listening and launches the accept loop. Returns an error if the
// listening port could not be bound.
func (a *EndpointAuthenticator) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.listeningPort))
	if err != nil {
		return err
	}

	a.listener = listener
	go a.acceptLoop()

	return nil
}

// Returns the TCP port the authenticator is listening on. Only valid after
// Start has returned successfully.
func (a *EndpointAuthenticator) ListeningPort() int {
	if a.listener == nil {
		return a.listeningPort
	}
	return a.listener.Addr().(*net.TCPAddr).Port
}

// Returns the remote endpoint registered for the given hardware address, if
// any.
func (a *EndpointAuthenticator) Lookup(hwAddress net.HardwareAddr) (*RemoteEndpoint, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.clients[string(hwAddress)]
	return r, ok
}

// Returns the number of identities the authenticator has registered.
func (a *EndpointAuthenticator) ClientCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.clients)
}

// Stops the listener, disposes every remote endpoint and cancels the
// authenticator's lifetime.
func (a *EndpointAuthenticator) Close() {
	a.cancel()

	if a.listener != nil {
		a.listener.Close()
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, r := range a.clients {
		r.Close()
	}
}

// The accept loop identifies every accepted socket and routes it to the
// matching remote endpoint, creating one for identities seen for the first
// time. The client table is mutated only on this task.
func (a *EndpointAuthenticator) acceptLoop() {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if a.ctx.Err() != nil {
				return
			}
			slog.Warn("accept failed", "err", err)
			continue
		}

		hwAddress, ok := a.identify(conn)
		if !ok {
			conn.Close()
			continue
		}

		key := string(hwAddress[:])

		a.mu.RLock()
		existing := a.clients[key]
		a.mu.RUnlock()

		if existing != nil {
			existing.Reconnect(conn)
			continue
		}

		// The identifier is the table size at insertion, truncated to eight
		// bits; the table never shrinks, so identifiers are unique until the
		// 257th identity, where they wrap around to zero.
		identifier := uint8(len(a.clients))

		endpoint := newRemoteEndpoint(hwAddress, identifier, a.handler)
		endpoint.InactivityCheckInterval = a.InactivityCheckInterval
		endpoint.ConnectionTimeout = a.ConnectionTimeout

		a.mu.Lock()
		a.clients[key] = endpoint
		a.mu.Unlock()

		// Listeners get to wire themselves onto the endpoint before its first
		// socket starts moving traffic.
		a.emitNewClientRegistered(endpoint)
		endpoint.Reconnect(conn)
	}
}

// Reads exactly one framed message off a freshly accepted socket and requires
// it to be an identification. The wait is capped by a fixed ceiling regardless
// of the configured connection timeout, and by the authenticator's lifetime.
func (a *EndpointAuthenticator) identify(conn net.Conn) ([6]byte, bool) {
	var hwAddress [6]byte

	stop := context.AfterFunc(a.ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(protocol.IDENTIFICATION_TIMEOUT))
	defer conn.SetReadDeadline(time.Time{})

	m, err := message.Read(conn)
	if err != nil {
		return hwAddress, false
	}

	ident, ok := m.(*message.Identification)
	if !ok {
		slog.Warn("socket opened without identification", "peer", conn.RemoteAddr())
		return hwAddress, false
	}

	hwAddress = ident.HardwareAddress
	return hwAddress, true
}

func (a *EndpointAuthenticator) emitNewClientRegistered(endpoint *RemoteEndpoint) {
	if a.ctx.Err() != nil {
		return
	}
	for _, fn := range a.registeredFns {
		fn(a, endpoint)
	}
}

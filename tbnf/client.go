package tbnf

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/gamevidea/tbnf/internal/protocol"
	"github.com/gamevidea/tbnf/message"
)

// ClientEndpoint is the connecting side of a logical connection. It dials the
// host, identifies itself with its device's hardware address and keeps
// reconnecting after every failure or drop until it is closed. The identity
// survives reconnects, so the host reattaches the client to its existing
// remote endpoint and the network identifier stays stable.
type ClientEndpoint struct {
	Endpoint

	addr     string
	identity ClientAddress
}

// Creates a client endpoint for the host at the given address. The identity is
// derived from the first non-loopback network interface combined with the
// discriminator. Configuration fields may be adjusted until Start is called.
func NewClientEndpoint(addr string, discriminator uint16, handler *Handler) (*ClientEndpoint, error) {
	identity, err := DeriveClientAddress(discriminator)
	if err != nil {
		return nil, err
	}

	c := &ClientEndpoint{
		addr:     addr,
		identity: identity,
	}
	c.init(handler, message.AuthorClient)
	c.hs = c

	c.OnConnectionFailure(func(*Endpoint) { c.scheduleReconnect() })
	c.OnDisconnection(func(*Endpoint) { c.scheduleReconnect() })

	return c, nil
}

// Returns the identity this client presents to the host.
func (c *ClientEndpoint) Identity() ClientAddress {
	return c.identity
}

// Starts the endpoint by scheduling the first connection attempt.
func (c *ClientEndpoint) Start() {
	go c.RequestConnection(c.ConnectionTimeout)
}

// Attempts one connection to the host, bounded by the given timeout and by the
// endpoint's lifetime. A successful dial continues into the common handshake
// path; a failure is reported through the connection failure event, which
// schedules the next attempt.
func (c *ClientEndpoint) RequestConnection(timeout time.Duration) {
	if c.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.emitConnectionFailure()
		return
	}

	c.handleNewConnection(conn, ctx)
}

// Identifies this client to the host and waits for the login confirmation that
// carries the assigned network identifier. Any other message, a malformed
// frame or the attempt deadline fails the handshake.
func (c *ClientEndpoint) handshake(conn net.Conn, ctx context.Context) bool {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	ident := &message.Identification{HardwareAddress: c.identity.HardwareAddress}
	if err := message.Write(conn, ident); err != nil {
		return false
	}

	m, err := message.Read(conn)
	if err != nil {
		return false
	}

	confirmation, ok := m.(*message.LoginConfirmation)
	if !ok {
		slog.Warn("host answered identification with an unexpected message", "identity", c.identity)
		return false
	}

	c.setNetworkIdentifier(confirmation.NetworkIdentifier)
	return true
}

// Schedules the next connection attempt. The chain keeps going for the life of
// the endpoint and a short pause keeps an unreachable host from being hammered.
func (c *ClientEndpoint) scheduleReconnect() {
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(protocol.RECONNECT_DELAY):
		}

		c.RequestConnection(c.ConnectionTimeout)
	}()
}

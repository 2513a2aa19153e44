package tbnf

import (
	"context"
	"net"
	"time"

	"github.com/gamevidea/tbnf/message"
)

// RemoteEndpoint is the host's side of one client's logical connection. It is
// created by the authenticator after the client has identified itself and is
// passive: it never dials, it waits for the authenticator to bring it a fresh
// socket when its identity reconnects.
type RemoteEndpoint struct {
	Endpoint

	hwAddress [6]byte
}

// Creates a remote endpoint for an identified client. The network identifier
// is fixed at creation and handed to the client in the login confirmation on
// every socket the endpoint ever holds.
func newRemoteEndpoint(hwAddress [6]byte, networkIdentifier uint8, handler *Handler) *RemoteEndpoint {
	r := &RemoteEndpoint{hwAddress: hwAddress}
	r.init(handler, message.AuthorHost)
	r.hs = r
	r.setNetworkIdentifier(networkIdentifier)

	return r
}

// Returns the hardware address that identifies this endpoint's client.
func (r *RemoteEndpoint) HardwareAddress() net.HardwareAddr {
	return net.HardwareAddr(r.hwAddress[:])
}

// Moves a freshly accepted socket into this endpoint. The handshake and socket
// replacement run under the endpoint's connection timeout; a previous socket,
// if any, is replaced and its loops cancelled.
func (r *RemoteEndpoint) Reconnect(conn net.Conn) {
	ctx, cancel := context.WithTimeout(r.ctx, r.ConnectionTimeout)
	defer cancel()

	r.handleNewConnection(conn, ctx)
}

// Confirms the login by sending the client its network identifier. The
// identification was already consumed by the authenticator, so this is the
// whole handshake on the host's side.
func (r *RemoteEndpoint) handshake(conn net.Conn, ctx context.Context) bool {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	id, _ := r.NetworkIdentifier()
	return message.Write(conn, &message.LoginConfirmation{NetworkIdentifier: id}) == nil
}

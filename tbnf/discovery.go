package tbnf

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gamevidea/binary/buffer"
	"github.com/gamevidea/binary/byteorder"
	"github.com/gamevidea/tbnf/internal/protocol"
	"github.com/gamevidea/tbnf/message"
)

// DiscoverableEndpoint describes a host to clients browsing the local network:
// a human-readable name, the identifier of the game or application it serves
// and arbitrary opaque bytes.
type DiscoverableEndpoint struct {
	Name           string
	GameIdentifier string
	AdditionalData []byte
}

// DiscoveredEndpoint is a descriptor received from an answering host together
// with the address and TCP listening port the host advertised.
type DiscoveredEndpoint struct {
	DiscoverableEndpoint

	IP   net.IP
	Port int
}

// Serializes the descriptor with the advertised address and TCP port into the
// payload of a single answer datagram.
func (d *DiscoveredEndpoint) pack() ([]byte, error) {
	buf := buffer.New(protocol.MAX_DATAGRAM_SIZE)

	if err := buf.WriteUint16(uint16(len(d.AdditionalData)), byteorder.LittleEndian); err != nil {
		return nil, err
	}

	if err := message.WriteString(buf, d.Name); err != nil {
		return nil, err
	}

	if err := message.WriteString(buf, d.GameIdentifier); err != nil {
		return nil, err
	}

	if err := buf.Write(d.AdditionalData); err != nil {
		return nil, err
	}

	if err := buf.WriteUint8(uint8(len(d.IP))); err != nil {
		return nil, err
	}

	if err := buf.Write(d.IP); err != nil {
		return nil, err
	}

	if err := buf.WriteUint32(uint32(d.Port), byteorder.LittleEndian); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Deserializes an answer datagram into the descriptor. Returns IDD_ERROR when
// the payload does not follow the descriptor layout.
func (d *DiscoveredEndpoint) unpack(payload []byte) error {
	buf := buffer.From(payload)

	dataLength, err := buf.ReadUint16(byteorder.LittleEndian)
	if err != nil {
		return IDD_ERROR
	}

	if d.Name, err = message.ReadString(buf); err != nil {
		return IDD_ERROR
	}

	if d.GameIdentifier, err = message.ReadString(buf); err != nil {
		return IDD_ERROR
	}

	if int(dataLength) > buf.Remaining() {
		return IDD_ERROR
	}

	d.AdditionalData = make([]byte, dataLength)
	if err = buf.Read(d.AdditionalData); err != nil {
		return IDD_ERROR
	}

	addressLength, err := buf.ReadUint8()
	if err != nil || int(addressLength) > buf.Remaining() {
		return IDD_ERROR
	}

	d.IP = make(net.IP, addressLength)
	if err = buf.Read(d.IP); err != nil {
		return IDD_ERROR
	}

	port, err := buf.ReadUint32(byteorder.LittleEndian)
	if err != nil {
		return IDD_ERROR
	}

	d.Port = int(port)
	return nil
}

// DiscoveryAnswerer makes a host discoverable. It binds the well known
// discovery port with address reuse, so several discoverable hosts can share
// one machine, and answers every query datagram that starts with the
// broadcast header with this host's descriptor.
type DiscoveryAnswerer struct {
	// Descriptor is what queriers receive. Read-only once Start is called.
	Descriptor DiscoverableEndpoint

	// AdvertiseAddress is the IP carried in answers. When nil, the first
	// non-loopback IPv4 address of this machine is advertised.
	AdvertiseAddress net.IP

	// DiscoveryPort overrides the well known discovery port, for tests.
	DiscoveryPort int

	tcpPort int

	ctx    context.Context
	cancel context.CancelFunc
	conn   net.PacketConn
}

// Creates an answerer advertising the given descriptor and TCP listening
// port.
func NewDiscoveryAnswerer(descriptor DiscoverableEndpoint, tcpPort int) *DiscoveryAnswerer {
	ctx, cancel := context.WithCancel(context.Background())

	return &DiscoveryAnswerer{
		Descriptor:    descriptor,
		DiscoveryPort: protocol.DISCOVERY_PORT,
		tcpPort:       tcpPort,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Binds the discovery port and launches the answer loop. Returns an error if
// the port could not be bound.
func (a *DiscoveryAnswerer) Start() error {
	lc := net.ListenConfig{Control: reuseAddrControl}

	conn, err := lc.ListenPacket(a.ctx, "udp4", fmt.Sprintf(":%d", a.DiscoveryPort))
	if err != nil {
		return err
	}

	a.conn = conn
	go a.answerLoop()

	return nil
}

// Stops answering and releases the discovery port.
func (a *DiscoveryAnswerer) Close() {
	a.cancel()
	if a.conn != nil {
		a.conn.Close()
	}
}

// The answer loop re-arms after every datagram. Query datagrams are matched on
// the broadcast header case-insensitively; everything else is ignored.
func (a *DiscoveryAnswerer) answerLoop() {
	payload := make([]byte, protocol.MAX_DATAGRAM_SIZE)

	for {
		n, sender, err := a.conn.ReadFrom(payload)
		if err != nil {
			if a.ctx.Err() != nil {
				return
			}
			slog.Warn("discovery read failed", "err", err)
			continue
		}

		if !matchesBroadcastHeader(payload[:n]) {
			continue
		}

		answer := DiscoveredEndpoint{
			DiscoverableEndpoint: a.Descriptor,
			IP:                   a.advertiseAddress(),
			Port:                 a.tcpPort,
		}

		raw, err := answer.pack()
		if err != nil {
			slog.Warn("discovery descriptor does not fit a datagram", "err", err)
			continue
		}

		if _, err := a.conn.WriteTo(raw, sender); err != nil {
			slog.Warn("discovery answer failed", "to", sender, "err", err)
		}
	}
}

// Resolves the IP to advertise in answers.
func (a *DiscoveryAnswerer) advertiseAddress() net.IP {
	if a.AdvertiseAddress != nil {
		return a.AdvertiseAddress
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return net.IPv4zero.To4()
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip
		}
	}

	return net.IPv4zero.To4()
}

// Reports whether a query payload starts with the broadcast header,
// case-insensitively.
func matchesBroadcastHeader(payload []byte) bool {
	header := protocol.BROADCAST_HEADER
	if len(payload) < len(header) {
		return false
	}
	return strings.EqualFold(string(payload[:len(header)]), header)
}

// Discoverer locates discoverable hosts on the local network by broadcasting a
// query datagram and collecting answers for a fixed window.
type Discoverer struct {
	// DiscoveryPort overrides the well known discovery port, for tests.
	DiscoveryPort int

	// QueryAddress overrides the address the query is sent to. Defaults to the
	// limited broadcast address.
	QueryAddress net.IP

	// Timeout is the answer collection window.
	Timeout time.Duration
}

// Creates a discoverer with the well known port and a one second collection
// window.
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		DiscoveryPort: protocol.DISCOVERY_PORT,
		QueryAddress:  net.IPv4bcast,
		Timeout:       protocol.DISCOVERY_COLLECT_TIMEOUT,
	}
}

// Broadcasts one query and returns every well formed answer received within
// the collection window, filtered by game identifier. An empty filter accepts
// all answers.
func (d *Discoverer) Discover(gameIdentifier string) ([]DiscoveredEndpoint, error) {
	lc := net.ListenConfig{Control: broadcastControl}

	conn, err := lc.ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	target := &net.UDPAddr{IP: d.QueryAddress, Port: d.DiscoveryPort}
	if _, err := conn.WriteTo([]byte(protocol.BROADCAST_HEADER), target); err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(d.Timeout))

	var found []DiscoveredEndpoint
	payload := make([]byte, protocol.MAX_DATAGRAM_SIZE)

	for {
		n, _, err := conn.ReadFrom(payload)
		if err != nil {
			if os.IsTimeout(err) {
				return found, nil
			}
			return found, err
		}

		var answer DiscoveredEndpoint
		if err := answer.unpack(payload[:n]); err != nil {
			continue
		}

		if gameIdentifier != "" && answer.GameIdentifier != gameIdentifier {
			continue
		}

		found = append(found, answer)
	}
}

// Broadcasts one query with the default discoverer settings.
func Discover(gameIdentifier string) ([]DiscoveredEndpoint, error) {
	return NewDiscoverer().Discover(gameIdentifier)
}

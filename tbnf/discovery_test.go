package tbnf

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.Nil(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()
	return port
}

// loopbackDiscoverer targets the answerer directly so the exchange stays on
// the loopback interface.
func loopbackDiscoverer(port int) *Discoverer {
	d := NewDiscoverer()
	d.DiscoveryPort = port
	d.QueryAddress = net.IPv4(127, 0, 0, 1)
	d.Timeout = 300 * time.Millisecond
	return d
}

func TestDiscoveryAnswersMatchingQuery(t *testing.T) {
	require := require.New(t)

	port := freeUDPPort(t)

	answerer := NewDiscoveryAnswerer(DiscoverableEndpoint{
		Name:           "n",
		GameIdentifier: "g",
		AdditionalData: []byte{1, 2, 3},
	}, 42000)
	answerer.DiscoveryPort = port
	answerer.AdvertiseAddress = net.IPv4(127, 0, 0, 1).To4()
	require.Nil(answerer.Start())
	t.Cleanup(answerer.Close)

	found, err := loopbackDiscoverer(port).Discover("g")
	require.Nil(err)
	require.Len(found, 1)

	require.Equal("n", found[0].Name)
	require.Equal("g", found[0].GameIdentifier)
	require.Equal([]byte{1, 2, 3}, found[0].AdditionalData)
	require.True(found[0].IP.Equal(net.IPv4(127, 0, 0, 1)))
	require.Equal(42000, found[0].Port)
}

func TestDiscoveryFiltersByGameIdentifier(t *testing.T) {
	require := require.New(t)

	port := freeUDPPort(t)

	answerer := NewDiscoveryAnswerer(DiscoverableEndpoint{Name: "n", GameIdentifier: "g"}, 42000)
	answerer.DiscoveryPort = port
	answerer.AdvertiseAddress = net.IPv4(127, 0, 0, 1).To4()
	require.Nil(answerer.Start())
	t.Cleanup(answerer.Close)

	found, err := loopbackDiscoverer(port).Discover("other")
	require.Nil(err)
	require.Empty(found)

	// An empty filter accepts every answer.
	found, err = loopbackDiscoverer(port).Discover("")
	require.Nil(err)
	require.Len(found, 1)
}

func TestDiscoveryIgnoresForeignDatagrams(t *testing.T) {
	require := require.New(t)

	port := freeUDPPort(t)

	answerer := NewDiscoveryAnswerer(DiscoverableEndpoint{Name: "n", GameIdentifier: "g"}, 42000)
	answerer.DiscoveryPort = port
	answerer.AdvertiseAddress = net.IPv4(127, 0, 0, 1).To4()
	require.Nil(answerer.Start())
	t.Cleanup(answerer.Close)

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.Nil(err)
	defer conn.Close()

	target := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	_, err = conn.WriteTo([]byte("not a discovery query"), target)
	require.Nil(err)

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	buf := make([]byte, 64)
	_, _, err = conn.ReadFrom(buf)
	require.NotNil(err)
}

func TestDiscoveryHeaderMatchIsCaseInsensitive(t *testing.T) {
	require := require.New(t)

	require.True(matchesBroadcastHeader([]byte("TBNF-DISCOVER")))
	require.True(matchesBroadcastHeader([]byte("tbnf-discover")))
	require.True(matchesBroadcastHeader([]byte("Tbnf-Discover with a trailer")))
	require.False(matchesBroadcastHeader([]byte("TBNF")))
	require.False(matchesBroadcastHeader(nil))
}

func TestDescriptorRoundTrip(t *testing.T) {
	require := require.New(t)

	original := DiscoveredEndpoint{
		DiscoverableEndpoint: DiscoverableEndpoint{
			Name:           "session of héroes",
			GameIdentifier: "game-1",
			AdditionalData: []byte{0xca, 0xfe},
		},
		IP:   net.IPv4(192, 168, 1, 44).To4(),
		Port: 44815,
	}

	raw, err := original.pack()
	require.Nil(err)

	var decoded DiscoveredEndpoint
	require.Nil(decoded.unpack(raw))
	require.Equal(original, decoded)
}

func TestDescriptorRejectsMalformedPayload(t *testing.T) {
	require := require.New(t)

	var d DiscoveredEndpoint
	require.ErrorIs(d.unpack(nil), IDD_ERROR)
	require.ErrorIs(d.unpack([]byte{0x05, 0x00, 0x01, 'a'}), IDD_ERROR)
}

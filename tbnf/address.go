package tbnf

import (
	"fmt"
	"net"
)

// ClientAddress is the identity of a logical client: the hardware address of
// its device plus an additional discriminator that tells apart multiple
// logical clients on the same device. Hosts key their client table by the
// hardware address alone; the discriminator exists for diagnostics.
type ClientAddress struct {
	HardwareAddress [6]byte
	Discriminator   uint16
}

// Returns the identity formatted as the hardware address followed by the
// discriminator.
func (a ClientAddress) String() string {
	return fmt.Sprintf("%s/%d", net.HardwareAddr(a.HardwareAddress[:]), a.Discriminator)
}

// Derives a client address from the first non-loopback network interface that
// reports a hardware address, combined with the given discriminator. Longer
// platform addresses are truncated to six bytes.
func DeriveClientAddress(discriminator uint16) (ClientAddress, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ClientAddress{}, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}

		addr := ClientAddress{Discriminator: discriminator}
		copy(addr.HardwareAddress[:], iface.HardwareAddr)
		return addr, nil
	}

	return ClientAddress{}, NHW_ERROR
}

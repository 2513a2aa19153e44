package protocol

import "time"

// This is the maximum size of a packaged frame in bytes. It counts the type tag
// and the payload but not the length prefix that precedes the frame on the wire.
const MAX_FRAME_SIZE int = 65535

// This is the size taken by the length prefix that precedes every frame on the wire.
const FRAME_LENGTH_SIZE int = 2

// This is the size taken by a message type tag at the start of a packaged frame.
const TYPE_TAG_SIZE int = 2

// This is the capacity of the scratch buffer a frame is packed into. One byte of
// headroom past the frame cap lets the size check reject an oversize frame instead
// of a buffer overflow inside the payload serializer.
const PACK_BUFFER_SIZE int = MAX_FRAME_SIZE + 1

// This is the maximum size of a single UDP datagram used by the discovery exchange.
const MAX_DATAGRAM_SIZE int = 65507

// This is the number of hardware address bytes transmitted in an identification
// message. Platforms that report longer addresses have them truncated to this.
const HARDWARE_ADDRESS_SIZE int = 6

// This is the well known UDP port that discoverable hosts answer discovery
// queries on.
const DISCOVERY_PORT int = 44816

// This is the header string whose UTF-8 bytes form a discovery query datagram.
// Answerers match it case-insensitively.
const BROADCAST_HEADER string = "TBNF-DISCOVER"

// This is the ceiling on how long the host waits for an identification message
// on a freshly accepted socket before discarding it. It is intentionally fixed
// and independent of the configurable connection timeout.
const IDENTIFICATION_TIMEOUT time.Duration = 20 * time.Second

// This is how long a client endpoint waits after a failed or dropped connection
// before scheduling the next connection attempt.
const RECONNECT_DELAY time.Duration = 250 * time.Millisecond

// This is the idle period after which an endpoint injects an inactivity probe,
// unless configured otherwise.
const DEFAULT_INACTIVITY_CHECK_INTERVAL time.Duration = 5 * time.Second

// This is the upper bound on a single connection attempt, unless configured
// otherwise.
const DEFAULT_CONNECTION_TIMEOUT time.Duration = 10 * time.Second

// This is how long a discoverer collects answer datagrams before returning.
const DISCOVERY_COLLECT_TIMEOUT time.Duration = 1 * time.Second

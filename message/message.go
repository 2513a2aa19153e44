package message

import "github.com/gamevidea/binary/buffer"

// ID represents a message type tag. It is a unique identifier for each
// registered message variant within a process and must match on both peers,
// which is guaranteed by the deterministic registration order.
type ID = uint16

// IDUnknown is reserved and never assigned to a registered variant.
const IDUnknown ID = 0

// Author describes which side of a connection is permitted to send a message
// variant. It exists to catch misuse during development and is never
// transmitted on the wire.
type Author = uint8

const (
	AuthorClient Author = iota
	AuthorHost
	AuthorClientOrHost
)

// Message represents an application message that can be packaged into a frame.
// A variant declares a canonical name used for tag assignment, a permitted
// author and its payload codec over a binary buffer.
type Message interface {
	Name() string
	Author() Author
	Read(buf *buffer.Buffer) (err error)
	Write(buf *buffer.Buffer) (err error)
}

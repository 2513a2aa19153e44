package message

import "github.com/gamevidea/binary/buffer"

// Identification is the first message a client sends after a socket connects.
// It carries the hardware address of the client's device, which the host uses
// to key its client table and to reattach a reconnecting client to its
// existing endpoint. Exactly six address bytes travel on the wire even on
// platforms that report longer addresses.
type Identification struct {
	HardwareAddress [6]byte
}

// Returns the canonical name of the identification variant.
func (pk *Identification) Name() string {
	return "tbnf.Identification"
}

// Returns the side permitted to send an identification message.
func (pk *Identification) Author() Author {
	return AuthorClient
}

// Reads an identification message from the buffer and returns an error if the
// operation failed.
func (pk *Identification) Read(buf *buffer.Buffer) (err error) {
	return buf.Read(pk.HardwareAddress[:])
}

// Writes an identification message to the buffer and returns an error if the
// operation failed.
func (pk *Identification) Write(buf *buffer.Buffer) (err error) {
	return buf.Write(pk.HardwareAddress[:])
}

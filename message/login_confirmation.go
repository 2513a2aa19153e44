package message

import "github.com/gamevidea/binary/buffer"

// LoginConfirmation is sent by the host in response to an identification
// message. It carries the network identifier the host assigned to the client's
// identity at first registration, which stays stable across reconnects.
type LoginConfirmation struct {
	NetworkIdentifier uint8
}

// Returns the canonical name of the login confirmation variant.
func (pk *LoginConfirmation) Name() string {
	return "tbnf.LoginConfirmation"
}

// Returns the side permitted to send a login confirmation message.
func (pk *LoginConfirmation) Author() Author {
	return AuthorHost
}

// Reads a login confirmation message from the buffer and returns an error if
// the operation failed.
func (pk *LoginConfirmation) Read(buf *buffer.Buffer) (err error) {
	pk.NetworkIdentifier, err = buf.ReadUint8()
	return
}

// Writes a login confirmation message to the buffer and returns an error if
// the operation failed.
func (pk *LoginConfirmation) Write(buf *buffer.Buffer) (err error) {
	return buf.WriteUint8(pk.NetworkIdentifier)
}

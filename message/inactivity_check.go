package message

import "github.com/gamevidea/binary/buffer"

// InactivityCheck is a zero-payload probe injected by an endpoint's send loop
// when the connection has been idle for longer than the configured inactivity
// check interval. Forcing traffic on an idle socket is what surfaces a dead
// peer.
type InactivityCheck struct{}

// Returns the canonical name of the inactivity check variant.
func (pk *InactivityCheck) Name() string {
	return "tbnf.InactivityCheck"
}

// Returns the side permitted to send an inactivity check message.
func (pk *InactivityCheck) Author() Author {
	return AuthorClientOrHost
}

// Reads an inactivity check message from the buffer. The variant has no
// payload, so there is nothing to read.
func (pk *InactivityCheck) Read(buf *buffer.Buffer) (err error) {
	return nil
}

// Writes an inactivity check message to the buffer. The variant has no
// payload, so there is nothing to write.
func (pk *InactivityCheck) Write(buf *buffer.Buffer) (err error) {
	return nil
}

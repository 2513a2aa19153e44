package message

import "github.com/gamevidea/binary/buffer"

// Text is a ready-made message carrying a single length-prefixed UTF-8 string.
// It is not registered by default; applications that use it must register it
// on both peers.
type Text struct {
	Value string
}

// Returns the canonical name of the text variant.
func (pk *Text) Name() string {
	return "tbnf.Text"
}

// Returns the side permitted to send a text message.
func (pk *Text) Author() Author {
	return AuthorClientOrHost
}

// Reads a text message from the buffer and returns an error if the operation
// failed.
func (pk *Text) Read(buf *buffer.Buffer) (err error) {
	pk.Value, err = ReadString(buf)
	return
}

// Writes a text message to the buffer and returns an error if the operation
// failed.
func (pk *Text) Write(buf *buffer.Buffer) (err error) {
	return WriteString(buf, pk.Value)
}

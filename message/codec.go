package message

import (
	"io"
	"sync"

	"github.com/gamevidea/binary/buffer"
	"github.com/gamevidea/binary/byteorder"
	"github.com/gamevidea/tbnf/internal/protocol"
)

// packPool shares serialization buffers across sends so that packaging a
// message does not allocate a fresh frame-sized buffer every time.
var packPool = sync.Pool{
	New: func() any {
		return buffer.New(protocol.PACK_BUFFER_SIZE)
	},
}

// Packages a message into a frame laid out as the variant's type tag in two
// little-endian bytes followed by the serialized payload. Returns an error if
// the variant is unregistered or the payload could not be serialized.
func Pack(m Message) ([]byte, error) {
	tag := Tag(m)
	if tag == IDUnknown {
		return nil, UNR_ERROR
	}

	buf := packPool.Get().(*buffer.Buffer)
	defer func() {
		buf.Reset()
		packPool.Put(buf)
	}()

	if err := buf.WriteUint16(tag, byteorder.LittleEndian); err != nil {
		return nil, err
	}

	if err := m.Write(buf); err != nil {
		return nil, err
	}

	frame := make([]byte, len(buf.Bytes()))
	copy(frame, buf.Bytes())
	return frame, nil
}

// Unpacks a frame into the given message. The frame's type tag must match the
// tag of the target's variant; TMM_ERROR is returned otherwise.
func Unpack(frame []byte, m Message) error {
	buf := buffer.From(frame)

	tag, err := buf.ReadUint16(byteorder.LittleEndian)
	if err != nil {
		return err
	}

	if tag != Tag(m) {
		return TMM_ERROR
	}

	return m.Read(buf)
}

// Builds a message from a packaged frame by resolving the variant registered
// under the frame's type tag and unpacking the payload into a fresh instance.
// Returns nil if the tag is unknown or the payload is malformed.
func BuildMessage(frame []byte) Message {
	if len(frame) < protocol.TYPE_TAG_SIZE {
		return nil
	}

	buf := buffer.From(frame)

	tag, err := buf.ReadUint16(byteorder.LittleEndian)
	if err != nil {
		return nil
	}

	ctor := ByTag(tag)
	if ctor == nil {
		return nil
	}

	m := ctor()
	if err := m.Read(buf); err != nil {
		return nil
	}

	return m
}

// Packages a message and writes it to the stream preceded by its size in two
// little-endian bytes. Returns an error if the frame exceeds the maximum frame
// size or the write failed; nothing is written in either case beyond what the
// stream itself accepted.
func Write(w io.Writer, m Message) error {
	frame, err := Pack(m)
	if err != nil {
		return err
	}

	if len(frame) > protocol.MAX_FRAME_SIZE {
		return FTL_ERROR
	}

	head := buffer.New(protocol.FRAME_LENGTH_SIZE)
	if err := head.WriteUint16(uint16(len(frame)), byteorder.LittleEndian); err != nil {
		return err
	}

	if _, err := w.Write(head.Bytes()); err != nil {
		return err
	}

	if _, err := w.Write(frame); err != nil {
		return err
	}

	return nil
}

// Packages a message and writes it to the stream. Reports success as a boolean;
// a cancellation or any I/O failure yields false with no partial success.
func WriteMessage(w io.Writer, m Message) bool {
	return Write(w, m) == nil
}

// Reads one length-prefixed frame from the stream and builds its message. The
// returned message is nil without an error when the frame carried an unknown
// type tag; an error is returned when the stream was closed or ended before a
// whole frame arrived.
func Read(r io.Reader) (Message, error) {
	head := make([]byte, protocol.FRAME_LENGTH_SIZE)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}

	size, err := buffer.From(head).ReadUint16(byteorder.LittleEndian)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}

	return BuildMessage(frame), nil
}

// Reads one frame from the stream and builds its message. Returns nil on EOF,
// cancellation, a partial read or an unknown type tag.
func ReadMessage(r io.Reader) Message {
	m, err := Read(r)
	if err != nil {
		return nil
	}
	return m
}

package message

import "github.com/gamevidea/binary/buffer"

// Strings are encoded as their UTF-8 byte length in 7-bit groups, low group
// first with the high bit marking continuation, followed by the raw UTF-8
// bytes. This matches the length-prefix convention of the framework's original
// deployments and is required for interoperability with them.

// Writes a length-prefixed UTF-8 string to the buffer and returns an error if
// the operation failed.
func WriteString(buf *buffer.Buffer, s string) (err error) {
	v := uint32(len(s))

	for {
		group := uint8(v & 0x7f)
		v >>= 7

		if v != 0 {
			group |= 0x80
		}

		if err = buf.WriteUint8(group); err != nil {
			return
		}

		if v == 0 {
			break
		}
	}

	return buf.Write([]byte(s))
}

// Reads a length-prefixed UTF-8 string from the buffer and returns an error if
// the operation failed.
func ReadString(buf *buffer.Buffer) (s string, err error) {
	var length uint32
	var shift uint

	for {
		var group uint8
		if group, err = buf.ReadUint8(); err != nil {
			return
		}

		length |= uint32(group&0x7f) << shift
		if group&0x80 == 0 {
			break
		}

		if shift += 7; shift > 28 {
			return "", SLN_ERROR
		}
	}

	if int(length) > buf.Remaining() {
		return "", SLN_ERROR
	}

	raw := make([]byte, length)
	if err = buf.Read(raw); err != nil {
		return
	}

	return string(raw), nil
}

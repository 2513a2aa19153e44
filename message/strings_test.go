package message

import (
	"strings"
	"testing"

	"github.com/gamevidea/binary/buffer"
	"github.com/stretchr/testify/require"
)

func TestStringEncoding(t *testing.T) {
	require := require.New(t)

	buf := buffer.New(16)
	require.Nil(WriteString(buf, "hi"))
	require.Equal([]byte{0x02, 'h', 'i'}, buf.Bytes())

	s, err := ReadString(buffer.From(buf.Bytes()))
	require.Nil(err)
	require.Equal("hi", s)
}

func TestStringLengthPrefixUsesSevenBitGroups(t *testing.T) {
	require := require.New(t)

	// 300 = 0b10_0101100: low group 0x2c with the continuation bit, then 0x02.
	buf := buffer.New(512)
	require.Nil(WriteString(buf, strings.Repeat("x", 300)))

	raw := buf.Bytes()
	require.Equal(byte(0xac), raw[0])
	require.Equal(byte(0x02), raw[1])
	require.Len(raw, 302)

	s, err := ReadString(buffer.From(raw))
	require.Nil(err)
	require.Len(s, 300)
}

func TestStringEmpty(t *testing.T) {
	require := require.New(t)

	buf := buffer.New(4)
	require.Nil(WriteString(buf, ""))
	require.Equal([]byte{0x00}, buf.Bytes())

	s, err := ReadString(buffer.From(buf.Bytes()))
	require.Nil(err)
	require.Equal("", s)
}

func TestStringUTF8(t *testing.T) {
	require := require.New(t)

	buf := buffer.New(64)
	require.Nil(WriteString(buf, "héllo wörld ✓"))

	s, err := ReadString(buffer.From(buf.Bytes()))
	require.Nil(err)
	require.Equal("héllo wörld ✓", s)
}

func TestStringTruncatedPayload(t *testing.T) {
	require := require.New(t)

	// A declared length of five with only two bytes behind it.
	_, err := ReadString(buffer.From([]byte{0x05, 'a', 'b'}))
	require.ErrorIs(err, SLN_ERROR)
}

func TestStringUnterminatedLength(t *testing.T) {
	require := require.New(t)

	_, err := ReadString(buffer.From([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80}))
	require.ErrorIs(err, SLN_ERROR)
}

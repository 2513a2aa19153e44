package tbnf

import (
	"testing"

	"github.com/gamevidea/tbnf/message"
	"github.com/stretchr/testify/require"
)

func registerText(t *testing.T) {
	t.Helper()
	require.Nil(t, message.Register(func() message.Message { return &message.Text{} }))
}

func TestHandlerRoutesByVariant(t *testing.T) {
	require := require.New(t)
	registerText(t)

	var got string
	h := NewHandler()
	require.Nil(h.Bind(&message.Text{}, func(e *Endpoint, m message.Message) {
		got = m.(*message.Text).Value
	}))

	h.Handle(nil, &message.Text{Value: "routed"})
	require.Equal("routed", got)
}

func TestHandlerDuplicateBinding(t *testing.T) {
	require := require.New(t)
	registerText(t)

	h := NewHandler()
	require.Nil(h.Bind(&message.Text{}, func(e *Endpoint, m message.Message) {}))
	require.ErrorIs(h.Bind(&message.Text{}, func(e *Endpoint, m message.Message) {}), DPH_ERROR)
}

func TestHandlerIgnoreOverlapsBinding(t *testing.T) {
	require := require.New(t)
	registerText(t)

	h := NewHandler()
	require.Nil(h.Ignore(&message.Text{}))
	require.ErrorIs(h.Bind(&message.Text{}, func(e *Endpoint, m message.Message) {}), DPH_ERROR)

	h = NewHandler()
	require.Nil(h.Bind(&message.Text{}, func(e *Endpoint, m message.Message) {}))
	require.ErrorIs(h.Ignore(&message.Text{}), DPH_ERROR)
}

// unregistered is a variant whose name the registry never sees.
type unregistered struct {
	message.Text
}

func (pk *unregistered) Name() string { return "test.Unregistered" }

func TestHandlerUnregisteredVariant(t *testing.T) {
	require := require.New(t)

	h := NewHandler()
	require.ErrorIs(h.Bind(&unregistered{}, func(e *Endpoint, m message.Message) {}), UHV_ERROR)
}

func TestHandlerDefaultFallback(t *testing.T) {
	require := require.New(t)
	registerText(t)

	var fallback message.Message
	h := NewHandler()
	h.Default = func(e *Endpoint, m message.Message) { fallback = m }

	h.Handle(nil, &message.InactivityCheck{})
	require.IsType(&message.InactivityCheck{}, fallback)

	// A nil message is a cancelled read and never reaches any routine.
	fallback = nil
	h.Handle(nil, nil)
	require.Nil(fallback)

	// An ignored variant no longer falls through.
	require.Nil(h.Ignore(&message.InactivityCheck{}))
	h.Handle(nil, &message.InactivityCheck{})
	require.Nil(fallback)
}

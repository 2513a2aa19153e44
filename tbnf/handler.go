package tbnf

import (
	"log/slog"

	"github.com/gamevidea/tbnf/message"
)

// HandlerFunc is a routine invoked with the endpoint a message arrived on and
// the decoded message. Handlers for a single endpoint run serially; handlers
// of different endpoints may run concurrently, so shared state must be
// guarded by the handler itself.
type HandlerFunc func(e *Endpoint, m message.Message)

// Handler routes decoded messages to per-variant routines keyed by type tag.
// Variants without a binding fall through to the default routine. A handler is
// assembled once, before any endpoint uses it, and is read-only afterwards.
type Handler struct {
	bindings map[message.ID]HandlerFunc

	// Default is invoked for every message whose variant has no binding. The
	// stock routine logs a diagnostic.
	Default HandlerFunc
}

// Creates and returns a new handler with no bindings.
func NewHandler() *Handler {
	return &Handler{
		bindings: map[message.ID]HandlerFunc{},
		Default: func(e *Endpoint, m message.Message) {
			slog.Warn("no handler bound for message", "variant", m.Name())
		},
	}
}

// Binds a routine to the variant of the given prototype. The variant must be
// registered, and a tag can hold only one binding; DPH_ERROR is returned on
// any double binding.
func (h *Handler) Bind(prototype message.Message, fn HandlerFunc) error {
	tag := message.Tag(prototype)
	if tag == message.IDUnknown {
		return UHV_ERROR
	}

	if _, ok := h.bindings[tag]; ok {
		return DPH_ERROR
	}

	h.bindings[tag] = fn
	return nil
}

// Binds the variants of the given prototypes to a no-op sink. Overlapping an
// ignored variant with any other binding returns DPH_ERROR.
func (h *Handler) Ignore(prototypes ...message.Message) error {
	for _, prototype := range prototypes {
		if err := h.Bind(prototype, func(e *Endpoint, m message.Message) {}); err != nil {
			return err
		}
	}
	return nil
}

// Routes a message to its binding, or to the default routine when its variant
// has none. A nil message is treated as a cancelled read and dropped.
func (h *Handler) Handle(e *Endpoint, m message.Message) {
	if m == nil {
		return
	}

	if fn, ok := h.bindings[message.Tag(m)]; ok {
		fn(e, m)
		return
	}

	h.Default(e, m)
}

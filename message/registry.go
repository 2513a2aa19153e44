package message

import (
	"sort"
	"sync"
)

// Registry assigns a stable type tag to every message variant and resolves
// variants back from their tags. Tags start at 1 and grow by one per newly
// registered variant; the input set of each Register call is iterated in
// lexicographic order of the canonical variant names so that two peers making
// the same Register calls agree on every tag, whatever the order of the
// variants within a call. Splitting a set across several calls changes the
// tags. A registry is append-only: once assigned, a tag is never
// reassigned or removed.
type Registry struct {
	mu    sync.RWMutex
	tags  map[string]ID
	ctors map[ID]func() Message
	next  ID
}

// Creates and returns a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tags:  map[string]ID{},
		ctors: map[ID]func() Message{},
		next:  1,
	}
}

// Registers the message variants produced by the given constructors. Variants
// already present keep their tag, so repeated registration of the same set is
// idempotent. Registration is serialized and safe for concurrent readers.
func (r *Registry) Register(ctors ...func() Message) error {
	type variant struct {
		name string
		ctor func() Message
	}

	variants := make([]variant, 0, len(ctors))
	for _, ctor := range ctors {
		variants = append(variants, variant{name: ctor().Name(), ctor: ctor})
	}

	sort.Slice(variants, func(i, j int) bool {
		return variants[i].name < variants[j].name
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range variants {
		if _, ok := r.tags[v.name]; ok {
			continue
		}

		tag := r.next
		if _, ok := r.ctors[tag]; ok {
			return DPT_ERROR
		}

		r.tags[v.name] = tag
		r.ctors[tag] = v.ctor
		r.next++
	}

	return nil
}

// Returns the tag assigned to the variant with the given canonical name, or
// IDUnknown if the variant has not been registered.
func (r *Registry) TagOf(name string) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tags[name]
}

// Returns the constructor of the variant assigned the given tag, or nil if no
// variant is registered under it.
func (r *Registry) ByTag(tag ID) func() Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctors[tag]
}

// The process-wide registry. The built-in system messages occupy its lowest
// tags; application variants must be registered identically on both peers
// before any endpoint is started.
var registry = NewRegistry()

func init() {
	registry.Register(
		func() Message { return &Identification{} },
		func() Message { return &InactivityCheck{} },
		func() Message { return &LoginConfirmation{} },
	)
}

// Registers message variants in the process-wide registry.
func Register(ctors ...func() Message) error {
	return registry.Register(ctors...)
}

// Returns the tag assigned to the given message's variant in the process-wide
// registry, or IDUnknown if the variant has not been registered.
func Tag(m Message) ID {
	return registry.TagOf(m.Name())
}

// Returns the tag assigned to the variant with the given canonical name in the
// process-wide registry.
func TagOf(name string) ID {
	return registry.TagOf(name)
}

// Returns the constructor of the variant assigned the given tag in the
// process-wide registry.
func ByTag(tag ID) func() Message {
	return registry.ByTag(tag)
}

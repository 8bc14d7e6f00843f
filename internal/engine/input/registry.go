package input

// Handler receives dispatched events.
type Handler func(Event)

type listener struct {
	fn      Handler
	removed bool
}

// Registry is the document-level listener list. It is not safe for
// concurrent use; listeners are added, removed and dispatched on the event
// thread.
type Registry struct {
	listeners map[EventType][]*listener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[EventType][]*listener)}
}

// Add registers fn for events of type t and returns a function that
// removes it. Calling the remove function more than once is harmless.
func (r *Registry) Add(t EventType, fn Handler) (remove func()) {
	l := &listener{fn: fn}
	r.listeners[t] = append(r.listeners[t], l)
	return func() {
		if l.removed {
			return
		}
		l.removed = true
		list := r.listeners[t]
		for i, other := range list {
			if other == l {
				r.listeners[t] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Dispatch calls every listener registered for ev.Type in registration
// order and returns how many ran. Listeners removed during dispatch are
// not called.
func (r *Registry) Dispatch(ev Event) int {
	list := r.listeners[ev.Type]
	if len(list) == 0 {
		return 0
	}
	snapshot := make([]*listener, len(list))
	copy(snapshot, list)

	n := 0
	for _, l := range snapshot {
		if l.removed {
			continue
		}
		l.fn(ev)
		n++
	}
	return n
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	n := 0
	for _, list := range r.listeners {
		n += len(list)
	}
	return n
}

package state

import "time"

// EventKind identifies a broadcast event.
type EventKind int

const (
	// EventTasksCleared fires once each time ClearAllTasks empties the list.
	EventTasksCleared EventKind = iota + 1
)

func (k EventKind) String() string {
	switch k {
	case EventTasksCleared:
		return "tasks_cleared"
	default:
		return "unknown"
	}
}

// Event is delivered to every subscriber registered at publish time.
type Event struct {
	Kind EventKind
	At   time.Time
}

const subscriberBuffer = 8

// Subscribe registers an observer. The returned cancel func unregisters it and
// closes the channel; calling it more than once is safe.
func (c *Container) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Container) publish(ev Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.log.Warn("subscriber not keeping up, event dropped", "subscriber", id, "event", ev.Kind)
		}
	}
}

// Close unregisters every subscriber and closes their channels.
func (c *Container) Close() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.closed = true
}

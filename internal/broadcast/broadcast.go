// Package broadcast fans lobby-level notifications out to server-sent
// event subscribers, such as the open room listing.
package broadcast

import "sync"

type Message struct {
	Event string
	Data  string
}

type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan Message]bool
	last    map[string]Message
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan Message]bool),
		last:    make(map[string]Message),
	}
}

// Subscribe returns a channel primed with the latest message of every
// event seen so far, so a new subscriber starts from the current listing.
func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, 10)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, msg := range b.last {
		select {
		case ch <- msg:
		default:
		}
	}
	b.clients[ch] = true
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; !ok {
		return
	}
	delete(b.clients, ch)
	close(ch)
}

func (b *Broadcaster) Publish(event, data string) {
	msg := Message{Event: event, Data: data}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[event] = msg
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
			// skip subscribers with full channels
		}
	}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

package live

import (
	"sync"

	"dstech-dashboard/internal/observability/metrics"
)

const clientBuffer = 16

// Broker fans out live payloads to connected clients and replays the latest
// payload to new subscribers.
type Broker struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	last    []byte
}

// NewBroker constructs a broker.
func NewBroker() *Broker {
	return &Broker{clients: make(map[chan []byte]struct{})}
}

// Subscribe registers a new client channel.
func (b *Broker) Subscribe() chan []byte {
	if b == nil {
		return nil
	}
	ch := make(chan []byte, clientBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	if b.last != nil {
		ch <- b.last
	}
	count := len(b.clients)
	b.mu.Unlock()
	metrics.SetLiveSubscribers(count)
	return ch
}

// Unsubscribe removes a client channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b == nil || ch == nil {
		return
	}
	b.mu.Lock()
	if _, ok := b.clients[ch]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.clients, ch)
	close(ch)
	count := len(b.clients)
	b.mu.Unlock()
	metrics.SetLiveSubscribers(count)
}

// Subscribers reports the number of connected clients.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Publish delivers payload to every client; slow clients miss it. Sends
// happen under the lock so Unsubscribe cannot close a channel mid-send.
func (b *Broker) Publish(payload []byte) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = payload
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

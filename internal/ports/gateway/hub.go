package gateway

import (
	"sync"

	"flappy/internal/ledger"
)

// Broadcaster fans game events out to websocket clients subscribed to an
// account address.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[ledger.Address]map[chan Response]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[ledger.Address]map[chan Response]struct{}),
	}
}

// Subscribe adds a client channel to an account's fan-out set.
func (b *Broadcaster) Subscribe(addr ledger.Address, ch chan Response) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subscribers[addr]
	if !ok {
		set = make(map[chan Response]struct{})
		b.subscribers[addr] = set
	}
	set[ch] = struct{}{}
}

// Unsubscribe removes a client channel from an account's fan-out set.
func (b *Broadcaster) Unsubscribe(addr ledger.Address, ch chan Response) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subscribers[addr]
	if !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(b.subscribers, addr)
	}
}

// Publish delivers a frame to every subscriber of the address. Slow clients
// are skipped rather than blocking the publisher.
func (b *Broadcaster) Publish(addr ledger.Address, resp Response) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers[addr] {
		select {
		case ch <- resp:
		default:
		}
	}
}

// SubscriberCount reports the fan-out size for an address.
func (b *Broadcaster) SubscriberCount(addr ledger.Address) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[addr])
}

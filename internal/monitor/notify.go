package monitor

import "sync"

// Notifier fans a payload-free "changed" signal out to subscribers. Each
// subscriber has a one-slot buffer, so a slow reader sees one pending wake-up
// rather than a backlog and never stalls the tick loop.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: map[int]chan struct{}{}}
}

// Subscribe returns a wake-up channel and a function that cancels the
// subscription and closes the channel.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(ch)
		})
	}
}

// Notify wakes every subscriber without blocking.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

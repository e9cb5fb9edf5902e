package store

import (
	"context"
	"sync"
)

// notifier fans a full snapshot out to subscribers on every change.
//
// Each subscriber channel is buffered with capacity one and written with a
// drop-and-replace policy: a slow consumer never blocks a write and always
// observes the latest snapshot next time it reads. This reproduces the
// push-subscription model where every delivery is authoritative, so no
// incremental patch logic can drift from store truth.
type notifier struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]chan Snapshot
	version uint64
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan Snapshot)}
}

// subscribe registers a consumer. The returned channel delivers full
// snapshots until ctx is done, then closes; the first delivery is the
// current snapshot supplied by the caller.
func (n *notifier) subscribe(ctx context.Context, current Snapshot) <-chan Snapshot {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	ch := make(chan Snapshot, 1)
	n.subs[id] = ch
	current.Version = n.version
	ch <- current
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, id)
		// publish sends only under the mutex and only to channels still
		// in subs, so closing here cannot race a send.
		close(ch)
		n.mu.Unlock()
	}()
	return ch
}

// publish delivers a new snapshot to every subscriber.
func (n *notifier) publish(s Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.version++
	s.Version = n.version
	for _, ch := range n.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

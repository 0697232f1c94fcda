package tree

import (
	"sync"
	"time"

	"github.com/cuemby/driftnote/pkg/types"
)

// DeltaKind is the kind of structural change a Delta reports.
type DeltaKind string

const (
	DeltaAdded    DeltaKind = "added"
	DeltaRemoved  DeltaKind = "removed"
	DeltaMoved    DeltaKind = "moved"
	DeltaModified DeltaKind = "modified"
)

// Delta is a single structural change to the tree, published by Index
// operations so that watchers can react incrementally rather than
// re-scanning the whole tree after every edit.
type Delta struct {
	Kind      DeltaKind
	Path      string
	OldPath   string // set for DeltaMoved
	DocID     types.DocID
	Timestamp time.Time
}

// Watcher is a channel that receives deltas.
type Watcher chan *Delta

// Broker distributes Deltas to subscribed watchers.
type Broker struct {
	mu       sync.RWMutex
	watchers map[Watcher]bool
	deltaCh  chan *Delta
	stopCh   chan struct{}
}

// NewBroker creates a Broker. Call Start to begin distributing deltas.
func NewBroker() *Broker {
	return &Broker{
		watchers: make(map[Watcher]bool),
		deltaCh:  make(chan *Delta, 100),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the broker's distribution loop in a new goroutine.
func (b *Broker) Start() {
	go b.run()
}

// Stop halts distribution. Publish becomes a no-op after Stop returns.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Watch registers a new watcher and returns its channel.
func (b *Broker) Watch() Watcher {
	b.mu.Lock()
	defer b.mu.Unlock()

	w := make(Watcher, 50)
	b.watchers[w] = true
	return w
}

// Unwatch removes and closes a watcher's channel.
func (b *Broker) Unwatch(w Watcher) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.watchers, w)
	close(w)
}

// Publish queues a delta for distribution to all current watchers.
func (b *Broker) Publish(d *Delta) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	select {
	case b.deltaCh <- d:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case d := <-b.deltaCh:
			b.broadcast(d)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(d *Delta) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for w := range b.watchers {
		select {
		case w <- d:
		default:
			// watcher buffer full, drop rather than block the broker
		}
	}
}

// WatcherCount reports the number of active watchers.
func (b *Broker) WatcherCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.watchers)
}

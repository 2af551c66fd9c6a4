package notify

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Observer receives change notifications for an address
type Observer interface {
	Changed(uri string)
}

// ObserverFunc adapts a plain function to Observer
type ObserverFunc func(uri string)

func (f ObserverFunc) Changed(uri string) { f(uri) }

type registration struct {
	id          uint64
	key         string
	observer    Observer
	descendants bool
}

// Notifier fans out change notifications to registered observers.
// Delivery is synchronous: NotifyChange returns after every observer has run.
type Notifier struct {
	mu      sync.RWMutex
	nextID  uint64
	entries map[uint64]registration
	logger  *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		entries: make(map[uint64]registration),
		logger:  logger,
	}
}

// Register attaches observer to uri. An observer on uri is notified when uri
// itself or any of its ancestors changes; with notifyForDescendants it is also
// notified for changes below uri. The returned func detaches it.
func (n *Notifier) Register(uri string, observer Observer, notifyForDescendants bool) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.entries[id] = registration{
		id:          id,
		key:         normalize(uri),
		observer:    observer,
		descendants: notifyForDescendants,
	}
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.entries, id)
			n.mu.Unlock()
		})
	}
}

// NotifyChange delivers a change on uri to every matching observer in registration order.
func (n *Notifier) NotifyChange(ctx context.Context, uri string) {
	key := normalize(uri)

	n.mu.RLock()
	var targets []registration
	for _, r := range n.entries {
		if matches(r, key) {
			targets = append(targets, r)
		}
	}
	n.mu.RUnlock()

	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	n.logger.DebugContext(ctx, "notifying change", "uri", uri, "observers", len(targets))
	for _, r := range targets {
		r.observer.Changed(uri)
	}
}

// Count returns the number of registered observers
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

func matches(r registration, changed string) bool {
	switch {
	case r.key == changed:
		return true
	case strings.HasPrefix(r.key, changed+"/"):
		return true
	case r.descendants && strings.HasPrefix(changed, r.key+"/"):
		return true
	default:
		return false
	}
}

// normalize strips the scheme, query, fragment and trailing slashes
func normalize(uri string) string {
	if _, rest, ok := strings.Cut(uri, "://"); ok {
		uri = rest
	}
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	return strings.TrimRight(uri, "/")
}

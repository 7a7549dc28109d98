// Package notify provides an in-process catalog change bus used to tell
// background workers that tables or indexes were modified.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of catalog change.
type EventType int

const (
	TableCreated EventType = iota
	TableDropped
	SchemaChanged
	IndexCreated
	IndexDropped
	CatalogImported
)

func (t EventType) String() string {
	switch t {
	case TableCreated:
		return "table_created"
	case TableDropped:
		return "table_dropped"
	case SchemaChanged:
		return "schema_changed"
	case IndexCreated:
		return "index_created"
	case IndexDropped:
		return "index_dropped"
	case CatalogImported:
		return "catalog_imported"
	default:
		return "unknown"
	}
}

// Event describes one committed catalog change. Index is empty for table
// level events; Table is empty for CatalogImported.
type Event struct {
	Type      EventType
	Table     string
	Index     string
	Timestamp int64
}

// Notifier is an in-process pub/sub bus for catalog changes.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	bufferSize  int
}

// Subscriber receives events on Ch until it unsubscribes.
type Subscriber struct {
	ID     string
	Tables []string
	Ch     chan Event
}

// NewNotifier creates a new notifier. Each subscriber channel holds up to
// bufferSize undelivered events.
func NewNotifier(bufferSize int) *Notifier {
	return &Notifier{
		subscribers: make(map[string]*Subscriber),
		bufferSize:  bufferSize,
	}
}

// Publish sends an event to every matching subscriber. It never blocks: an
// event is dropped for a subscriber whose channel is full.
func (n *Notifier) Publish(ev Event) {
	if n == nil {
		return
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixNano()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, sub := range n.subscribers {
		if !sub.matches(ev.Table) {
			continue
		}
		select {
		case sub.Ch <- ev:
		default:
		}
	}
}

// Subscribe registers a subscriber for the given tables. No tables means all
// events. An empty id is replaced by a generated one.
func (n *Notifier) Subscribe(id string, tables ...string) *Subscriber {
	if id == "" {
		id = "sub_" + uuid.New().String()
	}
	sub := &Subscriber{
		ID:     id,
		Tables: tables,
		Ch:     make(chan Event, n.bufferSize),
	}

	n.mu.Lock()
	if old, ok := n.subscribers[id]; ok {
		close(old.Ch)
	}
	n.subscribers[id] = sub
	n.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if sub, ok := n.subscribers[id]; ok {
		delete(n.subscribers, id)
		close(sub.Ch)
	}
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}

// matches reports whether the subscriber wants events for table.
// Catalog-wide events (empty table) reach everyone.
func (s *Subscriber) matches(table string) bool {
	if len(s.Tables) == 0 || table == "" {
		return true
	}
	for _, t := range s.Tables {
		if t == table {
			return true
		}
	}
	return false
}

package store

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive updates via channels buffered to 100 messages. Sends
// are non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber.
type MemoryStore struct {
	mu          sync.RWMutex
	reports     map[string]Report
	subscribers map[chan Report]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports:     make(map[string]Report),
		subscribers: make(map[chan Report]struct{}),
	}
}

// Update stores report under its Source and notifies all subscribers.
func (m *MemoryStore) Update(report Report) {
	m.mu.Lock()
	m.reports[report.Source] = report
	m.mu.Unlock()

	m.notifySubscribers(report)
}

// Get returns the latest report for source.
func (m *MemoryStore) Get(source string) (Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[source]
	return r, ok
}

// GetAll returns a copy of all stored reports ordered by Source.
func (m *MemoryStore) GetAll() []Report {
	m.mu.RLock()
	reports := make([]Report, 0, len(m.reports))
	for _, r := range m.reports {
		reports = append(reports, r)
	}
	m.mu.RUnlock()

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Source < reports[j].Source
	})
	return reports
}

// Subscribe creates a new subscription.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Report {
	ch := make(chan Report, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Report) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends report to every subscriber without blocking.
func (m *MemoryStore) notifySubscribers(report Report) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- report:
		default:
			// subscriber is slow, drop the message
		}
	}
}

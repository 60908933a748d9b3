package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// InvoiceLocks serializes mutations per invoice inside one process. Entries
// live only while someone holds or waits for the lock.
type InvoiceLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*invoiceLock
}

type invoiceLock struct {
	mu   sync.Mutex
	refs int
}

// NewInvoiceLocks returns an empty lock table.
func NewInvoiceLocks() *InvoiceLocks {
	return &InvoiceLocks{locks: make(map[uuid.UUID]*invoiceLock)}
}

// Lock blocks until the invoice lock is held and returns its release func.
func (l *InvoiceLocks) Lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &invoiceLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of invoices currently locked or awaited.
func (l *InvoiceLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

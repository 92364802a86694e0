package store

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrOutOfMemory is returned when an insert would push the cached state past
// the configured memory ceiling and the expiry sweep freed nothing.
var ErrOutOfMemory = errors.New("memory limit has been reached")

// ledger accounts the bytes held by the store's caches. A limit of zero
// means unlimited.
type ledger struct {
	mu    sync.Mutex
	limit uint64
	used  uint64
}

func (l *ledger) setLimit(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limit = n
}

func (l *ledger) allocate(n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limit != 0 && l.used+uint64(n) > l.limit {
		return ErrOutOfMemory
	}

	l.used += uint64(n)
	return nil
}

func (l *ledger) release(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if uint64(n) > l.used {
		l.used = 0
		return
	}
	l.used -= uint64(n)
}

func (l *ledger) current() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.used
}

package sessionlock

import (
	"context"
	"sync"
)

// LocalLocker serializes session turns inside a single process with one
// mutex per session id. Suitable for single-instance deployments; use
// RedisLocker when running more than one replica.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sessionLock)}
}

// Acquire blocks until the session lock is held or ctx is done. The lock
// entry is dropped from the map once the last holder releases it.
func (l *LocalLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &sessionLock{ch: make(chan struct{}, 1)}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(sessionID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-entry.ch
			l.unref(sessionID, entry)
		})
	}
	return release, nil
}

func (l *LocalLocker) unref(sessionID string, entry *sessionLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, sessionID)
	}
	l.mu.Unlock()
}

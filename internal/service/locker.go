package service

import (
	"context"
	"sync"
)

// Locker serializes mutating operations per user
type Locker struct {
	mu    sync.Mutex
	users map[string]*userLock
}

// userLock is held while its one-slot channel is full
type userLock struct {
	held chan struct{}
	refs int
}

// NewLocker creates an empty lock table
func NewLocker() *Locker {
	return &Locker{users: make(map[string]*userLock)}
}

// Lock blocks until userID's lock is held or ctx is done, and returns the
// function that releases it. Entries are dropped from the table once no caller
// holds or waits on them.
func (l *Locker) Lock(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	ul, ok := l.users[userID]
	if !ok {
		ul = &userLock{held: make(chan struct{}, 1)}
		l.users[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.held <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, ctx.Err()
	}
	return func() {
		<-ul.held
		l.release(userID, ul)
	}, nil
}

func (l *Locker) release(userID string, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.users, userID)
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}

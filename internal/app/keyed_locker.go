package app

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// TaskLockKey is the lock key serializing every mutation of one task.
func TaskLockKey(taskID string) string { return "task:" + taskID }

// DeviceLockKey is the lock key serializing claims made from one device.
func DeviceLockKey(deviceID string) string { return "device:" + deviceID }

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedLocker provides per-key mutual exclusion inside one process plus a
// global gate for operations that touch every key.
//
// Lock takes the gate shared and then each key in argument order; LockAll
// takes the gate exclusively. Callers must always pass keys in the same
// global order (task before device) to stay deadlock free. Entries are
// reference counted and removed once no holder or waiter remains.
type KeyedLocker struct {
	gate  *rwGate
	locks *xsync.Map[string, *lockEntry]
}

// NewKeyedLocker creates an empty locker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{gate: newRWGate(), locks: xsync.NewMap[string, *lockEntry]()}
}

// Lock acquires the shared gate and then keys in order. Every wait honors
// ctx; on failure everything already taken is released. Duplicate keys are
// taken once.
func (l *KeyedLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	if err := l.gate.rlock(ctx); err != nil {
		return nil, err
	}

	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlockKey(held[i])
		}
		l.gate.runlock()
	}

	for _, key := range keys {
		if contains(held, key) {
			continue
		}
		if err := l.lockKey(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

// LockAll waits for every keyed holder to finish and blocks new ones until
// the returned func is called. Once LockAll is waiting, new Lock calls queue
// behind it. Giving up on ctx lets them proceed.
func (l *KeyedLocker) LockAll(ctx context.Context) (func(), error) {
	if err := l.gate.lock(ctx); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(l.gate.unlock) }, nil
}

// held returns the number of keys currently held or awaited.
func (l *KeyedLocker) held() int {
	return l.locks.Size()
}

func (l *KeyedLocker) lockKey(ctx context.Context, key string) error {
	entry := l.acquireRef(key)
	select {
	case entry.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.releaseRef(key)
		return ctx.Err()
	}
}

func (l *KeyedLocker) unlockKey(key string) {
	if entry, ok := l.locks.Load(key); ok {
		<-entry.sem
	}
	l.releaseRef(key)
}

func (l *KeyedLocker) acquireRef(key string) *lockEntry {
	entry, _ := l.locks.Compute(key, func(old *lockEntry, loaded bool) (*lockEntry, xsync.ComputeOp) {
		if !loaded {
			old = &lockEntry{sem: make(chan struct{}, 1)}
		}
		old.refs++
		return old, xsync.UpdateOp
	})
	return entry
}

func (l *KeyedLocker) releaseRef(key string) {
	l.locks.Compute(key, func(old *lockEntry, loaded bool) (*lockEntry, xsync.ComputeOp) {
		if !loaded {
			return old, xsync.CancelOp
		}
		old.refs--
		if old.refs <= 0 {
			return old, xsync.DeleteOp
		}
		return old, xsync.UpdateOp
	})
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// rwGate is a writer-preferring reader/writer lock whose waits can be
// abandoned through a context. Waiters park on wake, which is closed and
// replaced on every state change.
type rwGate struct {
	mu      sync.Mutex
	readers int
	writer  bool
	queued  int // writers waiting
	wake    chan struct{}
}

func newRWGate() *rwGate {
	return &rwGate{wake: make(chan struct{})}
}

// notify wakes every waiter. Callers hold g.mu.
func (g *rwGate) notify() {
	close(g.wake)
	g.wake = make(chan struct{})
}

// wait parks until the next state change or ctx is done. It is entered and
// left with g.mu held.
func (g *rwGate) wait(ctx context.Context) error {
	wake := g.wake
	g.mu.Unlock()
	defer g.mu.Lock()

	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *rwGate) rlock(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.writer || g.queued > 0 {
		if err := g.wait(ctx); err != nil {
			return err
		}
	}
	g.readers++
	return nil
}

func (g *rwGate) runlock() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.readers--
	if g.readers == 0 {
		g.notify()
	}
}

func (g *rwGate) lock(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.queued++
	for g.writer || g.readers > 0 {
		if err := g.wait(ctx); err != nil {
			g.queued--
			g.notify()
			return err
		}
	}
	g.queued--
	g.writer = true
	return nil
}

func (g *rwGate) unlock() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.writer = false
	g.notify()
}

// Package sync provides synchronization primitives that are safe to use
// before the scheduler is running.
package sync

import "sync/atomic"

// spinAttemptsBeforeYield is the number of failed polls that Acquire performs
// before invoking yieldFn.
const spinAttemptsBeforeYield = 1000

var (
	// yieldFn is invoked by Acquire after spinAttemptsBeforeYield failed
	// polls. It stays nil until context switching is implemented, in
	// which case Acquire keeps spinning.
	yieldFn func()
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available. Spinlocks never suspend the caller which
// makes them usable from early boot and panic paths.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	archAcquireSpinlock(&l.state, spinAttemptsBeforeYield)
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// archAcquireSpinlock spins on state until it manages to swap it from 0 to 1.
// While the lock is held it only performs plain loads so the cache line is not
// bounced between cores by failed swaps.
func archAcquireSpinlock(state *uint32, attemptsBeforeYielding uint32) {
	for attempts := attemptsBeforeYielding; ; {
		if atomic.LoadUint32(state) == 0 && atomic.CompareAndSwapUint32(state, 0, 1) {
			return
		}

		if attempts--; attempts == 0 {
			attempts = attemptsBeforeYielding
			if yieldFn != nil {
				yieldFn()
			}
		}
	}
}

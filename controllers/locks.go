package controllers

import "sync"

// checkoutLocks serializes checkout commits per user. The cart is shared
// mutable state read and cleared by both the COD path and the webhook
// reconciler; without this lock two concurrent commits for the same user
// could both read the cart before either clears it and duplicate orders.
// Locks are keyed by user id hex and live for the life of the process.
type checkoutLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCheckoutLocks() *checkoutLocks {
	return &checkoutLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-user mutex and returns its unlock func.
func (c *checkoutLocks) Lock(userID string) func() {
	c.mu.Lock()
	lock, ok := c.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[userID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

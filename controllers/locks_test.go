package controllers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutLocksSerializeSameUser(t *testing.T) {
	locks := newCheckoutLocks()

	// Two concurrent checkouts for the same user must not overlap: without
	// this, both could read the cart before either clears it and the same
	// cart would be committed twice.
	var inCritical int
	var maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("user-1")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}

func TestCheckoutLocksIndependentUsers(t *testing.T) {
	locks := newCheckoutLocks()

	unlockA := locks.Lock("user-a")
	defer unlockA()

	// A second user's checkout must not wait on the first user's lock.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("user-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different user blocked")
	}
}

func TestCheckoutLockReacquire(t *testing.T) {
	locks := newCheckoutLocks()

	unlock := locks.Lock("user-1")
	unlock()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("user-1")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("released lock could not be reacquired")
	}
}

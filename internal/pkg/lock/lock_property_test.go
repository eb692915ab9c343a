// Property-based tests for per-user settlement serialization.
package lock

import (
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentSettlementSerializationProperty checks that concurrent
// balance mutations on the same user, each holding the user's lock, produce
// the same final balance as sequential execution.
func TestConcurrentSettlementSerializationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(rt, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(rt, "numOps")
		userID := rapid.Int64Range(1, 1000000).Draw(rt, "userID")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(rt, "amount")
			expected += amounts[i]
		}

		ul := NewUserLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				ul.Lock(userID)
				defer ul.Unlock(userID)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			rt.Fatalf("balance mismatch: expected %d, got %d (initial=%d, numOps=%d)",
				expected, balance, initialBalance, numOps)
		}
	})
}

// TestCrossUserParallelismProperty checks that holding one user's lock does
// not block another user's operations.
func TestCrossUserParallelismProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		userA := rapid.Int64Range(1, 1000).Draw(rt, "userA")
		userB := rapid.Int64Range(1001, 2000).Draw(rt, "userB")

		ul := NewUserLock()
		ul.Lock(userA)
		defer ul.Unlock(userA)

		// userB must be acquirable while userA's lock is held.
		if !ul.TryLock(userB) {
			rt.Fatalf("lock on user %d blocked user %d", userA, userB)
		}
		ul.Unlock(userB)

		// userA itself must not be re-acquirable.
		if ul.TryLock(userA) {
			rt.Fatalf("lock on user %d acquired twice", userA)
		}
	})
}

func TestWithLockReleasesOnError(t *testing.T) {
	ul := NewUserLock()

	errSentinel := &testError{}
	err := ul.WithLock(1, func() error { return errSentinel })
	if err != errSentinel {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	// The lock must be free again afterwards.
	if !ul.TryLock(1) {
		t.Fatal("lock not released after WithLock returned an error")
	}
	ul.Unlock(1)
}

type testError struct{}

func (*testError) Error() string { return "boom" }

package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fintrack/internal/domain"
)

func TestAcquireMutualExclusion(t *testing.T) {
	m := NewManager(time.Second)

	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := m.Acquire(context.Background(), "acc-1")
			require.NoError(t, err)
			defer release()

			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestAcquireBusyOnTimeout(t *testing.T) {
	m := NewManager(50 * time.Millisecond)

	release, err := m.Acquire(context.Background(), "acc-1")
	require.NoError(t, err)

	_, err = m.Acquire(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrBusy)

	release()

	// Lock is free again after release.
	release2, err := m.Acquire(context.Background(), "acc-1")
	require.NoError(t, err)
	release2()
}

func TestAcquireOppositeOrdersDoNotDeadlock(t *testing.T) {
	m := NewManager(5 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "acc-a", "acc-b")
			require.NoError(t, err)
			release()
		}()

		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "acc-b", "acc-a")
			require.NoError(t, err)
			release()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("deadlock: lock pairs never completed")
	}
}

func TestAcquirePartialFailureReleasesHeldLocks(t *testing.T) {
	m := NewManager(50 * time.Millisecond)

	// Hold acc-b so that a multi-acquire of {a, b} times out.
	release, err := m.Acquire(context.Background(), "acc-b")
	require.NoError(t, err)

	_, err = m.Acquire(context.Background(), "acc-a", "acc-b")
	require.ErrorIs(t, err, domain.ErrBusy)

	// acc-a must not be leaked by the failed acquire.
	releaseA, err := m.Acquire(context.Background(), "acc-a")
	require.NoError(t, err)
	releaseA()

	release()
}

func TestAcquireCancelledContext(t *testing.T) {
	m := NewManager(5 * time.Second)

	release, err := m.Acquire(context.Background(), "acc-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = m.Acquire(ctx, "acc-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := NewManager(time.Second)

	release, err := m.Acquire(context.Background(), "acc-1")
	require.NoError(t, err)

	release()
	release() // second call must be a no-op

	release2, err := m.Acquire(context.Background(), "acc-1")
	require.NoError(t, err)
	release2()
}

func TestDuplicateIDsCollapse(t *testing.T) {
	m := NewManager(time.Second)

	release, err := m.Acquire(context.Background(), "acc-1", "acc-1", "")
	require.NoError(t, err)
	release()
}

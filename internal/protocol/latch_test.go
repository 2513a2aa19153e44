package protocol

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLatchSignalled(t *testing.T) {
	require := require.New(t)

	l := NewLatch()
	require.Equal(0, l.Count())

	l.Increment()
	require.Equal(1, l.Count())
	require.True(l.Wait(context.Background(), 0))

	l.Decrement()
	require.Equal(0, l.Count())
	require.False(l.Wait(context.Background(), 10*time.Millisecond))
}

func TestLatchStaysSignalledWhilePositive(t *testing.T) {
	require := require.New(t)

	l := NewLatch()
	l.Increment()
	l.Increment()
	l.Decrement()

	require.Equal(1, l.Count())
	require.True(l.Wait(context.Background(), 0))
}

func TestLatchWakesWaiter(t *testing.T) {
	require := require.New(t)

	l := NewLatch()
	woke := make(chan bool, 1)

	go func() {
		woke <- l.Wait(context.Background(), 5*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Increment()

	select {
	case signalled := <-woke:
		require.True(signalled)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by the increment")
	}
}

func TestLatchWaitHonoursCancellation(t *testing.T) {
	require := require.New(t)

	l := NewLatch()
	ctx, cancel := context.WithCancel(context.Background())

	woke := make(chan bool, 1)
	go func() {
		woke <- l.Wait(ctx, 5*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case signalled := <-woke:
		require.False(signalled)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released by cancellation")
	}
}

func TestLatchDoesNotClampBelowZero(t *testing.T) {
	require := require.New(t)

	l := NewLatch()
	l.Decrement()
	require.Equal(-1, l.Count())

	// A single increment from below zero must not signal; the count is still
	// not positive.
	l.Increment()
	require.Equal(0, l.Count())
	require.False(l.Wait(context.Background(), 10*time.Millisecond))

	l.Increment()
	require.True(l.Wait(context.Background(), 0))
}

func TestLatchConcurrentIncrements(t *testing.T) {
	require := require.New(t)

	l := NewLatch()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Increment()
			}
		}()
	}
	wg.Wait()

	require.Equal(800, l.Count())
	for i := 0; i < 800; i++ {
		l.Decrement()
	}
	require.Equal(0, l.Count())
	require.False(l.Wait(context.Background(), 10*time.Millisecond))
}

package protocol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	require := require.New(t)

	q := NewQueue[int]()
	require.Equal(0, q.Len())

	_, ok := q.TryPeek()
	require.False(ok)

	_, ok = q.TryDequeue()
	require.False(ok)

	for i := 0; i < 10; i++ {
		q.Enqueue(i)
	}
	require.Equal(10, q.Len())

	head, ok := q.TryPeek()
	require.True(ok)
	require.Equal(0, head)
	require.Equal(10, q.Len())

	for i := 0; i < 10; i++ {
		item, ok := q.TryDequeue()
		require.True(ok)
		require.Equal(i, item)
	}
	require.Equal(0, q.Len())
}

func TestQueueConcurrentProducers(t *testing.T) {
	require := require.New(t)

	q := NewQueue[int]()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Enqueue(i)
			}
		}()
	}
	wg.Wait()

	require.Equal(800, q.Len())
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	require := require.New(t)

	q := NewQueue[string]()
	q.Enqueue("head")

	for i := 0; i < 3; i++ {
		head, ok := q.TryPeek()
		require.True(ok)
		require.Equal("head", head)
	}

	head, ok := q.TryDequeue()
	require.True(ok)
	require.Equal("head", head)
}

package queue_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagflow/internal/queue"
)

func TestTryPopEmpty(t *testing.T) {
	q := queue.New[int]()
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestPushOrderPreserved(t *testing.T) {
	q := queue.New[int]()
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	for i := 0; i < 5; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestWaitAndPopBlocksUntilPush(t *testing.T) {
	q := queue.New[string]()
	result := make(chan string, 1)
	go func() {
		result <- q.WaitAndPop()
	}()

	select {
	case <-result:
		t.Fatal("WaitAndPop returned before any push")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push("value")
	select {
	case v := <-result:
		assert.Equal(t, "value", v)
	case <-time.After(time.Second):
		t.Fatal("WaitAndPop did not unblock after push")
	}
}

func TestConcurrentProducersConsumers(t *testing.T) {
	q := queue.New[int]()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			q.Push(v)
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		v := q.WaitAndPop()
		seen[v] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, 0, q.Len())
}

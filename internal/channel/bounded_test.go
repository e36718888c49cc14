package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify Bounded implements Channel
var _ Channel[int] = (*Bounded[int])(nil)

func TestBounded_OverflowDropsOldest(t *testing.T) {
	const capacity = 20
	b := NewBounded[int](capacity)

	for i := 0; i < capacity; i++ {
		assert.False(t, b.TryPush(i), "push %d should not evict", i)
	}
	assert.True(t, b.TryPush(capacity), "push beyond capacity should evict")
	assert.Equal(t, capacity, b.Len())
	assert.Equal(t, uint64(1), b.Dropped())

	ctx := context.Background()
	for want := 1; want <= capacity; want++ {
		got, ok := b.PopWithTimeout(ctx, 10*time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Zero(t, b.Len())
}

func TestBounded_PopTimesOutWhenEmpty(t *testing.T) {
	b := NewBounded[string](4)

	start := time.Now()
	got, ok := b.PopWithTimeout(context.Background(), 20*time.Millisecond)

	assert.False(t, ok)
	assert.Empty(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestBounded_PopWakesOnPush(t *testing.T) {
	b := NewBounded[int](4)

	go func() {
		time.Sleep(10 * time.Millisecond)
		b.TryPush(42)
	}()

	got, ok := b.PopWithTimeout(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestBounded_PopHonoursContext(t *testing.T) {
	b := NewBounded[int](4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := b.PopWithTimeout(ctx, time.Minute)
		done <- ok
	}()

	cancel()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("pop did not return after cancellation")
	}
}

func TestBounded_Drain(t *testing.T) {
	b := NewBounded[int](3)
	assert.Empty(t, b.Drain())

	for i := 1; i <= 5; i++ {
		b.TryPush(i)
	}

	assert.Equal(t, []int{3, 4, 5}, b.Drain())
	assert.Zero(t, b.Len())
	assert.Equal(t, uint64(2), b.Dropped())
}

func TestBounded_Close(t *testing.T) {
	b := NewBounded[int](2)
	b.TryPush(1)

	waiting := make(chan bool, 1)
	go func() {
		e := NewBounded[int](1)
		go func() {
			time.Sleep(10 * time.Millisecond)
			e.Close()
		}()
		_, ok := e.PopWithTimeout(context.Background(), time.Minute)
		waiting <- ok
	}()

	b.Close()
	b.Close() // idempotent

	assert.Zero(t, b.Len(), "close discards in-flight items")
	assert.False(t, b.TryPush(2))
	_, ok := b.PopWithTimeout(context.Background(), time.Millisecond)
	assert.False(t, ok)

	select {
	case ok := <-waiting:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("close did not wake waiting consumer")
	}
}

func TestBounded_MinimumCapacity(t *testing.T) {
	b := NewBounded[int](0)
	assert.Equal(t, 1, b.Cap())

	b.TryPush(1)
	b.TryPush(2)
	got, ok := b.PopWithTimeout(context.Background(), time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestBounded_ConcurrentProducersPreserveFIFO(t *testing.T) {
	b := NewBounded[int](1000)

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.TryPush(p*1000 + i)
			}
		}(p)
	}
	wg.Wait()

	items := b.Drain()
	require.Len(t, items, 400)

	// per-producer order must be preserved
	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	for _, v := range items {
		p, i := v/1000, v%1000
		assert.Greater(t, i, last[p])
		last[p] = i
	}
}

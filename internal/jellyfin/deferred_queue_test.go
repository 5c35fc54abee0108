package jellyfin

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferredQueue_AddAndRemove(t *testing.T) {
	q := NewDeferredQueue()
	path := "/tv/Show/Season 01/ep.mkv"

	q.Add(path, DeferredOp{ItemID: "series-1", Reason: "playing"})

	ops := q.GetForPath(path)
	require.Len(t, ops, 1)
	assert.Equal(t, "series-1", ops[0].ItemID)
	assert.False(t, ops[0].DeferredAt.IsZero())

	removed := q.RemoveForPath(path)
	assert.Len(t, removed, 1)
	assert.Empty(t, q.GetForPath(path))
	assert.Nil(t, q.RemoveForPath(path))
}

func TestDeferredQueue_DeduplicatesItems(t *testing.T) {
	q := NewDeferredQueue()
	q.Add("/a.mkv", DeferredOp{ItemID: "1", Reason: "first"})
	q.Add("/a.mkv", DeferredOp{ItemID: "1", Reason: "second"})
	q.Add("/a.mkv", DeferredOp{ItemID: "2"})

	ops := q.GetForPath("/a.mkv")
	require.Len(t, ops, 2)
	assert.Equal(t, 1, ops[0].RetryCount)
	assert.Equal(t, "second", ops[0].Reason)
}

func TestDeferredQueue_IgnoresIncompleteOps(t *testing.T) {
	q := NewDeferredQueue()
	q.Add("", DeferredOp{ItemID: "1"})
	q.Add("/a.mkv", DeferredOp{})
	assert.Equal(t, 0, q.Count())
}

func TestDeferredQueue_Count(t *testing.T) {
	q := NewDeferredQueue()
	q.Add("/a.mkv", DeferredOp{ItemID: "1"})
	q.Add("/a.mkv", DeferredOp{ItemID: "2"})
	q.Add("/b.mkv", DeferredOp{ItemID: "3"})
	assert.Equal(t, 3, q.Count())
	assert.Len(t, q.GetAll(), 2)

	q.RemoveForPath("/a.mkv")
	assert.Equal(t, 1, q.Count())
}

func TestDeferredQueue_ConcurrentAccess(t *testing.T) {
	q := NewDeferredQueue()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := fmt.Sprintf("/p/%d.mkv", i%5)
			q.Add(path, DeferredOp{ItemID: fmt.Sprint(i)})
			_ = q.GetForPath(path)
		}()
	}

	wg.Wait()
	assert.Equal(t, 100, q.Count())
}

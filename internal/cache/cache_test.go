package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLookup(calls *int32) Lookup[string] {
	return func(ctx context.Context, args ...string) (string, error) {
		atomic.AddInt32(calls, 1)
		return "value:" + Key(args...), nil
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "a-b", Key("a", "b"))
	assert.Equal(t, "", Key(""))
	assert.Equal(t, "", Key())
}

func TestKeyed_ExecuteCachesResult(t *testing.T) {
	var calls int32
	c := New("test", countingLookup(&calls))
	ctx := context.Background()

	v1, err := c.Execute(ctx, "folder-1")
	require.NoError(t, err)
	v2, err := c.Execute(ctx, "folder-1")
	require.NoError(t, err)

	assert.Equal(t, "value:folder-1", v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second execute must be served from cache")
	assert.True(t, c.Has("folder-1"))
}

func TestKeyed_DistinctKeys(t *testing.T) {
	var calls int32
	c := New("test", countingLookup(&calls))
	ctx := context.Background()

	_, _ = c.Execute(ctx, "a")
	_, _ = c.Execute(ctx, "b")
	_, _ = c.Execute(ctx, "")

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, c.Len())
}

func TestKeyed_Revalidate(t *testing.T) {
	var calls int32
	c := New("test", countingLookup(&calls))
	ctx := context.Background()

	_, _ = c.Execute(ctx, "a")
	_, _ = c.Execute(ctx, "b")
	c.Revalidate("a")

	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"), "revalidate only drops its own key")

	_, _ = c.Execute(ctx, "a")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestKeyed_Clear(t *testing.T) {
	var calls int32
	c := New("test", countingLookup(&calls))
	ctx := context.Background()

	_, _ = c.Execute(ctx, "a")
	_, _ = c.Execute(ctx, "b")
	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, _ = c.Execute(ctx, "a")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestKeyed_ErrorsAreNotCached(t *testing.T) {
	var calls int32
	boom := errors.New("boom")
	c := New("test", func(ctx context.Context, args ...string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", boom
		}
		return "ok", nil
	})
	ctx := context.Background()

	_, err := c.Execute(ctx, "a")
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.Has("a"))

	v, err := c.Execute(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestKeyed_ConcurrentMissesShareLookup(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	c := New("test", func(ctx context.Context, args ...string) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	})

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Execute(context.Background(), "k")
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// 等待所有 goroutine 进入 lookup 或加入共享调用
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestKeyed_RevalidateDuringLookupDropsStaleResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := New("test", func(ctx context.Context, args ...string) (string, error) {
		close(started)
		<-release
		return "stale", nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := c.Execute(context.Background(), "k")
		assert.NoError(t, err)
		assert.Equal(t, "stale", v)
	}()

	<-started
	c.Revalidate("k")
	close(release)
	<-done

	assert.False(t, c.Has("k"))
}

func TestKeyed_ClearDuringLookupRecomputes(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := New("test", func(ctx context.Context, args ...string) (int32, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			close(started)
			<-release
		}
		return n, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := c.Execute(context.Background(), "k")
		assert.NoError(t, err)
		assert.Equal(t, int32(1), v)
	}()

	<-started
	c.Clear()

	v, err := c.Execute(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)

	close(release)
	<-done

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	cached, err := c.Execute(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, int32(2), cached)
}

// ABOUTME: Tests for the dedupe cache used to suppress repeated fault reports.
// ABOUTME: Validates windows, size limits, eviction, and concurrency safety.

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(ttl time.Duration, size int) (*Cache[string], *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	c := New[string](ttl, size)
	c.now = clock.now
	return c, clock
}

func TestCache_FirstSeenIsNew(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)

	assert.False(t, c.Seen("accept failed: too many open files"))
	assert.True(t, c.Seen("accept failed: too many open files"))
	assert.False(t, c.Seen("something else"))
	assert.Equal(t, 2, c.Len())
}

func TestCache_WindowExpires(t *testing.T) {
	c, clock := newTestCache(time.Second, 10)

	assert.False(t, c.Seen("k"))
	clock.advance(500 * time.Millisecond)
	assert.True(t, c.Seen("k"))

	// Repeats do not extend the window.
	clock.advance(500 * time.Millisecond)
	assert.False(t, c.Seen("k"))
}

func TestCache_EvictsOldest(t *testing.T) {
	c, clock := newTestCache(time.Minute, 2)

	c.Seen("a")
	clock.advance(time.Millisecond)
	c.Seen("b")
	clock.advance(time.Millisecond)
	c.Seen("c")

	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Seen("a"), "oldest key should have been evicted")
}

func TestCache_Forget(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)

	c.Seen("k")
	c.Forget("k")
	c.Forget("never-seen")
	assert.False(t, c.Seen("k"))
}

func TestCache_LenDropsExpired(t *testing.T) {
	c, clock := newTestCache(time.Second, 10)

	c.Seen("a")
	c.Seen("b")
	clock.advance(2 * time.Second)
	assert.Equal(t, 0, c.Len())
}

func TestCache_MinimumSize(t *testing.T) {
	c := New[int](time.Minute, 0)

	assert.False(t, c.Seen(1))
	assert.True(t, c.Seen(1))
	assert.False(t, c.Seen(2))
	assert.Equal(t, 1, c.Len())
}

func TestCache_ConcurrentSeenMarksOnce(t *testing.T) {
	c := New[string](time.Minute, 100)

	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !c.Seen("shared") {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fresh.Load())
}

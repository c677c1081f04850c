package pending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingCoalescing(t *testing.T) {
	c := NewCollection()
	c.Ping()
	c.Ping()

	l, pinged := c.LockAndWait(NoTimeout)
	assert.True(t, pinged)
	l.Unlock()

	l, pinged = c.LockAndWait(10 * time.Millisecond)
	assert.False(t, pinged)
	assert.Equal(t, 0, l.Size())
	l.Unlock()
}

func TestLockAndWaitReturnsForPendingItems(t *testing.T) {
	c := NewCollection()

	l := c.Lock()
	l.Add("/a", t0, ViaNotify)
	l.Unlock()

	l, pinged := c.LockAndWait(NoTimeout)
	assert.True(t, pinged)
	assert.Equal(t, 1, l.Size())

	// 队列非空时每次都视为已唤醒
	l.Unlock()
	l, pinged = c.LockAndWait(time.Millisecond)
	assert.True(t, pinged)
	items := l.StealItems()
	l.Unlock()
	require.Len(t, items, 1)
	assert.Equal(t, "/a", items[0].Path)
}

func TestPingWakesWaiter(t *testing.T) {
	c := NewCollection()

	type result struct {
		pinged bool
		items  []Change
	}
	done := make(chan result, 1)
	started := make(chan struct{})

	go func() {
		close(started)
		l, pinged := c.LockAndWait(NoTimeout)
		items := l.StealItems()
		l.Unlock()
		done <- result{pinged, items}
	}()

	<-started
	l := c.Lock()
	l.Add("/a/b", t0, ViaNotify)
	l.Unlock()
	c.Ping()

	select {
	case r := <-done:
		assert.True(t, r.pinged)
		require.Len(t, r.items, 1)
		assert.Equal(t, "/a/b", r.items[0].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken by ping")
	}
}

func TestQueuePingThroughSharedSignal(t *testing.T) {
	c := NewCollection()

	l := c.Lock()
	l.Ping()
	l.Unlock()

	l, pinged := c.LockAndWait(time.Millisecond)
	assert.True(t, pinged)
	l.Unlock()
}

func TestTimeoutDoesNotConsumeLaterPing(t *testing.T) {
	c := NewCollection()

	l, pinged := c.LockAndWait(5 * time.Millisecond)
	assert.False(t, pinged)
	l.Unlock()

	c.Ping()
	l, pinged = c.LockAndWait(5 * time.Millisecond)
	assert.True(t, pinged)
	l.Unlock()
}

func TestAppendBetweenCollections(t *testing.T) {
	src := NewCollection()
	dst := NewCollection()

	s := src.Lock()
	s.Add("/a/b", t0, ViaNotify)
	s.Add("/a", t1, Recursive)

	d := dst.Lock()
	d.Append(s.Queue)
	assert.Equal(t, 0, s.Size())
	assert.Equal(t, 1, d.Size())
	d.Unlock()
	s.Unlock()
}

package userlock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewClampsNonPositiveShardCount(t *testing.T) {
	tab := New(0)
	assert.Len(t, tab.shards, 1)
	tab2 := New(-5)
	assert.Len(t, tab2.shards, 1)
}

func TestWithLockSerializesSameUser(t *testing.T) {
	tab := New(4)
	var active int32
	var sawOverlap bool
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tab.WithLock("user-1", func() {
				n := atomic.AddInt32(&active, 1)
				if n > 1 {
					mu.Lock()
					sawOverlap = true
					mu.Unlock()
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
			})
		}()
	}
	wg.Wait()
	assert.False(t, sawOverlap, "concurrent WithLock calls for the same user must not overlap")
}

func TestWithLockAllowsDifferentShardsToRunConcurrently(t *testing.T) {
	tab := New(64)
	var wg sync.WaitGroup
	start := make(chan struct{})
	done := make(chan struct{}, 2)

	run := func(user string) {
		defer wg.Done()
		<-start
		tab.WithLock(user, func() {
			time.Sleep(20 * time.Millisecond)
		})
		done <- struct{}{}
	}

	wg.Add(2)
	go run("alpha")
	go run("zeta")
	close(start)

	deadline := time.After(30 * time.Millisecond)
	completed := 0
loop:
	for {
		select {
		case <-done:
			completed++
			if completed == 2 {
				break loop
			}
		case <-deadline:
			break loop
		}
	}
	wg.Wait()
	assert.Equal(t, 2, completed, "locks for different users should not serialize each other")
}

func TestShardForIsStableForSameUser(t *testing.T) {
	tab := New(16)
	a := tab.shardFor("user-42")
	b := tab.shardFor("user-42")
	assert.Same(t, a, b)
}

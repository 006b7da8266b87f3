package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectLocks_PerProject(t *testing.T) {
	locks := newProjectLocks()

	assert.True(t, locks.TryAcquire("a"))
	assert.False(t, locks.TryAcquire("a"))
	assert.True(t, locks.TryAcquire("b"), "projects lock independently")

	locks.Release("a")
	assert.True(t, locks.TryAcquire("a"))
}

func TestProjectLocks_SingleWinnerUnderContention(t *testing.T) {
	locks := newProjectLocks()

	var won int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if locks.TryAcquire("p") {
				atomic.AddInt32(&won, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), won)
}

package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunFlag_StartsRunning(t *testing.T) {
	f := NewRunFlag()
	assert.True(t, f.Running())

	select {
	case <-f.Done():
		t.Fatal("done channel should not be closed")
	default:
	}
}

func TestRunFlag_StopIsMonotonic(t *testing.T) {
	f := NewRunFlag()
	f.Stop()
	f.Stop()

	assert.False(t, f.Running())
	<-f.Done()
}

func TestRunFlag_ConcurrentStop(t *testing.T) {
	f := NewRunFlag()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Stop()
		}()
	}
	wg.Wait()

	assert.False(t, f.Running())
}

package source

import (
	"context"
	"sync"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/domain"
)

const DefaultQueueCapacity = 1024

// Queue is a bounded in-memory FIFO fed by the HTTP intake.
type Queue struct {
	mu       sync.Mutex
	items    []string
	capacity int
}

// NewQueue returns a queue holding at most capacity commands. A non-positive
// capacity means DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{capacity: capacity}
}

// Push appends cmds in order. Either all of them fit or none are queued and
// ErrQueueFull is returned.
func (q *Queue) Push(cmds ...string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items)+len(cmds) > q.capacity {
		return domain.ErrQueueFull
	}
	q.items = append(q.items, cmds...)
	return nil
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Poll(context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", nil
	}
	cmd := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	return cmd, nil
}

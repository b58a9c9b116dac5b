package domain

import "sync"

// RunFlag is the bridge's Running → Stopped switch. It flips once and is
// never reset.
type RunFlag struct {
	once sync.Once
	done chan struct{}
}

func NewRunFlag() *RunFlag {
	return &RunFlag{done: make(chan struct{})}
}

// Stop clears the flag. Later calls are no-ops.
func (f *RunFlag) Stop() {
	f.once.Do(func() { close(f.done) })
}

// Running reports whether Stop has not been called yet.
func (f *RunFlag) Running() bool {
	select {
	case <-f.done:
		return false
	default:
		return true
	}
}

// Done is closed when the flag stops.
func (f *RunFlag) Done() <-chan struct{} {
	return f.done
}

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/dispatch"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/domain"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/source"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns its results in order, then "" forever.
type scriptedSource struct {
	mu      sync.Mutex
	results []pollResult
	polls   int
	polled  chan struct{}
}

type pollResult struct {
	cmd string
	err error
}

func newScriptedSource(results ...pollResult) *scriptedSource {
	return &scriptedSource{results: results, polled: make(chan struct{}, 64)}
}

func (s *scriptedSource) Poll(context.Context) (string, error) {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		select {
		case s.polled <- struct{}{}:
		default:
		}
	}()
	s.polls++
	if len(s.results) == 0 {
		return "", nil
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.cmd, r.err
}

func (s *scriptedSource) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

type recordingDispatcher struct {
	mu   sync.Mutex
	cmds []string
	flag *domain.RunFlag
}

func (d *recordingDispatcher) Dispatch(_ context.Context, cmd string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmds = append(d.cmds, cmd)
	if cmd == "stop" {
		d.flag.Stop()
	}
}

func (d *recordingDispatcher) getCmds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.cmds...)
}

type mockConsole struct {
	mu     sync.Mutex
	sent   []string
	closes int
}

func (m *mockConsole) Send(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	return nil
}

func (m *mockConsole) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func runWithTimeout(t *testing.T, b *Bridge, ctx context.Context) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not stop")
	}
}

func TestBridge_ForwardsUntilEnd(t *testing.T) {
	queue := source.NewQueue(0)
	require.NoError(t, queue.Push("DMX CH|1|2", "show time 4.5", `DMX 1|255\n2|100`, "end", "DMX CH|9|9"))

	flag := domain.NewRunFlag()
	console := &mockConsole{}
	dispatcher := dispatch.NewDispatcher(dispatch.ModePersistent, console, flag, nil)
	b := NewBridge(queue, dispatcher, flag, clockwork.NewRealClock(), time.Millisecond)

	runWithTimeout(t, b, context.Background())

	assert.Equal(t, []string{"CH|1|2", "1|255", "2|100"}, console.sent)
	assert.Equal(t, 1, console.closes)
	assert.False(t, flag.Running())
	// the command after "end" is never polled
	assert.Equal(t, 1, queue.Len())
}

func TestBridge_StopsAfterLightingEnd(t *testing.T) {
	queue := source.NewQueue(0)
	require.NoError(t, queue.Push("DMX end", "DMX CH|1|2"))

	flag := domain.NewRunFlag()
	console := &mockConsole{}
	dispatcher := dispatch.NewDispatcher(dispatch.ModePersistent, console, flag, nil)
	b := NewBridge(queue, dispatcher, flag, clockwork.NewRealClock(), time.Millisecond)

	runWithTimeout(t, b, context.Background())

	assert.Equal(t, []string{"end"}, console.sent)
	assert.Equal(t, 1, queue.Len())
}

func TestBridge_SkipsEmptyPolls(t *testing.T) {
	src := newScriptedSource(pollResult{}, pollResult{}, pollResult{cmd: "a"}, pollResult{}, pollResult{cmd: "stop"})
	flag := domain.NewRunFlag()
	d := &recordingDispatcher{flag: flag}
	b := NewBridge(src, d, flag, clockwork.NewRealClock(), time.Millisecond)

	runWithTimeout(t, b, context.Background())

	assert.Equal(t, []string{"a", "stop"}, d.getCmds())
	assert.Equal(t, 5, src.pollCount())
}

func TestBridge_PollErrorsAreNotFatal(t *testing.T) {
	src := newScriptedSource(pollResult{err: errors.New("redis down")}, pollResult{cmd: "stop"})
	flag := domain.NewRunFlag()
	d := &recordingDispatcher{flag: flag}
	b := NewBridge(src, d, flag, clockwork.NewRealClock(), time.Millisecond)

	runWithTimeout(t, b, context.Background())

	assert.Equal(t, []string{"stop"}, d.getCmds())
}

func TestBridge_StopsOnContextCancel(t *testing.T) {
	src := newScriptedSource()
	flag := domain.NewRunFlag()
	d := &recordingDispatcher{flag: flag}
	b := NewBridge(src, d, flag, clockwork.NewRealClock(), time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	runWithTimeout(t, b, ctx)

	assert.Empty(t, d.getCmds())
	assert.True(t, flag.Running())
}

func TestBridge_ExternalStopEndsLoopAfterTick(t *testing.T) {
	src := newScriptedSource()
	flag := domain.NewRunFlag()
	d := &recordingDispatcher{flag: flag}
	b := NewBridge(src, d, flag, clockwork.NewRealClock(), time.Millisecond)

	flag.Stop()
	runWithTimeout(t, b, context.Background())

	assert.Equal(t, 1, src.pollCount())
}

func TestBridge_PollsOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := newScriptedSource()
	flag := domain.NewRunFlag()
	d := &recordingDispatcher{flag: flag}
	b := NewBridge(src, d, flag, clock, 250*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	waitPolled(t, src)
	assert.Equal(t, 1, src.pollCount())

	clock.Advance(100 * time.Millisecond)
	select {
	case <-src.polled:
		t.Fatal("polled before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(150 * time.Millisecond)
	waitPolled(t, src)
	assert.Equal(t, 2, src.pollCount())

	clock.Advance(250 * time.Millisecond)
	waitPolled(t, src)
	assert.Equal(t, 3, src.pollCount())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not stop")
	}
}

func TestNewBridge_DefaultInterval(t *testing.T) {
	b := NewBridge(newScriptedSource(), &recordingDispatcher{}, domain.NewRunFlag(), clockwork.NewRealClock(), 0)
	require.Equal(t, DefaultPollInterval, b.interval)
}

func waitPolled(t *testing.T, src *scriptedSource) {
	t.Helper()
	select {
	case <-src.polled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll")
	}
}

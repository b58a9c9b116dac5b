package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/domain"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/metrics"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/platform/correlation"
	"github.com/jonboulle/clockwork"
)

const DefaultPollInterval = 250 * time.Millisecond

// Dispatcher handles one non-empty Host command per call.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd string)
}

// Bridge polls the Host for commands on a fixed interval and hands each one
// to the dispatcher until the run flag stops. The source is expected to
// buffer; the loop applies no flow control of its own.
type Bridge struct {
	source     domain.CommandSource
	dispatcher Dispatcher
	flag       *domain.RunFlag
	clock      clockwork.Clock
	interval   time.Duration
}

func NewBridge(source domain.CommandSource, dispatcher Dispatcher, flag *domain.RunFlag, clock clockwork.Clock, interval time.Duration) *Bridge {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Bridge{
		source:     source,
		dispatcher: dispatcher,
		flag:       flag,
		clock:      clock,
		interval:   interval,
	}
}

// Run polls until the run flag stops or ctx is cancelled. The first poll
// happens immediately; later polls follow the interval.
func (b *Bridge) Run(ctx context.Context) {
	ticker := b.clock.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		b.tick(ctx)
		if !b.flag.Running() {
			slog.InfoContext(ctx, "Run flag cleared, poll loop stopping")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}

func (b *Bridge) tick(ctx context.Context) {
	metrics.PollTicksTotal.Inc()

	cmd, err := b.source.Poll(ctx)
	if err != nil {
		metrics.PollErrorsTotal.Inc()
		slog.WarnContext(ctx, "Command poll failed", "error", err)
		return
	}
	if cmd == "" {
		return
	}

	tickCtx := correlation.WithID(ctx, correlation.NewID())
	slog.InfoContext(tickCtx, "Command received", "command", cmd)
	b.dispatcher.Dispatch(tickCtx, cmd)
}

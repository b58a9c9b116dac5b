package console

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
)

// OneShot pays a full connect, send and close round trip for every message.
// It is the legacy dispatch mode; nothing is kept open between sends.
type OneShot struct {
	address string
	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
}

func NewOneShot(address string, opts Options, clock clockwork.Clock, logger *slog.Logger) *OneShot {
	if logger == nil {
		logger = slog.Default()
	}
	return &OneShot{address: address, opts: opts, clock: clock, logger: logger}
}

func (o *OneShot) Send(ctx context.Context, text string) error {
	c := NewClient(o.address, o.opts, o.clock, o.logger)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	return c.Send(ctx, text)
}

// Close has nothing to release.
func (o *OneShot) Close() error { return nil }

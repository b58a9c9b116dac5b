package console

import (
	"context"
	"errors"
	"time"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/domain"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/platform/retry"
)

// Run connects and then keeps the connection up: whenever it drops, or a
// connect or send fails, it waits the reconnect delay and dials again until
// it succeeds. Run returns when ctx is done or the client is closed.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := c.Connect(ctx); err != nil {
		c.logger.Warn("Console connect failed", "error", err)
		c.requestReconnect()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.reconnectCh:
		}

		if err := c.reconnect(ctx); err != nil {
			if errors.Is(err, domain.ErrClientClosed) || ctx.Err() != nil {
				return
			}
			c.logger.Error("Console reconnect gave up", "error", err)
		}
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	if c.State() == domain.StateOpen {
		return nil
	}

	c.logger.Info("Reconnecting to console", "delay", c.reconnectDelay)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(c.reconnectDelay):
	}

	policy := retry.Policy{
		InitialBackoff: c.reconnectDelay,
		Clock:          c.clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.logger.Warn("Console reconnect failed", "attempt", attempt, "retry_in", backoff, "error", err)
		},
	}
	return retry.DoVoid(ctx, policy, classifyConnectError, c.Connect)
}

func classifyConnectError(err error) retry.Action {
	if errors.Is(err, domain.ErrClientClosed) {
		return retry.Stop
	}
	return retry.Retry
}

package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/domain"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/metrics"
)

// Mode selects how lighting commands reach the Console.
type Mode string

const (
	// ModePersistent sends every sub-command on one long-lived connection.
	ModePersistent Mode = "persistent"
	// ModeOneShot sends the raw payload on a fresh connection per command.
	ModeOneShot Mode = "oneshot"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePersistent, ModeOneShot:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown dispatch mode %q (want %q or %q)", s, ModePersistent, ModeOneShot)
	}
}

// Dispatcher turns polled Host strings into Console sends.
type Dispatcher struct {
	mode    Mode
	console domain.Console
	flag    *domain.RunFlag
	logger  *slog.Logger
}

func NewDispatcher(mode Mode, console domain.Console, flag *domain.RunFlag, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		mode:    mode,
		console: console,
		flag:    flag,
		logger:  logger.With("component", "dispatcher", "mode", string(mode)),
	}
}

// Dispatch handles one polled string. Send failures are logged and never
// stop the run; the connection manager owns recovery.
func (d *Dispatcher) Dispatch(ctx context.Context, s string) {
	cmd := d.classify(s)
	metrics.CommandsTotal.WithLabelValues(cmd.Kind.String()).Inc()

	switch cmd.Kind {
	case domain.CommandTerminate:
		d.logger.InfoContext(ctx, "Termination command received", "command", s)
		d.flag.Stop()
		if err := d.console.Close(); err != nil {
			d.logger.WarnContext(ctx, "Failed to close console connection", "error", err)
		}

	case domain.CommandLighting:
		for _, sub := range d.messages(cmd) {
			if err := d.console.Send(ctx, sub); err != nil {
				d.logger.WarnContext(ctx, "Failed to forward lighting command", "command", sub, "error", err)
			}
		}
		// Stopping can cancel the run context, so every segment goes out first.
		if cmd.StopAfter {
			d.logger.InfoContext(ctx, "Lighting stop command forwarded, stopping", "command", s)
			d.flag.Stop()
		}

	default:
		d.logger.DebugContext(ctx, "Ignoring non-lighting command", "command", s)
	}
}

func (d *Dispatcher) classify(s string) domain.Command {
	if d.mode == ModeOneShot {
		return domain.ClassifyOneShot(s)
	}
	return domain.Classify(s)
}

func (d *Dispatcher) messages(cmd domain.Command) []string {
	if d.mode == ModeOneShot {
		return []string{cmd.Payload}
	}
	return cmd.SubCommands()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll loop metrics
var (
	// PollTicksTotal counts poll loop iterations
	PollTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_poll_ticks_total",
			Help: "Total poll loop iterations",
		},
	)

	// PollErrorsTotal counts failed command source polls
	PollErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_poll_errors_total",
			Help: "Total command source poll failures",
		},
	)

	// CommandsTotal counts polled commands by classification
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_commands_total",
			Help: "Polled Host commands by kind (lighting/terminate/ignored)",
		},
		[]string{"kind"},
	)
)

// Console connection metrics
var (
	// ConsoleSendsTotal counts messages written to the Console by status
	ConsoleSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_console_sends_total",
			Help: "Messages sent to the Console by status (success/error)",
		},
		[]string{"status"},
	)

	// ConsoleSendDuration tracks message write latency in seconds
	ConsoleSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_console_send_duration_seconds",
			Help:    "Console message write duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .5, 1, 5},
		},
	)

	// ConsoleConnectAttemptsTotal counts dial attempts by status
	ConsoleConnectAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_console_connect_attempts_total",
			Help: "Console dial attempts by status (success/error)",
		},
		[]string{"status"},
	)

	// ConsoleUnexpectedClosesTotal counts connections dropped without a close request
	ConsoleUnexpectedClosesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_console_unexpected_closes_total",
			Help: "Console connections that closed without an explicit close",
		},
	)

	// ConsoleMessagesReceivedTotal counts messages read from the Console
	ConsoleMessagesReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_console_messages_received_total",
			Help: "Messages received from the Console",
		},
	)

	// ConsoleConnectionState tracks the connection state (0=disconnected, 1=connecting, 2=open, 3=closing, 4=closed)
	ConsoleConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_console_connection_state",
			Help: "Console connection state (0=disconnected, 1=connecting, 2=open, 3=closing, 4=closed)",
		},
	)
)

// Intake metrics
var (
	// CommandsEnqueuedTotal counts commands accepted by the HTTP intake
	CommandsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_commands_enqueued_total",
			Help: "Commands accepted by the HTTP intake",
		},
	)

	// IntakeThrottledTotal counts /commands requests refused by the per-host limiter
	IntakeThrottledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_intake_throttled_total",
			Help: "Command intake requests refused by the per-host rate limit",
		},
	)

	// CommandsRejectedTotal counts commands refused because the queue was full
	CommandsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_commands_rejected_total",
			Help: "Commands refused by the HTTP intake because the queue was full",
		},
	)
)

package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/domain"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	defaultSendTimeout    = 3 * time.Second
	defaultReconnectDelay = 5 * time.Second
	handshakeTimeout      = 10 * time.Second
	closeWriteTimeout     = 1 * time.Second
	closeReason           = "bridge stopped"
)

// Options tunes a Client. Zero values fall back to the defaults.
type Options struct {
	SendTimeout    time.Duration
	ReconnectDelay time.Duration
	// SendRate caps messages per second. Zero leaves sends unthrottled.
	SendRate float64
}

// Client owns the single websocket connection to the Console.
type Client struct {
	address        string
	dialer         *websocket.Dialer
	clock          clockwork.Clock
	logger         *slog.Logger
	sendTimeout    time.Duration
	reconnectDelay time.Duration
	limiter        *rate.Limiter

	mu     sync.Mutex
	conn   *websocket.Conn
	connID uuid.UUID
	state  domain.ConnectionState

	// one writer at a time
	writeMu sync.Mutex

	reconnectCh chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	readers     sync.WaitGroup
}

func NewClient(address string, opts Options, clock clockwork.Clock, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}

	c := &Client{
		address: address,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		clock:          clock,
		logger:         logger.With("component", "console", "address", address),
		sendTimeout:    opts.SendTimeout,
		reconnectDelay: opts.ReconnectDelay,
		state:          domain.StateDisconnected,
		reconnectCh:    make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
	if opts.SendRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.SendRate), 1)
	}
	return c
}

// Address returns the Console endpoint.
func (c *Client) Address() string { return c.address }

// State returns the current connection state.
func (c *Client) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the Console. It is a no-op while a connection is open or
// being dialed, so at most one connection exists.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case domain.StateOpen, domain.StateConnecting:
		c.mu.Unlock()
		return nil
	case domain.StateClosing, domain.StateClosed:
		c.mu.Unlock()
		return &domain.ConnectionError{Address: c.address, Err: domain.ErrClientClosed}
	}
	c.setState(domain.StateConnecting)
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.address, nil) //nolint:bodyclose // gorilla owns the handshake response body

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.state == domain.StateConnecting {
			c.setState(domain.StateDisconnected)
		}
		metrics.ConsoleConnectAttemptsTotal.WithLabelValues("error").Inc()
		return &domain.ConnectionError{Address: c.address, Err: err}
	}

	// Close won the race against the dial.
	if c.state != domain.StateConnecting {
		_ = conn.Close()
		return &domain.ConnectionError{Address: c.address, Err: domain.ErrClientClosed}
	}

	c.conn = conn
	c.connID = uuid.New()
	c.setState(domain.StateOpen)
	metrics.ConsoleConnectAttemptsTotal.WithLabelValues("success").Inc()

	c.readers.Add(1)
	go c.readLoop(conn, c.connID)

	c.logger.Info("Console connection opened", "connection_id", c.connID.String())
	return nil
}

// Send writes text as one websocket text message.
func (c *Client) Send(ctx context.Context, text string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.ConsoleSendsTotal.WithLabelValues("error").Inc()
			return &domain.SendError{Err: err}
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if state != domain.StateOpen || conn == nil {
		metrics.ConsoleSendsTotal.WithLabelValues("error").Inc()
		if state != domain.StateClosing && state != domain.StateClosed {
			c.requestReconnect()
		}
		return &domain.SendError{Err: domain.ErrNotOpen}
	}

	start := c.clock.Now()
	_ = conn.SetWriteDeadline(c.writeDeadline(ctx))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		metrics.ConsoleSendsTotal.WithLabelValues("error").Inc()
		c.drop(conn, err)
		return &domain.SendError{Err: err}
	}

	metrics.ConsoleSendDuration.Observe(c.clock.Since(start).Seconds())
	metrics.ConsoleSendsTotal.WithLabelValues("success").Inc()
	c.logger.DebugContext(ctx, "Console message sent", "command", text)
	return nil
}

// Close sends a close frame and releases the connection. Closing an already
// closed client is not an error.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == domain.StateClosing || c.state == domain.StateClosed {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	id := c.connID
	c.conn = nil
	c.setState(domain.StateClosing)
	c.mu.Unlock()

	c.closeOnce.Do(func() { close(c.done) })

	var err error
	if conn != nil {
		// WriteControl and Close are safe alongside an in-flight WriteMessage.
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReason)
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
		err = conn.Close()
	}
	c.readers.Wait()

	c.mu.Lock()
	c.setState(domain.StateClosed)
	c.mu.Unlock()

	if conn != nil {
		c.logger.Info("Console connection closed", "connection_id", id.String())
	}
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Debug("Console connection close returned error", "error", err)
	}
	return nil
}

// Ready reports whether the connection is open, for readiness probes.
func (c *Client) Ready(context.Context) error {
	if c.State() != domain.StateOpen {
		return domain.ErrNotOpen
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn, id uuid.UUID) {
	defer c.readers.Done()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				c.logger.Info("Console sent close frame", "connection_id", id.String(), "code", closeErr.Code, "reason", closeErr.Text)
			}
			c.drop(conn, err)
			return
		}
		metrics.ConsoleMessagesReceivedTotal.Inc()
		c.logger.Debug("Console message received", "connection_id", id.String(), "message", string(msg))
	}
}

// drop forgets conn after a read or write failure and asks the supervisor to
// reconnect. Failures on a connection that is already replaced or being
// closed on purpose are ignored.
func (c *Client) drop(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn || c.state != domain.StateOpen {
		c.mu.Unlock()
		return
	}
	id := c.connID
	c.conn = nil
	c.setState(domain.StateDisconnected)
	c.mu.Unlock()

	_ = conn.Close()
	metrics.ConsoleUnexpectedClosesTotal.Inc()
	c.logger.Warn("Console connection lost", "connection_id", id.String(), "error", errors.Join(domain.ErrUnexpectedClose, cause))
	c.requestReconnect()
}

func (c *Client) requestReconnect() {
	select {
	case c.reconnectCh <- struct{}{}:
	default:
	}
}

// setState must be called with mu held.
func (c *Client) setState(s domain.ConnectionState) {
	c.state = s
	metrics.ConsoleConnectionState.Set(float64(s))
}

// writeDeadline uses wall-clock time because socket deadlines are absolute.
func (c *Client) writeDeadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.sendTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

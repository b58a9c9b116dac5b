package httpserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/domain"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/metrics"
	"github.com/labstack/echo/v4"
)

// handleEnqueueCommands accepts a text body holding one Host command per
// line. Blank lines are skipped; the two-character "\n" escape inside a
// DMX payload is not a line break and is kept as-is. A batch that does not fit
// in the queue is refused whole with 503.
func (s *Server) handleEnqueueCommands(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body").SetInternal(err)
	}

	var cmds []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		cmds = append(cmds, line)
	}

	if len(cmds) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "request body must contain at least one command")
	}

	if err := s.queue.Push(cmds...); err != nil {
		if errors.Is(err, domain.ErrQueueFull) {
			metrics.CommandsRejectedTotal.Add(float64(len(cmds)))
			slog.WarnContext(c.Request().Context(), "Command queue full, rejecting batch", "count", len(cmds))
			c.Response().Header().Set(echo.HeaderRetryAfter, "1")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "command queue is full")
		}
		return fmt.Errorf("failed to enqueue commands: %w", err)
	}
	metrics.CommandsEnqueuedTotal.Add(float64(len(cmds)))
	slog.InfoContext(c.Request().Context(), "Commands enqueued", "count", len(cmds))

	if err := c.JSON(http.StatusAccepted, map[string]int{"enqueued": len(cmds)}); err != nil {
		return fmt.Errorf("failed to write enqueue response: %w", err)
	}
	return nil
}

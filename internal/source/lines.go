package source

import (
	"bufio"
	"context"
	"io"
	"log/slog"
)

const lineBufferSize = 256

// LineSource reads one Host command per line from r. Lines are buffered by a
// reader goroutine so Poll never blocks; when the buffer is full the reader
// stops consuming and the writer side of the pipe holds the rest.
type LineSource struct {
	lines chan string
}

func NewLineSource(r io.Reader) *LineSource {
	s := &LineSource{lines: make(chan string, lineBufferSize)}
	go s.read(r)
	return s
}

func (s *LineSource) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("Command input read failed", "error", err)
	}
}

func (s *LineSource) Poll(context.Context) (string, error) {
	select {
	case line := <-s.lines:
		return line, nil
	default:
		return "", nil
	}
}

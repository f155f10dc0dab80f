// Package logbus carries log lines from any goroutine to the terminal UI.
//
// A Queue is an io.Writer, so a logger can write straight into it. The UI
// drains it one line at a time through the tea.Cmd returned by Listen.
package logbus

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultCapacity is the queue length used by the CLI.
const DefaultCapacity = 512

// LineMsg is one log line delivered to the UI.
type LineMsg string

// ClosedMsg is delivered once the queue has been closed and drained.
type ClosedMsg struct{}

// Queue is a bounded FIFO of log lines. When it is full, new lines are
// dropped and counted rather than blocking the writer.
type Queue struct {
	mu      sync.Mutex
	lines   chan string
	partial []byte
	closed  bool
	dropped atomic.Int64
}

func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{lines: make(chan string, capacity)}
}

// Write splits p into lines and enqueues each complete one. A trailing
// fragment is held until its newline arrives.
func (q *Queue) Write(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return len(p), nil
	}

	buf := append(q.partial, p...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		q.push(string(buf[:i]))
		buf = buf[i+1:]
	}
	q.partial = append(q.partial[:0], buf...)
	return len(p), nil
}

func (q *Queue) push(line string) {
	select {
	case q.lines <- line:
	default:
		q.dropped.Add(1)
	}
}

// Dropped reports how many lines were discarded because the queue was full.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// Next blocks until a line is available, the queue is closed and empty, or
// ctx is done.
func (q *Queue) Next(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-q.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

// Listen returns a command that waits for the next line. Re-issue it after
// every LineMsg to keep the UI fed.
func (q *Queue) Listen() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-q.lines
		if !ok {
			return ClosedMsg{}
		}
		return LineMsg(line)
	}
}

// Close flushes any partial line and stops accepting writes.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if len(q.partial) > 0 {
		q.push(string(q.partial))
		q.partial = nil
	}
	q.closed = true
	close(q.lines)
}

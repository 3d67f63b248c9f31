package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Phreno/lazymvn-sub002/internal/executor"
)

// Follow copies a process's output to stdout and stderr until the
// terminal message arrives, and returns that message. Cancelling ctx kills
// the process group; the remaining output and the final message are still
// delivered.
func Follow(ctx context.Context, h *executor.Handle, stdout, stderr io.Writer) executor.Message {
	lines := h.Output().Lines()
	done := ctx.Done()
	for {
		select {
		case m, ok := <-lines:
			if !ok {
				return executor.Message{Kind: executor.KindError, Err: errors.New("output closed without a final message")}
			}
			if m.Terminal() {
				return m
			}
			w := stdout
			if m.Stream == executor.Stderr {
				w = stderr
			}
			fmt.Fprintln(w, m.Text)
		case <-done:
			done = nil
			go h.Kill()
		}
	}
}

// LogBuffer is a bounded ring of log lines.
type LogBuffer struct {
	lines    []string
	maxLines int
	mu       sync.RWMutex
}

// NewLogBuffer creates a new log buffer
func NewLogBuffer(maxLines int) *LogBuffer {
	if maxLines <= 0 {
		maxLines = 1
	}
	return &LogBuffer{
		lines:    make([]string, 0, maxLines),
		maxLines: maxLines,
	}
}

// Append adds a line, dropping the oldest when full.
func (lb *LogBuffer) Append(line string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if len(lb.lines) >= lb.maxLines {
		copy(lb.lines, lb.lines[1:])
		lb.lines = lb.lines[:len(lb.lines)-1]
	}
	lb.lines = append(lb.lines, line)
}

// GetAll returns all lines in the buffer
func (lb *LogBuffer) GetAll() []string {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	result := make([]string, len(lb.lines))
	copy(result, lb.lines)
	return result
}

// GetLast returns the last n lines
func (lb *LogBuffer) GetLast(n int) []string {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if n >= len(lb.lines) {
		result := make([]string, len(lb.lines))
		copy(result, lb.lines)
		return result
	}

	start := len(lb.lines) - n
	result := make([]string, n)
	copy(result, lb.lines[start:])
	return result
}

// Clear clears all lines from the buffer
func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.lines = lb.lines[:0]
}

// Len returns the number of lines in the buffer
func (lb *LogBuffer) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.lines)
}

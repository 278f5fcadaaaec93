package vm

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// IO: program output and blocking input
// ---------------------------------------------------------------------------

// IO connects a running program to its host. ReadLine is the only point
// where a run may block; it must return when ctx is done.
type IO interface {
	Write(text string) error
	ReadLine(ctx context.Context) (string, error)
}

// ErrNoInput is returned by ReadLine when no more input exists.
var ErrNoInput = errors.New("vm: no more input")

// BufferIO serves preset input lines and collects output in memory.
type BufferIO struct {
	mu    sync.Mutex
	lines []string
	out   strings.Builder
}

// NewBufferIO creates an IO fed by lines.
func NewBufferIO(lines []string) *BufferIO {
	return &BufferIO{lines: append([]string(nil), lines...)}
}

func (b *BufferIO) Write(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.WriteString(text)
	return nil
}

func (b *BufferIO) ReadLine(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) == 0 {
		return "", ErrNoInput
	}
	line := b.lines[0]
	b.lines = b.lines[1:]
	return line, nil
}

// Output returns everything written.
func (b *BufferIO) Output() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String()
}

// StreamIO reads lines from r and writes output to w, for terminals.
// A single reader goroutine owns r, so a read abandoned on cancellation
// leaves its line for the next ReadLine.
type StreamIO struct {
	r      io.Reader
	w      io.Writer
	prompt func()

	once  sync.Once
	lines chan string
}

// NewStreamIO wraps a reader and writer. prompt, if set, runs before
// each blocking read.
func NewStreamIO(r io.Reader, w io.Writer, prompt func()) *StreamIO {
	return &StreamIO{r: r, w: w, prompt: prompt, lines: make(chan string)}
}

func (s *StreamIO) Write(text string) error {
	_, err := io.WriteString(s.w, text)
	return err
}

// pump feeds lines until r is exhausted, then closes the channel.
func (s *StreamIO) pump() {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
	close(s.lines)
}

func (s *StreamIO) ReadLine(ctx context.Context) (string, error) {
	s.once.Do(func() { go s.pump() })
	if s.prompt != nil {
		s.prompt()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", ErrNoInput
		}
		return line, nil
	}
}

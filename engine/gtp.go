package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultWaitTimeout = 3 * time.Second

var (
	ErrClosed  = errors.New("gtp engine closed")
	ErrTimeout = errors.New("gtp engine timed out")
)

// GTPError is a failure response ("? ...") from the engine.
type GTPError struct {
	Command string
	Message string
}

func (e *GTPError) Error() string {
	return fmt.Sprintf("gtp command %q failed: %s", e.Command, e.Message)
}

type GTPOption func(g *GTP)

// WithWaitTimeout bounds how long Close waits for the process to exit before killing it.
func WithWaitTimeout(timeout time.Duration) GTPOption {
	return func(g *GTP) {
		if timeout > 0 {
			g.waitTimeout = timeout
		}
	}
}

// WithEnv adds environment variables to the subprocess.
func WithEnv(env ...string) GTPOption {
	return func(g *GTP) {
		g.cmd.Env = append(os.Environ(), env...)
	}
}

// GTP drives an engine subprocess speaking the Go Text Protocol. Commands are
// strictly request then response; a background goroutine drains stdout so the
// engine never blocks on a full pipe.
type GTP struct {
	mu          sync.Mutex
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      io.ReadCloser
	lines       chan string
	readDone    chan struct{}
	exited      chan struct{}
	waitTimeout time.Duration
	closeOnce   sync.Once
	closed      bool
	logger      zerolog.Logger
}

// StartGTP starts the command and returns a client for it.
func StartGTP(command []string, options ...GTPOption) (*GTP, error) {
	if len(command) == 0 {
		return nil, errors.New("empty gtp command")
	}

	g := &GTP{
		cmd:         exec.Command(command[0], command[1:]...),
		lines:       make(chan string, 64),
		readDone:    make(chan struct{}),
		exited:      make(chan struct{}),
		waitTimeout: DefaultWaitTimeout,
		logger:      log.With().Str("gtp", command[0]).Logger(),
	}
	for _, option := range options {
		option(g)
	}

	stdin, err := g.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open gtp stdin: %w", err)
	}
	stdout, err := g.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open gtp stdout: %w", err)
	}
	g.cmd.Stderr = g.logger.Level(zerolog.DebugLevel)
	g.stdin = stdin
	g.stdout = stdout

	if err := g.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start gtp engine: %w", err)
	}

	go g.read(stdout)
	go func() {
		// Wait closes stdout, so every line must be read first
		<-g.readDone
		if err := g.cmd.Wait(); err != nil {
			g.logger.Debug().Err(err).Msg("engine exited")
		}
		close(g.exited)
	}()

	return g, nil
}

func (g *GTP) read(stdout io.Reader) {
	defer close(g.readDone)
	defer close(g.lines)

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		g.lines <- strings.TrimRight(scanner.Text(), "\r")
	}
}

// Send writes one command and returns the response text after the "=" marker.
// A "?" response is returned as a *GTPError. If ctx ends before the response
// arrives the process is shut down, since the stream can no longer be trusted.
func (g *GTP) Send(ctx context.Context, command string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return "", ErrClosed
	}

	if _, err := io.WriteString(g.stdin, command+"\n"); err != nil {
		g.closeLocked()
		return "", fmt.Errorf("failed to write gtp command: %w", err)
	}

	var response []string
	failed := false
	for {
		select {
		case <-ctx.Done():
			g.closeLocked()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("failed to read gtp response to %q: %w: %w", command, ErrTimeout, ctx.Err())
			}
			return "", fmt.Errorf("failed to read gtp response to %q: %w", command, ctx.Err())
		case line, ok := <-g.lines:
			if !ok {
				g.closeLocked()
				return "", fmt.Errorf("failed to read gtp response to %q: %w", command, io.ErrUnexpectedEOF)
			}

			if response == nil {
				// Skip anything before the status line
				if !strings.HasPrefix(line, "=") && !strings.HasPrefix(line, "?") {
					continue
				}
				failed = line[0] == '?'
				line = strings.TrimLeft(line[1:], "0123456789")
				response = []string{strings.TrimSpace(line)}
				continue
			}
			if strings.TrimSpace(line) == "" {
				text := strings.TrimSpace(strings.Join(response, "\n"))
				if failed {
					return "", &GTPError{Command: command, Message: text}
				}
				return text, nil
			}
			response = append(response, line)
		}
	}
}

// Close asks the engine to quit, waits a bounded time, then kills it.
func (g *GTP) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.closeLocked()
}

func (g *GTP) closeLocked() error {
	var err error
	g.closeOnce.Do(func() {
		g.closed = true

		_, _ = io.WriteString(g.stdin, "quit\n")
		_ = g.stdin.Close()

		// Unread output must not block the reader
		go func() {
			for range g.lines {
			}
		}()

		select {
		case <-g.exited:
		case <-time.After(g.waitTimeout):
			g.logger.Warn().Msgf("engine did not exit within %s, killing it", g.waitTimeout)
			if killErr := g.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
				err = fmt.Errorf("failed to kill gtp engine: %w", killErr)
			}
			_ = g.stdout.Close()
			<-g.exited
		}
	})
	return err
}

// Exited is closed once the subprocess has terminated.
func (g *GTP) Exited() <-chan struct{} {
	return g.exited
}

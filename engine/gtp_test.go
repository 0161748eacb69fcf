package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test: it is re-executed as a fake GTP engine.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fakeGTP(os.Stdin, os.Stdout)
	os.Exit(0)
}

func fakeGTP(in io.Reader, out io.Writer) {
	move := os.Getenv("FAKE_GTP_MOVE")
	if move == "" {
		move = "D4"
	}
	reject := os.Getenv("FAKE_GTP_REJECT")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch command := fields[0]; {
		case command == reject:
			fmt.Fprint(out, "? illegal move\n\n")
		case command == "quit":
			if os.Getenv("FAKE_GTP_IGNORE_QUIT") == "1" {
				time.Sleep(time.Hour)
			}
			fmt.Fprint(out, "=\n\n")
			return
		case command == "boardsize", command == "komi", command == "clear_board", command == "play":
			fmt.Fprint(out, "=\n\n")
		case command == "genmove":
			fmt.Fprintf(out, "= %s\n\n", move)
		case command == "name":
			fmt.Fprint(out, "= fake\n\n")
		case command == "showboard":
			fmt.Fprint(out, "= \nline1\nline2\n\n")
		case command == "noise":
			fmt.Fprint(out, "loading weights...\n= ok\n\n")
		case command == "farewell":
			fmt.Fprint(out, "= bye\n\n")
			os.Exit(0)
		case command == "hang":
			time.Sleep(time.Hour)
		default:
			fmt.Fprint(out, "? unknown command\n\n")
		}
	}
}

func fakeCommand() []string {
	return []string{os.Args[0], "-test.run=^TestHelperProcess$", "--"}
}

func fakeEnv(env ...string) GTPOption {
	return WithEnv(append([]string{"GO_WANT_HELPER_PROCESS=1"}, env...)...)
}

func startFake(t *testing.T, options ...GTPOption) *GTP {
	t.Helper()
	g, err := StartGTP(fakeCommand(), options...)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func requireExited(t *testing.T, g *GTP) {
	t.Helper()
	select {
	case <-g.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("gtp process still running")
	}
}

func TestGTPSend(t *testing.T) {
	g := startFake(t, fakeEnv())
	ctx := context.Background()

	t.Run("single line response", func(t *testing.T) {
		response, err := g.Send(ctx, "name")
		require.NoError(t, err)
		require.Equal(t, "fake", response)
	})

	t.Run("empty response", func(t *testing.T) {
		response, err := g.Send(ctx, "clear_board")
		require.NoError(t, err)
		require.Empty(t, response)
	})

	t.Run("multi line response", func(t *testing.T) {
		response, err := g.Send(ctx, "showboard")
		require.NoError(t, err)
		require.Equal(t, "line1\nline2", response)
	})

	t.Run("output before the status line is skipped", func(t *testing.T) {
		response, err := g.Send(ctx, "noise")
		require.NoError(t, err)
		require.Equal(t, "ok", response)
	})

	t.Run("failure response", func(t *testing.T) {
		_, err := g.Send(ctx, "bogus")
		var gtpErr *GTPError
		require.True(t, errors.As(err, &gtpErr))
		require.Equal(t, "bogus", gtpErr.Command)
		require.Equal(t, "unknown command", gtpErr.Message)

		response, err := g.Send(ctx, "name")
		require.NoError(t, err, "Should stay in sync after a failure")
		require.Equal(t, "fake", response)
	})

	t.Run("closed client", func(t *testing.T) {
		require.NoError(t, g.Close())
		requireExited(t, g)
		_, err := g.Send(ctx, "name")
		require.ErrorIs(t, err, ErrClosed)
		require.NoError(t, g.Close(), "Close should be idempotent")
	})
}

func TestGTPReadsLastResponseBeforeExit(t *testing.T) {
	for i := 0; i < 10; i++ {
		g := startFake(t, fakeEnv())

		response, err := g.Send(context.Background(), "farewell")
		require.NoError(t, err)
		require.Equal(t, "bye", response)
		requireExited(t, g)

		_, err = g.Send(context.Background(), "name")
		require.Error(t, err)
	}
}

func TestGTPCloseKillsStubbornEngine(t *testing.T) {
	g := startFake(t, fakeEnv("FAKE_GTP_IGNORE_QUIT=1"), WithWaitTimeout(100*time.Millisecond))

	start := time.Now()
	require.NoError(t, g.Close())
	require.Less(t, time.Since(start), 5*time.Second)
	requireExited(t, g)
}

func TestGTPSendCancelled(t *testing.T) {
	g := startFake(t, fakeEnv(), WithWaitTimeout(100*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := g.Send(ctx, "hang")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, ErrTimeout)
	requireExited(t, g)

	_, err = g.Send(context.Background(), "name")
	require.ErrorIs(t, err, ErrClosed)
}

func TestStartGTPFailure(t *testing.T) {
	_, err := StartGTP(nil)
	require.Error(t, err)

	_, err = StartGTP([]string{"/nonexistent/gtp-engine"})
	require.Error(t, err)
}

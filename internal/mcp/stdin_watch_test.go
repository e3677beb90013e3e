package mcp

import (
	"bufio"
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatchStdin_StopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	WatchStdin(ctx, cancel)
	cancel()
	// The goroutine must not panic or block after cancel.
	time.Sleep(50 * time.Millisecond)
}

func TestWatchParent_CancelsOnParentChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pid atomic.Int64
	pid.Store(100)
	watchParent(ctx, cancel, 5*time.Millisecond, func() int { return int(pid.Load()) })
	pid.Store(1)

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not cancel after parent change")
	}
}

func TestWatchStdin_DoesNotConsumeData(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	defer pr.Close()

	WatchStdin(ctx, cancel)
	time.Sleep(50 * time.Millisecond)

	msg := `{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n"
	go func() {
		_, _ = pw.Write([]byte(msg))
		time.Sleep(100 * time.Millisecond)
		pw.Close()
	}()

	scanner := bufio.NewScanner(pr)
	if !scanner.Scan() {
		t.Fatalf("reader got no data; err=%v", scanner.Err())
	}
	if got, want := scanner.Text(), `{"jsonrpc":"2.0","id":1,"method":"initialize"}`; got != want {
		t.Fatalf("reader got corrupted data:\n  got:  %q\n  want: %q", got, want)
	}
}

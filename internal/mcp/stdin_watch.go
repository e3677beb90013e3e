package mcp

import (
	"context"
	"os"
	"time"

	"dealscout/internal/logging"
)

// WatchStdin monitors for parent process death in a background goroutine.
// When the parent PID changes (the MCP client exited), it calls cancelFn so
// the server shuts down instead of lingering as an orphan.
//
// It must not read from stdin: the SDK's StdioTransport owns it.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchStdin(ctx context.Context, cancelFn context.CancelFunc) {
	watchParent(ctx, cancelFn, 2*time.Second, os.Getppid)
}

func watchParent(ctx context.Context, cancelFn context.CancelFunc, every time.Duration, getppid func() int) {
	ppid := getppid()
	log := logging.New("mcp")
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if now := getppid(); now != ppid {
					log.Warn("parent process exited, shutting down", "was_pid", ppid, "now_pid", now)
					cancelFn()
					return
				}
			}
		}
	}()
}
